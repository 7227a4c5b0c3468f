package multibody

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/spatial"
)

const (
	// World is the index of the root body.
	World = 0
	// NoParent is the parent index of the root body.
	NoParent = -1
)

// Body is a node of the kinematic tree. PositionNum and VelocityNum list the
// coordinates of q and v owned by the body's joint. Inertia is the 6×6
// spatial inertia in the body frame.
type Body struct {
	Name        string
	Parent      int
	Joint       Joint
	Inertia     *mat.Dense
	PositionNum []int
	VelocityNum []int
}

// Actuator drives the single coordinate of a body's joint; each actuator is
// one column of the input matrix. Free inputs added with AddInput have Body
// set to World and only reach the dynamics through direct-feedthrough force
// elements.
type Actuator struct {
	Name string
	Body int
	Gear float64
}

// Model is a tree of rigid bodies plus the force elements acting on it. Body
// 0 is the world. Any mutation marks the model dirty until Compile is called
// again; dynamics evaluation refuses dirty models.
type Model struct {
	Name string

	bodies    []*Body
	actuators []Actuator
	forces    []ForceElement
	gravity   [3]float64

	forceTable [][]int
	input      *mat.Dense
	nq, nv     int

	revision uint64
	dirty    bool
}

func New(name string) *Model {
	world := &Body{Name: "world", Parent: NoParent, Inertia: mat.NewDense(6, 6, nil)}
	return &Model{
		Name:    name,
		bodies:  []*Body{world},
		gravity: [3]float64{0, 0, -9.81},
		dirty:   true,
	}
}

// AddBody appends a body attached to parent and assigns its coordinates.
func (m *Model) AddBody(name string, parent int, joint Joint, inertia *mat.Dense) (int, error) {
	if parent < 0 || parent >= len(m.bodies) {
		return 0, fmt.Errorf("%w: body %q has unknown parent %d", ErrInvalidModel, name, parent)
	}
	if _, ok := m.BodyIndex(name); ok {
		return 0, fmt.Errorf("%w: duplicate body %q", ErrInvalidModel, name)
	}
	if inertia == nil {
		inertia = mat.NewDense(6, 6, nil)
	}
	if r, c := inertia.Dims(); r != 6 || c != 6 {
		return 0, fmt.Errorf("%w: inertia of %q is %dx%d", ErrDimensionMismatch, name, r, c)
	}

	b := &Body{Name: name, Parent: parent, Joint: joint, Inertia: mat.DenseCopyOf(inertia)}
	for i := 0; i < joint.Type.NumDOF(); i++ {
		b.PositionNum = append(b.PositionNum, m.nq)
		b.VelocityNum = append(b.VelocityNum, m.nv)
		m.nq++
		m.nv++
	}
	m.bodies = append(m.bodies, b)
	m.touch()
	return len(m.bodies) - 1, nil
}

// AddActuator adds an input column driving body's joint with the given gear ratio.
func (m *Model) AddActuator(name string, body int, gear float64) (int, error) {
	if body <= World || body >= len(m.bodies) {
		return 0, fmt.Errorf("%w: actuator %q on unknown body %d", ErrInvalidModel, name, body)
	}
	if m.bodies[body].Joint.Type.NumDOF() != 1 {
		return 0, fmt.Errorf("%w: actuator %q needs a single-dof joint", ErrInvalidModel, name)
	}
	m.actuators = append(m.actuators, Actuator{Name: name, Body: body, Gear: gear})
	m.touch()
	return len(m.actuators) - 1, nil
}

// AddInput adds an input column that drives no joint.
func (m *Model) AddInput(name string) int {
	m.actuators = append(m.actuators, Actuator{Name: name, Body: World})
	m.touch()
	return len(m.actuators) - 1
}

func (m *Model) AddForceElement(fe ForceElement) {
	m.forces = append(m.forces, fe)
	m.touch()
}

func (m *Model) SetGravity(g [3]float64) {
	m.gravity = g
	m.touch()
}

// SetInertia replaces the body-frame spatial inertia of a body.
func (m *Model) SetInertia(body int, inertia *mat.Dense) error {
	if body <= World || body >= len(m.bodies) {
		return fmt.Errorf("%w: unknown body %d", ErrInvalidModel, body)
	}
	if r, c := inertia.Dims(); r != 6 || c != 6 {
		return fmt.Errorf("%w: inertia is %dx%d", ErrDimensionMismatch, r, c)
	}
	m.bodies[body].Inertia = mat.DenseCopyOf(inertia)
	m.touch()
	return nil
}

// Compile validates the tree and rebuilds the tables derived from it: the
// static input matrix and the local-to-global body table of every force
// element. It clears the dirty flag.
func (m *Model) Compile() error {
	if m.nv == 0 {
		return fmt.Errorf("%w: %q has no velocity coordinates", ErrInvalidModel, m.Name)
	}
	for i, b := range m.bodies[1:] {
		idx := i + 1
		if b.Parent < 0 || b.Parent >= idx {
			return fmt.Errorf("%w: body %q has parent %d after itself", ErrInvalidModel, b.Name, b.Parent)
		}
		if !mat.EqualApprox(b.Inertia, b.Inertia.T(), 1e-12) {
			return fmt.Errorf("%w: inertia of %q is not symmetric", ErrInvalidModel, b.Name)
		}
	}

	m.input = nil
	if len(m.actuators) > 0 {
		m.input = mat.NewDense(m.nv, len(m.actuators), nil)
		for col, a := range m.actuators {
			if a.Body == World {
				continue
			}
			m.input.Set(m.bodies[a.Body].VelocityNum[0], col, a.Gear)
		}
	}

	table := make([][]int, len(m.forces))
	for e, fe := range m.forces {
		frames := fe.Frames()
		table[e] = make([]int, len(frames))
		for s, name := range frames {
			idx, ok := m.BodyIndex(name)
			if !ok {
				return fmt.Errorf("%w: force element %q refers to unknown body %q", ErrInvalidModel, fe.Name(), name)
			}
			if idx == World {
				return fmt.Errorf("%w: force element %q acts on the world body", ErrInvalidModel, fe.Name())
			}
			table[e][s] = idx
		}
	}
	m.forceTable = table
	m.dirty = false
	return nil
}

// Dirty reports whether the model changed since the last successful Compile.
func (m *Model) Dirty() bool { return m.dirty }

// Revision increases with every mutation.
func (m *Model) Revision() uint64 { return m.revision }

func (m *Model) NumBodies() int     { return len(m.bodies) }
func (m *Model) NumPositions() int  { return m.nq }
func (m *Model) NumVelocities() int { return m.nv }
func (m *Model) NumInputs() int     { return len(m.actuators) }
func (m *Model) Gravity() [3]float64 {
	return m.gravity
}

// Body returns body i. The returned value must not be modified.
func (m *Model) Body(i int) *Body { return m.bodies[i] }

func (m *Model) BodyIndex(name string) (int, bool) {
	for i, b := range m.bodies {
		if b.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (m *Model) Actuators() []Actuator { return m.actuators }

// InputMatrix returns the static nv×nu input matrix, or nil when the model has
// no actuators. The returned matrix must not be modified.
func (m *Model) InputMatrix() *mat.Dense { return m.input }

func (m *Model) ForceElements() []ForceElement { return m.forces }

// ForceTable returns the global body index of each local slot of force
// element e.
func (m *Model) ForceTable(e int) []int { return m.forceTable[e] }

// Ancestors returns body i followed by its ancestors, excluding the world.
func (m *Model) Ancestors(i int) []int {
	var out []int
	for j := i; j > World; j = m.bodies[j].Parent {
		out = append(out, j)
	}
	return out
}

// Friction returns the joint friction force for velocity v, and when
// gradients is set its nv×nv derivative with respect to v.
func (m *Model) Friction(v []float64, gradients bool) ([]float64, *mat.Dense) {
	f := make([]float64, m.nv)
	var df *mat.Dense
	if gradients {
		df = mat.NewDense(m.nv, m.nv, nil)
	}
	for _, b := range m.bodies[1:] {
		for _, k := range b.VelocityNum {
			fk, dk := b.Joint.friction(v[k])
			f[k] = fk
			if df != nil {
				df.Set(k, k, dk)
			}
		}
	}
	return f, df
}

// PointMass returns the spatial inertia of a point mass at com; a small
// helper for building models in code.
func PointMass(mass float64, com [3]float64) *mat.Dense {
	return spatial.Inertia(mass, com, nil)
}

func (m *Model) touch() {
	m.revision++
	m.dirty = true
}
