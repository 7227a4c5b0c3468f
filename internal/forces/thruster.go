package forces

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/kinematics"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// Thruster pushes a body along a body-fixed axis through a point, with thrust
// equal to input column Input. It enters the dynamics through B: the column it
// drives is the generalized force of a unit thrust, which depends on q.
type Thruster struct {
	Label string
	Frame string
	Point [3]float64
	Axis  [3]float64
	Input int
}

func (t *Thruster) Name() string            { return t.Label }
func (t *Thruster) Frames() []string        { return []string{t.Frame} }
func (t *Thruster) DirectFeedthrough() bool { return true }

func (t *Thruster) SpatialForce(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	in, err := t.input(m, q, v, false)
	if err != nil {
		return multibody.ForceOutput{}, err
	}
	return multibody.ForceOutput{Wrench: mat.NewDense(6, 1, nil), Input: in.Val}, nil
}

func (t *Thruster) SpatialForceGradient(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	in, err := t.input(m, q, v, true)
	if err != nil {
		return multibody.ForceOutput{}, err
	}
	in = in.Extend(m.NumPositions() + m.NumVelocities())
	return multibody.ForceOutput{Wrench: mat.NewDense(6, 1, nil), Input: in.Val, DInput: in.Flatten()}, nil
}

// UnitWrench returns the body-frame wrench of one unit of thrust.
func (t *Thruster) UnitWrench() *mat.Dense {
	a := spatial.Normalize(t.Axis)
	tau := mat.NewVecDense(3, nil)
	tau.MulVec(spatial.Skew(t.Point[0], t.Point[1], t.Point[2]), mat.NewVecDense(3, a[:]))
	return mat.NewDense(6, 1, []float64{tau.AtVec(0), tau.AtVec(1), tau.AtVec(2), a[0], a[1], a[2]})
}

// input maps the unit wrench to generalized forces: every joint on the path
// from the world to the body receives J_jᵀ·f_world.
func (t *Thruster) input(m *multibody.Model, q, v []float64, gradients bool) (tangent.Matrix, error) {
	body, ok := m.BodyIndex(t.Frame)
	if !ok {
		return tangent.Matrix{}, fmt.Errorf("thruster %q: %w: unknown body %q", t.Label, multibody.ErrInvalidModel, t.Frame)
	}
	nu := m.NumInputs()
	if t.Input < 0 || t.Input >= nu {
		return tangent.Matrix{}, fmt.Errorf("thruster %q: %w: input %d, model has %d", t.Label, multibody.ErrDimensionMismatch, t.Input, nu)
	}
	kin, err := kinematics.Compute(m, q, v, gradients)
	if err != nil {
		return tangent.Matrix{}, fmt.Errorf("thruster %q: %w", t.Label, err)
	}

	n := 0
	if gradients {
		n = m.NumPositions()
	}
	f := spatial.TransformWrench(kin.Transform(body), tangent.Const(t.UnitWrench(), n))
	out := tangent.Zeros(m.NumVelocities(), nu, n)
	for _, j := range m.Ancestors(body) {
		if cols := m.Body(j).VelocityNum; len(cols) > 0 {
			out.SetSub(cols, []int{t.Input}, tangent.Mul(kin.Jacobian(j).T(), f))
		}
	}
	return out, nil
}
