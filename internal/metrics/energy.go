package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/dynamics"
	"github.com/san-kum/rbdyn/internal/kinematics"
	"github.com/san-kum/rbdyn/internal/multibody"
)

// Conservative is implemented by force elements that store potential energy.
type Conservative interface {
	Energy(m *multibody.Model, q []float64) (float64, error)
}

// Kinetic returns ½·vᵀ·H·v.
func Kinetic(res *dynamics.Result, v []float64) float64 {
	x := mat.NewVecDense(len(v), v)
	return 0.5 * mat.Inner(x, res.H, x)
}

// Potential returns the gravitational energy of every body plus the energy
// stored in conservative force elements, relative to the world origin.
func Potential(m *multibody.Model, q []float64) (float64, error) {
	kin, err := kinematics.Compute(m, q, make([]float64, m.NumVelocities()), false)
	if err != nil {
		return 0, err
	}
	g := m.Gravity()

	var pe float64
	for i := 1; i < m.NumBodies(); i++ {
		mass, com := massAndCOM(m.Body(i).Inertia)
		if mass == 0 {
			continue
		}
		t := kin.Transform(i).Val
		for r := 0; r < 3; r++ {
			p := t.At(r, 3)
			for c := 0; c < 3; c++ {
				p += t.At(r, c) * com[c]
			}
			pe -= mass * g[r] * p
		}
	}

	for _, fe := range m.ForceElements() {
		c, ok := fe.(Conservative)
		if !ok {
			continue
		}
		e, err := c.Energy(m, q)
		if err != nil {
			return 0, fmt.Errorf("energy of %q: %w", fe.Name(), err)
		}
		pe += e
	}
	return pe, nil
}

// massAndCOM reads the mass and body-frame centre of mass back out of a
// spatial inertia [Ic + m·ĉĉᵀ, m·ĉ; m·ĉᵀ, m·1].
func massAndCOM(inertia *mat.Dense) (float64, [3]float64) {
	if inertia == nil {
		return 0, [3]float64{}
	}
	mass := inertia.At(3, 3)
	if mass == 0 {
		return 0, [3]float64{}
	}
	return mass, [3]float64{
		inertia.At(2, 4) / mass,
		inertia.At(0, 5) / mass,
		inertia.At(1, 3) / mass,
	}
}

// Energy is the mean total mechanical energy over observed states.
type Energy struct {
	name        string
	model       *multibody.Model
	samples     int
	totalEnergy float64
	err         error
}

func NewEnergy(m *multibody.Model) *Energy {
	return &Energy{
		name:  "energy",
		model: m,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(q, v []float64, res *dynamics.Result) {
	pe, err := Potential(e.model, q)
	if err != nil {
		e.err = err
		return
	}
	e.totalEnergy += Kinetic(res, v) + pe
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

// Err returns the last error met while observing, if any.
func (e *Energy) Err() error { return e.err }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
	e.err = nil
}
