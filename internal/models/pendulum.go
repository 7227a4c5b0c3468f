package models

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/config"
)

// Pendulum is a point mass on a massless rod swinging about z, with viscous
// damping at the pivot.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    DefaultMass,
		Length:  DefaultLength,
		Damping: 0.1,
		Gravity: DefaultGravity,
	}
}

func (p *Pendulum) Name() string { return "pendulum" }
func (p *Pendulum) Dim() int     { return 1 }

func (p *Pendulum) MassMatrix(q []float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{p.Mass * p.Length * p.Length})
}

func (p *Pendulum) Bias(q, v []float64) []float64 {
	return []float64{p.Mass*p.Gravity*p.Length*math.Sin(q[0]) + p.Damping*v[0]}
}

func (p *Pendulum) GravityTorque(q []float64) []float64 {
	return []float64{p.Mass * p.Gravity * p.Length * math.Sin(q[0])}
}

func (p *Pendulum) KineticEnergy(q, v []float64) float64 {
	return 0.5 * p.Mass * p.Length * p.Length * v[0] * v[0]
}

func (p *Pendulum) PotentialEnergy(q []float64) float64 {
	return -p.Mass * p.Gravity * p.Length * math.Cos(q[0])
}

// Config describes the same pendulum as a mechanism at (q, v).
func (p *Pendulum) Config(q, v []float64) *config.Config {
	cfg := config.PendulumConfig(p.Mass, p.Length, q[0], v[0])
	cfg.Model.Gravity = [3]float64{0, -p.Gravity, 0}
	cfg.Model.Bodies[0].Joint.Damping = p.Damping
	return cfg
}
