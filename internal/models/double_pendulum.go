package models

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/config"
)

const (
	DefaultMass    = 1.0
	DefaultLength  = 1.0
	DefaultGravity = 9.81
)

// DoublePendulum is two point masses on massless rods. q[1] is measured
// relative to the first link.
type DoublePendulum struct {
	M1, M2  float64
	L1, L2  float64
	Gravity float64
}

func NewDoublePendulum() *DoublePendulum {
	return &DoublePendulum{
		M1: DefaultMass, M2: DefaultMass,
		L1: DefaultLength, L2: DefaultLength,
		Gravity: DefaultGravity,
	}
}

func (d *DoublePendulum) Name() string { return "double_pendulum" }
func (d *DoublePendulum) Dim() int     { return 2 }

func (d *DoublePendulum) MassMatrix(q []float64) *mat.Dense {
	m1, m2, l1, l2 := d.M1, d.M2, d.L1, d.L2
	c2 := math.Cos(q[1])

	h11 := m1*l1*l1 + m2*(l1*l1+l2*l2+2*l1*l2*c2)
	h12 := m2 * (l2*l2 + l1*l2*c2)
	h22 := m2 * l2 * l2
	return mat.NewDense(2, 2, []float64{h11, h12, h12, h22})
}

func (d *DoublePendulum) Bias(q, v []float64) []float64 {
	m2, l1, l2 := d.M2, d.L1, d.L2
	s2 := math.Sin(q[1])
	w1, w2 := v[0], v[1]

	g := d.GravityTorque(q)
	return []float64{
		g[0] - m2*l1*l2*s2*(2*w1*w2+w2*w2),
		g[1] + m2*l1*l2*s2*w1*w1,
	}
}

func (d *DoublePendulum) GravityTorque(q []float64) []float64 {
	m1, m2, l1, l2, g := d.M1, d.M2, d.L1, d.L2, d.Gravity
	s1, s12 := math.Sin(q[0]), math.Sin(q[0]+q[1])
	return []float64{
		(m1+m2)*g*l1*s1 + m2*g*l2*s12,
		m2 * g * l2 * s12,
	}
}

func (d *DoublePendulum) KineticEnergy(q, v []float64) float64 {
	h := d.MassMatrix(q)
	x := mat.NewVecDense(2, v)
	var hv mat.VecDense
	hv.MulVec(h, x)
	return 0.5 * mat.Dot(x, &hv)
}

func (d *DoublePendulum) PotentialEnergy(q []float64) float64 {
	y1 := -d.L1 * math.Cos(q[0])
	y2 := y1 - d.L2*math.Cos(q[0]+q[1])
	return d.Gravity * (d.M1*y1 + d.M2*y2)
}

func (d *DoublePendulum) Config(q, v []float64) *config.Config {
	cfg := config.DoublePendulumConfig(d.M1, d.M2, d.L1, d.L2, [2]float64{q[0], q[1]}, [2]float64{v[0], v[1]})
	cfg.Model.Gravity = [3]float64{0, -d.Gravity, 0}
	return cfg
}
