package forces

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/kinematics"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// Spring is a linear spring between a point fixed on a body and an anchor
// fixed in the world. The force on the body is −k·(|d| − L)·d/|d| with
// d = p − anchor; a spring of zero length exerts no force.
type Spring struct {
	Label      string
	Frame      string
	Point      [3]float64
	Anchor     [3]float64
	Stiffness  float64
	RestLength float64
}

func (s *Spring) Name() string            { return s.Label }
func (s *Spring) Frames() []string        { return []string{s.Frame} }
func (s *Spring) DirectFeedthrough() bool { return false }

func (s *Spring) SpatialForce(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	w, err := s.wrench(m, q, false)
	if err != nil {
		return multibody.ForceOutput{}, err
	}
	return multibody.ForceOutput{Wrench: w.Val}, nil
}

func (s *Spring) SpatialForceGradient(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	w, err := s.wrench(m, q, true)
	if err != nil {
		return multibody.ForceOutput{}, err
	}
	w = w.Extend(m.NumPositions() + m.NumVelocities())
	return multibody.ForceOutput{Wrench: w.Val, DWrench: w.Flatten()}, nil
}

func (s *Spring) wrench(m *multibody.Model, q []float64, gradients bool) (tangent.Matrix, error) {
	body, ok := m.BodyIndex(s.Frame)
	if !ok {
		return tangent.Matrix{}, fmt.Errorf("spring %q: %w: unknown body %q", s.Label, multibody.ErrInvalidModel, s.Frame)
	}
	t, err := kinematics.ForwardTransform(m, q, body, gradients)
	if err != nil {
		return tangent.Matrix{}, fmt.Errorf("spring %q: %w", s.Label, err)
	}
	n := t.N()

	r := t.Slice(0, 3, 0, 3)
	point := tangent.Const(mat.NewDense(3, 1, s.Point[:]), n)
	p := tangent.Add(tangent.Mul(r, point), t.Slice(0, 3, 3, 4))
	d := tangent.Sub(p, tangent.Const(mat.NewDense(3, 1, s.Anchor[:]), n))

	length := mat.Norm(d.Val, 2)
	if length == 0 {
		return tangent.Zeros(6, 1, n), nil
	}

	// scale = 1 − L/|d|, ∂scale = L·dᵀ∂d/|d|³
	scale := tangent.Zeros(1, 1, n)
	scale.Val.Set(0, 0, 1-s.RestLength/length)
	for k, dk := range d.D {
		if dk == nil {
			continue
		}
		scale.AddPartial(k, 0, 0, s.RestLength*mat.Dot(d.Val.ColView(0), dk.ColView(0))/(length*length*length))
	}

	fw := tangent.Scale(-s.Stiffness, tangent.Mul(d, scale))
	fb := tangent.Mul(r.T(), fw)
	tb := tangent.Mul(tangent.Const(spatial.Skew(s.Point[0], s.Point[1], s.Point[2]), n), fb)
	return tangent.Stack(tb, fb), nil
}

// Energy returns the potential energy stored in the spring at q.
func (s *Spring) Energy(m *multibody.Model, q []float64) (float64, error) {
	body, ok := m.BodyIndex(s.Frame)
	if !ok {
		return 0, fmt.Errorf("spring %q: %w: unknown body %q", s.Label, multibody.ErrInvalidModel, s.Frame)
	}
	t, err := kinematics.ForwardTransform(m, q, body, false)
	if err != nil {
		return 0, err
	}
	var d [3]float64
	for i := 0; i < 3; i++ {
		d[i] = t.Val.At(i, 3) - s.Anchor[i]
		for j := 0; j < 3; j++ {
			d[i] += t.Val.At(i, j) * s.Point[j]
		}
	}
	stretch := math.Sqrt(d[0]*d[0]+d[1]*d[1]+d[2]*d[2]) - s.RestLength
	return 0.5 * s.Stiffness * stretch * stretch, nil
}
