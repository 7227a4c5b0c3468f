package forces

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/multibody"
)

// BodyWrench applies a constant wrench [τ; f] expressed in a body's frame.
type BodyWrench struct {
	Label  string
	Frame  string
	Wrench [6]float64
}

func NewBodyWrench(label, frame string, torque, force [3]float64) *BodyWrench {
	return &BodyWrench{
		Label:  label,
		Frame:  frame,
		Wrench: [6]float64{torque[0], torque[1], torque[2], force[0], force[1], force[2]},
	}
}

func (w *BodyWrench) Name() string            { return w.Label }
func (w *BodyWrench) Frames() []string        { return []string{w.Frame} }
func (w *BodyWrench) DirectFeedthrough() bool { return false }

func (w *BodyWrench) SpatialForce(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	return multibody.ForceOutput{Wrench: mat.NewDense(6, 1, append([]float64(nil), w.Wrench[:]...))}, nil
}

// SpatialForceGradient returns the same wrench; it depends on neither q nor v.
func (w *BodyWrench) SpatialForceGradient(m *multibody.Model, q, v []float64) (multibody.ForceOutput, error) {
	return w.SpatialForce(m, q, v)
}
