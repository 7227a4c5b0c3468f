package multibody

import "gonum.org/v1/gonum/mat"

// ForceElement is an external force model acting on one or more bodies.
//
// Frames names the bodies the element acts on; slot s of every wrench matrix
// refers to Frames()[s]. Several slots may name the same body. The model
// resolves the names once, in Compile.
type ForceElement interface {
	Name() string
	Frames() []string
	// DirectFeedthrough reports whether the element contributes to the input
	// matrix rather than only through wrenches.
	DirectFeedthrough() bool
	SpatialForce(m *Model, q, v []float64) (ForceOutput, error)
}

// DifferentiableForce is implemented by force elements that can report the
// derivatives of their output with respect to x = [q; v].
type DifferentiableForce interface {
	ForceElement
	SpatialForceGradient(m *Model, q, v []float64) (ForceOutput, error)
}

// ForceOutput is the result of evaluating a force element.
//
// Wrench is 6×len(Frames()), one body-frame wrench [τ; f] per slot. Input is
// the nv×nu contribution to the input matrix of a direct-feedthrough element.
// DWrench and DInput are flattened gradient blocks (see tangent.Matrix.Flatten)
// with nq+nv columns; nil means an exact zero.
type ForceOutput struct {
	Wrench  *mat.Dense
	Input   *mat.Dense
	DWrench *mat.Dense
	DInput  *mat.Dense
}
