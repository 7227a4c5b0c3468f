package dynamics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// External is the aggregated effect of a model's force elements at one state.
//
// Wrenches holds one body-frame wrench pair (6×1) per body; a nil Val means no
// element acts on that body. Input is the nv×nu input matrix, the static
// actuator matrix plus every direct-feedthrough contribution; its Val is nil
// when the model has no inputs.
type External struct {
	Wrenches []tangent.Matrix
	Input    tangent.Matrix
}

// AggregateExternal evaluates every force element of m at (q, v) and sums the
// results per body through the force table built by Compile. With gradients,
// derivatives are taken with respect to x = [q; v] and every element must
// implement multibody.DifferentiableForce.
func AggregateExternal(m *multibody.Model, q, v []float64, gradients bool) (*External, error) {
	nb, nq, nv, nu := m.NumBodies(), m.NumPositions(), m.NumVelocities(), m.NumInputs()
	n := 0
	if gradients {
		n = nq + nv
	}

	ext := &External{Wrenches: make([]tangent.Matrix, nb)}
	if nu > 0 {
		ext.Input = tangent.Const(mat.DenseCopyOf(m.InputMatrix()), n)
	}

	for e, fe := range m.ForceElements() {
		table := m.ForceTable(e)
		out, err := evaluateElement(m, fe, q, v, gradients)
		if err != nil {
			return nil, &multibody.StageError{Stage: "external forces", Body: -1, Wrapped: err}
		}

		if out.Wrench == nil {
			return nil, elementShapeError(fe, "wrench is missing")
		}
		if r, c := out.Wrench.Dims(); r != 6 || c != len(table) {
			return nil, elementShapeError(fe, fmt.Sprintf("wrench is %dx%d, want 6x%d", r, c, len(table)))
		}
		var dw *mat.Dense
		if gradients {
			dw = out.DWrench
		}
		w, err := tangent.FromFlat(out.Wrench, dw, n)
		if err != nil {
			return nil, elementShapeError(fe, err.Error())
		}
		for s, body := range table {
			slot := w.Slice(0, 6, s, s+1)
			if ext.Wrenches[body].Val == nil {
				ext.Wrenches[body] = slot
			} else {
				ext.Wrenches[body] = tangent.Add(ext.Wrenches[body], slot)
			}
		}

		if !fe.DirectFeedthrough() || out.Input == nil {
			continue
		}
		if r, c := out.Input.Dims(); nu == 0 || r != nv || c != nu {
			return nil, elementShapeError(fe, fmt.Sprintf("input contribution is %dx%d, want %dx%d", r, c, nv, nu))
		}
		var di *mat.Dense
		if gradients {
			di = out.DInput
		}
		in, err := tangent.FromFlat(out.Input, di, n)
		if err != nil {
			return nil, elementShapeError(fe, err.Error())
		}
		ext.Input = tangent.Add(ext.Input, in)
	}
	return ext, nil
}

// forces converts the aggregated wrenches to the dense form native kernels
// take: values and, with gradients, 6×(nq+nv) derivative blocks.
func (e *External) forces(gradients bool) (fExt, dfExt []*mat.Dense) {
	fExt = make([]*mat.Dense, len(e.Wrenches))
	if gradients {
		dfExt = make([]*mat.Dense, len(e.Wrenches))
	}
	for i, w := range e.Wrenches {
		if w.Val == nil {
			continue
		}
		fExt[i] = w.Val
		if gradients {
			dfExt[i] = w.Flatten()
		}
	}
	return fExt, dfExt
}

func evaluateElement(m *multibody.Model, fe multibody.ForceElement, q, v []float64, gradients bool) (multibody.ForceOutput, error) {
	if !gradients {
		return fe.SpatialForce(m, q, v)
	}
	df, ok := fe.(multibody.DifferentiableForce)
	if !ok {
		return multibody.ForceOutput{}, fmt.Errorf("%w: %q", multibody.ErrMissingCapability, fe.Name())
	}
	return df.SpatialForceGradient(m, q, v)
}

func elementShapeError(fe multibody.ForceElement, detail string) error {
	return &multibody.StageError{
		Stage:   "external forces",
		Body:    -1,
		Wrapped: fmt.Errorf("%w: force element %q: %s", multibody.ErrDimensionMismatch, fe.Name(), detail),
	}
}
