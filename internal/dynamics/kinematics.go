package dynamics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// Kinematics is the per-body kinematics the analytic pipeline consumes.
// Pairs carry derivatives with respect to q when the cache was built with
// gradients.
type Kinematics interface {
	Revision() uint64
	Transform(body int) tangent.Matrix
	Jacobian(body int) tangent.Matrix
	Twist(body int) tangent.Matrix
	JacobianDotTimesV(body int) tangent.Matrix
	JacobianDotTimesVGradientWrtV(body int) *mat.Dense
}

// IsCacheCurrent reports whether kin was computed from the current state of m.
func IsCacheCurrent(m *multibody.Model, kin Kinematics) bool {
	return !m.Dirty() && kin.Revision() == m.Revision()
}

// twistVelocityJacobian rebuilds ∂twist_i/∂v from the Jacobians of body i
// and its ancestors: column k is the Jacobian column owning coordinate k.
func twistVelocityJacobian(m *multibody.Model, kin Kinematics, i int) *mat.Dense {
	out := mat.NewDense(6, m.NumVelocities(), nil)
	for _, j := range m.Ancestors(i) {
		jac := kin.Jacobian(j).Val
		for col, k := range m.Body(j).VelocityNum {
			for r := 0; r < 6; r++ {
				out.Set(r, k, jac.At(r, col))
			}
		}
	}
	return out
}

// withVelocityColumns extends a q-derivative pair of a 6×1 quantity to x =
// [q; v] using dv (6×nv) for the velocity columns. Zero columns stay nil.
func withVelocityColumns(a tangent.Matrix, dv *mat.Dense, nq, n int) tangent.Matrix {
	out := a.Extend(n)
	if n == 0 || dv == nil {
		return out
	}
	_, nv := dv.Dims()
	for k := 0; k < nv; k++ {
		col := mat.DenseCopyOf(dv.Slice(0, 6, k, k+1))
		if mat.Norm(col, 1) == 0 {
			continue
		}
		out.D[nq+k] = col
	}
	return out
}
