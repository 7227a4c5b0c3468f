package spatial

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/tangent"
)

// AdjointPair is Adjoint with derivatives. Ad(T) is bilinear in (R, p), so
// dAd = [dR 0; dp^·R + p^·dR dR].
func AdjointPair(t tangent.Matrix) tangent.Matrix {
	r, p := split(t.Val)
	ph := Skew(p[0], p[1], p[2])
	out := tangent.Matrix{Val: Adjoint(t.Val), D: make([]*mat.Dense, len(t.D))}
	for k, d := range t.D {
		if d == nil {
			continue
		}
		dr, dp := split(d)
		var a, b mat.Dense
		a.Mul(Skew(dp[0], dp[1], dp[2]), r)
		b.Mul(ph, dr)
		a.Add(&a, &b)
		out.D[k] = assemble(dr, &a)
	}
	return out
}

// InverseAdjointPair is InverseAdjoint with derivatives:
// d[Rᵀ 0; -Rᵀp^ Rᵀ] = [dRᵀ 0; -(dRᵀp^ + Rᵀdp^) dRᵀ].
func InverseAdjointPair(t tangent.Matrix) tangent.Matrix {
	r, p := split(t.Val)
	ph := Skew(p[0], p[1], p[2])
	out := tangent.Matrix{Val: InverseAdjoint(t.Val), D: make([]*mat.Dense, len(t.D))}
	for k, d := range t.D {
		if d == nil {
			continue
		}
		dr, dp := split(d)
		drt := mat.DenseCopyOf(dr.T())
		var a, b mat.Dense
		a.Mul(drt, ph)
		b.Mul(r.T(), Skew(dp[0], dp[1], dp[2]))
		a.Add(&a, &b)
		a.Scale(-1, &a)
		out.D[k] = assemble(drt, &a)
	}
	return out
}

// CrmPair is Crm with derivatives; crm is linear in its argument.
func CrmPair(v tangent.Matrix) tangent.Matrix {
	return tangent.Linear(v, func(m *mat.Dense) *mat.Dense { return Crm(m) })
}

// CrfPair is Crf with derivatives.
func CrfPair(v tangent.Matrix) tangent.Matrix {
	return tangent.Linear(v, func(m *mat.Dense) *mat.Dense { return Crf(m) })
}

// TransformInertia rotates a body-frame spatial inertia into the frame of the
// pair t: Xᵀ·I·X with X = Ad(t⁻¹).
func TransformInertia(t tangent.Matrix, inertia *mat.Dense) tangent.Matrix {
	x := InverseAdjointPair(t)
	return tangent.Mul(tangent.Mul(x.T(), tangent.Const(inertia, 0)), x)
}

// TransformWrench maps a body-frame wrench pair to the world frame of t:
// Ad(t⁻¹)ᵀ·f.
func TransformWrench(t tangent.Matrix, f tangent.Matrix) tangent.Matrix {
	return tangent.Mul(InverseAdjointPair(t).T(), f)
}
