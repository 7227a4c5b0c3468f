package dynamics

import (
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// massMatrix assembles H with the composite-rigid-body algorithm. Blocks of
// bodies with no ancestor relation are never written and stay zero. No input
// to H depends on v, so ∂H/∂v stays nil.
func massMatrix(m *multibody.Model, kin Kinematics, composite []tangent.Matrix, n int) tangent.Matrix {
	nv := m.NumVelocities()
	h := tangent.Zeros(nv, nv, n)
	for i := 1; i < m.NumBodies(); i++ {
		bi := m.Body(i)
		if len(bi.VelocityNum) == 0 {
			continue
		}
		ji := kin.Jacobian(i).Extend(n)
		f := tangent.Mul(composite[i], ji)
		h.SetSub(bi.VelocityNum, bi.VelocityNum, tangent.Mul(ji.T(), f))

		for j := bi.Parent; j != multibody.World; j = m.Body(j).Parent {
			bj := m.Body(j)
			if len(bj.VelocityNum) == 0 {
				continue
			}
			hji := tangent.Mul(kin.Jacobian(j).Extend(n).T(), f)
			h.SetSub(bj.VelocityNum, bi.VelocityNum, hji)
			h.SetSub(bi.VelocityNum, bj.VelocityNum, hji.T())
		}
	}
	return h
}
