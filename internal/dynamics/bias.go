package dynamics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// biasForces runs recursive Newton-Euler with zero joint accelerations and
// returns C as an nv×1 pair over x = [q; v].
//
// Outward pass: net_i = I_i·a_i + twist_i ×* (I_i·twist_i) − f_ext,i with
// a_i = [0; −g] + J̇v_i. Inward pass: C[velocity_num(i)] = J_iᵀ·net_i and
// net_parent += net_i. Joint friction is added last.
func biasForces(m *multibody.Model, kin Kinematics, inertias []tangent.Matrix, ext *External, v []float64, n int) tangent.Matrix {
	nb, nq, nv := m.NumBodies(), m.NumPositions(), m.NumVelocities()
	g := m.Gravity()
	root := tangent.Const(mat.NewDense(6, 1, []float64{0, 0, 0, -g[0], -g[1], -g[2]}), n)

	net := make([]tangent.Matrix, nb)
	for i := 1; i < nb; i++ {
		var dtv, dbv *mat.Dense
		if n > 0 {
			dtv = twistVelocityJacobian(m, kin, i)
			dbv = kin.JacobianDotTimesVGradientWrtV(i)
		}
		twist := withVelocityColumns(kin.Twist(i), dtv, nq, n)
		accel := tangent.Add(root, withVelocityColumns(kin.JacobianDotTimesV(i), dbv, nq, n))

		momentum := tangent.Mul(inertias[i], twist)
		w := tangent.Add(tangent.Mul(inertias[i], accel), tangent.Mul(spatial.CrfPair(twist), momentum))
		if f := ext.Wrenches[i]; f.Val != nil {
			w = tangent.Sub(w, spatial.TransformWrench(kin.Transform(i).Extend(n), f))
		}
		net[i] = w
	}

	c := tangent.Zeros(nv, 1, n)
	col := []int{0}
	for i := nb - 1; i >= 1; i-- {
		bi := m.Body(i)
		if len(bi.VelocityNum) > 0 {
			c.SetSub(bi.VelocityNum, col, tangent.Mul(kin.Jacobian(i).Extend(n).T(), net[i]))
		}
		if bi.Parent != multibody.World {
			if net[bi.Parent].Val == nil {
				net[bi.Parent] = net[i]
			} else {
				net[bi.Parent] = tangent.Add(net[bi.Parent], net[i])
			}
		}
	}

	friction, df := m.Friction(v, n > 0)
	for k, f := range friction {
		c.Val.Set(k, 0, c.Val.At(k, 0)+f)
		if n > 0 {
			c.AddPartial(nq+k, k, 0, df.At(k, k))
		}
	}
	return c
}
