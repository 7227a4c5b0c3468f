package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// Cache holds the world-frame kinematics of every body for one (q, v). Pairs
// returned by the accessors carry derivatives with respect to q only, and
// only when the cache was built with gradients.
type Cache struct {
	revision uint64

	transforms []tangent.Matrix
	jacobians  []tangent.Matrix
	twists     []tangent.Matrix
	biases     []tangent.Matrix
	biasDv     []*mat.Dense
}

// Compute evaluates forward kinematics of m at (q, v).
//
// Internally every quantity is differentiated against x = [q; v]; the
// accessors split that into the q-derivatives and ∂(J̇v)/∂v.
func Compute(m *multibody.Model, q, v []float64, gradients bool) (*Cache, error) {
	if m.Dirty() {
		return nil, fmt.Errorf("kinematics: %w", multibody.ErrStaleState)
	}
	nq, nv := m.NumPositions(), m.NumVelocities()
	if len(q) != nq || len(v) != nv {
		return nil, fmt.Errorf("kinematics: %w: q has %d entries, v has %d, want %d and %d",
			multibody.ErrDimensionMismatch, len(q), len(v), nq, nv)
	}

	n := 0
	if gradients {
		n = nq + nv
	}
	nb := m.NumBodies()
	c := &Cache{
		revision:   m.Revision(),
		transforms: make([]tangent.Matrix, nb),
		jacobians:  make([]tangent.Matrix, nb),
		twists:     make([]tangent.Matrix, nb),
		biases:     make([]tangent.Matrix, nb),
		biasDv:     make([]*mat.Dense, nb),
	}

	transforms := make([]tangent.Matrix, nb)
	twists := make([]tangent.Matrix, nb)
	biases := make([]tangent.Matrix, nb)
	transforms[multibody.World] = tangent.Const(spatial.Identity(), n)
	twists[multibody.World] = tangent.Zeros(6, 1, n)
	biases[multibody.World] = tangent.Zeros(6, 1, n)

	for i := 1; i < nb; i++ {
		b := m.Body(i)
		p := b.Parent
		transforms[i] = tangent.Mul(transforms[p], jointPair(b, q, n))
		twists[i] = twists[p]
		biases[i] = biases[p]

		if len(b.VelocityNum) > 0 {
			j := tangent.Mul(spatial.AdjointPair(transforms[i]), tangent.Const(b.Joint.MotionSubspace(), 0))
			vi := tangent.Variable(gather(v, b.VelocityNum), 0, 0).Extend(n)
			if n > 0 {
				for col, k := range b.VelocityNum {
					e := mat.NewDense(len(b.VelocityNum), 1, nil)
					e.Set(col, 0, 1)
					vi.D[nq+k] = e
				}
			}
			sv := tangent.Mul(j, vi)
			twists[i] = tangent.Add(twists[p], sv)
			biases[i] = tangent.Add(biases[p], tangent.Mul(spatial.CrmPair(twists[i]), sv))
			c.jacobians[i] = j.Restrict(0, qCols(gradients, nq))
		}

		c.transforms[i] = transforms[i].Restrict(0, qCols(gradients, nq))
		c.twists[i] = twists[i].Restrict(0, qCols(gradients, nq))
		c.biases[i] = biases[i].Restrict(0, qCols(gradients, nq))
		if gradients {
			c.biasDv[i] = biases[i].Restrict(nq, nq+nv).Flatten()
		}
	}
	c.transforms[multibody.World] = transforms[multibody.World].Restrict(0, qCols(gradients, nq))
	c.twists[multibody.World] = twists[multibody.World].Restrict(0, qCols(gradients, nq))
	c.biases[multibody.World] = biases[multibody.World].Restrict(0, qCols(gradients, nq))
	return c, nil
}

// ForwardTransform computes only the world transform of one body, with
// q-derivatives when gradients is set.
func ForwardTransform(m *multibody.Model, q []float64, body int, gradients bool) (tangent.Matrix, error) {
	if m.Dirty() {
		return tangent.Matrix{}, fmt.Errorf("kinematics: %w", multibody.ErrStaleState)
	}
	if len(q) != m.NumPositions() {
		return tangent.Matrix{}, fmt.Errorf("kinematics: %w: q has %d entries, want %d",
			multibody.ErrDimensionMismatch, len(q), m.NumPositions())
	}
	n := qCols(gradients, m.NumPositions())
	t := tangent.Const(spatial.Identity(), n)
	for _, j := range reverse(m.Ancestors(body)) {
		t = tangent.Mul(t, jointPair(m.Body(j), q, n))
	}
	return t, nil
}

func (c *Cache) Revision() uint64 { return c.revision }

// Transform returns the 4×4 body-to-world transform of body i.
func (c *Cache) Transform(i int) tangent.Matrix { return c.transforms[i] }

// Jacobian returns the world-frame motion subspace of body i's joint,
// 6×len(VelocityNum). Its value is nil for bodies without coordinates.
func (c *Cache) Jacobian(i int) tangent.Matrix { return c.jacobians[i] }

// Twist returns the world-frame spatial velocity of body i.
func (c *Cache) Twist(i int) tangent.Matrix { return c.twists[i] }

// JacobianDotTimesV returns the velocity-product part of body i's spatial
// acceleration.
func (c *Cache) JacobianDotTimesV(i int) tangent.Matrix { return c.biases[i] }

// JacobianDotTimesVGradientWrtV returns ∂(J̇v)_i/∂v, 6×nv, or nil without gradients.
func (c *Cache) JacobianDotTimesVGradientWrtV(i int) *mat.Dense { return c.biasDv[i] }

// DTransform returns ∂vec(T_i)/∂q, 16×nq.
func (c *Cache) DTransform(i int) *mat.Dense { return c.transforms[i].Flatten() }

// DJacobian returns ∂vec(J_i)/∂q.
func (c *Cache) DJacobian(i int) *mat.Dense {
	if c.jacobians[i].Val == nil {
		return nil
	}
	return c.jacobians[i].Flatten()
}

// DTwist returns ∂twist_i/∂q, 6×nq.
func (c *Cache) DTwist(i int) *mat.Dense { return c.twists[i].Flatten() }

// DJacobianDotTimesV returns ∂(J̇v)_i/∂q, 6×nq.
func (c *Cache) DJacobianDotTimesV(i int) *mat.Dense { return c.biases[i].Flatten() }

// jointPair returns the parent-to-body transform of b at q with its
// derivative placed at b's position coordinate.
func jointPair(b *multibody.Body, q []float64, n int) tangent.Matrix {
	t, dt := b.Joint.Transform(gather(q, b.PositionNum))
	out := tangent.Const(t, n)
	if n > 0 && dt != nil {
		out.D[b.PositionNum[0]] = dt
	}
	return out
}

func qCols(gradients bool, nq int) int {
	if gradients {
		return nq
	}
	return 0
}

func gather(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = x[k]
	}
	return out
}

func reverse(s []int) []int {
	out := make([]int, len(s))
	for i, x := range s {
		out[len(s)-1-i] = x
	}
	return out
}
