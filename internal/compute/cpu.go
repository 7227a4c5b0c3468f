package compute

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/kinematics"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
)

// DefaultStep is the central-difference step used for kernel gradients.
const DefaultStep = 1e-6

// CPUKernel evaluates H and C with fixed-size 6D arithmetic and no
// derivative bookkeeping. Gradients with respect to q come from central
// differences, one coordinate per worker; external wrenches are moved along
// their supplied derivatives so that dfExt is honoured.
type CPUKernel struct {
	workers int
	step    float64
}

func NewCPUKernel() *CPUKernel {
	return &CPUKernel{
		workers: runtime.NumCPU(),
		step:    DefaultStep,
	}
}

func (c *CPUKernel) Name() string    { return "cpu" }
func (c *CPUKernel) Available() bool { return true }
func (c *CPUKernel) Cleanup()        {}

func (c *CPUKernel) Dynamics(m *multibody.Model, q, v []float64, fExt, dfExt []*mat.Dense, gradients bool) (*KernelResult, error) {
	nb, nq, nv := m.NumBodies(), m.NumPositions(), m.NumVelocities()
	if (fExt != nil && len(fExt) != nb) || (dfExt != nil && len(dfExt) != nb) {
		return nil, fmt.Errorf("cpu kernel: %w: need one external wrench slot per body (%d)", multibody.ErrDimensionMismatch, nb)
	}

	h, cv, err := c.evaluate(m, q, v, fExt)
	if err != nil {
		return nil, err
	}
	res := &KernelResult{H: h, C: mat.NewVecDense(nv, cv)}
	if !gradients {
		return res, nil
	}

	res.DH = mat.NewDense(nv*nv, nq, nil)
	res.DC = mat.NewDense(nv, nq, nil)
	step := c.step

	var g errgroup.Group
	g.SetLimit(c.workers)
	for k := 0; k < nq; k++ {
		g.Go(func() error {
			hp, cp, err := c.evaluate(m, shift(q, k, step), v, shiftForces(fExt, dfExt, k, step))
			if err != nil {
				return err
			}
			hm, cm, err := c.evaluate(m, shift(q, k, -step), v, shiftForces(fExt, dfExt, k, -step))
			if err != nil {
				return err
			}
			for j := 0; j < nv; j++ {
				for i := 0; i < nv; i++ {
					res.DH.Set(j*nv+i, k, (hp.At(i, j)-hm.At(i, j))/(2*step))
				}
				res.DC.Set(j, k, (cp[j]-cm[j])/(2*step))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *CPUKernel) evaluate(m *multibody.Model, q, v []float64, fExt []*mat.Dense) (*mat.Dense, []float64, error) {
	kin, err := kinematics.Compute(m, q, v, false)
	if err != nil {
		return nil, nil, err
	}

	nb, nv := m.NumBodies(), m.NumVelocities()
	g := m.Gravity()
	root := vec6{0, 0, 0, -g[0], -g[1], -g[2]}
	composite := make([]mat6, nb)
	net := make([]vec6, nb)
	jac := make([][]vec6, nb)

	for i := 1; i < nb; i++ {
		x := toMat6(spatial.InverseAdjoint(kin.Transform(i).Val))
		xt := x.transpose()
		inertia := xt.mul(toMat6(m.Body(i).Inertia)).mul(x)
		composite[i] = inertia

		twist := toVec6(kin.Twist(i).Val)
		accel := root.add(toVec6(kin.JacobianDotTimesV(i).Val))
		w := inertia.mulVec(accel).add(crossForce(twist, inertia.mulVec(twist)))
		if fExt != nil && fExt[i] != nil {
			w = w.sub(xt.mulVec(toVec6(fExt[i])))
		}
		net[i] = w
		if j := kin.Jacobian(i).Val; j != nil {
			jac[i] = columns(j)
		}
	}
	for i := nb - 1; i >= 1; i-- {
		if p := m.Body(i).Parent; p != multibody.World {
			composite[p] = composite[p].add(composite[i])
		}
	}

	h := mat.NewDense(nv, nv, nil)
	for i := 1; i < nb; i++ {
		bi := m.Body(i)
		for a, ka := range bi.VelocityNum {
			f := composite[i].mulVec(jac[i][a])
			for j := i; j != multibody.World; j = m.Body(j).Parent {
				for col, kc := range m.Body(j).VelocityNum {
					x := dot(jac[j][col], f)
					h.Set(kc, ka, x)
					h.Set(ka, kc, x)
				}
			}
		}
	}

	cv := make([]float64, nv)
	for i := nb - 1; i >= 1; i-- {
		bi := m.Body(i)
		for a, k := range bi.VelocityNum {
			cv[k] = dot(jac[i][a], net[i])
		}
		if bi.Parent != multibody.World {
			net[bi.Parent] = net[bi.Parent].add(net[i])
		}
	}
	friction, _ := m.Friction(v, false)
	for k := range cv {
		cv[k] += friction[k]
	}
	return h, cv, nil
}

func shift(x []float64, k int, d float64) []float64 {
	out := append([]float64(nil), x...)
	out[k] += d
	return out
}

func shiftForces(fExt, dfExt []*mat.Dense, k int, d float64) []*mat.Dense {
	if fExt == nil || dfExt == nil {
		return fExt
	}
	out := make([]*mat.Dense, len(fExt))
	for i := range fExt {
		if dfExt[i] == nil {
			out[i] = fExt[i]
			continue
		}
		f := mat.NewDense(6, 1, nil)
		if fExt[i] != nil {
			f.Copy(fExt[i])
		}
		for r := 0; r < 6; r++ {
			f.Set(r, 0, f.At(r, 0)+d*dfExt[i].At(r, k))
		}
		out[i] = f
	}
	return out
}
