package dynamics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/compute"
	"github.com/san-kum/rbdyn/internal/kinematics"
	"github.com/san-kum/rbdyn/internal/multibody"
)

// Engine evaluates H, C and B, with gradients with respect to x = [q; v] when
// req.Gradients is set. Inputs have already been validated and ext holds the
// aggregated force elements.
type Engine interface {
	Name() string
	Compute(m *multibody.Model, req Request, ext *External) (*Result, error)
}

// AnalyticEngine is the reference pipeline: a fresh kinematics cache, inertia
// aggregation, CRBA for H and RNEA for C, all carried as forward-mode pairs.
type AnalyticEngine struct{}

func (AnalyticEngine) Name() string { return "analytic" }

func (AnalyticEngine) Compute(m *multibody.Model, req Request, ext *External) (*Result, error) {
	nq, nv := m.NumPositions(), m.NumVelocities()
	n := 0
	if req.Gradients {
		n = nq + nv
	}

	kin, err := kinematics.Compute(m, req.Q, req.V, req.Gradients)
	if err != nil {
		return nil, &multibody.StageError{Stage: "kinematics", Body: -1, Wrapped: err}
	}
	if !IsCacheCurrent(m, kin) {
		return nil, &multibody.StageError{Stage: "kinematics", Body: -1,
			Wrapped: fmt.Errorf("%w: cache revision %d, model revision %d", multibody.ErrStaleState, kin.Revision(), m.Revision())}
	}

	world := worldInertias(m, kin, n)
	h := massMatrix(m, kin, compositeInertias(m, world), n)
	c := biasForces(m, kin, world, ext, req.V, n)

	res := &Result{
		H:      h.Val,
		C:      mat.NewVecDense(nv, mat.Col(nil, 0, c.Val)),
		B:      ext.Input.Val,
		Engine: "analytic",
	}
	if req.Gradients {
		res.DH = h.Flatten()
		res.DC = c.Flatten()
		if ext.Input.Val != nil {
			res.DB = ext.Input.Flatten()
		}
	}
	return res, nil
}

// NativeEngine delegates H and C to a compute.Kernel. Kernels only report
// q-derivatives, so the velocity columns of dH and dC are zero-filled. B and
// dB come from the force aggregation and are exact.
type NativeEngine struct {
	Kernel compute.Kernel
}

func (e NativeEngine) Name() string { return "native:" + e.Kernel.Name() }

func (e NativeEngine) Compute(m *multibody.Model, req Request, ext *External) (*Result, error) {
	nq, nv := m.NumPositions(), m.NumVelocities()
	fExt, dfExt := ext.forces(req.Gradients)
	kr, err := e.Kernel.Dynamics(m, req.Q, req.V, fExt, dfExt, req.Gradients)
	if err != nil {
		return nil, &multibody.StageError{Stage: e.Name(), Body: -1, Wrapped: err}
	}

	res := &Result{H: kr.H, C: kr.C, B: ext.Input.Val, Engine: e.Name()}
	if req.Gradients {
		res.DH = padColumns(kr.DH, nv*nv, nq+nv)
		res.DC = padColumns(kr.DC, nv, nq+nv)
		if ext.Input.Val != nil {
			res.DB = ext.Input.Flatten()
		}
	}
	return res, nil
}

// padColumns copies a into the leading columns of an r×c zero matrix.
func padColumns(a *mat.Dense, r, c int) *mat.Dense {
	out := mat.NewDense(r, c, nil)
	if a == nil {
		return out
	}
	_, ac := a.Dims()
	if ac > 0 {
		out.Slice(0, r, 0, ac).(*mat.Dense).Copy(a)
	}
	return out
}
