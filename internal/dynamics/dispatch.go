package dynamics

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/compute"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// Request is one evaluation of the equations of motion.
//
// Seed, when set, is an (nq+nv)×p matrix dx/dp for some outer parameter p.
// The gradients in the result are then dOut/dp instead of dOut/dx, and the
// native engine is not used.
type Request struct {
	Q            []float64
	V            []float64
	Gradients    bool
	PreferNative bool
	Seed         *mat.Dense
}

// Result holds H (nv×nv), C (nv) and B (nv×nu, nil without inputs).
//
// With gradients, DH is (nv·nv)×(nq+nv), DC is nv×(nq+nv) and DB is
// (nv·nu)×(nq+nv), each the column-major flattening of the differentiated
// value; columns are q first, then v. With a seed the column count is p.
type Result struct {
	H  *mat.Dense
	C  *mat.VecDense
	B  *mat.Dense
	DH *mat.Dense
	DC *mat.Dense
	DB *mat.Dense

	// Engine names the engine that produced the result.
	Engine string
}

// Dispatcher validates requests, aggregates external forces and routes the
// evaluation to the native or the analytic engine.
type Dispatcher struct {
	logger   *slog.Logger
	kernel   compute.Kernel
	analytic Engine
}

type Option func(*Dispatcher)

// WithLogger sets the logger used for engine selection messages.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithKernel pins the native kernel instead of reading the process-wide
// handle on every call.
func WithKernel(k compute.Kernel) Option {
	return func(d *Dispatcher) { d.kernel = k }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:   slog.Default(),
		analytic: AnalyticEngine{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDispatcher = NewDispatcher()

// Compute evaluates req on m with the default dispatcher.
func Compute(m *multibody.Model, req Request) (*Result, error) {
	return defaultDispatcher.Compute(m, req)
}

func (d *Dispatcher) Compute(m *multibody.Model, req Request) (*Result, error) {
	nq, nv := m.NumPositions(), m.NumVelocities()
	if len(req.Q) != nq || len(req.V) != nv {
		return nil, fmt.Errorf("dynamics: %w: q has %d entries, v has %d, want %d and %d",
			multibody.ErrDimensionMismatch, len(req.Q), len(req.V), nq, nv)
	}
	if m.Dirty() {
		return nil, fmt.Errorf("dynamics: %w: model %q must be compiled after modification", multibody.ErrStaleState, m.Name)
	}
	if req.Seed != nil {
		if r, _ := req.Seed.Dims(); r != nq+nv {
			return nil, fmt.Errorf("dynamics: %w: seed has %d rows, want %d", multibody.ErrDimensionMismatch, r, nq+nv)
		}
		req.Gradients = true
	}

	ext, err := AggregateExternal(m, req.Q, req.V, req.Gradients)
	if err != nil {
		return nil, err
	}

	engine := d.selectEngine(req)
	res, err := engine.Compute(m, req, ext)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("evaluated equations of motion",
		"model", m.Name, "engine", res.Engine, "nq", nq, "nv", nv, "gradients", req.Gradients)

	if req.Seed != nil {
		res.DH = tangent.Chain(res.DH, req.Seed)
		res.DC = tangent.Chain(res.DC, req.Seed)
		res.DB = tangent.Chain(res.DB, req.Seed)
	}
	return res, nil
}

func (d *Dispatcher) selectEngine(req Request) Engine {
	if !req.PreferNative {
		return d.analytic
	}
	k := d.kernel
	if k == nil {
		k = compute.ActiveKernel()
	}
	if k == nil || !k.Available() {
		d.logger.Debug("native kernel unavailable, using analytic engine")
		return d.analytic
	}
	if req.Seed != nil {
		err := fmt.Errorf("dynamics: %w", multibody.ErrUnsupportedPath)
		d.logger.Debug("falling back to analytic engine", "kernel", k.Name(), "reason", err)
		return d.analytic
	}
	return NativeEngine{Kernel: k}
}
