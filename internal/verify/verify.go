package verify

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/rbdyn/internal/dynamics"
	"github.com/san-kum/rbdyn/internal/multibody"
)

const (
	DefaultStep      = 1e-6
	DefaultTolerance = 1e-4
	DefaultSamples   = 5
)

type Options struct {
	Step      float64
	Tolerance float64
	Samples   int
	Seed      uint64
	// Native routes evaluations through the native kernel when available.
	// Its gradients have no velocity columns, so only dH and the q columns
	// of dC are meaningful.
	Native bool
}

func DefaultOptions() Options {
	return Options{
		Step:      DefaultStep,
		Tolerance: DefaultTolerance,
		Samples:   DefaultSamples,
		Seed:      1,
	}
}

// Sample is the outcome of one gradient check. Errors are relative, see
// RelativeError.
type Sample struct {
	Q, V   []float64
	DH     float64
	DC     float64
	DB     float64
	Passed bool
}

type Report struct {
	Samples  []Sample
	MaxError float64
	Passed   bool
}

// CheckGradients compares analytic gradients with central differences at
// randomly drawn states. Joint positions are drawn from [−π, π) and
// velocities from [−1, 1).
func CheckGradients(m *multibody.Model, d *dynamics.Dispatcher, opts Options) (*Report, error) {
	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	angle := distuv.Uniform{Min: -math.Pi, Max: math.Pi, Src: src}
	rate := distuv.Uniform{Min: -1, Max: 1, Src: src}

	report := &Report{Passed: true}
	for s := 0; s < opts.Samples; s++ {
		q := make([]float64, m.NumPositions())
		v := make([]float64, m.NumVelocities())
		for i := range q {
			q[i] = angle.Rand()
		}
		for i := range v {
			v[i] = rate.Rand()
		}
		sample, err := CheckAt(m, d, q, v, opts)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", s, err)
		}
		report.Samples = append(report.Samples, sample)
		report.MaxError = max(report.MaxError, sample.DH, sample.DC, sample.DB)
		report.Passed = report.Passed && sample.Passed
	}
	return report, nil
}

// CheckAt compares analytic and finite-difference gradients at (q, v).
func CheckAt(m *multibody.Model, d *dynamics.Dispatcher, q, v []float64, opts Options) (Sample, error) {
	res, err := d.Compute(m, dynamics.Request{Q: q, V: v, Gradients: true, PreferNative: opts.Native})
	if err != nil {
		return Sample{}, err
	}
	dh, dc, db, err := FiniteDifference(m, d, q, v, opts.Step)
	if err != nil {
		return Sample{}, err
	}

	s := Sample{
		Q:  append([]float64(nil), q...),
		V:  append([]float64(nil), v...),
		DH: RelativeError(res.DH, dh),
		DC: RelativeError(res.DC, dc),
		DB: RelativeError(res.DB, db),
	}
	if opts.Native {
		nq := m.NumPositions()
		s.DC = RelativeError(leading(res.DC, nq), leading(dc, nq))
	}
	s.Passed = s.DH <= opts.Tolerance && s.DC <= opts.Tolerance && s.DB <= opts.Tolerance
	return s, nil
}

// FiniteDifference returns central-difference estimates of dH, dC and dB
// with respect to x = [q; v], in the same layout as dynamics.Result. dB is
// nil when the model has no inputs.
func FiniteDifference(m *multibody.Model, d *dynamics.Dispatcher, q, v []float64, step float64) (dh, dc, db *mat.Dense, err error) {
	nq, nv, nu := m.NumPositions(), m.NumVelocities(), m.NumInputs()
	n := nq + nv
	dh = mat.NewDense(nv*nv, n, nil)
	dc = mat.NewDense(nv, n, nil)
	if nu > 0 {
		db = mat.NewDense(nv*nu, n, nil)
	}

	x := append(append([]float64(nil), q...), v...)
	for k := 0; k < n; k++ {
		plus, err := evaluate(m, d, x, nq, k, step)
		if err != nil {
			return nil, nil, nil, err
		}
		minus, err := evaluate(m, d, x, nq, k, -step)
		if err != nil {
			return nil, nil, nil, err
		}
		setColumn(dh, k, plus.H, minus.H, step)
		setColumn(dc, k, plus.C, minus.C, step)
		if db != nil {
			setColumn(db, k, plus.B, minus.B, step)
		}
	}
	return dh, dc, db, nil
}

// RelativeError returns ‖a − b‖ / max(‖b‖, 1) in the Frobenius norm. A nil
// matrix counts as zero.
func RelativeError(a, b *mat.Dense) float64 {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return mat.Norm(b, 2) / math.Max(mat.Norm(b, 2), 1)
	case b == nil:
		return mat.Norm(a, 2)
	}
	var diff mat.Dense
	diff.Sub(a, b)
	return mat.Norm(&diff, 2) / math.Max(mat.Norm(b, 2), 1)
}

func evaluate(m *multibody.Model, d *dynamics.Dispatcher, x []float64, nq, k int, h float64) (*dynamics.Result, error) {
	y := append([]float64(nil), x...)
	y[k] += h
	return d.Compute(m, dynamics.Request{Q: y[:nq], V: y[nq:]})
}

func setColumn(dst *mat.Dense, k int, plus, minus mat.Matrix, h float64) {
	r, c := plus.Dims()
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			dst.Set(j*r+i, k, (plus.At(i, j)-minus.At(i, j))/(2*h))
		}
	}
}

func leading(a *mat.Dense, cols int) *mat.Dense {
	if a == nil {
		return nil
	}
	r, _ := a.Dims()
	return mat.DenseCopyOf(a.Slice(0, r, 0, cols))
}
