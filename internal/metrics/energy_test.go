package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/rbdyn/internal/config"
	"github.com/san-kum/rbdyn/internal/dynamics"
	"github.com/san-kum/rbdyn/internal/forces"
	"github.com/san-kum/rbdyn/internal/models"
)

func TestEnergyMatchesPendulum(t *testing.T) {
	ref := models.NewPendulum()
	q, v := []float64{math.Pi / 4}, []float64{1.5}
	m, err := ref.Config(q, v).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := dynamics.Compute(m, dynamics.Request{Q: q, V: v})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	e := NewEnergy(m)
	e.Observe(q, v, res)
	expected := ref.KineticEnergy(q, v) + ref.PotentialEnergy(q)
	if math.Abs(e.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, e.Value())
	}

	e.Reset()
	if e.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", e.Value())
	}
	e.Observe(q, v, res)
	if math.Abs(e.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f after reset, got %f", expected, e.Value())
	}
}

func TestPotentialMatchesDoublePendulum(t *testing.T) {
	ref := models.NewDoublePendulum()
	ref.M1, ref.L2 = 2, 0.6
	for _, q := range [][]float64{{0, 0}, {0.7, -1.1}, {2.5, 0.4}} {
		m, err := ref.Config(q, []float64{0, 0}).Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		pe, err := Potential(m, q)
		if err != nil {
			t.Fatalf("potential: %v", err)
		}
		if want := ref.PotentialEnergy(q); math.Abs(pe-want) > 1e-9 {
			t.Errorf("q=%v: expected %f, got %f", q, want, pe)
		}
	}
}

// At rest every term of C except gravity and springs vanishes, so C is the
// gradient of the potential energy.
func TestRestBiasIsPotentialGradient(t *testing.T) {
	cfg := config.DoublePendulumConfig(1, 0.5, 1, 0.8, [2]float64{0.6, -0.3}, [2]float64{})
	m, err := cfg.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m.AddForceElement(&forces.Spring{Label: "tether", Frame: "lower", Point: [3]float64{0, -0.8, 0}, Anchor: [3]float64{1, 0, 0}, Stiffness: 15, RestLength: 0.3})
	if err := m.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}

	q := cfg.State.Q
	res, err := dynamics.Compute(m, dynamics.Request{Q: q, V: []float64{0, 0}})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	h := 1e-6
	for k := range q {
		qp := append([]float64(nil), q...)
		qm := append([]float64(nil), q...)
		qp[k] += h
		qm[k] -= h
		plus, err := Potential(m, qp)
		if err != nil {
			t.Fatalf("potential: %v", err)
		}
		minus, err := Potential(m, qm)
		if err != nil {
			t.Fatalf("potential: %v", err)
		}
		want := (plus - minus) / (2 * h)
		if math.Abs(res.C.AtVec(k)-want) > 1e-5 {
			t.Errorf("coordinate %d: expected %f, got %f", k, want, res.C.AtVec(k))
		}
	}
}

func TestConditioning(t *testing.T) {
	m, err := config.GetPreset("double_pendulum").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	c := NewConditioning(1e3)
	if c.Value() != 1.0 {
		t.Errorf("expected 1 with no samples, got %f", c.Value())
	}
	for _, q2 := range []float64{0, 1, 2, 3} {
		q := []float64{0.1, q2}
		res, err := dynamics.Compute(m, dynamics.Request{Q: q, V: []float64{0, 0}})
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		c.Observe(q, nil, res)
	}
	if c.Value() != 1.0 {
		t.Errorf("double pendulum should stay well conditioned, got %f", c.Value())
	}
	// fully stretched out (q2 = 0) is the worst case
	if c.Worst() < 5 {
		t.Errorf("expected a larger worst-case condition number, got %f", c.Worst())
	}

	strict := NewConditioning(1)
	res, _ := dynamics.Compute(m, dynamics.Request{Q: []float64{0, 0}, V: []float64{0, 0}})
	strict.Observe(nil, nil, res)
	if strict.Value() != 0 {
		t.Errorf("expected every sample to violate threshold 1, got %f", strict.Value())
	}
	strict.Reset()
	if strict.Worst() != 0 || strict.Value() != 1.0 {
		t.Error("reset should clear observations")
	}
}
