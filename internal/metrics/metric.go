package metrics

import "github.com/san-kum/rbdyn/internal/dynamics"

// Metric accumulates a scalar over evaluated states.
type Metric interface {
	Name() string
	Observe(q, v []float64, res *dynamics.Result)
	Value() float64
	Reset()
}

var (
	_ Metric = (*Energy)(nil)
	_ Metric = (*Conditioning)(nil)
)
