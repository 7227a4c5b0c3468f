package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/dynamics"
)

// Conditioning tracks the 2-norm condition number of H. Value is the
// fraction of observed states whose condition number stays below the
// threshold.
type Conditioning struct {
	name       string
	threshold  float64
	worst      float64
	violations int
	samples    int
}

func NewConditioning(threshold float64) *Conditioning {
	return &Conditioning{
		name:      "conditioning",
		threshold: threshold,
	}
}

func (c *Conditioning) Name() string {
	return c.name
}

func (c *Conditioning) Observe(q, v []float64, res *dynamics.Result) {
	c.samples++
	cond := mat.Cond(res.H, 2)
	if math.IsInf(cond, 1) || math.IsNaN(cond) {
		cond = math.Inf(1)
	}
	c.worst = math.Max(c.worst, cond)
	if cond > c.threshold {
		c.violations++
	}
}

func (c *Conditioning) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

// Worst returns the largest condition number observed.
func (c *Conditioning) Worst() float64 { return c.worst }

func (c *Conditioning) Reset() {
	c.worst = 0
	c.violations = 0
	c.samples = 0
}
