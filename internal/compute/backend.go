package compute

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/multibody"
)

// Kernel is an accelerated whole-pipeline implementation of the equations of
// motion. Kernels take dense numeric inputs only and report gradients with
// respect to q only.
//
// fExt holds one body-frame wrench (6×1) per body, nil for none. dfExt holds
// the matching 6×(nq+nv) derivative blocks, nil for none.
type Kernel interface {
	Name() string
	Available() bool
	Dynamics(m *multibody.Model, q, v []float64, fExt, dfExt []*mat.Dense, gradients bool) (*KernelResult, error)
	Cleanup()
}

// KernelResult holds H and C and, when requested, dH ((nv·nv)×nq) and
// dC (nv×nq).
type KernelResult struct {
	H  *mat.Dense
	C  *mat.VecDense
	DH *mat.Dense
	DC *mat.Dense
}

var activeKernel Kernel

func init() {
	activeKernel = NewCPUKernel()
}

// SetKernel replaces the process-wide kernel. It is meant for program
// start-up and tests; evaluation code only reads the handle.
func SetKernel(k Kernel) {
	if activeKernel != nil {
		activeKernel.Cleanup()
	}
	activeKernel = k
}

// ActiveKernel returns the process-wide kernel, or nil if none is installed.
func ActiveKernel() Kernel {
	return activeKernel
}
