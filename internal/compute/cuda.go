package compute

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/multibody"
)

// CUDAKernel is the slot for a GPU kernel. This build carries no device
// code, so it always reports itself unavailable and the dispatcher stays on
// the analytic engine.
type CUDAKernel struct{}

func NewCUDAKernel() *CUDAKernel {
	return &CUDAKernel{}
}

func (c *CUDAKernel) Name() string    { return "cuda" }
func (c *CUDAKernel) Available() bool { return false }
func (c *CUDAKernel) Cleanup()        {}

func (c *CUDAKernel) Dynamics(m *multibody.Model, q, v []float64, fExt, dfExt []*mat.Dense, gradients bool) (*KernelResult, error) {
	return nil, fmt.Errorf("compute: %s kernel is not available in this build", c.Name())
}

// Lookup returns the kernel registered under name.
func Lookup(name string) (Kernel, error) {
	switch name {
	case "cpu":
		return NewCPUKernel(), nil
	case "cuda":
		return NewCUDAKernel(), nil
	}
	return nil, fmt.Errorf("compute: unknown kernel %q", name)
}
