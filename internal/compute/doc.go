// Package compute provides accelerated kernels for the equations of motion.
//
// A process-wide [Kernel] handle is installed at start-up (the CPU kernel by
// default) and only read afterwards:
//
//	k := compute.ActiveKernel()
//	if k != nil && k.Available() {
//	    res, err := k.Dynamics(model, q, v, fExt, dfExt, true)
//	}
//
// Kernels work on plain float64 inputs. They report derivatives with respect
// to q only; callers that need ∂/∂v must use the analytic pipeline.
//
// [ParallelFor] splits independent per-item work across CPUs.
package compute
