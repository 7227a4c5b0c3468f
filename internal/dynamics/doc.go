// Package dynamics computes the equations of motion of a rigid-body tree,
//
//	H(q)·v̇ + C(q, v) = B(q, v)·u,
//
// and optionally their exact derivatives with respect to x = [q; v].
//
// H is assembled with the composite-rigid-body algorithm, C with recursive
// Newton-Euler at zero joint acceleration (gravity, velocity products,
// external wrenches and joint friction), and B from the actuators plus any
// direct-feedthrough force elements.
//
// Derivatives are propagated in forward mode through every operation using
// tangent.Matrix pairs; a nil derivative is an exact zero, so ∂H/∂v is zero by
// construction. Gradient blocks are returned flattened column-major:
//
//	res, err := dynamics.Compute(model, dynamics.Request{Q: q, V: v, Gradients: true})
//	// res.DH is (nv·nv)×(nq+nv), res.DC is nv×(nq+nv)
//
// The [Dispatcher] prefers the process-wide native kernel when asked to and
// falls back to the analytic engine when the kernel is missing or the inputs
// carry seeds.
package dynamics
