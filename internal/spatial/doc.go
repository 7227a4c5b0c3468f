// Package spatial implements 6D spatial vector algebra.
//
// Spatial vectors are 6×1 column matrices with the angular part first:
// twists are [ω; v], wrenches are [τ; f]. World-frame quantities are
// expressed at the world origin, so twists of bodies along a chain add.
//
//   - [Crm], [Crf]: motion and force cross-product matrices
//   - [Adjoint], [InverseAdjoint]: frame changes for a homogeneous transform
//   - [Inertia]: body-frame spatial inertia from mass properties
//
// The *Pair variants operate on [tangent.Matrix] values and propagate
// derivatives exactly.
package spatial
