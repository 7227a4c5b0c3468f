// Package tangent implements forward-mode differentiation for matrix-valued
// quantities.
//
// A [Matrix] carries a value together with one derivative matrix per input.
// Products follow the product rule, sums add derivatives, and linear maps are
// applied to value and derivatives alike:
//
//	t := tangent.Mul(xform, body)   // d(AB) = dA·B + A·dB
//	g := t.Flatten()                // (rows·cols) × inputs gradient block
//
// Derivatives that are structurally zero are stored as nil and never
// materialized, so quantities that do not depend on an input report an exact
// zero for it.
package tangent
