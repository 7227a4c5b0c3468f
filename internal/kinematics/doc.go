// Package kinematics computes the per-body kinematics consumed by the
// dynamics pipeline: world transforms, joint motion subspaces (Jacobians),
// twists and the J̇·v acceleration bias, optionally with their exact
// derivatives.
//
// A [Cache] is built for one (q, v) and is never modified afterwards. It is
// stamped with the model revision it was computed from so stale caches can
// be rejected.
package kinematics
