// Package verify checks analytic gradients of the equations of motion against
// central differences.
package verify
