// Package forces provides force elements for multibody models: a constant
// body wrench, a linear spring to a world anchor, and a thruster that acts
// through the input matrix. All of them implement
// multibody.DifferentiableForce.
package forces
