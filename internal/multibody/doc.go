// Package multibody defines the mechanism model: a tree of rigid bodies
// connected by joints, the actuators that form the input matrix, and the
// external force elements acting on the bodies.
//
// Models are built once and then read concurrently by evaluation code:
//
//	m := multibody.New("pendulum")
//	link, _ := m.AddBody("link", multibody.World, joint, inertia)
//	m.AddActuator("motor", link, 1)
//	if err := m.Compile(); err != nil { ... }
//
// Every mutation increments [Model.Revision] and marks the model dirty;
// [Model.Compile] clears the flag after rebuilding derived tables.
package multibody
