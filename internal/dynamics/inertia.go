package dynamics

import (
	"github.com/san-kum/rbdyn/internal/compute"
	"github.com/san-kum/rbdyn/internal/multibody"
	"github.com/san-kum/rbdyn/internal/spatial"
	"github.com/san-kum/rbdyn/internal/tangent"
)

// Bodies per worker when transforming inertias in parallel.
const parallelMinBodies = 16

// worldInertias expresses every body's spatial inertia in the world frame,
// Xᵀ·I·X with X = Ad(T⁻¹). Entry 0 (world) is left empty.
func worldInertias(m *multibody.Model, kin Kinematics, n int) []tangent.Matrix {
	nb := m.NumBodies()
	out := make([]tangent.Matrix, nb)
	compute.ParallelFor(nb-1, parallelMinBodies, func(start, end int) {
		for i := start + 1; i <= end; i++ {
			out[i] = spatial.TransformInertia(kin.Transform(i), m.Body(i).Inertia).Extend(n)
		}
	})
	return out
}

// compositeInertias accumulates subtree inertias. Children always have larger
// indices than their parents, so one descending sweep sees every child
// before its parent.
func compositeInertias(m *multibody.Model, world []tangent.Matrix) []tangent.Matrix {
	nb := m.NumBodies()
	out := make([]tangent.Matrix, nb)
	copy(out, world)
	for i := nb - 1; i >= 1; i-- {
		if p := m.Body(i).Parent; p != multibody.World {
			out[p] = tangent.Add(out[p], out[i])
		}
	}
	return out
}
