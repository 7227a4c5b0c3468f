package spatial

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Skew returns the 3×3 matrix w^ with w^·u = w×u.
func Skew(x, y, z float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -z, y,
		z, 0, -x,
		-y, x, 0,
	})
}

// Crm returns the motion cross-product matrix of a 6×1 spatial vector
// [ω; u]: crm(v)·m = v × m.
func Crm(v mat.Matrix) *mat.Dense {
	out := mat.NewDense(6, 6, nil)
	w := Skew(v.At(0, 0), v.At(1, 0), v.At(2, 0))
	u := Skew(v.At(3, 0), v.At(4, 0), v.At(5, 0))
	setBlock(out, 0, 0, w)
	setBlock(out, 3, 0, u)
	setBlock(out, 3, 3, w)
	return out
}

// Crf returns the force cross-product matrix, crf(v) = -crm(v)ᵀ.
func Crf(v mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(-1, Crm(v).T())
	return &out
}

// Adjoint returns the 6×6 map from body-frame to world-frame motion vectors
// for the homogeneous transform t: [R 0; p^R R].
func Adjoint(t mat.Matrix) *mat.Dense {
	r, p := split(t)
	var pr mat.Dense
	pr.Mul(Skew(p[0], p[1], p[2]), r)
	return assemble(r, &pr)
}

// InverseAdjoint returns Ad(t⁻¹) = [Rᵀ 0; -Rᵀp^ Rᵀ].
func InverseAdjoint(t mat.Matrix) *mat.Dense {
	r, p := split(t)
	rt := mat.DenseCopyOf(r.T())
	var rp mat.Dense
	rp.Mul(rt, Skew(p[0], p[1], p[2]))
	rp.Scale(-1, &rp)
	return assemble(rt, &rp)
}

// Inertia returns the body-frame spatial inertia of a rigid body with the
// given mass, centre of mass and rotational inertia about the centre of mass.
func Inertia(mass float64, com [3]float64, icom mat.Matrix) *mat.Dense {
	c := Skew(com[0], com[1], com[2])
	var ccT mat.Dense
	ccT.Mul(c, c.T())
	ccT.Scale(mass, &ccT)
	if icom != nil {
		ccT.Add(&ccT, icom)
	}
	var mc mat.Dense
	mc.Scale(mass, c)

	out := mat.NewDense(6, 6, nil)
	setBlock(out, 0, 0, &ccT)
	setBlock(out, 0, 3, &mc)
	setBlock(out, 3, 0, mat.DenseCopyOf(mc.T()))
	for i := 3; i < 6; i++ {
		out.Set(i, i, mass)
	}
	return out
}

// Homogeneous builds a 4×4 transform from a rotation and a translation.
func Homogeneous(r mat.Matrix, p [3]float64) *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, r.At(i, j))
		}
		out.Set(i, 3, p[i])
	}
	out.Set(3, 3, 1)
	return out
}

// Identity returns the 4×4 identity transform.
func Identity() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// AxisAngle returns the rotation by theta about the unit axis a (Rodrigues).
func AxisAngle(a [3]float64, theta float64) *mat.Dense {
	k := Skew(a[0], a[1], a[2])
	var k2 mat.Dense
	k2.Mul(k, k)
	out := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	var s mat.Dense
	s.Scale(math.Sin(theta), k)
	out.Add(out, &s)
	k2.Scale(1-math.Cos(theta), &k2)
	out.Add(out, &k2)
	return out
}

// RPY returns Rz(yaw)·Ry(pitch)·Rx(roll).
func RPY(roll, pitch, yaw float64) *mat.Dense {
	var zy, out mat.Dense
	zy.Mul(AxisAngle([3]float64{0, 0, 1}, yaw), AxisAngle([3]float64{0, 1, 0}, pitch))
	out.Mul(&zy, AxisAngle([3]float64{1, 0, 0}, roll))
	return &out
}

// TwistHat returns the 4×4 matrix [ω^ u; 0 0] of a 6×1 twist [ω; u], so that
// d/dq exp(ξ^q) = exp(ξ^q)·ξ^.
func TwistHat(xi mat.Matrix) *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	setBlock(out, 0, 0, Skew(xi.At(0, 0), xi.At(1, 0), xi.At(2, 0)))
	for i := 0; i < 3; i++ {
		out.Set(i, 3, xi.At(3+i, 0))
	}
	return out
}

// Normalize scales a to unit length. A zero vector is returned unchanged.
func Normalize(a [3]float64) [3]float64 {
	n := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	if n == 0 {
		return a
	}
	return [3]float64{a[0] / n, a[1] / n, a[2] / n}
}

func split(t mat.Matrix) (*mat.Dense, [3]float64) {
	r := mat.NewDense(3, 3, nil)
	var p [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, t.At(i, j))
		}
		p[i] = t.At(i, 3)
	}
	return r, p
}

// assemble builds [a 0; b a].
func assemble(a, b mat.Matrix) *mat.Dense {
	out := mat.NewDense(6, 6, nil)
	setBlock(out, 0, 0, a)
	setBlock(out, 3, 0, b)
	setBlock(out, 3, 3, a)
	return out
}

func setBlock(dst *mat.Dense, i, j int, src mat.Matrix) {
	r, c := src.Dims()
	for a := 0; a < r; a++ {
		for b := 0; b < c; b++ {
			dst.Set(i+a, j+b, src.At(a, b))
		}
	}
}
