package compute

import "gonum.org/v1/gonum/mat"

type vec6 [6]float64

type mat6 [6][6]float64

func toVec6(m mat.Matrix) vec6 {
	var v vec6
	for i := range v {
		v[i] = m.At(i, 0)
	}
	return v
}

func toMat6(m mat.Matrix) mat6 {
	var a mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			a[i][j] = m.At(i, j)
		}
	}
	return a
}

func columns(m mat.Matrix) []vec6 {
	_, c := m.Dims()
	out := make([]vec6, c)
	for j := range out {
		for i := 0; i < 6; i++ {
			out[j][i] = m.At(i, j)
		}
	}
	return out
}

func (a vec6) add(b vec6) vec6 {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

func (a vec6) sub(b vec6) vec6 {
	for i := range a {
		a[i] -= b[i]
	}
	return a
}

func dot(a, b vec6) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func (a mat6) mulVec(v vec6) vec6 {
	var out vec6
	for i := 0; i < 6; i++ {
		s := 0.0
		for j := 0; j < 6; j++ {
			s += a[i][j] * v[j]
		}
		out[i] = s
	}
	return out
}

func (a mat6) mul(b mat6) mat6 {
	var out mat6
	for i := 0; i < 6; i++ {
		for k := 0; k < 6; k++ {
			if a[i][k] == 0 {
				continue
			}
			for j := 0; j < 6; j++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

func (a mat6) add(b mat6) mat6 {
	for i := range a {
		for j := range a[i] {
			a[i][j] += b[i][j]
		}
	}
	return a
}

func (a mat6) transpose() mat6 {
	var out mat6
	for i := range a {
		for j := range a[i] {
			out[j][i] = a[i][j]
		}
	}
	return out
}

// crossForce returns v ×* f for a twist v = [ω; u] and wrench f = [n; f]:
// [ω×n + u×f; ω×f].
func crossForce(v, f vec6) vec6 {
	w := [3]float64{v[0], v[1], v[2]}
	u := [3]float64{v[3], v[4], v[5]}
	n := [3]float64{f[0], f[1], f[2]}
	l := [3]float64{f[3], f[4], f[5]}
	a, b, c := cross(w, n), cross(u, l), cross(w, l)
	return vec6{a[0] + b[0], a[1] + b[1], a[2] + b[2], c[0], c[1], c[2]}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
