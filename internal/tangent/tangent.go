package tangent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix pairs a value with its partial derivatives with respect to N scalar
// inputs. D[k] holds ∂Val/∂x_k and has the same shape as Val. A nil entry is
// an exact zero and stays exact through every operation.
type Matrix struct {
	Val *mat.Dense
	D   []*mat.Dense
}

// Const wraps v as a value that does not depend on any of the n inputs.
func Const(v *mat.Dense, n int) Matrix {
	return Matrix{Val: v, D: make([]*mat.Dense, n)}
}

// Zeros returns an r×c zero value over n inputs.
func Zeros(r, c, n int) Matrix {
	return Matrix{Val: mat.NewDense(r, c, nil), D: make([]*mat.Dense, n)}
}

// Variable returns the column vector x whose derivative with respect to input
// offset+i is the i-th unit vector.
func Variable(x []float64, offset, n int) Matrix {
	m := Matrix{Val: mat.NewDense(len(x), 1, append([]float64(nil), x...)), D: make([]*mat.Dense, n)}
	if n == 0 {
		return m
	}
	for i := range x {
		e := mat.NewDense(len(x), 1, nil)
		e.Set(i, 0, 1)
		m.D[offset+i] = e
	}
	return m
}

// FromFlat rebuilds a pair from a value and a flattened gradient block as
// produced by Flatten. A nil block yields exact-zero derivatives over n inputs.
func FromFlat(val, flat *mat.Dense, n int) (Matrix, error) {
	r, c := val.Dims()
	m := Matrix{Val: val, D: make([]*mat.Dense, n)}
	if flat == nil {
		return m, nil
	}
	fr, fc := flat.Dims()
	if fr != r*c || fc != n {
		return Matrix{}, fmt.Errorf("tangent: gradient block is %dx%d, want %dx%d", fr, fc, r*c, n)
	}
	for k := 0; k < n; k++ {
		var d *mat.Dense
		for j := 0; j < c; j++ {
			for i := 0; i < r; i++ {
				x := flat.At(j*r+i, k)
				if x == 0 {
					continue
				}
				if d == nil {
					d = mat.NewDense(r, c, nil)
				}
				d.Set(i, j, x)
			}
		}
		m.D[k] = d
	}
	return m, nil
}

// N returns the number of inputs the derivatives are taken against.
func (a Matrix) N() int { return len(a.D) }

// Dims returns the shape of the value.
func (a Matrix) Dims() (r, c int) { return a.Val.Dims() }

// Extend returns a copy whose derivative list covers n inputs. Added inputs
// are exact zeros.
func (a Matrix) Extend(n int) Matrix {
	d := make([]*mat.Dense, n)
	copy(d, a.D)
	return Matrix{Val: a.Val, D: d}
}

// Restrict keeps the derivatives with respect to inputs [lo, hi).
func (a Matrix) Restrict(lo, hi int) Matrix {
	d := make([]*mat.Dense, hi-lo)
	if lo < len(a.D) {
		copy(d, a.D[lo:min(hi, len(a.D))])
	}
	return Matrix{Val: a.Val, D: d}
}

// T returns the transpose.
func (a Matrix) T() Matrix {
	out := Matrix{Val: mat.DenseCopyOf(a.Val.T()), D: make([]*mat.Dense, len(a.D))}
	for k, d := range a.D {
		if d != nil {
			out.D[k] = mat.DenseCopyOf(d.T())
		}
	}
	return out
}

// Slice copies the block [i,k)×[j,l) of the value and of every derivative.
func (a Matrix) Slice(i, k, j, l int) Matrix {
	out := Matrix{Val: mat.DenseCopyOf(a.Val.Slice(i, k, j, l)), D: make([]*mat.Dense, len(a.D))}
	for n, d := range a.D {
		if d != nil {
			out.D[n] = mat.DenseCopyOf(d.Slice(i, k, j, l))
		}
	}
	return out
}

// Flatten returns ∂vec(Val)/∂x as an (r·c)×N block, vec stacking columns.
// It returns nil when there are no inputs.
func (a Matrix) Flatten() *mat.Dense {
	if len(a.D) == 0 {
		return nil
	}
	r, c := a.Val.Dims()
	out := mat.NewDense(r*c, len(a.D), nil)
	for k, d := range a.D {
		if d == nil {
			continue
		}
		for j := 0; j < c; j++ {
			for i := 0; i < r; i++ {
				out.Set(j*r+i, k, d.At(i, j))
			}
		}
	}
	return out
}

// SetSub writes b into the rows and columns of a selected by the index lists.
// Derivatives of a are allocated on first write so untouched inputs stay nil.
func (a *Matrix) SetSub(rows, cols []int, b Matrix) {
	for bi, i := range rows {
		for bj, j := range cols {
			a.Val.Set(i, j, b.Val.At(bi, bj))
		}
	}
	for k := range a.D {
		var d *mat.Dense
		if k < len(b.D) {
			d = b.D[k]
		}
		if d == nil {
			if a.D[k] == nil {
				continue
			}
			for _, i := range rows {
				for _, j := range cols {
					a.D[k].Set(i, j, 0)
				}
			}
			continue
		}
		if a.D[k] == nil {
			r, c := a.Val.Dims()
			a.D[k] = mat.NewDense(r, c, nil)
		}
		for bi, i := range rows {
			for bj, j := range cols {
				a.D[k].Set(i, j, d.At(bi, bj))
			}
		}
	}
}

// AddPartial adds x to ∂Val[i,j]/∂x_k.
func (a *Matrix) AddPartial(k, i, j int, x float64) {
	if x == 0 {
		return
	}
	if a.D[k] == nil {
		r, c := a.Val.Dims()
		a.D[k] = mat.NewDense(r, c, nil)
	}
	a.D[k].Set(i, j, a.D[k].At(i, j)+x)
}

// Mul returns a·b with derivatives from the product rule.
func Mul(a, b Matrix) Matrix {
	out := Matrix{Val: mul(a.Val, b.Val), D: make([]*mat.Dense, max(len(a.D), len(b.D)))}
	for k := range out.D {
		da, db := at(a.D, k), at(b.D, k)
		switch {
		case da == nil && db == nil:
		case db == nil:
			out.D[k] = mul(da, b.Val)
		case da == nil:
			out.D[k] = mul(a.Val, db)
		default:
			d := mul(da, b.Val)
			d.Add(d, mul(a.Val, db))
			out.D[k] = d
		}
	}
	return out
}

// Add returns a+b.
func Add(a, b Matrix) Matrix {
	var v mat.Dense
	v.Add(a.Val, b.Val)
	return Matrix{Val: &v, D: combine(a.D, b.D, 1)}
}

// Sub returns a-b.
func Sub(a, b Matrix) Matrix {
	var v mat.Dense
	v.Sub(a.Val, b.Val)
	return Matrix{Val: &v, D: combine(a.D, b.D, -1)}
}

// Scale returns s·a.
func Scale(s float64, a Matrix) Matrix {
	return Linear(a, func(m *mat.Dense) *mat.Dense {
		var out mat.Dense
		out.Scale(s, m)
		return &out
	})
}

// Linear applies a linear map to the value and to each derivative.
func Linear(a Matrix, f func(*mat.Dense) *mat.Dense) Matrix {
	out := Matrix{Val: f(a.Val), D: make([]*mat.Dense, len(a.D))}
	for k, d := range a.D {
		if d != nil {
			out.D[k] = f(d)
		}
	}
	return out
}

// Stack concatenates blocks vertically. All blocks must share a column count.
func Stack(blocks ...Matrix) Matrix {
	rows, cols, n := 0, 0, 0
	for _, b := range blocks {
		r, c := b.Dims()
		rows += r
		cols = c
		n = max(n, len(b.D))
	}
	out := Zeros(rows, cols, n)
	all := make([]int, cols)
	for j := range all {
		all[j] = j
	}
	off := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		idx := make([]int, r)
		for i := range idx {
			idx[i] = off + i
		}
		out.SetSub(idx, all, b)
		off += r
	}
	return out
}

// Chain composes a flattened gradient block with seeds dx/dp.
func Chain(flat, seed *mat.Dense) *mat.Dense {
	if flat == nil {
		return nil
	}
	return mul(flat, seed)
}

func combine(a, b []*mat.Dense, sign float64) []*mat.Dense {
	out := make([]*mat.Dense, max(len(a), len(b)))
	for k := range out {
		da, db := at(a, k), at(b, k)
		switch {
		case da == nil && db == nil:
		case db == nil:
			out[k] = mat.DenseCopyOf(da)
		case da == nil:
			var d mat.Dense
			d.Scale(sign, db)
			out[k] = &d
		default:
			var d mat.Dense
			if sign > 0 {
				d.Add(da, db)
			} else {
				d.Sub(da, db)
			}
			out[k] = &d
		}
	}
	return out
}

func at(d []*mat.Dense, k int) *mat.Dense {
	if k < len(d) {
		return d[k]
	}
	return nil
}

func mul(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(a, b)
	return &out
}
