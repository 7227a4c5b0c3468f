package tangent

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestVariableSeedsUnitDerivatives(t *testing.T) {
	x := Variable([]float64{1, 2}, 1, 4)

	if x.N() != 4 {
		t.Fatalf("expected 4 inputs, got %d", x.N())
	}
	if x.D[0] != nil || x.D[3] != nil {
		t.Error("expected exact zero derivatives outside the seeded range")
	}
	if x.D[1].At(0, 0) != 1 || x.D[1].At(1, 0) != 0 {
		t.Errorf("unexpected derivative for input 1: %v", mat.Formatted(x.D[1]))
	}
	if x.D[2].At(1, 0) != 1 {
		t.Errorf("unexpected derivative for input 2: %v", mat.Formatted(x.D[2]))
	}
}

func TestMulProductRule(t *testing.T) {
	// f(x) = [x0 x1] · [x0; x1] = x0² + x1², df/dx = 2x
	x := Variable([]float64{3, -2}, 0, 2)
	f := Mul(x.T(), x)

	if f.Val.At(0, 0) != 13 {
		t.Errorf("expected 13, got %f", f.Val.At(0, 0))
	}
	if f.D[0].At(0, 0) != 6 || f.D[1].At(0, 0) != -4 {
		t.Errorf("expected gradient (6, -4), got (%f, %f)", f.D[0].At(0, 0), f.D[1].At(0, 0))
	}
}

func TestNilDerivativesStayExact(t *testing.T) {
	a := Const(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), 3)
	b := Variable([]float64{1, 1}, 0, 3)

	c := Add(Mul(a, b), Mul(a, b))
	if c.D[2] != nil {
		t.Error("expected derivative with respect to an unused input to stay nil")
	}

	flat := c.Flatten()
	if r, cols := flat.Dims(); r != 2 || cols != 3 {
		t.Fatalf("expected 2x3 block, got %dx%d", r, cols)
	}
	if flat.At(0, 2) != 0 || flat.At(1, 2) != 0 {
		t.Error("expected zero column for unused input")
	}
}

func TestFlattenIsColumnMajor(t *testing.T) {
	m := Zeros(2, 2, 1)
	m.AddPartial(0, 1, 0, 5) // entry (1,0) -> vec index 1
	m.AddPartial(0, 0, 1, 7) // entry (0,1) -> vec index 2

	flat := m.Flatten()
	want := []float64{0, 5, 7, 0}
	for i, w := range want {
		if flat.At(i, 0) != w {
			t.Errorf("vec[%d]: expected %f, got %f", i, w, flat.At(i, 0))
		}
	}
}

func TestFromFlatInvertsFlatten(t *testing.T) {
	x := Variable([]float64{0.5, 1.5, -1}, 0, 3)
	m := Mul(x, x.T())

	back, err := FromFlat(m.Val, m.Flatten(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k := 0; k < 3; k++ {
		if !mat.Equal(back.D[k], m.D[k]) {
			t.Errorf("derivative %d differs after round trip", k)
		}
	}

	if _, err := FromFlat(m.Val, mat.NewDense(8, 3, nil), 3); err == nil {
		t.Error("expected error for wrong block shape")
	}
}

func TestSetSubWritesBlocks(t *testing.T) {
	h := Zeros(3, 3, 2)
	b := Variable([]float64{2}, 1, 2)

	h.SetSub([]int{2}, []int{0}, b)
	if h.Val.At(2, 0) != 2 {
		t.Errorf("expected value 2, got %f", h.Val.At(2, 0))
	}
	if h.D[0] != nil {
		t.Error("expected untouched input to stay nil")
	}
	if h.D[1].At(2, 0) != 1 {
		t.Errorf("expected derivative 1, got %f", h.D[1].At(2, 0))
	}
}

func TestChainAppliesSeed(t *testing.T) {
	x := Variable([]float64{1, 2}, 0, 2)
	f := Mul(x.T(), x) // df/dx = [2 4]

	// x = [p; 2p] -> df/dp = 2 + 8 = 10
	seed := mat.NewDense(2, 1, []float64{1, 2})
	out := Chain(f.Flatten(), seed)
	if math.Abs(out.At(0, 0)-10) > 1e-12 {
		t.Errorf("expected 10, got %f", out.At(0, 0))
	}

	if Chain(nil, seed) != nil {
		t.Error("expected nil for nil block")
	}
}

func TestStackConcatenates(t *testing.T) {
	a := Variable([]float64{1}, 0, 2)
	b := Variable([]float64{2, 3}, 0, 2)

	s := Stack(a, b)
	if r, c := s.Dims(); r != 3 || c != 1 {
		t.Fatalf("expected 3x1, got %dx%d", r, c)
	}
	if s.Val.At(2, 0) != 3 {
		t.Errorf("expected 3, got %f", s.Val.At(2, 0))
	}
	if s.D[1].At(2, 0) != 1 || s.D[0].At(0, 0) != 1 {
		t.Error("unexpected stacked derivatives")
	}
}

func TestRestrictAndExtend(t *testing.T) {
	x := Variable([]float64{1, 2, 3}, 0, 3)

	r := x.Restrict(1, 3)
	if r.N() != 2 || r.D[0].At(1, 0) != 1 {
		t.Error("restrict did not keep inputs 1 and 2")
	}

	e := r.Extend(5)
	if e.N() != 5 || e.D[4] != nil {
		t.Error("extend should add exact zero inputs")
	}
}
