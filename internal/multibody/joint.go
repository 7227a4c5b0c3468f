package multibody

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/spatial"
)

type JointType int

const (
	Fixed JointType = iota
	Revolute
	Prismatic
)

func (t JointType) String() string {
	switch t {
	case Fixed:
		return "fixed"
	case Revolute:
		return "revolute"
	case Prismatic:
		return "prismatic"
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

func ParseJointType(s string) (JointType, error) {
	switch s {
	case "fixed":
		return Fixed, nil
	case "revolute", "continuous":
		return Revolute, nil
	case "prismatic":
		return Prismatic, nil
	}
	return Fixed, fmt.Errorf("unknown joint type: %s", s)
}

// NumDOF returns the number of position and velocity coordinates of the joint.
func (t JointType) NumDOF() int {
	if t == Fixed {
		return 0
	}
	return 1
}

// Joint connects a body to its parent. Origin is the fixed transform from the
// parent body frame to the joint frame at q = 0; nil means identity.
type Joint struct {
	Type          JointType
	Axis          [3]float64
	Origin        *mat.Dense
	Damping       float64
	Coulomb       float64
	CoulombWindow float64
}

// MotionSubspace returns the joint twist per unit velocity in the body frame,
// 6×NumDOF, or nil for a fixed joint.
func (j Joint) MotionSubspace() *mat.Dense {
	a := spatial.Normalize(j.Axis)
	switch j.Type {
	case Revolute:
		return mat.NewDense(6, 1, []float64{a[0], a[1], a[2], 0, 0, 0})
	case Prismatic:
		return mat.NewDense(6, 1, []float64{0, 0, 0, a[0], a[1], a[2]})
	}
	return nil
}

// Transform returns the parent-to-body transform at joint position q, and
// its derivative with respect to q (nil for fixed joints).
func (j Joint) Transform(q []float64) (*mat.Dense, *mat.Dense) {
	origin := j.Origin
	if origin == nil {
		origin = spatial.Identity()
	}
	if j.Type == Fixed {
		return mat.DenseCopyOf(origin), nil
	}

	a := spatial.Normalize(j.Axis)
	var motion *mat.Dense
	if j.Type == Revolute {
		motion = spatial.Homogeneous(spatial.AxisAngle(a, q[0]), [3]float64{})
	} else {
		motion = spatial.Homogeneous(spatial.Identity().Slice(0, 3, 0, 3), [3]float64{a[0] * q[0], a[1] * q[0], a[2] * q[0]})
	}

	var t, dt mat.Dense
	t.Mul(origin, motion)
	dt.Mul(&t, spatial.TwistHat(j.MotionSubspace()))
	return &t, &dt
}

// friction returns the joint friction force at velocity v and its derivative.
func (j Joint) friction(v float64) (f, df float64) {
	f = j.Damping * v
	df = j.Damping
	if j.Coulomb == 0 {
		return f, df
	}
	if j.CoulombWindow <= 0 {
		switch {
		case v > 0:
			f += j.Coulomb
		case v < 0:
			f -= j.Coulomb
		}
		return f, df
	}
	s := v / j.CoulombWindow
	if math.Abs(s) >= 1 {
		f += j.Coulomb * math.Copysign(1, s)
		return f, df
	}
	return f + j.Coulomb*s, df + j.Coulomb/j.CoulombWindow
}
