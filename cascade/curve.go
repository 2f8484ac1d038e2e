package cascade

import (
	"errors"
	"fmt"
	"math"
)

var ErrBadCurve = errors.New("invalid chain multiplier curve")

type CurveKind uint8

const (
	LinearCurve CurveKind = iota
	GeometricCurve
)

// A Curve maps a cascade step index to its chain multiplier. Curves
// are strictly increasing in the step index, so longer chains always
// score more per matched cell; constructors reject parameters that
// would violate that.
type Curve struct {
	kind   CurveKind
	base   float64
	growth float64
}

// Linear builds the curve base + growth*step.
func Linear(base, growth float64) (Curve, error) {
	if base <= 0 || growth <= 0 {
		return Curve{}, fmt.Errorf("%w: linear needs base > 0 and growth > 0, got %v/%v",
			ErrBadCurve, base, growth)
	}
	return Curve{kind: LinearCurve, base: base, growth: growth}, nil
}

// Geometric builds the curve base * growth^step.
func Geometric(base, growth float64) (Curve, error) {
	if base <= 0 || growth <= 1 {
		return Curve{}, fmt.Errorf("%w: geometric needs base > 0 and growth > 1, got %v/%v",
			ErrBadCurve, base, growth)
	}
	return Curve{kind: GeometricCurve, base: base, growth: growth}, nil
}

// FromSpec builds a curve from configuration strings.
func FromSpec(kind string, base, growth float64) (Curve, error) {
	switch kind {
	case "linear":
		return Linear(base, growth)
	case "geometric":
		return Geometric(base, growth)
	}
	return Curve{}, fmt.Errorf("%w: unknown kind %q", ErrBadCurve, kind)
}

// DefaultCurve is linear 1,2,3,... — the classic chain bonus.
func DefaultCurve() Curve {
	c, _ := Linear(1, 1)
	return c
}

// Multiplier returns the chain multiplier for a zero-based step index.
func (c Curve) Multiplier(step int) float64 {
	switch c.kind {
	case GeometricCurve:
		return c.base * math.Pow(c.growth, float64(step))
	default:
		return c.base + c.growth*float64(step)
	}
}

func (c Curve) String() string {
	if c.kind == GeometricCurve {
		return fmt.Sprintf("geometric(%v,%v)", c.base, c.growth)
	}
	return fmt.Sprintf("linear(%v,%v)", c.base, c.growth)
}
