// Package vec holds the 3-component vector primitive used throughout the
// simulation. Arithmetic (add, subtract, scale, dot, cross, norm) comes from
// gonum's spatial/r3 package; this package adds the guarded normalization the
// engine's hot paths depend on.
package vec

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrZeroLength indicates an attempt to normalize a zero-length vector.
var ErrZeroLength = errors.New("vec: cannot normalize zero-length vector")

// Unit returns the unit vector colinear to v, or ErrZeroLength when v has no
// direction. The simulation's hot paths guard distances before calling this,
// so the error case is reserved for misuse by callers.
func Unit(v r3.Vec) (r3.Vec, error) {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}, ErrZeroLength
	}
	return r3.Scale(1/n, v), nil
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
