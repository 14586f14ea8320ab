package audio

import (
	"errors"
	"fmt"
)

// ErrDegenerateRange is returned when a range has equal bounds and can't be
// used as the source of a Scale.
var ErrDegenerateRange = errors.New("range min and max are equal")

// Range is a closed numeric interval. Min may be greater than Max, in which
// case Scale inverts the mapping.
type Range struct {
	Min, Max float64
}

// Unit is the normalized range every envelope value lives in.
var Unit = Range{0, 1}

func (r Range) String() string {
	return fmt.Sprintf("[%v, %v]", r.Min, r.Max)
}

// Validate reports whether r can be used as a source range.
func (r Range) Validate() error {
	if r.Min == r.Max {
		return fmt.Errorf("%v: %w", r, ErrDegenerateRange)
	}
	return nil
}

// Clamp limits v to the bounds of r.
func (r Range) Clamp(v float64) float64 {
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Scale maps value from the src range onto the dst range by linear
// interpolation. src must not be degenerate; Scale does not check and will
// return Inf or NaN if it is.
func Scale(value float64, src, dst Range) float64 {
	return (value-src.Min)*(dst.Max-dst.Min)/(src.Max-src.Min) + dst.Min
}
