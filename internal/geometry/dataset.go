package geometry

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/spherecompare/internal/measurements"
)

// ErrLengthMismatch is returned when test and real sequences cannot be
// paired index by index.
var ErrLengthMismatch = errors.New("test and real point counts differ")

// Dataset holds the index-aligned test and real point sets. Test[i] and
// Real[i] come from the same input row.
type Dataset struct {
	Test []Point
	Real []Point
}

// Pair is one aligned test/real measurement.
type Pair struct {
	Index int
	Test  Point
	Real  Point
}

// NewDataset pairs test and real points, rejecting unequal lengths.
func NewDataset(test, ref []Point) (Dataset, error) {
	if len(test) != len(ref) {
		return Dataset{}, fmt.Errorf("%w: %d test, %d real", ErrLengthMismatch, len(test), len(ref))
	}
	return Dataset{Test: test, Real: ref}, nil
}

// FromColumns converts loaded measurements into a Dataset. Both sets share
// the row's radius.
func FromColumns(c *measurements.Columns) (Dataset, error) {
	n := c.Len()
	if n == 0 {
		return Dataset{}, nil
	}
	if len(c.TestTheta) != n || len(c.TestPhi) != n || len(c.RealTheta) != n || len(c.RealPhi) != n {
		return Dataset{}, fmt.Errorf("%w: ragged measurement columns", ErrLengthMismatch)
	}

	test := make([]Point, n)
	ref := make([]Point, n)
	for i := 0; i < n; i++ {
		test[i] = SphericalToCartesianCustom(c.Radius[i], c.TestTheta[i], c.TestPhi[i])
		ref[i] = SphericalToCartesianCustom(c.Radius[i], c.RealTheta[i], c.RealPhi[i])
	}
	return Dataset{Test: test, Real: ref}, nil
}

// Len returns the number of pairs.
func (d Dataset) Len() int {
	return len(d.Test)
}

// Validate reports ErrLengthMismatch for hand-built datasets whose sides
// differ in length.
func (d Dataset) Validate() error {
	if len(d.Test) != len(d.Real) {
		return fmt.Errorf("%w: %d test, %d real", ErrLengthMismatch, len(d.Test), len(d.Real))
	}
	return nil
}

// Pairs returns the aligned pairs in input order.
func (d Dataset) Pairs() []Pair {
	pairs := make([]Pair, d.Len())
	for i := range pairs {
		pairs[i] = Pair{Index: i, Test: d.Test[i], Real: d.Real[i]}
	}
	return pairs
}

// Bounds returns the axis-aligned box containing every point. ok is false
// for an empty dataset.
func (d Dataset) Bounds() (lo, hi Point, ok bool) {
	return BoundsOf(d.Test, d.Real)
}

// BoundsOf returns the axis-aligned box containing every point of sets. ok
// is false when the sets hold no points.
func BoundsOf(sets ...[]Point) (lo, hi Point, ok bool) {
	first := true
	for _, set := range sets {
		for _, p := range set {
			if first {
				lo, hi, first = p, p, false
				continue
			}
			lo = Point{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
			hi = Point{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
		}
	}
	return lo, hi, !first
}

// Scale returns a copy of d with every coordinate multiplied by k.
func (d Dataset) Scale(k float64) Dataset {
	scale := func(src []Point) []Point {
		if src == nil {
			return nil
		}
		out := make([]Point, len(src))
		for i, p := range src {
			out[i] = PointFromVec(r3.Scale(k, p.Vec()))
		}
		return out
	}
	return Dataset{Test: scale(d.Test), Real: scale(d.Real)}
}
