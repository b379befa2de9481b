package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distances between each test point and its real
// counterpart, in the radius unit.
type Summary struct {
	Count         int
	MeanError     float64
	StdDevError   float64
	RMSError      float64
	MaxError      float64
	MaxErrorIndex int
}

// PairErrors returns |Test[i] - Real[i]| for every pair.
func PairErrors(d Dataset) []float64 {
	errs := make([]float64, d.Len())
	for i := range errs {
		errs[i] = r3.Norm(r3.Sub(d.Test[i].Vec(), d.Real[i].Vec()))
	}
	return errs
}

// Summarize computes error statistics for d. An empty dataset yields a zero
// Summary with MaxErrorIndex -1.
func Summarize(d Dataset) Summary {
	errs := PairErrors(d)
	if len(errs) == 0 {
		return Summary{MaxErrorIndex: -1}
	}

	s := Summary{Count: len(errs)}
	if len(errs) > 1 {
		s.MeanError, s.StdDevError = stat.MeanStdDev(errs, nil)
	} else {
		s.MeanError = errs[0]
	}
	s.RMSError = math.Sqrt(floats.Dot(errs, errs) / float64(len(errs)))
	s.MaxErrorIndex = floats.MaxIdx(errs)
	s.MaxError = errs[s.MaxErrorIndex]
	return s
}
