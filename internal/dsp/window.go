package dsp

import (
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
)

type Number interface {
	constraints.Float | constraints.Integer
}

func toFloats[T Number](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// MaxAverage returns the largest mean over all contiguous windows of
// window samples.
func MaxAverage[T Number](data []T, window int) (float64, error) {
	if window < 1 || window > len(data) {
		return 0, &WindowError{Window: window, Length: len(data)}
	}

	cs := make([]float64, len(data)+1)
	floats.CumSum(cs[1:], toFloats(data))

	best := math.Inf(-1)
	for i := 0; i+window <= len(data); i++ {
		if s := cs[i+window] - cs[i]; s > best {
			best = s
		}
	}
	return best / float64(window), nil
}

// RunningAverage returns the cumulative mean of data from its first sample.
func RunningAverage[T Number](data []T) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	floats.CumSum(out, toFloats(data))
	for i := range out {
		out[i] /= float64(i + 1)
	}
	return out
}

// FindIntersections returns the indices i where the curves x1 and x2 enter
// or leave the band |x1-x2| < tolerance between samples i and i+1. A pair
// of samples on opposite sides of the band, both outside it, counts as a
// crossing as well.
func FindIntersections(x1, x2 []float64, tolerance float64) []int {
	n := len(x1)
	if len(x2) < n {
		n = len(x2)
	}
	var inds []int
	for i := 0; i+1 < n; i++ {
		d0 := x1[i] - x2[i]
		d1 := x1[i+1] - x2[i+1]
		in0 := math.Abs(d0) < tolerance
		in1 := math.Abs(d1) < tolerance
		if in0 != in1 || (!in0 && !in1 && math.Signbit(d0) != math.Signbit(d1)) {
			inds = append(inds, i)
		}
	}
	return inds
}

// ArgMaxAbs returns the index of the first sample with the largest
// magnitude, or -1 for empty input.
func ArgMaxAbs(data []float64) int {
	idx := -1
	best := math.Inf(-1)
	for i, v := range data {
		if a := math.Abs(v); a > best {
			best = a
			idx = i
		}
	}
	return idx
}
