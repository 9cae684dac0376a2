package dsp

import (
	"gonum.org/v1/gonum/interp"
)

// Interpolate evaluates the piecewise-linear interpolant through (ts, ys)
// at every point of at. Points outside [ts[0], ts[n-1]] are extrapolated
// along the first or last segment.
func Interpolate(ts, ys, at []float64) ([]float64, error) {
	if err := CheckTimestamps(ts); err != nil {
		return nil, err
	}
	if len(ys) != len(ts) {
		return nil, &LengthMismatchError{X: len(ts), Y: len(ys)}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(ts, ys); err != nil {
		return nil, err
	}

	n := len(ts)
	head := (ys[1] - ys[0]) / (ts[1] - ts[0])
	tail := (ys[n-1] - ys[n-2]) / (ts[n-1] - ts[n-2])

	out := make([]float64, len(at))
	for i, t := range at {
		switch {
		case t < ts[0]:
			out[i] = ys[0] + (t-ts[0])*head
		case t > ts[n-1]:
			out[i] = ys[n-1] + (t-ts[n-1])*tail
		default:
			out[i] = pl.Predict(t)
		}
	}
	return out, nil
}

// CheckTimestamps verifies that ts has at least two samples and is
// strictly increasing.
func CheckTimestamps(ts []float64) error {
	if len(ts) < 2 {
		return &TooFewSamplesError{Need: 2, Got: len(ts)}
	}
	for i := 1; i < len(ts); i++ {
		if !(ts[i] > ts[i-1]) {
			return &TimestampError{Index: i}
		}
	}
	return nil
}
