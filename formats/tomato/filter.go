package tomato

import (
	"errors"

	"gotomato/internal/dsp"
)

// Filter resamples data onto a uniform frameRate grid and low-pass filters
// it with a zero-phase Butterworth filter. FILTER_PAD seconds of linearly
// extrapolated signal are added on both ends to keep the filter transients
// out of the returned span, which has the same length as data.
func Filter(data [][3]float64, ts []float64, frameRate, order int, cutoff float64) ([][3]float64, error) {
	if frameRate <= 0 {
		return nil, &FrameRateError{FrameRate: frameRate}
	}
	if len(data) != len(ts) {
		return nil, &RecordCountMismatchError{Field: "filter input", Got: len(data), Want: len(ts)}
	}
	if err := dsp.CheckTimestamps(ts); err != nil {
		var te *dsp.TimestampError
		if errors.As(err, &te) {
			return nil, &TimestampOrderError{Index: te.Index}
		}
		return nil, inputError("filter", err)
	}

	b, a, err := dsp.Butter(order, cutoff/(float64(frameRate)/2.0))
	if err != nil {
		return nil, computationError("filter", err)
	}

	n := len(data)
	pad := FILTER_PAD * frameRate
	grid := make([]float64, n+2*pad)
	for i := range grid {
		grid[i] = float64(i-pad) / float64(frameRate)
	}

	out := make([][3]float64, n)
	for k := 0; k < 3; k++ {
		resampled, err := dsp.Interpolate(ts, Component(data, k), grid)
		if err != nil {
			return nil, inputError("filter", err)
		}
		filtered, err := dsp.FiltFilt(b, a, resampled)
		if err != nil {
			return nil, computationError("filter", err)
		}
		for i := range out {
			out[i][k] = filtered[i+pad]
		}
	}
	return out, nil
}
