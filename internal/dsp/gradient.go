package dsp

import "math"

// Gradient returns the unit-spaced numerical derivative of data using
// central differences inside and one-sided differences at both ends.
func Gradient(data []float64) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = data[1] - data[0]
	out[n-1] = data[n-1] - data[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (data[i+1] - data[i-1]) / 2.0
	}
	return out
}

func Linspace(min, max float64, num int) []float64 {
	if num == 1 {
		return []float64{min}
	}
	step := (max - min) / float64(num-1)
	bins := make([]float64, num)
	for i := range bins {
		bins[i] = min + step*float64(i)
	}
	return bins
}

// Unwrap removes jumps larger than half a period from a periodic signal,
// e.g. a heading that wraps at +/-180 degrees.
func Unwrap(data []float64, period float64) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	half := period / 2.0
	offset := 0.0
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		d := data[i] - data[i-1]
		if d > half || d < -half {
			offset -= period * math.Round(d/period)
		}
		out[i] = data[i] + offset
	}
	return out
}
