package dsp

import "fmt"

type LengthMismatchError struct {
	X int
	Y int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("sample counts differ (%d != %d)", e.X, e.Y)
}

type TooFewSamplesError struct {
	Need int
	Got  int
}

func (e *TooFewSamplesError) Error() string {
	return fmt.Sprintf("need at least %d samples, got %d", e.Need, e.Got)
}

// TimestampError reports the first sample whose timestamp does not
// strictly follow its predecessor.
type TimestampError struct {
	Index int
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("timestamps are not strictly increasing at sample %d", e.Index)
}

type FilterOrderError struct {
	Order  int
	Length int
}

func (e *FilterOrderError) Error() string {
	if e.Length > 0 {
		return fmt.Sprintf("filter order %d needs more than %d samples", e.Order, e.Length)
	}
	return fmt.Sprintf("invalid filter order %d", e.Order)
}

// CutoffError is returned for a normalized cutoff outside (0, 1), where 1
// is the Nyquist frequency.
type CutoffError struct {
	Wn float64
}

func (e *CutoffError) Error() string {
	return fmt.Sprintf("normalized cutoff %g is outside (0, 1)", e.Wn)
}

type WindowError struct {
	Window int
	Length int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window of %d samples does not fit %d samples", e.Window, e.Length)
}
