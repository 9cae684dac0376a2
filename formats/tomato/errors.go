package tomato

import (
	"errors"
	"fmt"
)

var (
	// ErrInput marks malformed trial data. It is detected when a trial is
	// constructed and never coerced.
	ErrInput = errors.New("invalid trial input")
	// ErrComputation marks a request that cannot be evaluated on otherwise
	// valid data (window too long, zero closing speed, ...).
	ErrComputation = errors.New("computation failed")
)

type RecordCountMismatchError struct {
	Field string
	Got   int
	Want  int
}

func (e *RecordCountMismatchError) Error() string {
	return fmt.Sprintf("%s has %d records, expected %d", e.Field, e.Got, e.Want)
}

func (e *RecordCountMismatchError) Unwrap() error { return ErrInput }

type TimestampOrderError struct {
	Index int
}

func (e *TimestampOrderError) Error() string {
	return fmt.Sprintf("timestamps are not strictly increasing at frame %d", e.Index)
}

func (e *TimestampOrderError) Unwrap() error { return ErrInput }

type MissingLeaderOnsetError struct {
	SubjectId int
	TrialId   int
}

func (e *MissingLeaderOnsetError) Error() string {
	return fmt.Sprintf("subject %d trial %d has a leader but no leader onset", e.SubjectId, e.TrialId)
}

func (e *MissingLeaderOnsetError) Unwrap() error { return ErrInput }

type NonFiniteError struct {
	Field string
	Frame int
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s is not finite at frame %d", e.Field, e.Frame)
}

func (e *NonFiniteError) Unwrap() error { return ErrInput }

type FrameRateError struct {
	FrameRate int
}

func (e *FrameRateError) Error() string {
	return fmt.Sprintf("frame rate must be positive, got %d", e.FrameRate)
}

func (e *FrameRateError) Unwrap() error { return ErrInput }

type FrameError struct {
	Frame  int
	Length int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d is outside [0, %d)", e.Frame, e.Length)
}

func (e *FrameError) Unwrap() error { return ErrInput }

type RoleError struct {
	Role Role
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("unknown role %d", uint8(e.Role))
}

func (e *RoleError) Unwrap() error { return ErrInput }

type ZeroClosingSpeedError struct {
	Speed float64
}

func (e *ZeroClosingSpeedError) Error() string {
	return fmt.Sprintf("leader and follower both move at %g m/s, time to contact is undefined", e.Speed)
}

func (e *ZeroClosingSpeedError) Unwrap() error { return ErrComputation }

type NoLeaderError struct{}

func (e *NoLeaderError) Error() string {
	return "trial has no leader"
}

func (e *NoLeaderError) Unwrap() error { return ErrComputation }

type NoFreewalkError struct {
	SubjectId int
}

func (e *NoFreewalkError) Error() string {
	return fmt.Sprintf("subject %d has no usable free-walk trials", e.SubjectId)
}

func (e *NoFreewalkError) Unwrap() error { return ErrComputation }

// TrialError attributes a failure to one trial of a subject, so that
// rollups can skip it and carry on with the siblings.
type TrialError struct {
	SubjectId int
	TrialId   int
	Freewalk  bool
	Err       error
}

func (e *TrialError) Error() string {
	kind := "trial"
	if e.Freewalk {
		kind = "free-walk trial"
	}
	return fmt.Sprintf("subject %d %s %d: %v", e.SubjectId, kind, e.TrialId, e.Err)
}

func (e *TrialError) Unwrap() error { return e.Err }

func computationError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrComputation, err)
}

func inputError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInput, err)
}
