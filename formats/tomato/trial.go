package tomato

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gotomato/internal/dsp"
)

const (
	DEFAULT_FRAME_RATE    = 90   // (Hz) capture rate of the motion tracker
	DEFAULT_ORDER         = 4    // Butterworth filter order
	DEFAULT_CUTOFF        = 0.6  // (Hz) Butterworth cutoff frequency
	DEFAULT_D0            = 2.0  // (m) target following distance
	NO_LEADER_ONSET_FRAME = 1    // onset frame used for trials without a leader
	FILTER_PAD            = 3    // (s) extrapolated signal added on both ends before filtering
	DISPLAY_OFFSTAGE      = 99.0 // (m) where the leader is parked before its onset on display traces
)

type LeaderKind uint8

const (
	NoLeader LeaderKind = iota
	Pole
	Avatar
)

func (k LeaderKind) String() string {
	switch k {
	case Pole:
		return "pole"
	case Avatar:
		return "avatar"
	default:
		return "none"
	}
}

func ParseLeaderKind(s string) (LeaderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pole":
		return Pole, nil
	case "avatar":
		return Avatar, nil
	case "", "none":
		return NoLeader, nil
	}
	return NoLeader, fmt.Errorf("%w: unknown leader kind %q", ErrInput, s)
}

func (k LeaderKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *LeaderKind) UnmarshalText(text []byte) error {
	v, err := ParseLeaderKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Meta is the configuration of one experimental run.
type Meta struct {
	SubjectId   int        `codec:"," json:"subject"`
	TrialId     int        `codec:"," json:"trial"`
	D0          float64    `codec:"," json:"d0"`
	V0          float64    `codec:"," json:"v0"`
	FrameRate   int        `codec:"," json:"frame_rate"`
	Order       int        `codec:"," json:"order"`
	Cutoff      float64    `codec:"," json:"cutoff"`
	Leader      LeaderKind `codec:"," json:"leader"`
	LeaderOnset *float64   `codec:"," json:"leader_onset"`
	LeaderModel string     `codec:"," json:"leader_model"`
}

// Record is the raw, serializable form of a trial: one row per captured
// frame in every array.
type Record struct {
	Meta
	LeaderPosition      [][3]float64 `codec:","`
	FollowerPosition    [][3]float64 `codec:","`
	FollowerOrientation [][3]float64 `codec:","`
	Timestamps          []float64    `codec:","`
}

// Trial owns the raw signals of one run. Raw arrays are private copies
// and are never modified after construction; every kinematic query
// allocates its own output.
type Trial struct {
	Meta
	OnsetFrame int
	lpos       [][3]float64
	fpos       [][3]float64
	fori       [][3]float64
	tstamps    []float64
}

func NewTrial(rec Record) (*Trial, error) {
	meta := rec.Meta
	if meta.FrameRate == 0 {
		meta.FrameRate = DEFAULT_FRAME_RATE
	}
	if meta.Order == 0 {
		meta.Order = DEFAULT_ORDER
	}
	if meta.Cutoff == 0 {
		meta.Cutoff = DEFAULT_CUTOFF
	}
	if meta.FrameRate < 0 {
		return nil, &FrameRateError{FrameRate: meta.FrameRate}
	}

	n := len(rec.Timestamps)
	for _, f := range []struct {
		name string
		got  int
	}{
		{"leader position", len(rec.LeaderPosition)},
		{"follower position", len(rec.FollowerPosition)},
		{"follower orientation", len(rec.FollowerOrientation)},
	} {
		if f.got != n {
			return nil, &RecordCountMismatchError{Field: f.name, Got: f.got, Want: n}
		}
	}
	for _, f := range []struct {
		name string
		data [][3]float64
	}{
		{"leader position", rec.LeaderPosition},
		{"follower position", rec.FollowerPosition},
		{"follower orientation", rec.FollowerOrientation},
	} {
		if i := nonFinite(f.data); i >= 0 {
			return nil, &NonFiniteError{Field: f.name, Frame: i}
		}
	}
	for i, ts := range rec.Timestamps {
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return nil, &NonFiniteError{Field: "timestamp", Frame: i}
		}
	}
	if err := dsp.CheckTimestamps(rec.Timestamps); err != nil {
		var te *dsp.TimestampError
		if errors.As(err, &te) {
			return nil, &TimestampOrderError{Index: te.Index}
		}
		return nil, inputError("timestamps", err)
	}
	if meta.Leader != NoLeader && meta.LeaderOnset == nil {
		return nil, &MissingLeaderOnsetError{SubjectId: meta.SubjectId, TrialId: meta.TrialId}
	}
	if meta.LeaderOnset != nil {
		onset := *meta.LeaderOnset
		meta.LeaderOnset = &onset
	}

	t := &Trial{
		Meta:    meta,
		lpos:    clone(rec.LeaderPosition),
		fpos:    clone(rec.FollowerPosition),
		fori:    clone(rec.FollowerOrientation),
		tstamps: append([]float64(nil), rec.Timestamps...),
	}
	t.OnsetFrame = t.findOnset()
	return t, nil
}

// findOnset returns the first frame whose raw leader position differs from
// the initial one in any component, or 0 if the leader never moves.
func (this *Trial) findOnset() int {
	if this.Leader == NoLeader {
		return NO_LEADER_ONSET_FRAME
	}
	p0 := this.lpos[0]
	for i, p := range this.lpos {
		if p != p0 {
			return i
		}
	}
	return 0
}

func (this *Trial) Length() int {
	return len(this.tstamps)
}

// Record returns a deep copy of the trial's raw data.
func (this *Trial) Record() Record {
	meta := this.Meta
	if meta.LeaderOnset != nil {
		onset := *meta.LeaderOnset
		meta.LeaderOnset = &onset
	}
	return Record{
		Meta:                meta,
		LeaderPosition:      clone(this.lpos),
		FollowerPosition:    clone(this.fpos),
		FollowerOrientation: clone(this.fori),
		Timestamps:          append([]float64(nil), this.tstamps...),
	}
}

func (this *Trial) Orientations() [][3]float64 {
	return clone(this.fori)
}

// Time returns the raw capture timestamps, or evenly spaced ones spanning
// the same duration when the filtered (resampled) traces are plotted.
func (this *Trial) Time(filtered bool) []float64 {
	if filtered {
		return dsp.Linspace(0, this.tstamps[len(this.tstamps)-1], len(this.tstamps))
	}
	return append([]float64(nil), this.tstamps...)
}

// nonFinite returns the first frame holding a NaN or infinite component,
// or -1.
func nonFinite(data [][3]float64) int {
	for i, p := range data {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return i
			}
		}
	}
	return -1
}

func clone(data [][3]float64) [][3]float64 {
	if data == nil {
		return nil
	}
	out := make([][3]float64, len(data))
	copy(out, data)
	return out
}
