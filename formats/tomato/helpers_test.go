package tomato

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const testHz = 90

// motion gives a position in the trial frame at a time in seconds.
type motion func(sec float64) (x, y float64)

func straight(x, speed float64) motion {
	return func(sec float64) (float64, float64) {
		return x, speed * sec
	}
}

// sidestep walks forward at speed and smoothly moves lateral meters to the
// side between 3 and 5 seconds.
func sidestep(x0, speed, lateral float64) motion {
	return func(sec float64) (float64, float64) {
		return x0 + lateral*smoothstep((sec-3.0)/2.0), speed * sec
	}
}

func smoothstep(s float64) float64 {
	s = math.Max(0, math.Min(1, s))
	return s * s * (3 - 2*s)
}

// toCapture is the inverse of Rotate.
func toCapture(x, y float64, trialId int) [3]float64 {
	c, s := math.Cos(Theta), math.Sin(Theta)
	q := [3]float64{x*c + y*s + HomePole[X], -x*s + y*c + HomePole[Y], HomePole[Z]}
	if trialId%2 == 0 {
		q = [3]float64{-q[X], -q[Y], -q[Z]}
	}
	return q
}

type synth struct {
	subject  int
	trial    int
	frames   int
	onset    int
	v0       float64
	d0       float64
	leader   LeaderKind
	follower motion
}

func defaultSynth() synth {
	return synth{
		subject:  1,
		trial:    1,
		frames:   720,
		onset:    90,
		v0:       1.0,
		d0:       2.0,
		leader:   Pole,
		follower: straight(0, 1.2),
	}
}

func (s synth) record() Record {
	rec := Record{Meta: Meta{
		SubjectId: s.subject,
		TrialId:   s.trial,
		D0:        s.d0,
		V0:        s.v0,
		FrameRate: testHz,
		Leader:    s.leader,
	}}
	if s.leader != NoLeader {
		onset := float64(s.onset) / testHz
		rec.LeaderOnset = &onset
	}
	for i := 0; i < s.frames; i++ {
		sec := float64(i) / testHz
		fx, fy := s.follower(sec)
		lpos := [3]float64{}
		if s.leader != NoLeader && i >= s.onset {
			lpos = toCapture(0, s.d0+s.v0*float64(i-s.onset)/testHz, s.trial)
		}
		rec.Timestamps = append(rec.Timestamps, sec)
		rec.LeaderPosition = append(rec.LeaderPosition, lpos)
		rec.FollowerPosition = append(rec.FollowerPosition, toCapture(fx, fy, s.trial))
		rec.FollowerOrientation = append(rec.FollowerOrientation, [3]float64{10 * sec, 0, 0})
	}
	return rec
}

func (s synth) build(t *testing.T) *Trial {
	t.Helper()
	tr, err := NewTrial(s.record())
	require.NoError(t, err)
	return tr
}
