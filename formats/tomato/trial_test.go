package tomato

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrial(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		rec := defaultSynth().record()
		rec.FrameRate, rec.Order, rec.Cutoff = 0, 0, 0
		tr, err := NewTrial(rec)
		require.NoError(t, err)
		assert.Equal(t, DEFAULT_FRAME_RATE, tr.FrameRate)
		assert.Equal(t, DEFAULT_ORDER, tr.Order)
		assert.Equal(t, DEFAULT_CUTOFF, tr.Cutoff)
		assert.Equal(t, 720, tr.Length())
	})

	t.Run("finds the leader onset", func(t *testing.T) {
		s := defaultSynth()
		s.onset = 45
		assert.Equal(t, 45, s.build(t).OnsetFrame)
	})

	t.Run("trial without leader", func(t *testing.T) {
		s := defaultSynth()
		s.leader = NoLeader
		tr := s.build(t)
		assert.Equal(t, NO_LEADER_ONSET_FRAME, tr.OnsetFrame)
		assert.Nil(t, tr.LeaderOnset)
	})

	t.Run("leader that never moves", func(t *testing.T) {
		rec := defaultSynth().record()
		for i := range rec.LeaderPosition {
			rec.LeaderPosition[i] = [3]float64{1, 1, 0}
		}
		tr, err := NewTrial(rec)
		require.NoError(t, err)
		assert.Equal(t, 0, tr.OnsetFrame)
	})

	tests := []struct {
		name   string
		mutate func(*Record)
		check  func(*testing.T, error)
	}{
		{
			name: "short follower position",
			mutate: func(r *Record) {
				r.FollowerPosition = r.FollowerPosition[:10]
			},
			check: func(t *testing.T, err error) {
				var e *RecordCountMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "follower position", e.Field)
				assert.Equal(t, 10, e.Got)
				assert.Equal(t, 720, e.Want)
			},
		},
		{
			name: "short leader position",
			mutate: func(r *Record) {
				r.LeaderPosition = r.LeaderPosition[:719]
			},
			check: func(t *testing.T, err error) {
				var e *RecordCountMismatchError
				assert.ErrorAs(t, err, &e)
			},
		},
		{
			name: "repeated timestamp",
			mutate: func(r *Record) {
				r.Timestamps[5] = r.Timestamps[4]
			},
			check: func(t *testing.T, err error) {
				var e *TimestampOrderError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 5, e.Index)
			},
		},
		{
			name: "leader without onset",
			mutate: func(r *Record) {
				r.LeaderOnset = nil
			},
			check: func(t *testing.T, err error) {
				var e *MissingLeaderOnsetError
				assert.ErrorAs(t, err, &e)
			},
		},
		{
			name: "capture dropout in follower position",
			mutate: func(r *Record) {
				r.FollowerPosition[300][0] = math.NaN()
			},
			check: func(t *testing.T, err error) {
				var e *NonFiniteError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "follower position", e.Field)
				assert.Equal(t, 300, e.Frame)
			},
		},
		{
			name: "infinite leader position",
			mutate: func(r *Record) {
				r.LeaderPosition[400][1] = math.Inf(-1)
			},
			check: func(t *testing.T, err error) {
				var e *NonFiniteError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "leader position", e.Field)
			},
		},
		{
			name: "nan orientation",
			mutate: func(r *Record) {
				r.FollowerOrientation[0][2] = math.NaN()
			},
			check: func(t *testing.T, err error) {
				var e *NonFiniteError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "follower orientation", e.Field)
				assert.Equal(t, 0, e.Frame)
			},
		},
		{
			name: "nan timestamp",
			mutate: func(r *Record) {
				r.Timestamps[10] = math.NaN()
			},
			check: func(t *testing.T, err error) {
				var e *NonFiniteError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "timestamp", e.Field)
				assert.Equal(t, 10, e.Frame)
			},
		},
		{
			name: "negative frame rate",
			mutate: func(r *Record) {
				r.FrameRate = -90
			},
			check: func(t *testing.T, err error) {
				var e *FrameRateError
				assert.ErrorAs(t, err, &e)
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := defaultSynth().record()
			tc.mutate(&rec)
			tr, err := NewTrial(rec)
			assert.Nil(t, tr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInput))
			tc.check(t, err)
		})
	}
}

func TestTrialOwnsItsData(t *testing.T) {
	rec := defaultSynth().record()
	tr, err := NewTrial(rec)
	require.NoError(t, err)

	before, err := tr.Positions(Follower, Raw)
	require.NoError(t, err)

	rec.FollowerPosition[0] = [3]float64{100, 100, 100}
	rec.Timestamps[0] = -5
	*rec.LeaderOnset = 42

	after, err := tr.Positions(Follower, Raw)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 0.0, tr.Time(false)[0])
	assert.Equal(t, 1.0, *tr.LeaderOnset)

	out := tr.Record()
	out.FollowerPosition[1] = [3]float64{100, 100, 100}
	again, err := tr.Positions(Follower, Raw)
	require.NoError(t, err)
	assert.Equal(t, before, again)
}

func TestTrialTime(t *testing.T) {
	tr := defaultSynth().build(t)
	raw := tr.Time(false)
	even := tr.Time(true)
	require.Len(t, raw, tr.Length())
	require.Len(t, even, tr.Length())
	assert.Equal(t, 0.0, even[0])
	assert.InDelta(t, raw[len(raw)-1], even[len(even)-1], 1e-12)
}

func TestLeaderKind(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want LeaderKind
	}{
		{"pole", Pole},
		{"Avatar", Avatar},
		{"", NoLeader},
		{"none", NoLeader},
	} {
		got, err := ParseLeaderKind(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseLeaderKind("robot")
	assert.ErrorIs(t, err, ErrInput)

	var k LeaderKind
	require.NoError(t, k.UnmarshalText([]byte("avatar")))
	assert.Equal(t, Avatar, k)
	text, err := Pole.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "pole", string(text))
}
