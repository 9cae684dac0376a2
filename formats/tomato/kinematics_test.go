package tomato

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderPositions(t *testing.T) {
	for _, id := range []int{1, 2} {
		s := defaultSynth()
		s.trial = id
		tr := s.build(t)
		f1 := tr.OnsetFrame
		step := tr.V0 / float64(tr.FrameRate)

		pos, err := tr.Positions(Leader, Analysis)
		require.NoError(t, err)
		require.Len(t, pos, tr.Length())

		for i := 0; i < f1; i++ {
			assert.Equal(t, [3]float64{}, pos[i])
		}
		assert.InDelta(t, 0, pos[f1][X], 1e-9)
		assert.InDelta(t, s.d0+step, pos[f1][Y], 1e-9)
		for i := f1 + 1; i < len(pos); i++ {
			assert.InDelta(t, step, pos[i][Y]-pos[i-1][Y], 1e-9)
			assert.Equal(t, pos[f1][X], pos[i][X])
		}

		rotated, err := tr.Positions(Leader, Processing{Rotated: true})
		require.NoError(t, err)
		assert.InDelta(t, s.d0, rotated[f1][Y], 1e-9)

		raw, err := tr.Positions(Leader, Raw)
		require.NoError(t, err)
		assert.Equal(t, [3]float64{}, raw[0])
	}
}

func TestDisplayPositions(t *testing.T) {
	tr := defaultSynth().build(t)

	disp, err := tr.DisplayPositions(Leader, Analysis)
	require.NoError(t, err)
	for i := 0; i < tr.OnsetFrame; i++ {
		assert.Equal(t, [3]float64{DISPLAY_OFFSTAGE, DISPLAY_OFFSTAGE, 0}, disp[i])
	}

	pos, err := tr.Positions(Leader, Analysis)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{}, pos[0])
	assert.Equal(t, pos[tr.OnsetFrame:], disp[tr.OnsetFrame:])
}

func TestVelocities(t *testing.T) {
	s := defaultSynth()
	s.follower = straight(0, 1.2)
	tr := s.build(t)

	t.Run("leader moves at V0 after onset", func(t *testing.T) {
		vel, err := tr.Velocities(Leader, Analysis)
		require.NoError(t, err)
		for i := 0; i < tr.OnsetFrame-1; i++ {
			assert.Equal(t, [3]float64{}, vel[i])
		}
		for i := tr.OnsetFrame + 1; i < len(vel); i++ {
			assert.InDelta(t, tr.V0, vel[i][Y], 1e-9)
			assert.InDelta(t, 0, vel[i][X], 1e-9)
		}
	})

	t.Run("follower velocity is recovered", func(t *testing.T) {
		vel, err := tr.Velocities(Follower, Analysis)
		require.NoError(t, err)
		require.Len(t, vel, tr.Length())
		for i := 2 * testHz; i < len(vel)-2*testHz; i++ {
			assert.InDelta(t, 1.2, vel[i][Y], 0.02)
			assert.InDelta(t, 0, vel[i][X], 1e-6)
		}

		spd, err := tr.Speeds(Follower, Analysis)
		require.NoError(t, err)
		assert.InDelta(t, 1.2, spd[tr.Length()/2], 0.02)

		acc, err := tr.Accelerations(Follower, Analysis)
		require.NoError(t, err)
		assert.InDelta(t, 0, acc[tr.Length()/2][Y], 0.05)
	})

	t.Run("raw follower velocity in trial frame", func(t *testing.T) {
		vel, err := tr.Velocities(Follower, Processing{Rotated: true})
		require.NoError(t, err)
		for _, v := range vel {
			assert.InDelta(t, 1.2, v[Y], 1e-9)
		}
	})

	t.Run("filter parameters can be overridden", func(t *testing.T) {
		pos, err := tr.Positions(Follower, Processing{Rotated: true, Filtered: true, Order: 2, Cutoff: 2})
		require.NoError(t, err)
		assert.Len(t, pos, tr.Length())

		_, err = tr.Positions(Follower, Processing{Filtered: true, Cutoff: 60})
		assert.ErrorIs(t, err, ErrComputation)
	})
}

func TestUnknownRole(t *testing.T) {
	tr := defaultSynth().build(t)
	_, err := tr.Positions(Role(9), Analysis)
	var re *RoleError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, ErrInput)

	_, err = tr.Speeds(Role(9), Raw)
	assert.ErrorAs(t, err, &re)
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"l": Leader, "Leader": Leader, "f": Follower, "follower": Follower} {
		got, err := ParseRole(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRole("x")
	assert.ErrorIs(t, err, ErrInput)
}
