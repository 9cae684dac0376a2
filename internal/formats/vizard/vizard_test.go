package vizard

import (
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotomato/formats/tomato"
)

// trialCSV writes n frames at 90 Hz; the leader appears at frame onset.
func trialCSV(n, onset int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		lx, lz, ly := 0.0, 0.0, 0.0
		if i >= onset {
			lx, lz, ly = 1.0, 0.1, 2.0+float64(i-onset)/90.0
		}
		fmt.Fprintf(&b, "%g,%g,%g,%g,%g,%g,%g,%g,%g,%g,%s\n",
			lx, lz, ly,
			-1.0, 1.7, float64(i)/90.0,
			5.0, 0.0, 0.0,
			float64(i)/90.0,
			"pole_v2")
	}
	return b.String()
}

func freewalkCSV(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%g,%g,%g,%g,%g,%g,%g\n",
			0.5, 1.7, float64(i)/90.0,
			0.0, 0.0, 0.0,
			float64(i)/90.0)
	}
	return b.String()
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"output/Tomato3_subj01_trial001_v0_1.0_pole.csv":      {Data: []byte(trialCSV(200, 30))},
		"output/Tomato3_subj01_trial002_v0_1.2_pole.csv":      {Data: []byte(trialCSV(200, 45))},
		"output/Tomato3_subj02_trial001_v0_0.8_avatar.csv":    {Data: []byte(trialCSV(200, 30))},
		"output/Tomato3_freewalk_subj01_session1_trial001.csv": {Data: []byte(freewalkCSV(100))},
		"output/Tomato3_freewalk_subj01_session2_trial001.csv": {Data: []byte(freewalkCSV(100))},
		"output/Tomato3_subj01_IPD_F61.5.txt":                  {Data: []byte{}},
		"output/notes.txt":                                     {Data: []byte("ignored")},
		"input/Tomato3_subject01.csv": {Data: []byte(
			"Trial,d0,v0,leader,leaderOnset\n" +
				"1,2,1.0,pole,0.333\n" +
				"2,2.5,1.2,pole,0.5\n")},
		"input/Tomato3_subject02.csv": {Data: []byte(
			"Trial,d0,v0,leader,leaderOnset\n" +
				"1,2,0.8,avatar,0.333\n")},
	}
}

func TestLoad(t *testing.T) {
	exp, err := Loader{}.Load(testFS())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, exp.SubjectIds())

	s1 := exp.Subjects[1]
	assert.Equal(t, "F", s1.Gender)
	assert.Equal(t, 61.5, s1.IPD)
	assert.Equal(t, tomato.Pole, s1.Leader)
	assert.Equal(t, []int{1, 2}, s1.TrialIds())
	assert.Equal(t, []int{1, 5}, s1.FreewalkIds())
	assert.Equal(t, tomato.Avatar, exp.Subjects[2].Leader)

	tr := s1.Trials[2]
	assert.Equal(t, 1.2, tr.V0)
	assert.Equal(t, 2.5, tr.D0)
	assert.Equal(t, tomato.Pole, tr.Leader)
	assert.Equal(t, "pole_v2", tr.LeaderModel)
	require.NotNil(t, tr.LeaderOnset)
	assert.Equal(t, 0.5, *tr.LeaderOnset)
	assert.Equal(t, 45, tr.OnsetFrame)
	assert.Equal(t, tomato.DEFAULT_FRAME_RATE, tr.FrameRate)

	raw, err := tr.Positions(tomato.Leader, tomato.Raw)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1.0, 2.0, 0.1}, raw[45])

	fw := s1.Freewalk[5]
	assert.Equal(t, tomato.NoLeader, fw.Leader)
	assert.Equal(t, 0.0, fw.V0)
	assert.Equal(t, 100, fw.Length())
	fpos, err := fw.Positions(tomato.Follower, tomato.Raw)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0.5, 0, 1.7}, fpos[0])
}

func TestLoadOverrides(t *testing.T) {
	exp, err := Loader{FrameRate: 120, Order: 2, Cutoff: 1}.Load(testFS())
	require.NoError(t, err)
	tr := exp.Subjects[1].Trials[1]
	assert.Equal(t, 120, tr.FrameRate)
	assert.Equal(t, 2, tr.Order)
	assert.Equal(t, 1.0, tr.Cutoff)
}

func TestLoadCollectsBadFiles(t *testing.T) {
	fsys := testFS()
	fsys["output/Tomato3_subj03_trial001_v0_1.0_pole.csv"] = &fstest.MapFile{Data: []byte("1,2,3\n")}
	fsys["output/Tomato3_subj01_trial003_v0_1.0_pole.csv"] = &fstest.MapFile{Data: []byte(trialCSV(100, 10))}
	fsys["output/Tomato3_freewalk_subj02_session1_trial001.csv"] = &fstest.MapFile{Data: []byte("a,b,c,d,e,f,g\n")}

	exp, err := Loader{}.Load(fsys)
	require.Error(t, err)
	require.NotNil(t, exp)

	var cc *ColumnCountError
	assert.ErrorAs(t, err, &cc)
	var ce *CellError
	assert.ErrorAs(t, err, &ce)
	var mo *tomato.MissingLeaderOnsetError
	assert.ErrorAs(t, err, &mo)
	var fe *FileError
	require.ErrorAs(t, err, &fe)

	assert.Equal(t, []int{1, 2}, exp.Subjects[1].TrialIds())
	assert.Empty(t, exp.Subjects[2].Freewalk)
	_, ok := exp.Subjects[3]
	assert.False(t, ok)
}

func TestLoadRejectsDropouts(t *testing.T) {
	fsys := testFS()
	lines := strings.Split(freewalkCSV(100), "\n")
	lines[40] = "nan,1.7,0.44,0,0,0,0.444"
	fsys["output/Tomato3_freewalk_subj01_session1_trial001.csv"] = &fstest.MapFile{Data: []byte(strings.Join(lines, "\n"))}

	exp, err := Loader{}.Load(fsys)
	var nf *tomato.NonFiniteError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 40, nf.Frame)
	assert.ErrorIs(t, err, tomato.ErrInput)

	assert.Equal(t, []int{5}, exp.Subjects[1].FreewalkIds())
	assert.Equal(t, []int{1, 2}, exp.Subjects[1].TrialIds())
}

func TestDefaultLeader(t *testing.T) {
	assert.Equal(t, tomato.Pole, DefaultLeader(1))
	assert.Equal(t, tomato.Avatar, DefaultLeader(12))
}
