package tomato

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExperiment(t *testing.T) {
	e := NewExperiment()
	s := e.Subject(7)
	assert.Same(t, s, e.Subject(7))
	e.Subject(3)
	e.Subject(12)

	assert.Equal(t, 3, e.N)
	assert.Equal(t, []int{3, 7, 12}, e.SubjectIds())

	s.Trials[9] = nil
	s.Trials[2] = nil
	s.Freewalk[5] = nil
	assert.Equal(t, []int{2, 9}, s.TrialIds())
	assert.Equal(t, []int{5}, s.FreewalkIds())
}
