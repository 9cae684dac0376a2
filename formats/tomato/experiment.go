package tomato

import (
	"sort"

	"golang.org/x/exp/maps"
)

type Subject struct {
	Id       int            `codec:"," json:"id"`
	Gender   string         `codec:"," json:"gender"`
	IPD      float64        `codec:"," json:"ipd"`
	Leader   LeaderKind     `codec:"," json:"leader"`
	Trials   map[int]*Trial `codec:"-" json:"-"`
	Freewalk map[int]*Trial `codec:"-" json:"-"`
}

func NewSubject(id int) *Subject {
	return &Subject{
		Id:       id,
		Trials:   make(map[int]*Trial),
		Freewalk: make(map[int]*Trial),
	}
}

func (this *Subject) TrialIds() []int {
	return sortedKeys(this.Trials)
}

func (this *Subject) FreewalkIds() []int {
	return sortedKeys(this.Freewalk)
}

type Experiment struct {
	N        int
	Subjects map[int]*Subject
}

func NewExperiment() *Experiment {
	return &Experiment{Subjects: make(map[int]*Subject)}
}

// Subject returns the subject with the given id, creating it if needed.
func (this *Experiment) Subject(id int) *Subject {
	if s, ok := this.Subjects[id]; ok {
		return s
	}
	s := NewSubject(id)
	this.Subjects[id] = s
	this.N = len(this.Subjects)
	return s
}

func (this *Experiment) SubjectIds() []int {
	return sortedKeys(this.Subjects)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := maps.Keys(m)
	sort.Ints(keys)
	return keys
}
