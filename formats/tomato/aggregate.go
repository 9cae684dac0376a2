package tomato

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"go.uber.org/zap"

	"gotomato/internal/dsp"
)

// Conditions are the nominal leader speeds (m/s) of the experiment.
var Conditions = []float64{0.8, 0.9, 1.0, 1.1, 1.2, 1.3}

// Condition maps a trial's V0 to its nominal condition.
func Condition(v0 float64) (float64, bool) {
	c := math.Round(v0*10) / 10
	for _, k := range Conditions {
		if k == c {
			return k, true
		}
	}
	return 0, false
}

// Rollup maps a condition to a per-subject statistic.
type Rollup map[float64]float64

func (r Rollup) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, len(r))
	for k, v := range r {
		m[strconv.FormatFloat(k, 'f', 1, 64)] = v
	}
	return json.Marshal(m)
}

func (r *Rollup) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = make(Rollup, len(m))
	for k, v := range m {
		c, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return err
		}
		(*r)[c] = v
	}
	return nil
}

// Analyzer computes per-subject rollups. A trial that fails to process is
// logged, skipped, and returned as a *TrialError joined into the error of
// the rollup; the rollup itself is still complete.
type Analyzer struct {
	Criteria Criteria
	Logger   *zap.Logger
}

func NewAnalyzer(c Criteria, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{Criteria: c, Logger: logger}
}

func (this *Analyzer) fail(s *Subject, t *Trial, freewalk bool, err error) error {
	te := &TrialError{SubjectId: s.Id, TrialId: t.TrialId, Freewalk: freewalk, Err: err}
	this.Logger.Error("trial skipped",
		zap.Int("subject", s.Id),
		zap.Int("trial", t.TrialId),
		zap.Bool("freewalk", freewalk),
		zap.Error(err))
	return te
}

func (this *Analyzer) condition(s *Subject, t *Trial) (float64, bool) {
	c, ok := Condition(t.V0)
	if !ok {
		this.Logger.Warn("trial outside nominal conditions",
			zap.Int("subject", s.Id),
			zap.Int("trial", t.TrialId),
			zap.Float64("v0", t.V0))
	}
	return c, ok
}

func (this *Analyzer) emptyCondition(s *Subject, stat string, c, value float64) {
	this.Logger.Warn("no qualifying trials, using fallback",
		zap.Bool("fallback", true),
		zap.String("statistic", stat),
		zap.Int("subject", s.Id),
		zap.Float64("condition", c),
		zap.Float64("value", value))
}

// OvertakeRates is the fraction of valid trials in each condition that
// are lateral overtakes. Conditions without valid trials report 0.
func (this *Analyzer) OvertakeRates(s *Subject) (Rollup, error) {
	valid := make(map[float64]float64)
	over := make(map[float64]float64)
	var errs []error
	for _, id := range s.TrialIds() {
		t := s.Trials[id]
		c, ok := this.condition(s, t)
		if !ok {
			continue
		}
		v, err := this.Criteria.IsValid(t)
		if err != nil {
			errs = append(errs, this.fail(s, t, false, err))
			continue
		}
		if !v {
			continue
		}
		o, err := this.Criteria.LateralOvertake(t)
		if err != nil {
			errs = append(errs, this.fail(s, t, false, err))
			continue
		}
		valid[c]++
		if o {
			over[c]++
		}
	}

	rates := make(Rollup, len(Conditions))
	for _, c := range Conditions {
		if valid[c] == 0 {
			rates[c] = 0
			this.emptyCondition(s, "overtake rate", c, 0)
			continue
		}
		rates[c] = over[c] / valid[c]
	}
	return rates, errors.Join(errs...)
}

// AverageOnsetDelays is the mean number of frames between leader onset
// and overtake onset over valid overtaking trials. A condition without
// such trials takes the value of the next slower condition (0 for the
// slowest one).
func (this *Analyzer) AverageOnsetDelays(s *Subject) (Rollup, error) {
	count := make(map[float64]float64)
	sum := make(map[float64]float64)
	var errs []error
	for _, id := range s.TrialIds() {
		t := s.Trials[id]
		c, ok := this.condition(s, t)
		if !ok {
			continue
		}
		v, err := this.Criteria.IsValid(t)
		if err != nil {
			errs = append(errs, this.fail(s, t, false, err))
			continue
		}
		if !v {
			continue
		}
		o, err := this.Criteria.LateralOvertake(t)
		if err != nil {
			errs = append(errs, this.fail(s, t, false, err))
			continue
		}
		if !o {
			continue
		}
		onset, err := this.Criteria.OvertakeOnset(t)
		if err != nil {
			errs = append(errs, this.fail(s, t, false, err))
			continue
		}
		count[c]++
		sum[c] += float64(onset - t.OnsetFrame)
	}

	delays := make(Rollup, len(Conditions))
	prev := 0.0
	for _, c := range Conditions {
		if count[c] == 0 {
			delays[c] = prev
			this.emptyCondition(s, "onset delay", c, prev)
		} else {
			delays[c] = sum[c] / count[c]
		}
		prev = delays[c]
	}
	return delays, errors.Join(errs...)
}

// AverageOnsetSpeeds is the mean follower speed at leader onset over all
// trials of each condition.
func (this *Analyzer) AverageOnsetSpeeds(s *Subject) (Rollup, error) {
	return this.atOnset(s, "onset speed", func(t *Trial) (float64, error) {
		spd, err := t.Speeds(Follower, Analysis)
		if err != nil {
			return 0, err
		}
		return spd[t.OnsetFrame], nil
	})
}

// AverageExpansions is the mean (relative) optical expansion at leader
// onset over all trials of each condition.
func (this *Analyzer) AverageExpansions(s *Subject, relative bool) (Rollup, error) {
	return this.atOnset(s, "expansion", func(t *Trial) (float64, error) {
		e, err := this.Criteria.ExpansionAt(t, relative, []int{t.OnsetFrame})
		if err != nil {
			return 0, err
		}
		return e[0], nil
	})
}

func (this *Analyzer) atOnset(s *Subject, stat string, metric func(*Trial) (float64, error)) (Rollup, error) {
	count := make(map[float64]float64)
	sum := make(map[float64]float64)
	var errs []error
	for _, id := range s.TrialIds() {
		t := s.Trials[id]
		c, ok := this.condition(s, t)
		if !ok {
			continue
		}
		v, err := metric(t)
		if err != nil {
			errs = append(errs, this.fail(s, t, false, err))
			continue
		}
		count[c]++
		sum[c] += v
	}

	out := make(Rollup, len(Conditions))
	for _, c := range Conditions {
		if count[c] == 0 {
			out[c] = 0
			this.emptyCondition(s, stat, c, 0)
			continue
		}
		out[c] = sum[c] / count[c]
	}
	return out, errors.Join(errs...)
}

// MaxFreewalkSpeed is the highest instantaneous follower speed over all
// free-walk trials of the subject.
func (this *Analyzer) MaxFreewalkSpeed(s *Subject) (float64, error) {
	best := 0.0
	used := 0
	var errs []error
	for _, id := range s.FreewalkIds() {
		t := s.Freewalk[id]
		spd, err := t.Speeds(Follower, Analysis)
		if err != nil {
			errs = append(errs, this.fail(s, t, true, err))
			continue
		}
		for _, v := range spd {
			best = math.Max(best, v)
		}
		used++
	}
	if used == 0 {
		errs = append(errs, &NoFreewalkError{SubjectId: s.Id})
	}
	return best, errors.Join(errs...)
}

// AverageFreewalkSpeed averages, over the free-walk trials, the highest
// speed sustained for window seconds.
func (this *Analyzer) AverageFreewalkSpeed(s *Subject, window float64) (float64, error) {
	sum := 0.0
	used := 0
	var errs []error
	for _, id := range s.FreewalkIds() {
		t := s.Freewalk[id]
		spd, err := t.Speeds(Follower, Analysis)
		if err != nil {
			errs = append(errs, this.fail(s, t, true, err))
			continue
		}
		m, err := dsp.MaxAverage(spd, int(math.Round(window*float64(t.FrameRate))))
		if err != nil {
			errs = append(errs, this.fail(s, t, true, computationError("free-walk speed", err)))
			continue
		}
		sum += m
		used++
	}
	if used == 0 {
		errs = append(errs, &NoFreewalkError{SubjectId: s.Id})
		return 0, errors.Join(errs...)
	}
	return sum / float64(used), errors.Join(errs...)
}

// Report bundles every rollup of one subject.
type Report struct {
	Subject            int      `json:"subject"`
	Leader             string   `json:"leader"`
	OvertakeRates      Rollup   `json:"overtake_rates"`
	OnsetDelays        Rollup   `json:"onset_delays"`
	OnsetSpeeds        Rollup   `json:"onset_speeds"`
	Expansions         Rollup   `json:"expansions"`
	RelativeExpansions Rollup   `json:"relative_expansions"`
	MaxFreewalkSpeed   float64  `json:"max_freewalk_speed"`
	FreewalkSpeed      float64  `json:"freewalk_speed"`
	Errors             []string `json:"errors,omitempty"`
}

func (this *Analyzer) Report(s *Subject) *Report {
	r := &Report{Subject: s.Id, Leader: s.Leader.String()}
	// Every rollup walks the same trials, so a failing trial is reported
	// once, by its first error.
	type trialKey struct {
		subject, trial int
		freewalk       bool
	}
	seen := map[any]bool{}
	add := func(err error) {
		var key any = err.Error()
		if te, ok := err.(*TrialError); ok {
			key = trialKey{te.SubjectId, te.TrialId, te.Freewalk}
		}
		if !seen[key] {
			seen[key] = true
			r.Errors = append(r.Errors, err.Error())
		}
	}
	collect := func(err error) {
		if err == nil {
			return
		}
		if j, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range j.Unwrap() {
				add(e)
			}
			return
		}
		add(err)
	}

	var err error
	r.OvertakeRates, err = this.OvertakeRates(s)
	collect(err)
	r.OnsetDelays, err = this.AverageOnsetDelays(s)
	collect(err)
	r.OnsetSpeeds, err = this.AverageOnsetSpeeds(s)
	collect(err)
	r.Expansions, err = this.AverageExpansions(s, false)
	collect(err)
	r.RelativeExpansions, err = this.AverageExpansions(s, true)
	collect(err)
	if len(s.Freewalk) > 0 {
		r.MaxFreewalkSpeed, err = this.MaxFreewalkSpeed(s)
		collect(err)
		r.FreewalkSpeed, err = this.AverageFreewalkSpeed(s, this.Criteria.FreewalkWindow)
		collect(err)
	}
	return r
}
