package vizard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"strconv"
	"strings"

	"gotomato/formats/tomato"
)

const (
	FREEWALK_SESSION_OFFSET = 4 // trial id offset of second-session free-walk trials
	TRIAL_COLUMNS           = 11
	FREEWALK_COLUMNS        = 7
)

var (
	trialName    = regexp.MustCompile(`^Tomato3_subj(\d{2})_trial(\d{3})_v0_(\d+\.\d+)_(pole|avatar)\.csv$`)
	freewalkName = regexp.MustCompile(`^Tomato3_freewalk_subj(\d{2})_session(\d)_trial(\d{3})\.csv$`)
	ipdName      = regexp.MustCompile(`^Tomato3_subj(\d{2})_IPD_([A-Za-z])(\d+(?:\.\d+)?)\.txt$`)
	planName     = regexp.MustCompile(`^Tomato3_subject(\d{2})\.csv$`)
)

type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

type ColumnCountError struct {
	Row  int
	Got  int
	Want int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("row %d has %d columns, expected at least %d", e.Row, e.Got, e.Want)
}

type CellError struct {
	Row    int
	Column int
	Value  string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d column %d: %q is not a number", e.Row, e.Column, e.Value)
}

type EmptyFileError struct{}

func (e *EmptyFileError) Error() string {
	return "file has no records"
}

// Plan is one row of a subject's planning file.
type Plan struct {
	TrialId     int
	D0          float64
	V0          float64
	Leader      tomato.LeaderKind
	LeaderOnset float64
}

// Loader reads a directory of capture files. Zero fields fall back to the
// trial defaults.
type Loader struct {
	FrameRate int
	Order     int
	Cutoff    float64
}

// DefaultLeader is the leader assigned to a subject by the counterbalancing
// scheme: avatar for even ids, pole for odd ones.
func DefaultLeader(subjectId int) tomato.LeaderKind {
	if subjectId%2 == 0 {
		return tomato.Avatar
	}
	return tomato.Pole
}

type files struct {
	trials   []string
	freewalk []string
	ipd      []string
	plans    []string
}

func classify(fsys fs.FS) (f files, err error) {
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch name := path.Base(p); {
		case trialName.MatchString(name):
			f.trials = append(f.trials, p)
		case freewalkName.MatchString(name):
			f.freewalk = append(f.freewalk, p)
		case ipdName.MatchString(name):
			f.ipd = append(f.ipd, p)
		case planName.MatchString(name):
			f.plans = append(f.plans, p)
		}
		return nil
	})
	return
}

// Load builds an experiment from every recognized file below the root of
// fsys. A file that cannot be read is reported in the returned error and
// skipped; everything else is still loaded.
func (this Loader) Load(fsys fs.FS) (*tomato.Experiment, error) {
	f, err := classify(fsys)
	if err != nil {
		return nil, err
	}

	exp := tomato.NewExperiment()
	var errs []error

	for _, p := range f.ipd {
		m := ipdName.FindStringSubmatch(path.Base(p))
		id, _ := strconv.Atoi(m[1])
		ipd, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			errs = append(errs, &FileError{Path: p, Err: err})
			continue
		}
		s := subject(exp, id)
		s.Gender = strings.ToUpper(m[2])
		s.IPD = ipd
	}

	plans := make(map[int]map[int]Plan)
	for _, p := range f.plans {
		m := planName.FindStringSubmatch(path.Base(p))
		id, _ := strconv.Atoi(m[1])
		rows, err := readPlan(fsys, p)
		if err != nil {
			errs = append(errs, &FileError{Path: p, Err: err})
			continue
		}
		plans[id] = rows
	}

	for _, p := range f.trials {
		m := trialName.FindStringSubmatch(path.Base(p))
		subjectId, _ := strconv.Atoi(m[1])
		trialId, _ := strconv.Atoi(m[2])
		v0, _ := strconv.ParseFloat(m[3], 64)
		leader, _ := tomato.ParseLeaderKind(m[4])

		meta := this.meta(subjectId, trialId)
		meta.V0 = v0
		meta.Leader = leader
		meta.D0 = tomato.DEFAULT_D0
		if plan, ok := plans[subjectId][trialId]; ok {
			onset := plan.LeaderOnset
			meta.LeaderOnset = &onset
			meta.D0 = plan.D0
		}

		rec, err := readTrial(fsys, p, meta)
		if err == nil {
			var t *tomato.Trial
			if t, err = tomato.NewTrial(rec); err == nil {
				subject(exp, subjectId).Trials[trialId] = t
				continue
			}
		}
		errs = append(errs, &FileError{Path: p, Err: err})
	}

	for _, p := range f.freewalk {
		m := freewalkName.FindStringSubmatch(path.Base(p))
		subjectId, _ := strconv.Atoi(m[1])
		session, _ := strconv.Atoi(m[2])
		trialId, _ := strconv.Atoi(m[3])
		if session > 1 {
			trialId += FREEWALK_SESSION_OFFSET
		}

		rec, err := readFreewalk(fsys, p, this.meta(subjectId, trialId))
		if err == nil {
			var t *tomato.Trial
			if t, err = tomato.NewTrial(rec); err == nil {
				subject(exp, subjectId).Freewalk[trialId] = t
				continue
			}
		}
		errs = append(errs, &FileError{Path: p, Err: err})
	}

	return exp, errors.Join(errs...)
}

func (this Loader) meta(subjectId, trialId int) tomato.Meta {
	return tomato.Meta{
		SubjectId: subjectId,
		TrialId:   trialId,
		FrameRate: this.FrameRate,
		Order:     this.Order,
		Cutoff:    this.Cutoff,
	}
}

func subject(exp *tomato.Experiment, id int) *tomato.Subject {
	_, known := exp.Subjects[id]
	s := exp.Subject(id)
	if !known {
		s.Leader = DefaultLeader(id)
	}
	return s
}

func readAll(fsys fs.FS, p string, header bool) ([][]string, error) {
	file, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if header {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				return nil, &EmptyFileError{}
			}
			return nil, err
		}
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &EmptyFileError{}
	}
	return rows, nil
}

func cell(rows [][]string, row, col int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(rows[row][col]), 64)
	if err != nil {
		return 0, &CellError{Row: row, Column: col, Value: rows[row][col]}
	}
	return v, nil
}

// vector reads three columns, stored by the capture software as x, z, y
// when swap is set.
func vector(rows [][]string, row, col int, swap bool) (v [3]float64, err error) {
	for k := 0; k < 3; k++ {
		if v[k], err = cell(rows, row, col+k); err != nil {
			return
		}
	}
	if swap {
		v[1], v[2] = v[2], v[1]
	}
	return
}

func readTrial(fsys fs.FS, p string, meta tomato.Meta) (rec tomato.Record, err error) {
	rows, err := readAll(fsys, p, false)
	if err != nil {
		return
	}
	rec.Meta = meta
	for i, row := range rows {
		if len(row) < TRIAL_COLUMNS {
			err = &ColumnCountError{Row: i, Got: len(row), Want: TRIAL_COLUMNS}
			return
		}
		var lpos, fpos, fori [3]float64
		var ts float64
		if lpos, err = vector(rows, i, 0, true); err != nil {
			return
		}
		if fpos, err = vector(rows, i, 3, true); err != nil {
			return
		}
		if fori, err = vector(rows, i, 6, false); err != nil {
			return
		}
		if ts, err = cell(rows, i, 9); err != nil {
			return
		}
		rec.LeaderPosition = append(rec.LeaderPosition, lpos)
		rec.FollowerPosition = append(rec.FollowerPosition, fpos)
		rec.FollowerOrientation = append(rec.FollowerOrientation, fori)
		rec.Timestamps = append(rec.Timestamps, ts)
	}
	rec.LeaderModel = strings.TrimSpace(rows[0][10])
	return
}

func readFreewalk(fsys fs.FS, p string, meta tomato.Meta) (rec tomato.Record, err error) {
	rows, err := readAll(fsys, p, false)
	if err != nil {
		return
	}
	rec.Meta = meta
	for i, row := range rows {
		if len(row) < FREEWALK_COLUMNS {
			err = &ColumnCountError{Row: i, Got: len(row), Want: FREEWALK_COLUMNS}
			return
		}
		var fpos, fori [3]float64
		var ts float64
		if fpos, err = vector(rows, i, 0, true); err != nil {
			return
		}
		if fori, err = vector(rows, i, 3, false); err != nil {
			return
		}
		if ts, err = cell(rows, i, len(row)-1); err != nil {
			return
		}
		rec.LeaderPosition = append(rec.LeaderPosition, [3]float64{})
		rec.FollowerPosition = append(rec.FollowerPosition, fpos)
		rec.FollowerOrientation = append(rec.FollowerOrientation, fori)
		rec.Timestamps = append(rec.Timestamps, ts)
	}
	return
}

func readPlan(fsys fs.FS, p string) (map[int]Plan, error) {
	rows, err := readAll(fsys, p, true)
	if err != nil {
		return nil, err
	}
	plans := make(map[int]Plan, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, &ColumnCountError{Row: i + 1, Got: len(row), Want: 5}
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, &CellError{Row: i + 1, Column: 0, Value: row[0]}
		}
		plan := Plan{TrialId: id}
		if plan.D0, err = cell(rows, i, 1); err != nil {
			return nil, err
		}
		if plan.V0, err = cell(rows, i, 2); err != nil {
			return nil, err
		}
		if plan.Leader, err = tomato.ParseLeaderKind(row[3]); err != nil {
			return nil, err
		}
		if plan.LeaderOnset, err = cell(rows, i, 4); err != nil {
			return nil, err
		}
		plans[id] = plan
	}
	return plans, nil
}
