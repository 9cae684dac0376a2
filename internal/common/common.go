package common

import (
	"database/sql"
	"errors"
	"time"

	"github.com/blockloop/scan"
	"github.com/google/uuid"
	"github.com/ugorji/go/codec"
	_ "modernc.org/sqlite"

	"gotomato/formats/tomato"
	queries "gotomato/internal/db"
)

type Import struct {
	Id        string `db:"id"        json:"id"`
	Timestamp int64  `db:"timestamp" json:"timestamp"`
	Source    string `db:"source"    json:"source"`
}

type SubjectRow struct {
	Id       int     `db:"id"        json:"id"`
	ImportId string  `db:"import_id" json:"import"`
	Gender   string  `db:"gender"    json:"gender"`
	IPD      float64 `db:"ipd"       json:"ipd"`
	Leader   string  `db:"leader"    json:"leader"`
}

type trialRow struct {
	SubjectId int     `db:"subject_id"`
	TrialId   int     `db:"trial_id"`
	Freewalk  bool    `db:"freewalk"`
	V0        float64 `db:"v0"`
	Data      []byte  `db:"data"`
}

func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(queries.Schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Encode(v any) ([]byte, error) {
	var data []byte
	var h codec.MsgpackHandle
	enc := codec.NewEncoderBytes(&data, &h)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return data, nil
}

func Decode(data []byte, v any) error {
	var h codec.MsgpackHandle
	dec := codec.NewDecoderBytes(data, &h)
	return dec.Decode(v)
}

// StoreExperiment saves every subject of exp under a new import. Subjects
// already in the database are replaced together with all their trials.
func StoreExperiment(db *sql.DB, exp *tomato.Experiment, source string) (uuid.UUID, error) {
	id := uuid.New()
	tx, err := db.Begin()
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(queries.InsertImport, id.String(), time.Now().Unix(), source); err != nil {
		return uuid.Nil, err
	}
	for _, sid := range exp.SubjectIds() {
		s := exp.Subjects[sid]
		if _, err := tx.Exec(queries.DeleteTrials, s.Id); err != nil {
			return uuid.Nil, err
		}
		if _, err := tx.Exec(queries.InsertSubject, s.Id, id.String(), s.Gender, s.IPD, s.Leader.String()); err != nil {
			return uuid.Nil, err
		}
		for _, tid := range s.TrialIds() {
			if err := storeTrial(tx, s.Trials[tid], false); err != nil {
				return uuid.Nil, err
			}
		}
		for _, tid := range s.FreewalkIds() {
			if err := storeTrial(tx, s.Freewalk[tid], true); err != nil {
				return uuid.Nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func storeTrial(tx *sql.Tx, t *tomato.Trial, freewalk bool) error {
	data, err := Encode(t.Record())
	if err != nil {
		return err
	}
	_, err = tx.Exec(queries.InsertTrial, t.SubjectId, t.TrialId, freewalk, t.V0, data)
	return err
}

func decodeTrial(row trialRow) (*tomato.Trial, error) {
	var rec tomato.Record
	err := Decode(row.Data, &rec)
	if err == nil {
		var t *tomato.Trial
		if t, err = tomato.NewTrial(rec); err == nil {
			return t, nil
		}
	}
	return nil, &tomato.TrialError{SubjectId: row.SubjectId, TrialId: row.TrialId, Freewalk: row.Freewalk, Err: err}
}

func Imports(db *sql.DB) ([]Import, error) {
	rows, err := db.Query(queries.Imports)
	if err != nil {
		return nil, err
	}
	var imports []Import
	if err := scan.RowsStrict(&imports, rows); err != nil {
		return nil, err
	}
	return imports, nil
}

func Subjects(db *sql.DB) ([]SubjectRow, error) {
	rows, err := db.Query(queries.Subjects)
	if err != nil {
		return nil, err
	}
	var subjects []SubjectRow
	if err := scan.RowsStrict(&subjects, rows); err != nil {
		return nil, err
	}
	return subjects, nil
}

// LoadSubject reads a subject with all of its trials. It returns
// sql.ErrNoRows for an unknown subject. A stored trial that cannot be
// decoded is left out and reported as a *tomato.TrialError next to the
// returned subject.
func LoadSubject(db *sql.DB, id int) (*tomato.Subject, error) {
	rows, err := db.Query(queries.Subject, id)
	if err != nil {
		return nil, err
	}
	var row SubjectRow
	if err := scan.RowStrict(&row, rows); err != nil {
		return nil, err
	}

	s := tomato.NewSubject(row.Id)
	s.Gender = row.Gender
	s.IPD = row.IPD
	if s.Leader, err = tomato.ParseLeaderKind(row.Leader); err != nil {
		return nil, err
	}

	rows, err = db.Query(queries.Trials, id)
	if err != nil {
		return nil, err
	}
	var trials []trialRow
	if err := scan.RowsStrict(&trials, rows); err != nil {
		return nil, err
	}
	var errs []error
	for _, tr := range trials {
		t, err := decodeTrial(tr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if tr.Freewalk {
			s.Freewalk[tr.TrialId] = t
		} else {
			s.Trials[tr.TrialId] = t
		}
	}
	return s, errors.Join(errs...)
}

// LoadExperiment reads every subject. Like LoadSubject, trials that cannot
// be decoded are skipped and reported in the returned error; the
// experiment is nil only when the database itself cannot be read.
func LoadExperiment(db *sql.DB) (*tomato.Experiment, error) {
	subjects, err := Subjects(db)
	if err != nil {
		return nil, err
	}
	exp := tomato.NewExperiment()
	var errs []error
	for _, row := range subjects {
		s, err := LoadSubject(db, row.Id)
		if s == nil {
			return nil, err
		}
		if err != nil {
			errs = append(errs, err)
		}
		exp.Subjects[s.Id] = s
	}
	exp.N = len(exp.Subjects)
	return exp, errors.Join(errs...)
}

// LoadTrial returns sql.ErrNoRows for an unknown trial.
func LoadTrial(db *sql.DB, subjectId, trialId int, freewalk bool) (*tomato.Trial, error) {
	rows, err := db.Query(queries.Trial, subjectId, trialId, freewalk)
	if err != nil {
		return nil, err
	}
	var row trialRow
	if err := scan.RowStrict(&row, rows); err != nil {
		return nil, err
	}
	return decodeTrial(row)
}

// DeleteSubject removes a subject and its trials. It returns sql.ErrNoRows
// if there was no such subject.
func DeleteSubject(db *sql.DB, id int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(queries.DeleteTrials, id); err != nil {
		return err
	}
	res, err := tx.Exec(queries.DeleteSubject, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
