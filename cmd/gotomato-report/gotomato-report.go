package main

import (
	"encoding/json"
	"os"
	"runtime"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gotomato/formats/tomato"
	"gotomato/internal/common"
	"gotomato/internal/config"
	"gotomato/internal/selection"
)

func main() {
	var opts struct {
		DatabaseFile string `short:"d" long:"database" description:"SQLite3 database file path" required:"true"`
		Criteria     string `short:"c" long:"criteria" description:"Detector thresholds (JSON)"`
		Where        string `short:"w" long:"where" description:"Trial selection expression"`
		Subjects     []int  `short:"s" long:"subject" description:"Only report this subject (repeatable)"`
		LogLevel     string `short:"l" long:"loglevel" description:"Log level" default:"warn"`
		LogFile      string `long:"logfile" description:"Rotated JSON log file"`
	}
	_, err := flags.Parse(&opts)
	if err != nil {
		return
	}

	logger := common.NewLogger(opts.LogLevel, opts.LogFile)
	defer logger.Sync()

	criteria := tomato.DefaultCriteria()
	if opts.Criteria != "" {
		overrides, err := config.LoadCriteria(opts.Criteria)
		if err != nil {
			logger.Fatal("could not load criteria", zap.Error(err))
		}
		criteria = overrides.Apply(criteria)
	}

	var sel *selection.Selection
	if opts.Where != "" {
		if sel, err = selection.Compile(opts.Where); err != nil {
			logger.Fatal("invalid selection", zap.String("expression", opts.Where), zap.Error(err))
		}
	}

	db, err := common.OpenDatabase(opts.DatabaseFile)
	if err != nil {
		logger.Fatal("could not open database", zap.Error(err))
	}
	defer db.Close()

	exp, err := common.LoadExperiment(db)
	if exp == nil {
		logger.Fatal("could not load experiment", zap.Error(err))
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			logger.Warn("trials skipped", zap.Error(e))
		}
	}

	ids := opts.Subjects
	if len(ids) == 0 {
		ids = exp.SubjectIds()
	}

	analyzer := tomato.NewAnalyzer(criteria, logger)
	reports := make([]*tomato.Report, len(ids))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, id := range ids {
		g.Go(func() error {
			s, ok := exp.Subjects[id]
			if !ok {
				logger.Warn("unknown subject", zap.Int("subject", id))
				return nil
			}
			if sel != nil {
				var err error
				if s, err = sel.Apply(s); err != nil {
					return err
				}
			}
			reports[i] = analyzer.Report(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("could not evaluate selection", zap.Error(err))
	}

	out := reports[:0]
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal("could not write report", zap.Error(err))
	}
}
