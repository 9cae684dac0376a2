package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"gotomato/internal/common"
	"gotomato/internal/formats/vizard"
	"gotomato/internal/notify"
)

func main() {
	var opts struct {
		RawDirectory string  `short:"i" long:"input" description:"Directory with the raw capture files" required:"true"`
		DatabaseFile string  `short:"d" long:"database" description:"SQLite3 database file path" required:"true"`
		FrameRate    int     `short:"r" long:"framerate" description:"Capture rate (Hz)" default:"90"`
		Order        int     `short:"o" long:"order" description:"Butterworth filter order" default:"4"`
		Cutoff       float64 `short:"c" long:"cutoff" description:"Butterworth cutoff frequency (Hz)" default:"0.6"`
		LogLevel     string  `short:"l" long:"loglevel" description:"Log level" default:"info"`
		LogFile      string  `long:"logfile" description:"Rotated JSON log file"`
		ZmqHost      string  `short:"H" long:"zhost" description:"ZMQ server host" default:"127.0.0.1"`
		ZmqPort      string  `short:"P" long:"zport" description:"ZMQ server port" default:"5555"`
	}
	_, err := flags.Parse(&opts)
	if err != nil {
		return
	}

	logger := common.NewLogger(opts.LogLevel, opts.LogFile)
	defer logger.Sync()

	loader := vizard.Loader{FrameRate: opts.FrameRate, Order: opts.Order, Cutoff: opts.Cutoff}
	exp, err := loader.Load(os.DirFS(opts.RawDirectory))
	if exp == nil {
		logger.Fatal("could not read raw directory", zap.String("path", opts.RawDirectory), zap.Error(err))
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			logger.Warn("file skipped", zap.Error(e))
		}
	}
	logger.Info("capture files loaded", zap.Int("subjects", exp.N))

	db, err := common.OpenDatabase(opts.DatabaseFile)
	if err != nil {
		logger.Fatal("could not open database", zap.Error(err))
	}
	defer db.Close()

	id, err := common.StoreExperiment(db, exp, opts.RawDirectory)
	if err != nil {
		logger.Fatal("could not store experiment", zap.Error(err))
	}
	logger.Info("import stored", zap.Stringer("import", id))

	notifier, err := notify.New("tcp://" + opts.ZmqHost + ":" + opts.ZmqPort)
	if err != nil {
		logger.Warn("could not connect to ZMQ server (plot generation disabled)", zap.Error(err))
		return
	}
	defer notifier.Close()
	for _, sid := range exp.SubjectIds() {
		if err := notifier.Notify(id, sid); err != nil {
			logger.Warn("could not notify plot renderer", zap.Int("subject", sid), zap.Error(err))
		}
	}
}
