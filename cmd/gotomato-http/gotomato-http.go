package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"gotomato/formats/tomato"
	"gotomato/internal/common"
	"gotomato/internal/config"
	queries "gotomato/internal/db"
	"gotomato/internal/notify"
)

type RequestHandler struct {
	Db       *sql.DB
	Notifier *notify.Notifier
	Analyzer *tomato.Analyzer
	Logger   *zap.Logger
}

func contains(list []string, e string) bool {
	for _, s := range list {
		if s == e {
			return true
		}
	}
	return false
}

func loadApiTokens(db *sql.DB) ([]string, error) {
	rows, err := db.Query(queries.Tokens)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err == nil {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

func (this *RequestHandler) TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens, err := loadApiTokens(this.Db)
		if err != nil {
			this.Logger.Error("could not load API tokens", zap.Error(err))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := c.GetHeader("X-Token")
		if !contains(tokens, token) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func (this *RequestHandler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		this.Logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// intParam parses a path parameter, answering 400 when it is not an integer.
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return v, true
}

func abortWithLoadError(c *gin.Context, err error) {
	if common.IsNotFound(err) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (this *RequestHandler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), this.requestLogger())
	router.SetTrustedProxies(nil)

	router.GET("/imports", this.GetImports)

	router.GET("/subjects", this.GetSubjects)
	router.GET("/subject/:id", this.GetSubject)
	router.GET("/subject/:id/report", this.GetReport)
	router.PUT("/subject/:id/plots", this.TokenAuthMiddleware(), this.PutPlots)
	router.DELETE("/subject/:id", this.TokenAuthMiddleware(), this.DeleteSubject)

	router.GET("/subject/:id/trial/:tid/events", this.GetEvents)
	router.GET("/subject/:id/trial/:tid/kinematics", this.GetKinematics)

	return router
}

func main() {
	var opts struct {
		DatabaseFile string `short:"d" long:"database" description:"SQLite3 database file path" required:"true"`
		Host         string `long:"host" description:"Host to bind on" default:"127.0.0.1"`
		Port         string `short:"p" long:"port" description:"Port to bind on" default:"8080"`
		ZmqHost      string `short:"H" long:"zhost" description:"ZMQ server host" default:"127.0.0.1"`
		ZmqPort      string `short:"P" long:"zport" description:"ZMQ server port" default:"5555"`
		Criteria     string `short:"c" long:"criteria" description:"Detector thresholds (JSON)"`
		NewToken     bool   `short:"t" long:"new-token" description:"Register a new API token, print it and exit"`
		LogLevel     string `short:"l" long:"loglevel" description:"Log level" default:"info"`
		LogFile      string `long:"logfile" description:"Rotated JSON log file"`
	}
	_, err := flags.Parse(&opts)
	if err != nil {
		return
	}

	logger := common.NewLogger(opts.LogLevel, opts.LogFile)
	defer logger.Sync()

	db, err := common.OpenDatabase(opts.DatabaseFile)
	if err != nil {
		logger.Fatal("could not open database", zap.Error(err))
	}
	defer db.Close()

	if opts.NewToken {
		token := uuid.NewString()
		if _, err := db.Exec(queries.InsertToken, token); err != nil {
			logger.Fatal("could not register token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	criteria := tomato.DefaultCriteria()
	if opts.Criteria != "" {
		overrides, err := config.LoadCriteria(opts.Criteria)
		if err != nil {
			logger.Fatal("could not load criteria", zap.Error(err))
		}
		criteria = overrides.Apply(criteria)
	}

	notifier, err := notify.New("tcp://" + opts.ZmqHost + ":" + opts.ZmqPort)
	if err != nil {
		logger.Warn("could not connect to ZMQ server (plot generation disabled)", zap.Error(err))
	} else {
		defer notifier.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	rh := RequestHandler{
		Db:       db,
		Notifier: notifier,
		Analyzer: tomato.NewAnalyzer(criteria, logger),
		Logger:   logger,
	}
	if err := rh.Router().Run(opts.Host + ":" + opts.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
