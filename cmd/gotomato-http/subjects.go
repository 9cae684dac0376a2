package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gotomato/formats/tomato"
	"gotomato/internal/common"
	"gotomato/internal/selection"
)

type subject struct {
	Id       int     `json:"id"`
	Gender   string  `json:"gender"`
	IPD      float64 `json:"ipd"`
	Leader   string  `json:"leader"`
	Trials   []int   `json:"trials"`
	Freewalk []int   `json:"freewalk"`
}

// loadSubject returns nil only when the subject could not be read at all.
// Trials that failed to decode are logged and left out.
func (this *RequestHandler) loadSubject(id int) (*tomato.Subject, error) {
	s, err := common.LoadSubject(this.Db, id)
	if s != nil && err != nil {
		this.Logger.Warn("trials skipped", zap.Int("subject", id), zap.Error(err))
	}
	return s, err
}

func (this *RequestHandler) GetImports(c *gin.Context) {
	imports, err := common.Imports(this.Db)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, imports)
}

func (this *RequestHandler) GetSubjects(c *gin.Context) {
	subjects, err := common.Subjects(this.Db)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, subjects)
}

func (this *RequestHandler) GetSubject(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	s, err := this.loadSubject(id)
	if s == nil {
		abortWithLoadError(c, err)
		return
	}

	c.JSON(http.StatusOK, subject{
		Id:       s.Id,
		Gender:   s.Gender,
		IPD:      s.IPD,
		Leader:   s.Leader.String(),
		Trials:   s.TrialIds(),
		Freewalk: s.FreewalkIds(),
	})
}

// GetReport computes the per-condition statistics of a subject. The
// optional "where" query parameter restricts the trials taken into account.
func (this *RequestHandler) GetReport(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var sel *selection.Selection
	if where := c.Query("where"); where != "" {
		var err error
		if sel, err = selection.Compile(where); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	s, err := this.loadSubject(id)
	if s == nil {
		abortWithLoadError(c, err)
		return
	}
	if sel != nil {
		if s, err = sel.Apply(s); err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, this.Analyzer.Report(s))
}

// PutPlots asks the plot renderer to redraw a subject.
func (this *RequestHandler) PutPlots(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if this.Notifier == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "plot renderer is not connected"})
		return
	}

	subjects, err := common.Subjects(this.Db)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, s := range subjects {
		if s.Id != id {
			continue
		}
		importId, err := uuid.Parse(s.ImportId)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := this.Notifier.Notify(importId, id); err != nil {
			this.Logger.Warn("could not notify plot renderer", zap.Int("subject", id), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusAccepted)
		return
	}
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such subject"})
}

func (this *RequestHandler) DeleteSubject(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := common.DeleteSubject(this.Db, id); err != nil {
		abortWithLoadError(c, err)
	} else {
		c.Status(http.StatusNoContent)
	}
}
