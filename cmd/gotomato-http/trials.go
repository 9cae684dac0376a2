package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gotomato/formats/tomato"
	"gotomato/internal/common"
)

type kinematics struct {
	Subject  int          `json:"subject"`
	Trial    int          `json:"trial"`
	Role     string       `json:"role"`
	Filtered bool         `json:"filtered"`
	Time     []float64    `json:"time"`
	Position [][3]float64 `json:"position"`
	Velocity [][3]float64 `json:"velocity"`
	Speed    []float64    `json:"speed"`

	// Follower only.
	Orientation [][3]float64 `json:"orientation,omitempty"`
	YawRate     []float64    `json:"yaw_rate,omitempty"`
}

func (this *RequestHandler) GetEvents(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	tid, ok := intParam(c, "tid")
	if !ok {
		return
	}

	t, err := common.LoadTrial(this.Db, id, tid, false)
	if err != nil {
		abortWithLoadError(c, err)
		return
	}
	ev, err := this.Analyzer.Criteria.Detect(t)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ev)
}

// GetKinematics returns the traces of one role in the trial frame, plus
// the heading and its rate for the follower. Query parameters: role
// (leader or follower, default follower), filtered (default true) and
// freewalk (default false).
func (this *RequestHandler) GetKinematics(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	tid, ok := intParam(c, "tid")
	if !ok {
		return
	}

	role, err := tomato.ParseRole(c.DefaultQuery("role", "follower"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filtered, err := strconv.ParseBool(c.DefaultQuery("filtered", "true"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	freewalk, err := strconv.ParseBool(c.DefaultQuery("freewalk", "false"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := common.LoadTrial(this.Db, id, tid, freewalk)
	if err != nil {
		abortWithLoadError(c, err)
		return
	}

	p := tomato.Processing{Rotated: true}
	if filtered {
		p = tomato.Analysis
	}
	k := kinematics{Subject: id, Trial: tid, Role: role.String(), Filtered: filtered, Time: t.Time(filtered)}
	if k.Position, err = t.DisplayPositions(role, p); err == nil {
		if k.Velocity, err = t.Velocities(role, p); err == nil {
			k.Speed, err = t.Speeds(role, p)
		}
	}
	if err == nil && role == tomato.Follower {
		k.Orientation = t.Orientations()
		k.YawRate, err = t.YawRates()
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tomato.ErrComputation) {
			status = http.StatusUnprocessableEntity
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, k)
}
