package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gotomato/formats/tomato"
)

// Criteria overrides the detector thresholds. Fields left out of the file
// keep their defaults.
type Criteria struct {
	ValidThreshold   *float64 `json:"valid_threshold"`
	AngleThreshold   *float64 `json:"angle_threshold"`
	LateralThreshold *float64 `json:"lateral_threshold"`
	SpeedWindow      *float64 `json:"speed_window"`
	OnsetTolerance   *float64 `json:"onset_tolerance"`
	LeaderWidth      *float64 `json:"leader_width"`
	FreewalkWindow   *float64 `json:"freewalk_window"`
}

type InvalidValueError struct {
	Field string
	Value float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s must be positive, got %g", e.Field, e.Value)
}

func ParseCriteria(data []byte) (*Criteria, error) {
	var c Criteria
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadCriteria(path string) (*Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseCriteria(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (this *Criteria) fields() []struct {
	name  string
	value *float64
} {
	return []struct {
		name  string
		value *float64
	}{
		{"valid_threshold", this.ValidThreshold},
		{"angle_threshold", this.AngleThreshold},
		{"lateral_threshold", this.LateralThreshold},
		{"speed_window", this.SpeedWindow},
		{"onset_tolerance", this.OnsetTolerance},
		{"leader_width", this.LeaderWidth},
		{"freewalk_window", this.FreewalkWindow},
	}
}

func (this *Criteria) validate() error {
	for _, f := range this.fields() {
		if f.value != nil && !(*f.value > 0) {
			return &InvalidValueError{Field: f.name, Value: *f.value}
		}
	}
	return nil
}

// Apply returns c with every field set in this replaced.
func (this *Criteria) Apply(c tomato.Criteria) tomato.Criteria {
	if this == nil {
		return c
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.ValidThreshold, this.ValidThreshold)
	set(&c.AngleThreshold, this.AngleThreshold)
	set(&c.LateralThreshold, this.LateralThreshold)
	set(&c.SpeedWindow, this.SpeedWindow)
	set(&c.OnsetTolerance, this.OnsetTolerance)
	set(&c.LeaderWidth, this.LeaderWidth)
	set(&c.FreewalkWindow, this.FreewalkWindow)
	return c
}
