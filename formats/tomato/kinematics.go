package tomato

import (
	"fmt"
	"math"
	"strings"

	"gotomato/internal/dsp"
)

type Role uint8

const (
	Leader Role = iota
	Follower
)

func (r Role) String() string {
	switch r {
	case Leader:
		return "leader"
	case Follower:
		return "follower"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "l", "leader":
		return Leader, nil
	case "f", "follower":
		return Follower, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInput, s)
}

// Processing selects how a kinematic trace is derived from the raw data.
// Zero Order or Cutoff fall back to the trial's own configuration.
type Processing struct {
	Rotated  bool
	Filtered bool
	Order    int
	Cutoff   float64
}

var (
	// Analysis is the processing every event detector works on.
	Analysis = Processing{Rotated: true, Filtered: true}
	Raw      = Processing{}
)

func (this *Trial) filterParams(p Processing) (int, float64) {
	order, cutoff := this.Order, this.Cutoff
	if p.Order != 0 {
		order = p.Order
	}
	if p.Cutoff != 0 {
		cutoff = p.Cutoff
	}
	return order, cutoff
}

// Positions returns the position trace of role. The filtered leader trace
// is synthesized rather than filtered: it stays at the origin until the
// onset frame and then advances along y at exactly V0.
func (this *Trial) Positions(role Role, p Processing) ([][3]float64, error) {
	switch role {
	case Leader:
		if !p.Rotated && !p.Filtered {
			return clone(this.lpos), nil
		}
		data := Rotate(this.lpos, this.TrialId)
		if p.Filtered {
			data = this.synthesizeLeader(data)
		}
		return data, nil
	case Follower:
		data := clone(this.fpos)
		if p.Rotated {
			data = Rotate(this.fpos, this.TrialId)
		}
		if p.Filtered {
			order, cutoff := this.filterParams(p)
			return Filter(data, this.tstamps, this.FrameRate, order, cutoff)
		}
		return data, nil
	}
	return nil, &RoleError{Role: role}
}

func (this *Trial) synthesizeLeader(rotated [][3]float64) [][3]float64 {
	out := make([][3]float64, len(rotated))
	base := rotated[this.OnsetFrame]
	step := this.V0 / float64(this.FrameRate)
	for i := this.OnsetFrame; i < len(out); i++ {
		out[i] = [3]float64{base[X], base[Y] + step*float64(i-this.OnsetFrame+1), base[Z]}
	}
	return out
}

// DisplayPositions is Positions for rendering: the leader is parked far
// off-stage before its onset. Never feed it to the event detectors.
func (this *Trial) DisplayPositions(role Role, p Processing) ([][3]float64, error) {
	pos, err := this.Positions(role, p)
	if err != nil {
		return nil, err
	}
	if role == Leader {
		for i := 0; i < this.OnsetFrame; i++ {
			pos[i] = [3]float64{DISPLAY_OFFSTAGE, DISPLAY_OFFSTAGE, 0}
		}
	}
	return pos, nil
}

// Velocities differentiates Positions. The leader is held at its onset
// position before onset so the jump from the origin doesn't show up as a
// velocity spike.
func (this *Trial) Velocities(role Role, p Processing) ([][3]float64, error) {
	pos, err := this.Positions(role, p)
	if err != nil {
		return nil, err
	}
	if role == Leader {
		for i := 0; i < this.OnsetFrame; i++ {
			pos[i] = pos[this.OnsetFrame]
		}
	}
	return this.differentiate(pos), nil
}

// Speeds is the horizontal (x, y) magnitude of Velocities.
func (this *Trial) Speeds(role Role, p Processing) ([]float64, error) {
	vel, err := this.Velocities(role, p)
	if err != nil {
		return nil, err
	}
	spd := make([]float64, len(vel))
	for i, v := range vel {
		spd[i] = math.Hypot(v[X], v[Y])
	}
	return spd, nil
}

func (this *Trial) Accelerations(role Role, p Processing) ([][3]float64, error) {
	vel, err := this.Velocities(role, p)
	if err != nil {
		return nil, err
	}
	return this.differentiate(vel), nil
}

func (this *Trial) differentiate(data [][3]float64) [][3]float64 {
	out := make([][3]float64, len(data))
	hz := float64(this.FrameRate)
	for k := 0; k < 3; k++ {
		for i, v := range dsp.Gradient(Component(data, k)) {
			out[i][k] = v * hz
		}
	}
	return out
}
