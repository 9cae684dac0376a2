package tomato

import (
	"math"

	"gotomato/internal/dsp"
)

const (
	VALID_THRESHOLD   = 0.2  // (m) max lateral offset of the follower at leader onset
	ANGLE_THRESHOLD   = 55.0 // (deg) min final off-axis angle of the leader to count as overtaken
	LATERAL_THRESHOLD = 0.3  // (m) min lateral deviation after onset to count as overtaken
	SPEED_WINDOW      = 1.0  // (s) averaging window for the follower's peak forward speed
	ONSET_TOLERANCE   = 0.02 // (m/s) band around zero/average lateral velocity for onset crossings
	LEADER_WIDTH      = 1.8  // (m) physical size of the leader for optical expansion
	FREEWALK_WINDOW   = 1.0  // (s) averaging window for free-walk speed
)

// Criteria holds the thresholds of the event detectors.
type Criteria struct {
	ValidThreshold   float64 `json:"valid_threshold"`
	AngleThreshold   float64 `json:"angle_threshold"`
	LateralThreshold float64 `json:"lateral_threshold"`
	SpeedWindow      float64 `json:"speed_window"`
	OnsetTolerance   float64 `json:"onset_tolerance"`
	LeaderWidth      float64 `json:"leader_width"`
	FreewalkWindow   float64 `json:"freewalk_window"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		ValidThreshold:   VALID_THRESHOLD,
		AngleThreshold:   ANGLE_THRESHOLD,
		LateralThreshold: LATERAL_THRESHOLD,
		SpeedWindow:      SPEED_WINDOW,
		OnsetTolerance:   ONSET_TOLERANCE,
		LeaderWidth:      LEADER_WIDTH,
		FreewalkWindow:   FREEWALK_WINDOW,
	}
}

func IsValid(t *Trial, threshold float64) (bool, error) {
	c := DefaultCriteria()
	c.ValidThreshold = threshold
	return c.IsValid(t)
}

func AngleOvertake(t *Trial, thresholdDeg float64) (bool, error) {
	c := DefaultCriteria()
	c.AngleThreshold = thresholdDeg
	return c.AngleOvertake(t)
}

func LateralOvertake(t *Trial, threshold, window float64) (bool, error) {
	c := DefaultCriteria()
	c.LateralThreshold = threshold
	c.SpeedWindow = window
	return c.LateralOvertake(t)
}

func OvertakeOnset(t *Trial, tolerance float64) (int, error) {
	c := DefaultCriteria()
	c.OnsetTolerance = tolerance
	return c.OvertakeOnset(t)
}

func ExpansionAt(t *Trial, relative bool, frames []int, w float64) ([]float64, error) {
	c := DefaultCriteria()
	c.LeaderWidth = w
	return c.ExpansionAt(t, relative, frames)
}

// IsValid reports whether the follower walked centrally (in the trial
// frame) when the leader appeared.
func (c Criteria) IsValid(t *Trial) (bool, error) {
	fpos, err := t.Positions(Follower, Analysis)
	if err != nil {
		return false, err
	}
	return math.Abs(fpos[t.OnsetFrame][X]) < c.ValidThreshold, nil
}

// AngleOvertake reports whether, at the final frame, the leader is more
// than AngleThreshold degrees off the follower's forward axis.
func (c Criteria) AngleOvertake(t *Trial) (bool, error) {
	lpos, err := t.Positions(Leader, Analysis)
	if err != nil {
		return false, err
	}
	fpos, err := t.Positions(Follower, Analysis)
	if err != nil {
		return false, err
	}

	last := t.Length() - 1
	dx := lpos[last][X] - fpos[last][X]
	dy := lpos[last][Y] - fpos[last][Y]
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return false, nil
	}
	return dy/norm < math.Cos(c.AngleThreshold*math.Pi/180.0), nil
}

// LateralOvertake requires a valid trial, a peak SpeedWindow-averaged
// forward speed above V0, and a lateral deviation after onset beyond
// LateralThreshold.
func (c Criteria) LateralOvertake(t *Trial) (bool, error) {
	fpos, err := t.Positions(Follower, Analysis)
	if err != nil {
		return false, err
	}
	fvel, err := t.Velocities(Follower, Analysis)
	if err != nil {
		return false, err
	}

	valid := math.Abs(fpos[t.OnsetFrame][X]) < c.ValidThreshold

	window := int(math.Round(c.SpeedWindow * float64(t.FrameRate)))
	peak, err := dsp.MaxAverage(Component(fvel, Y), window)
	if err != nil {
		return false, computationError("lateral overtake", err)
	}

	deviation := 0.0
	for _, p := range fpos[t.OnsetFrame:] {
		deviation = math.Max(deviation, math.Abs(p[X]))
	}

	return valid && peak > t.V0 && deviation > c.LateralThreshold, nil
}

// OvertakeOnset estimates the frame at which the follower starts to
// overtake: the latest of the leader onset, the last zero crossing of
// the lateral velocity, and its last crossing of its own running average,
// all before the lateral velocity peak that precedes the peak lateral
// deviation.
func (c Criteria) OvertakeOnset(t *Trial) (int, error) {
	fpos, err := t.Positions(Follower, Analysis)
	if err != nil {
		return 0, err
	}
	fvel, err := t.Velocities(Follower, Analysis)
	if err != nil {
		return 0, err
	}
	vx := Component(fvel, X)
	px := Component(fpos, X)
	avg := dsp.RunningAverage(vx)

	// Leave at least a second after the peak for later analysis.
	posPeak := dsp.ArgMaxAbs(px)
	if limit := t.Length() - t.FrameRate; posPeak > limit {
		posPeak = limit
	}
	if posPeak < 1 {
		posPeak = 1
	}
	ipeak := dsp.ArgMaxAbs(vx[:posPeak])

	z := lastOrZero(dsp.FindIntersections(vx[:ipeak], make([]float64, ipeak), c.OnsetTolerance))
	a := lastOrZero(dsp.FindIntersections(vx[:ipeak], avg[:ipeak], c.OnsetTolerance))

	onset := t.OnsetFrame
	if a > onset {
		onset = a
	}
	if z > onset {
		onset = z
	}
	return onset, nil
}

func lastOrZero(inds []int) int {
	if len(inds) == 0 {
		return 0
	}
	return inds[len(inds)-1]
}

// Expansion is the rate of optical expansion of a leader of size w seen
// by the follower. With relative set it is normalized by the leader's
// angular size.
func Expansion(lpos, fpos, lvel, fvel [2]float64, relative bool, w float64) float64 {
	dspd := math.Hypot(fvel[0]-lvel[0], fvel[1]-lvel[1])
	dist := math.Hypot(lpos[0]-fpos[0], lpos[1]-fpos[1])
	e := w * dspd / (dist*dist + w*w/4.0)
	if relative {
		e /= 2.0 * math.Atan(w/(2.0*dist))
	}
	return e
}

// ExpansionAt evaluates Expansion on the given frames, or on every frame
// when frames is empty.
func (c Criteria) ExpansionAt(t *Trial, relative bool, frames []int) ([]float64, error) {
	if len(frames) == 0 {
		frames = make([]int, t.Length())
		for i := range frames {
			frames[i] = i
		}
	}
	for _, f := range frames {
		if f < 0 || f >= t.Length() {
			return nil, &FrameError{Frame: f, Length: t.Length()}
		}
	}

	lpos, err := t.Positions(Leader, Analysis)
	if err != nil {
		return nil, err
	}
	fpos, err := t.Positions(Follower, Analysis)
	if err != nil {
		return nil, err
	}
	lvel, err := t.Velocities(Leader, Analysis)
	if err != nil {
		return nil, err
	}
	fvel, err := t.Velocities(Follower, Analysis)
	if err != nil {
		return nil, err
	}

	es := make([]float64, len(frames))
	for i, f := range frames {
		es[i] = Expansion(xy(lpos[f]), xy(fpos[f]), xy(lvel[f]), xy(fvel[f]), relative, c.LeaderWidth)
	}
	return es, nil
}

func xy(p [3]float64) [2]float64 {
	return [2]float64{p[X], p[Y]}
}

// TimeToContact is the time until the forward positions coincide when
// both keep their current speeds.
func TimeToContact(lposY, fposY, lSpeed, fSpeed float64) (float64, error) {
	if fSpeed == lSpeed {
		return 0, &ZeroClosingSpeedError{Speed: fSpeed}
	}
	return (lposY - fposY) / (fSpeed - lSpeed), nil
}

// TimeToPass returns the time to contact of every frame against a leader
// moving at V0. Frames where the follower matches V0 exactly have no
// time to contact; they are reported false in defined and hold 0.
func TimeToPass(t *Trial) (ttc []float64, defined []bool, err error) {
	fvel, err := t.Velocities(Follower, Analysis)
	if err != nil {
		return nil, nil, err
	}
	fpos, err := t.Positions(Follower, Analysis)
	if err != nil {
		return nil, nil, err
	}
	lpos, err := t.Positions(Leader, Analysis)
	if err != nil {
		return nil, nil, err
	}

	ttc = make([]float64, t.Length())
	defined = make([]bool, t.Length())
	for i := range ttc {
		v, err := TimeToContact(lpos[i][Y], fpos[i][Y], t.V0, fvel[i][Y])
		if err != nil {
			continue
		}
		ttc[i] = v
		defined[i] = true
	}
	return ttc, defined, nil
}

// Events summarizes the detectors for one trial.
type Events struct {
	SubjectId         int      `json:"subject"`
	TrialId           int      `json:"trial"`
	V0                float64  `json:"v0"`
	Valid             bool     `json:"valid"`
	AngleOvertake     bool     `json:"angle_overtake"`
	LateralOvertake   bool     `json:"lateral_overtake"`
	OnsetFrame        int      `json:"onset_frame"`
	OvertakeOnset     int      `json:"overtake_onset"`
	OnsetSpeed        float64  `json:"onset_speed"`
	Expansion         float64  `json:"expansion"`
	RelativeExpansion float64  `json:"relative_expansion"`
	LeaderSpeed       *float64 `json:"leader_speed,omitempty"`
	OnsetYawRate      *float64 `json:"onset_yaw_rate,omitempty"`
}

func (c Criteria) Detect(t *Trial) (*Events, error) {
	ev := &Events{
		SubjectId:  t.SubjectId,
		TrialId:    t.TrialId,
		V0:         t.V0,
		OnsetFrame: t.OnsetFrame,
	}

	var err error
	if ev.Valid, err = c.IsValid(t); err != nil {
		return nil, err
	}
	if ev.AngleOvertake, err = c.AngleOvertake(t); err != nil {
		return nil, err
	}
	if ev.LateralOvertake, err = c.LateralOvertake(t); err != nil {
		return nil, err
	}
	if ev.OvertakeOnset, err = c.OvertakeOnset(t); err != nil {
		return nil, err
	}

	spd, err := t.Speeds(Follower, Analysis)
	if err != nil {
		return nil, err
	}
	ev.OnsetSpeed = spd[t.OnsetFrame]

	frames := []int{t.OnsetFrame}
	e, err := c.ExpansionAt(t, false, frames)
	if err != nil {
		return nil, err
	}
	ev.Expansion = e[0]
	if e, err = c.ExpansionAt(t, true, frames); err != nil {
		return nil, err
	}
	ev.RelativeExpansion = e[0]

	if t.Leader != NoLeader {
		if s, err := MeasuredLeaderSpeed(t); err == nil {
			ev.LeaderSpeed = &s
		}
	}
	// Trials shorter than the smoothing window have no heading rate.
	if rates, err := t.YawRates(); err == nil {
		ev.OnsetYawRate = &rates[ev.OvertakeOnset]
	}
	return ev, nil
}
