package tomato

import (
	"github.com/SeanJxie/polygo"
	"github.com/openacid/slimarray/polyfit"
	"github.com/pconstantinou/savitzkygolay"

	"gotomato/internal/dsp"
)

const (
	YAW_RATE_WINDOW     = 51    // Savitzky-Golay window (frames) for heading rate
	YAW_RATE_POLY_ORDER = 3     // Savitzky-Golay polynomial order for heading rate
	YAW_PERIOD          = 360.0 // (deg) yaw wraps around at this period
)

// MeasuredLeaderSpeed fits a line to the rotated, unsynthesized forward
// position of the leader after its onset, and returns its slope (m/s). It
// is meant to audit the constant-V0 assumption behind the filtered leader
// trace.
func MeasuredLeaderSpeed(t *Trial) (float64, error) {
	if t.Leader == NoLeader {
		return 0, &NoLeaderError{}
	}
	pos, err := t.Positions(Leader, Processing{Rotated: true})
	if err != nil {
		return 0, err
	}

	xs := t.tstamps[t.OnsetFrame:]
	ys := Component(pos[t.OnsetFrame:], Y)
	if len(xs) < 2 {
		return 0, computationError("leader speed", &dsp.TooFewSamplesError{Need: 2, Got: len(xs)})
	}

	f := polyfit.NewFit(xs, ys, 1)
	p, err := polygo.NewRealPolynomial(f.Solve())
	if err != nil {
		return 0, computationError("leader speed", err)
	}
	t0, t1 := xs[0], xs[len(xs)-1]
	return (p.At(t1) - p.At(t0)) / (t1 - t0), nil
}

// YawRates returns the follower's heading rate (deg/s), differentiated
// from the unwrapped yaw channel with a Savitzky-Golay filter.
func (this *Trial) YawRates() ([]float64, error) {
	if len(this.fori) < YAW_RATE_WINDOW {
		return nil, computationError("yaw rate", &dsp.TooFewSamplesError{Need: YAW_RATE_WINDOW, Got: len(this.fori)})
	}
	yaw := dsp.Unwrap(Component(this.fori, 0), YAW_PERIOD)

	filter, err := savitzkygolay.NewFilter(YAW_RATE_WINDOW, 1, YAW_RATE_POLY_ORDER)
	if err != nil {
		return nil, computationError("yaw rate", err)
	}
	rates, err := filter.Process(yaw, this.tstamps)
	if err != nil {
		return nil, computationError("yaw rate", err)
	}
	return rates, nil
}
