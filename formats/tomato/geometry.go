package tomato

import "math"

var (
	// HomePole is the location (m) of the home pole in capture coordinates.
	// It becomes the origin of the trial frame.
	HomePole = [3]float64{-4.5, -5.5, 0}
	// Theta is the smaller angle of the diagonal of the 9x11 m walking space.
	Theta = math.Atan(9.0 / 11.0)
)

const (
	X = 0 // lateral axis of the trial frame
	Y = 1 // forward axis of the trial frame
	Z = 2
)

// Rotate maps capture coordinates into the trial frame, whose y axis
// points from the home pole to the target door. Even trials walk the
// room in the opposite direction and are mirrored first.
func Rotate(data [][3]float64, trialId int) [][3]float64 {
	c, s := math.Cos(Theta), math.Sin(Theta)
	out := make([][3]float64, len(data))
	for i, p := range data {
		if trialId%2 == 0 {
			p = [3]float64{-p[X], -p[Y], -p[Z]}
		}
		x := p[X] - HomePole[X]
		y := p[Y] - HomePole[Y]
		out[i] = [3]float64{
			x*c - y*s,
			x*s + y*c,
			p[Z] - HomePole[Z],
		}
	}
	return out
}

// Component extracts one axis of a trace.
func Component(data [][3]float64, axis int) []float64 {
	out := make([]float64, len(data))
	for i := range data {
		out[i] = data[i][axis]
	}
	return out
}
