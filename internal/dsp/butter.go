package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Butter designs a digital low-pass Butterworth filter of the given order.
// wn is the cutoff normalized to the Nyquist frequency. The returned
// coefficients are in descending powers of z, with a[0] == 1.
func Butter(order int, wn float64) (b, a []float64, err error) {
	if order < 1 {
		return nil, nil, &FilterOrderError{Order: order}
	}
	if !(wn > 0 && wn < 1) {
		return nil, nil, &CutoffError{Wn: wn}
	}

	// Bilinear transform with fs = 2, so prewarping is 4*tan(pi*wn/2).
	const fs2 = 4.0
	warped := fs2 * math.Tan(math.Pi*wn/2.0)

	poles := make([]complex128, order)
	den := complex(1, 0)
	for k := range poles {
		m := float64(2*k - order + 1)
		p := -cmplx.Exp(complex(0, math.Pi*m/float64(2*order))) * complex(warped, 0)
		poles[k] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		den *= complex(fs2, 0) - p
	}
	gain := math.Pow(warped, float64(order)) * real(1/den)

	// All zeros sit at z = -1, so the numerator is binomial.
	b = make([]float64, order+1)
	c := 1.0
	for i := range b {
		b[i] = gain * c
		c = c * float64(order-i) / float64(i+1)
	}

	pa := poly(poles)
	a = make([]float64, len(pa))
	for i, v := range pa {
		a[i] = real(v)
	}
	return b, a, nil
}

func poly(roots []complex128) []complex128 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i := range next {
			if i < len(c) {
				next[i] += c[i]
			}
			if i > 0 {
				next[i] -= r * c[i-1]
			}
		}
		c = next
	}
	return c
}

// FiltFilt runs the filter forward and backward over x, starting each
// pass from the steady-state response to the first sample. The signal is
// not extended at its edges; callers pad it themselves.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	b, a = normalize(b, a)
	order := len(a) - 1
	if order < 1 {
		return nil, &FilterOrderError{Order: order}
	}
	if len(x) <= order {
		return nil, &FilterOrderError{Order: order, Length: len(x)}
	}

	zi, err := lfilterZi(b, a)
	if err != nil {
		return nil, err
	}

	y := lfilter(b, a, x, scaled(zi, x[0]))
	reverse(y)
	y = lfilter(b, a, y, scaled(zi, y[0]))
	reverse(y)
	return y, nil
}

// normalize pads b and a to the same length and scales both by a[0].
func normalize(b, a []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	nb := make([]float64, n)
	na := make([]float64, n)
	copy(nb, b)
	copy(na, a)
	if na[0] != 0 && na[0] != 1 {
		a0 := na[0]
		for i := range na {
			na[i] /= a0
			nb[i] /= a0
		}
	}
	return nb, na
}

// lfilter is a direct form II transposed IIR filter.
func lfilter(b, a, x, zi []float64) []float64 {
	n := len(a)
	z := make([]float64, n-1)
	copy(z, zi)
	y := make([]float64, len(x))
	for k, xk := range x {
		yk := b[0]*xk + z[0]
		for i := 1; i < n-1; i++ {
			z[i-1] = b[i]*xk + z[i] - a[i]*yk
		}
		z[n-2] = b[n-1]*xk - a[n-1]*yk
		y[k] = yk
	}
	return y
}

// lfilterZi returns the filter state corresponding to a unit step that has
// been applied forever, i.e. it solves (I - A^T) zi = b[1:] - a[1:]*b[0]
// where A is the companion matrix of a.
func lfilterZi(b, a []float64) ([]float64, error) {
	m := len(a) - 1
	lhs := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		lhs.Set(i, i, 1)
		lhs.Set(i, 0, lhs.At(i, 0)+a[i+1])
		if i > 0 {
			lhs.Set(i-1, i, lhs.At(i-1, i)-1)
		}
	}
	rhs := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(lhs, rhs); err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, &zi), nil
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
