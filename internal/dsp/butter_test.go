package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestButter(t *testing.T) {
	t.Run("matches reference second order design", func(t *testing.T) {
		b, a, err := Butter(2, 0.5)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.29289322, 0.58578644, 0.29289322}, b, 1e-8)
		assert.InDeltaSlice(t, []float64{1, 0, 0.17157288}, a, 1e-8)
	})

	t.Run("unit gain at DC", func(t *testing.T) {
		for _, tc := range []struct {
			order int
			wn    float64
		}{
			{1, 0.1},
			{2, 0.3},
			{4, 0.6 / 45.0},
			{6, 0.8},
		} {
			b, a, err := Butter(tc.order, tc.wn)
			require.NoError(t, err)
			require.Len(t, b, tc.order+1)
			require.Len(t, a, tc.order+1)
			assert.Equal(t, 1.0, a[0])
			assert.InDelta(t, 1.0, floats.Sum(b)/floats.Sum(a), 1e-9, "order %d wn %g", tc.order, tc.wn)
		}
	})

	t.Run("rejects bad parameters", func(t *testing.T) {
		_, _, err := Butter(0, 0.5)
		var oe *FilterOrderError
		assert.ErrorAs(t, err, &oe)

		for _, wn := range []float64{0, 1, -0.2, 1.5, math.NaN()} {
			_, _, err := Butter(2, wn)
			var ce *CutoffError
			assert.ErrorAs(t, err, &ce, "wn %g", wn)
		}
	})
}

func TestFiltFilt(t *testing.T) {
	b, a, err := Butter(4, 0.6/45.0)
	require.NoError(t, err)

	t.Run("constant signal is unchanged", func(t *testing.T) {
		x := make([]float64, 200)
		for i := range x {
			x[i] = 3.25
		}
		y, err := FiltFilt(b, a, x)
		require.NoError(t, err)
		require.Len(t, y, len(x))
		assert.InDeltaSlice(t, x, y, 1e-6)
	})

	t.Run("removes high frequency content", func(t *testing.T) {
		x := make([]float64, 900)
		for i := range x {
			x[i] = 1.0 + 0.5*math.Sin(2*math.Pi*20.0*float64(i)/90.0)
		}
		y, err := FiltFilt(b, a, x)
		require.NoError(t, err)
		for i := 300; i < 600; i++ {
			assert.InDelta(t, 1.0, y[i], 1e-3)
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		orig := append([]float64(nil), x...)
		_, err := FiltFilt(b, a, x)
		require.NoError(t, err)
		assert.Equal(t, orig, x)
	})

	t.Run("signal must be longer than the order", func(t *testing.T) {
		_, err := FiltFilt(b, a, []float64{1, 2, 3, 4})
		var oe *FilterOrderError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, 4, oe.Order)
		assert.Equal(t, 4, oe.Length)
	})
}
