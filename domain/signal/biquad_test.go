package signal

import (
	"errors"
	"math"
	"testing"

	"centerout/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Captured reference for lowpass fc=0.2, fs=1.0, Q=0.7071.
func TestButter_RegressionCoefficients(t *testing.T) {
	c, err := Butter(0.2, 1.0)
	require.NoError(t, err)

	assert.InDelta(t, 0.6389437261127493, c.A0, 1e-12)
	assert.InDelta(t, 1.2778874522254986, c.A1, 1e-12)
	assert.InDelta(t, 0.6389437261127493, c.A2, 1e-12)
	assert.InDelta(t, 1.1429772843080919, c.B1, 1e-12)
	assert.InDelta(t, 0.4127976201429053, c.B2, 1e-12)
}

func TestCalcBiquad_NyquistIsConfigError(t *testing.T) {
	for _, fc := range []float64{0.5, 0.75, 2} {
		_, err := CalcBiquad(Lowpass, fc, 1.0, ButterworthQ, 0)
		assert.True(t, errors.Is(err, core.ErrAboveNyquist), "fc %v", fc)
		assert.True(t, core.IsConfigError(err))
	}
}

func TestCalcBiquad_InvalidInputs(t *testing.T) {
	_, err := CalcBiquad(Lowpass, 0, 1, ButterworthQ, 0)
	assert.Error(t, err)
	_, err = CalcBiquad(Lowpass, 0.1, 1, 0, 0)
	assert.Error(t, err)
	_, err = CalcBiquad(FilterKind("allpass"), 0.1, 1, ButterworthQ, 0)
	assert.True(t, errors.Is(err, core.ErrUnknownFilterKind))
}

func TestCalcBiquad_AllKindsFinite(t *testing.T) {
	for _, kind := range []FilterKind{Lowpass, Highpass, Bandpass, Notch, Peak} {
		for _, gain := range []float64{6, -6} {
			c, err := CalcBiquad(kind, 0.1, 1.0, ButterworthQ, gain)
			require.NoError(t, err, kind)
			for _, v := range []float64{c.A0, c.A1, c.A2, c.B1, c.B2} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "kind %s", kind)
			}
		}
	}
}

func TestParseFilterKind(t *testing.T) {
	k, err := ParseFilterKind("notch")
	require.NoError(t, err)
	assert.Equal(t, Notch, k)

	_, err = ParseFilterKind("comb")
	assert.True(t, errors.Is(err, core.ErrUnknownFilterKind))
}

func TestBiquad_StepResponse(t *testing.T) {
	c, err := Butter(0.2, 1.0)
	require.NoError(t, err)

	step := make([]float64, 200)
	for i := range step {
		step[i] = 1
	}
	y := c.Filter(step)

	assert.InDelta(t, 0.6389437261127493, y[0], 1e-12)
	assert.InDelta(t, 1.1865330134402043, y[1], 1e-12)
	assert.InDelta(t, 0.9358401734626323, y[2], 1e-12)
	// unity DC gain
	assert.InDelta(t, 1.0, y[len(y)-1], 1e-9)
}

func TestBiquad_ResetClearsDelayLine(t *testing.T) {
	c, _ := Butter(0.2, 1.0)
	f := NewBiquad(c)
	first := f.Process(1)
	f.Process(5)
	f.Process(-3)
	f.Reset()
	assert.Equal(t, first, f.Process(1))
}
