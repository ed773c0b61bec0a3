package signal

import (
	"errors"
	"testing"

	"centerout/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEMA_RejectsAlphaOutsideOpenInterval(t *testing.T) {
	for _, alpha := range []float64{0, 1, -0.1, 1.5} {
		_, err := NewEMA(alpha, 0)
		assert.True(t, errors.Is(err, core.ErrInvalidAlpha), "alpha %v", alpha)
	}
}

func TestEMA_Update(t *testing.T) {
	e, err := NewEMA(0.1, 300)
	require.NoError(t, err)
	assert.InDelta(t, 0.1*400+0.9*300, e.Update(400), 1e-12)
}

// A constant input converges monotonically toward the constant and never passes it.
func TestEMA_ConvergesMonotonicallyWithoutOvershoot(t *testing.T) {
	tests := []struct {
		name   string
		alpha  float64
		seed   float64
		target float64
	}{
		{"from below", 0.1, 0, 500},
		{"from above", 0.3, 900, 500},
		{"fast alpha", 0.95, -20, 17},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := NewEMA(tc.alpha, tc.seed)
			require.NoError(t, err)

			prevGap := abs(tc.target - tc.seed)
			for i := 0; i < 400; i++ {
				v := e.Update(tc.target)
				gap := abs(tc.target - v)
				assert.LessOrEqual(t, gap, prevGap, "step %d", i)
				if tc.seed < tc.target {
					assert.LessOrEqual(t, v, tc.target, "overshoot at step %d", i)
				} else {
					assert.GreaterOrEqual(t, v, tc.target, "overshoot at step %d", i)
				}
				prevGap = gap
			}
			assert.InDelta(t, tc.target, e.Value(), 1e-6)
		})
	}
}

func TestEMA_Reset(t *testing.T) {
	e, _ := NewEMA(0.5, 0)
	e.Update(100)
	e.Reset(42)
	assert.Equal(t, 42.0, e.Value())
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
