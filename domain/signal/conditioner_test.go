package signal

import (
	"math"
	"testing"

	"centerout/domain/core"
	"centerout/domain/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditioner_AxesAreIndependent(t *testing.T) {
	c, err := Butter(0.2, 1.0)
	require.NoError(t, err)
	cond, err := NewConditioner(0.5, &c, geometry.Point{})
	require.NoError(t, err)

	// drive only x; y must keep its own memory untouched
	var out Output
	for i := 0; i < 10; i++ {
		out = cond.Process(geometry.Point{X: 10, Y: 0})
	}
	assert.Equal(t, 0.0, out.Cursor.Y)
	assert.Equal(t, 0.0, out.Aux.Y)
	assert.Greater(t, out.Cursor.X, 9.9)
}

func TestConditioner_WithoutLowpassPassesRawAsAux(t *testing.T) {
	cond, err := NewConditioner(0.1, nil, geometry.Point{X: 300, Y: 300})
	require.NoError(t, err)

	out := cond.Process(geometry.Point{X: 400, Y: 200})
	assert.Equal(t, geometry.Point{X: 400, Y: 200}, out.Aux)
	assert.InDelta(t, 310.0, out.Cursor.X, 1e-9)
	assert.InDelta(t, 290.0, out.Cursor.Y, 1e-9)
}

func TestConditioner_Reset(t *testing.T) {
	cond, err := NewConditioner(0.1, nil, geometry.Point{X: 300, Y: 300})
	require.NoError(t, err)
	cond.Process(geometry.Point{X: 0, Y: 0})
	cond.Reset(geometry.Point{X: 300, Y: 300})

	out := cond.Process(geometry.Point{X: 300, Y: 300})
	assert.InDelta(t, 300.0, out.Cursor.X, 1e-9)
	assert.InDelta(t, 300.0, out.Cursor.Y, 1e-9)
}

func TestNewConditioner_InvalidAlpha(t *testing.T) {
	for _, alpha := range []float64{0, 1.0, -0.5, math.NaN()} {
		c, err := NewConditioner(alpha, nil, geometry.Point{X: 300, Y: 300})
		assert.ErrorIs(t, err, core.ErrInvalidAlpha, "alpha=%v", alpha)
		assert.Nil(t, c)
	}
}
