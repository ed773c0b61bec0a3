package clock

import (
	"testing"

	"centerout/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	c := NewManual(100)
	assert.Equal(t, core.Millis(100), c.NowMs())
	assert.Equal(t, core.Millis(150), c.Advance(50))
	c.Set(120)
	assert.Equal(t, core.Millis(150), c.NowMs(), "never moves backwards")
	c.Set(400)
	assert.Equal(t, core.Millis(400), c.NowMs())
}

func TestSystem_NonDecreasing(t *testing.T) {
	c := NewSystem()
	a := c.NowMs()
	b := c.NowMs()
	assert.GreaterOrEqual(t, int64(b), int64(a))
}
