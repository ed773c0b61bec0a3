// Package clock provides ports.Clock implementations.
package clock

import (
	"sync"
	"time"

	"centerout/domain/core"
)

// System reads milliseconds from the monotonic clock, counted from creation.
type System struct {
	start time.Time
}

func NewSystem() *System {
	return &System{start: time.Now()}
}

func (c *System) NowMs() core.Millis {
	return core.FromDuration(time.Since(c.start))
}

// Manual is a clock moved by hand, for replay and tests.
type Manual struct {
	mu  sync.Mutex
	now core.Millis
}

func NewManual(start core.Millis) *Manual {
	return &Manual{now: start}
}

func (c *Manual) NowMs() core.Millis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t. It never moves backwards.
func (c *Manual) Set(t core.Millis) {
	c.mu.Lock()
	if t > c.now {
		c.now = t
	}
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Manual) Advance(d core.Millis) core.Millis {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += d
	}
	return c.now
}
