package core

import (
	"time"
)

// Millis is a monotonic clock reading or a duration, both in milliseconds.
type Millis int64

// FromDuration converts a time.Duration to Millis
func FromDuration(d time.Duration) Millis {
	return Millis(d / time.Millisecond)
}

// Duration returns the value as a time.Duration
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Since returns the elapsed milliseconds from earlier to m
func (m Millis) Since(earlier Millis) Millis {
	return m - earlier
}

// Seconds returns the value in fractional seconds
func (m Millis) Seconds() float64 {
	return float64(m) / 1000
}

func (m Millis) String() string { return m.Duration().String() }
