// Package signal conditions raw cursor samples before they reach the trial
// machine: an exponential moving average per axis, optionally followed by a
// second-order low-pass section.
package signal

import (
	"fmt"

	"centerout/domain/core"
)

// EMA is a single-pole exponential moving average.
type EMA struct {
	alpha float64
	value float64
}

// NewEMA returns an EMA seeded at seed. alpha must lie in (0,1).
func NewEMA(alpha, seed float64) (*EMA, error) {
	if err := ValidateAlpha(alpha); err != nil {
		return nil, err
	}
	return &EMA{alpha: alpha, value: seed}, nil
}

// ValidateAlpha reports whether alpha is a usable smoothing coefficient.
func ValidateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("%w: got %v", core.ErrInvalidAlpha, alpha)
	}
	return nil
}

// Update folds x into the average and returns the new value.
func (e *EMA) Update(x float64) float64 {
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

func (e *EMA) Value() float64 { return e.value }
func (e *EMA) Alpha() float64 { return e.alpha }

// Reset discards the accumulated history.
func (e *EMA) Reset(seed float64) {
	e.value = seed
}
