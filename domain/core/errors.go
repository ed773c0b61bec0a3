package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrConfig            = errors.New("invalid configuration")
	ErrAboveNyquist      = fmt.Errorf("%w: cutoff must be below the Nyquist frequency", ErrConfig)
	ErrInvalidAlpha      = fmt.Errorf("%w: smoothing alpha must be in (0,1)", ErrConfig)
	ErrUnknownFilterKind = fmt.Errorf("%w: unknown filter kind", ErrConfig)
	ErrUnknownPhase      = fmt.Errorf("%w: unknown phase", ErrConfig)
	ErrUnknownTrialType  = fmt.Errorf("%w: unknown trial type", ErrConfig)
	ErrUnknownDirection  = fmt.Errorf("%w: unknown direction", ErrConfig)
	ErrTargetOutOfRange  = fmt.Errorf("%w: target index out of range", ErrConfig)

	// Sequencing errors
	ErrSequence          = errors.New("sequencing violation")
	ErrNonMonotonic      = fmt.Errorf("%w: sample timestamp went backwards", ErrSequence)
	ErrSessionNotRunning = fmt.Errorf("%w: session is not running", ErrSequence)
	ErrSessionRunning    = fmt.Errorf("%w: session already running", ErrSequence)
)

// Error constructors with context
func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfig, field, reason)
}

func NewNonMonotonicError(last, now Millis) error {
	return fmt.Errorf("%w: %d < %d", ErrNonMonotonic, now, last)
}

// Error checking helpers
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsSequenceError(err error) bool {
	return errors.Is(err, ErrSequence)
}
