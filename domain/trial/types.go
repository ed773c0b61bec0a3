package trial

import (
	"fmt"

	"centerout/domain/core"
)

// Direction of the required movement.
type Direction string

const (
	Outward Direction = "out" // centre to ring
	Inward  Direction = "in"  // ring back to centre
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Outward {
		return Inward
	}
	return Outward
}

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Outward, Inward:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownDirection, s)
}

// Type is the experimental block a trial belongs to.
type Type string

const (
	Baseline     Type = "baseline"
	Perturbation Type = "vmr"
	Washout      Type = "washout"
)

// ParseType validates a trial type name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case Baseline, Perturbation, Washout:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownTrialType, s)
}

// FailReason says why an attempt was abandoned.
type FailReason string

const (
	NoFailure        FailReason = ""
	LeftStartEarly   FailReason = "left_start_early"
	LeftStartOnCue   FailReason = "left_start_at_hold_end"
	ReactionTimeout  FailReason = "reaction_timeout"
	MovementTimeout  FailReason = "movement_timeout"
	OvershootTimeout FailReason = "overshoot_timeout"
	ExternalAbort    FailReason = "external_abort"
)

// Outcome is reported when a step ends the attempt.
type Outcome struct {
	Ended   bool       `json:"ended"`
	Success bool       `json:"success"`
	Reason  FailReason `json:"reason,omitempty"`
}

func succeeded() Outcome          { return Outcome{Ended: true, Success: true} }
func failed(r FailReason) Outcome { return Outcome{Ended: true, Reason: r} }

// RenderIntent tells the rendering collaborator what to draw. It carries no
// decision logic.
type RenderIntent struct {
	Phase     Phase  `json:"phase"`
	Highlight bool   `json:"highlight"` // end target lit
	Start     string `json:"start"`     // start marker colour
	Cursor    string `json:"cursor"`    // cursor colour
}
