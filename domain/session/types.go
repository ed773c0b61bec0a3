package session

import (
	"fmt"

	"centerout/domain/core"
	"centerout/domain/trial"
)

// Schedule is the number of successful trials in each block.
type Schedule struct {
	Baseline     int `json:"baseline" yaml:"baseline"`
	Perturbation int `json:"perturbation" yaml:"perturbation"`
	Washout      int `json:"washout" yaml:"washout"`
}

// Total is the successful-trial count that ends the session.
func (s Schedule) Total() int {
	return s.Baseline + s.Perturbation + s.Washout
}

// Validate rejects negative blocks and an empty schedule.
func (s Schedule) Validate() error {
	if s.Baseline < 0 || s.Perturbation < 0 || s.Washout < 0 {
		return core.NewConfigError("schedule", "block sizes must not be negative")
	}
	if s.Total() == 0 {
		return core.NewConfigError("schedule", "at least one trial is required")
	}
	return nil
}

// TypeFor classifies the trial that follows the given number of successes.
// It reports false once the schedule is exhausted.
func (s Schedule) TypeFor(successful int) (trial.Type, bool) {
	switch {
	case successful < s.Baseline:
		return trial.Baseline, true
	case successful < s.Baseline+s.Perturbation:
		return trial.Perturbation, true
	case successful < s.Total():
		return trial.Washout, true
	default:
		return "", false
	}
}

// OvershootPolicy decides what happens to the overshoot counter when an
// attempt fails on the overshoot timeout.
type OvershootPolicy string

const (
	ResetOvershoots OvershootPolicy = "reset"
	CarryOvershoots OvershootPolicy = "carry"
)

// ParseOvershootPolicy validates a policy name. Empty means reset.
func ParseOvershootPolicy(s string) (OvershootPolicy, error) {
	switch p := OvershootPolicy(s); p {
	case "":
		return ResetOvershoots, nil
	case ResetOvershoots, CarryOvershoots:
		return p, nil
	}
	return "", core.NewConfigError("overshoot_policy", fmt.Sprintf("unknown policy %q", s))
}

// Counters are the session-wide tallies.
type Counters struct {
	Successful int `json:"successful"`
	Attempted  int `json:"attempted"`
	Overshoots int `json:"overshoots"` // in the current attempt
}

// Failed is the number of attempts that did not succeed.
func (c Counters) Failed() int { return c.Attempted - c.Successful }

// Trial is the context of the attempt in progress. ID and Target stay fixed
// across retries; Attempt counts them from 1.
type Trial struct {
	ID        core.TrialID    `json:"id"`
	Target    int             `json:"target"`
	Type      trial.Type      `json:"type"`
	Direction trial.Direction `json:"direction"`
	Attempt   int             `json:"attempt"`
	StartMs   core.Millis     `json:"start_ms"`
	Timing    trial.Timing    `json:"timing"`
}

// Session is the whole mutable state of one run. The controller takes and
// returns it by value.
type Session struct {
	ID         core.SessionID `json:"id"`
	Running    bool           `json:"running"`
	Paused     bool           `json:"paused"`
	Done       bool           `json:"done"`
	Counters   Counters       `json:"counters"`
	Trial      Trial          `json:"trial"`
	Machine    trial.State    `json:"machine"`
	HeldTarget int            `json:"held_target"`
	TargetHint int            `json:"target_hint"`
	LastMs     core.Millis    `json:"last_ms"`
	seen       bool
}

// Phase is the machine phase, idle when no session runs.
func (s Session) Phase() trial.Phase {
	if !s.Running || s.Paused {
		return trial.Idle
	}
	return s.Machine.Phase
}

// Elapsed is the time since the current attempt began.
func (s Session) Elapsed(now core.Millis) core.Millis {
	return now.Since(s.Trial.StartMs)
}

// Report describes one processed sample. Trial is the context the sample
// was judged in, before any rollover to the next attempt.
type Report struct {
	Trial      Trial              `json:"trial"`
	From       trial.Phase        `json:"from"`
	Phase      trial.Phase        `json:"phase"`
	Overshoots int                `json:"overshoots"`
	Intent     trial.RenderIntent `json:"intent"`
	Outcome    trial.Outcome      `json:"outcome"`
	Clocks     trial.Clocks       `json:"clocks"` // as they stood when the attempt ended
	Done       bool               `json:"done"`
	Active     bool               `json:"active"` // false when the sample was ignored in idle
}

// ReactionTime is go to move of the attempt, if it got that far.
func (r Report) ReactionTime() (core.Millis, bool) {
	if r.From < trial.Move || !r.From.Valid() {
		return 0, false
	}
	return r.Clocks.Move.Since(r.Clocks.React), true
}

// MovementTime is move to the first arrival in the end target.
func (r Report) MovementTime() (core.Millis, bool) {
	if r.From < trial.T2Hold1 || !r.From.Valid() {
		return 0, false
	}
	return r.Clocks.Arrive.Since(r.Clocks.Move), true
}

// Changed reports whether the sample moved the machine to another phase.
func (r Report) Changed() bool { return r.From != r.Phase }
