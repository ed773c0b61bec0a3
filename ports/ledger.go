package ports

import (
	"context"
	"time"

	"centerout/domain/core"
	"centerout/domain/trial"
)

// AttemptRecord is the summary of one finished attempt.
type AttemptRecord struct {
	SessionID  core.SessionID  `json:"session_id" db:"session_id"`
	TrialID    core.TrialID    `json:"trial_id" db:"trial_id"`
	Attempt    int             `json:"attempt" db:"attempt"`
	Target     int             `json:"target" db:"target"`
	Type       trial.Type      `json:"type" db:"trial_type"`
	Direction  trial.Direction `json:"direction" db:"direction"`
	Success    bool            `json:"success" db:"success"`
	Reason     string          `json:"reason,omitempty" db:"reason"`
	Overshoots int             `json:"overshoots" db:"overshoots"`
	ReactionMs core.Millis     `json:"reaction_ms" db:"reaction_ms"` // go to move, 0 if never reached
	MovementMs core.Millis     `json:"movement_ms" db:"movement_ms"` // move to t2_hold_1, 0 if never reached
	EndedAt    time.Time       `json:"ended_at" db:"ended_at"`
}

// LedgerWriterPort appends finished attempts. Append-only.
type LedgerWriterPort interface {
	RecordAttempt(ctx context.Context, rec AttemptRecord) error
}

// LedgerReaderPort queries recorded attempts.
type LedgerReaderPort interface {
	ListAttempts(ctx context.Context, filters AttemptFilters) ([]AttemptRecord, error)
	TargetTallies(ctx context.Context, sessionID core.SessionID) ([]TargetTally, error)
}

// AttemptFilters for querying attempts.
type AttemptFilters struct {
	SessionID *core.SessionID
	Type      *trial.Type
	Success   *bool
	Limit     int
	Offset    int
}

// TargetTally is the per-target outcome count of a session.
type TargetTally struct {
	Target     int `json:"target" db:"target"`
	Attempts   int `json:"attempts" db:"attempts"`
	Successes  int `json:"successes" db:"successes"`
	Overshoots int `json:"overshoots" db:"overshoots"`
}

// LedgerPort combines read and write access.
type LedgerPort interface {
	LedgerWriterPort
	LedgerReaderPort
}
