package ledger

import (
	"context"
	"strings"

	"centerout/domain/core"
	"centerout/internal/errors"
	"centerout/internal/migration"
	"centerout/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDSN is a process-local shared in-memory database.
const DefaultDSN = "file::memory:?cache=shared"

// Open connects to the sqlite ledger and runs the schema migrations.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.LedgerError("failed to open ledger", err)
	}
	// an in-memory database lives as long as its last connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.LedgerError("failed to reach ledger", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.LedgerError("failed to migrate ledger", err)
	}
	return db, nil
}

// AttemptRepository implements ports.LedgerPort over sqlite.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository creates a new attempt ledger repository
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

var _ ports.LedgerPort = (*AttemptRepository)(nil)

// RecordAttempt appends one finished attempt.
func (r *AttemptRepository) RecordAttempt(ctx context.Context, rec ports.AttemptRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO attempts (session_id, trial_id, attempt, target, trial_type, direction,
			success, reason, overshoots, reaction_ms, movement_ms, ended_at)
		VALUES (:session_id, :trial_id, :attempt, :target, :trial_type, :direction,
			:success, :reason, :overshoots, :reaction_ms, :movement_ms, :ended_at)
	`, rec)
	if err != nil {
		return errors.LedgerError("failed to record attempt", err)
	}
	return nil
}

// ListAttempts returns attempts in recording order.
func (r *AttemptRepository) ListAttempts(ctx context.Context, filters ports.AttemptFilters) ([]ports.AttemptRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if filters.SessionID != nil {
		where = append(where, "session_id = ?")
		args = append(args, *filters.SessionID)
	}
	if filters.Type != nil {
		where = append(where, "trial_type = ?")
		args = append(args, *filters.Type)
	}
	if filters.Success != nil {
		where = append(where, "success = ?")
		args = append(args, *filters.Success)
	}

	query := `
		SELECT session_id, trial_id, attempt, target, trial_type, direction,
			success, reason, overshoots, reaction_ms, movement_ms, ended_at
		FROM attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if filters.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filters.Limit, filters.Offset)
	}

	records := []ports.AttemptRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, errors.LedgerError("failed to list attempts", err)
	}
	return records, nil
}

// TargetTallies groups a session's attempts by target index.
func (r *AttemptRepository) TargetTallies(ctx context.Context, sessionID core.SessionID) ([]ports.TargetTally, error) {
	tallies := []ports.TargetTally{}
	err := r.db.SelectContext(ctx, &tallies, `
		SELECT target,
			COUNT(*) AS attempts,
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS successes,
			COALESCE(SUM(overshoots), 0) AS overshoots
		FROM attempts
		WHERE session_id = ?
		GROUP BY target
		ORDER BY target
	`, sessionID)
	if err != nil {
		return nil, errors.LedgerError("failed to tally targets", err)
	}
	return tallies, nil
}
