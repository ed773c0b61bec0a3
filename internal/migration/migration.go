package migration

import (
	"context"

	"centerout/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the attempt ledger schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all schema migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAttemptsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create attempts table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.createSchemaVersion(ctx, db); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}

	return nil
}

func (r *MigrationRunner) createAttemptsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			trial_id TEXT NOT NULL,
			attempt INTEGER NOT NULL,
			target INTEGER NOT NULL,
			trial_type TEXT NOT NULL,
			direction TEXT NOT NULL,
			success BOOLEAN NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			overshoots INTEGER NOT NULL DEFAULT 0,
			reaction_ms INTEGER NOT NULL DEFAULT 0,
			movement_ms INTEGER NOT NULL DEFAULT 0,
			ended_at TIMESTAMP NOT NULL,
			UNIQUE (trial_id, attempt)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_attempts_session ON attempts(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_session_target ON attempts(session_id, target)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_type ON attempts(trial_type)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) createSchemaVersion(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, r.version)
	return err
}
