package ports

import (
	"context"

	"centerout/domain/record"
)

// RowExporter writes a session's recorder rows to a flat file and returns
// its path.
type RowExporter interface {
	Export(ctx context.Context, sessionID string, rows []record.Row) (string, error)
}
