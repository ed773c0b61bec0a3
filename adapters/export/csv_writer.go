// Package export writes recorder rows to flat files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"centerout/domain/record"
	"centerout/ports"
)

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, rows []record.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(record.Columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVExporter writes one CSV file per session into Dir.
type CSVExporter struct {
	Dir    string
	Prefix string
}

func (e CSVExporter) Export(ctx context.Context, sessionID string, rows []record.Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := outputPath(e.Dir, e.Prefix, sessionID, "csv")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, f.Close()
}

// Multi fans an export out to several exporters and joins their paths.
type Multi []ports.RowExporter

func (m Multi) Export(ctx context.Context, sessionID string, rows []record.Row) (string, error) {
	paths := make([]string, 0, len(m))
	for _, e := range m {
		p, err := e.Export(ctx, sessionID, rows)
		if err != nil {
			return strings.Join(paths, ","), err
		}
		paths = append(paths, p)
	}
	return strings.Join(paths, ","), nil
}

func outputPath(dir, prefix, sessionID, ext string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	name := sessionID
	if prefix != "" {
		name = prefix + "_" + sessionID
	}
	return filepath.Join(dir, name+"."+ext), nil
}

var (
	_ ports.RowExporter = CSVExporter{}
	_ ports.RowExporter = Multi{}
)
