package export

import (
	"context"
	"fmt"

	"centerout/domain/record"
	"centerout/ports"

	"github.com/xuri/excelize/v2"
)

const rowsSheet = "trials"

// XLSXExporter writes one workbook per session into Dir, numbers as numeric
// cells.
type XLSXExporter struct {
	Dir    string
	Prefix string
}

func (e XLSXExporter) Export(ctx context.Context, sessionID string, rows []record.Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := outputPath(e.Dir, e.Prefix, sessionID, "xlsx")
	if err != nil {
		return "", err
	}
	f, err := BuildWorkbook(rows)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}

// BuildWorkbook lays rows out on a single sheet under the export header.
func BuildWorkbook(rows []record.Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(record.Columns))
	for i, c := range record.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(rowsSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			r.TrialID.String(), r.TrialNum, r.TrialOvershoots, r.TrialPhase.String(),
			string(r.TrialType), string(r.TrialDirection), int64(r.Time),
			r.CursorX, r.CursorY, r.HandX, r.HandY,
		}
		if err := f.SetSheetRow(rowsSheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

var _ ports.RowExporter = XLSXExporter{}
