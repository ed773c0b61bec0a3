package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"centerout/domain/record"
	"centerout/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []record.Row {
	return []record.Row{
		{TrialID: "t-1", TrialNum: 1, TrialPhase: trial.T1Pre, TrialType: trial.Baseline, TrialDirection: trial.Outward, Time: 0, CursorX: 300, CursorY: 300, HandX: 300, HandY: 300},
		{TrialID: "t-1", TrialNum: 1, TrialPhase: trial.Move, TrialType: trial.Baseline, TrialDirection: trial.Outward, Time: 1300, CursorX: 399.5, CursorY: 300, HandX: 399.5, HandY: 300},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, record.Columns, lines[0])
	assert.Equal(t, []string{"t-1", "1", "0", "move", "baseline", "out", "1300", "399.5", "300", "399.5", "300"}, lines[2])
}

func TestCSVExporter(t *testing.T) {
	dir := t.TempDir()
	path, err := CSVExporter{Dir: filepath.Join(dir, "out"), Prefix: "S01"}.Export(context.Background(), "abc", sampleRows())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "S01_abc.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "trialID,trialNum,trialOvershoots"))
}

func TestXLSXExporter(t *testing.T) {
	dir := t.TempDir()
	path, err := XLSXExporter{Dir: dir}.Export(context.Background(), "abc", sampleRows())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rowsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, record.Columns, rows[0])
	assert.Equal(t, "move", rows[2][3])
	assert.Equal(t, "1300", rows[2][6])
}

func TestMulti(t *testing.T) {
	dir := t.TempDir()
	m := Multi{CSVExporter{Dir: dir}, XLSXExporter{Dir: dir}}
	paths, err := m.Export(context.Background(), "s", sampleRows())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "s.csv")+","+filepath.Join(dir, "s.xlsx"), paths)
}
