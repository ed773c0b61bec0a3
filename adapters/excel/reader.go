package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"centerout/domain/core"
	"centerout/internal"
	"centerout/ports"

	"github.com/xuri/excelize/v2"
)

// Header names accepted for the sample columns, in order of preference.
var (
	TimeColumns = []string{"t_ms", "timestamp_ms", "time", "t"}
	XColumns    = []string{"x", "raw_x"}
	YColumns    = []string{"y", "raw_y"}
)

// DataReader reads recorded position streams from Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader choosing the format by file extension
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger.With("reader")}
}

// ReadData reads the header row and data rows of the file
func (r *DataReader) ReadData() (*ExcelData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the first sheet of the workbook
func (r *DataReader) readExcelData() (*ExcelData, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// readCSVData reads a CSV file
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData)
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%s file processed (%d columns, %d rows)", strings.ToUpper(r.fileType), len(headers), len(dataRows))
	return &ExcelData{Headers: headers, Rows: dataRows}, nil
}

// ReadSamples reads the file and converts it to raw samples.
func (r *DataReader) ReadSamples() ([]ports.RawSample, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return Samples(data)
}

// Samples converts a sheet with a time, x and y column into raw samples.
// Rows with an empty time cell are skipped.
func Samples(data *ExcelData) ([]ports.RawSample, error) {
	tCol, ok := data.Column(TimeColumns...)
	if !ok {
		return nil, fmt.Errorf("no time column, want one of %v", TimeColumns)
	}
	xCol, ok := data.Column(XColumns...)
	if !ok {
		return nil, fmt.Errorf("no x column, want one of %v", XColumns)
	}
	yCol, ok := data.Column(YColumns...)
	if !ok {
		return nil, fmt.Errorf("no y column, want one of %v", YColumns)
	}

	out := make([]ports.RawSample, 0, len(data.Rows))
	for i, row := range data.Rows {
		if row[tCol] == "" {
			continue
		}
		t, err := strconv.ParseFloat(row[tCol], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad %s %q", i+2, tCol, row[tCol])
		}
		x, err := strconv.ParseFloat(row[xCol], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad %s %q", i+2, xCol, row[xCol])
		}
		y, err := strconv.ParseFloat(row[yCol], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad %s %q", i+2, yCol, row[yCol])
		}
		out = append(out, ports.RawSample{X: x, Y: y, TimestampMs: core.Millis(t)})
	}
	return out, nil
}
