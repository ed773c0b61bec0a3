package excel

// RawRowData represents a row as header to cell text
type RawRowData map[string]string

// ExcelData represents a complete sheet
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Column returns the first header present in the sheet out of names.
func (d *ExcelData) Column(names ...string) (string, bool) {
	for _, n := range names {
		for _, h := range d.Headers {
			if h == n {
				return h, true
			}
		}
	}
	return "", false
}
