package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVRenderer writes timetable tables as UTF-8 CSV. A byte-order mark is
// prepended so spreadsheet tools open Vietnamese labels correctly.
type CSVRenderer struct{}

// NewCSVRenderer builds a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render produces CSV encoded bytes for the table.
func (r *CSVRenderer) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		copy(record, row)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements Renderer.
func (r *CSVRenderer) ContentType() string { return "text/csv" }

// Extension implements Renderer.
func (r *CSVRenderer) Extension() string { return "csv" }
