package models

import (
	"fmt"
	"strings"
)

// Row maps a header to the cell value read from the sheet. Values are one of
// nil (blank), string, float64, bool or time.Time.
type Row map[string]any

// RawTable is one sheet as read from a workbook, before any normalization
type RawTable struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// NewRawTable builds a table from a header row and positional cell rows.
// Headers are whitespace-trimmed; blank headers are named column_<n> (1-based).
// Cells beyond the header width are dropped.
func NewRawTable(name string, headers []string, cells [][]any) *RawTable {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		cleaned[i] = h
	}

	rows := make([]Row, 0, len(cells))
	for _, values := range cells {
		row := make(Row, len(cleaned))
		for i, h := range cleaned {
			if i < len(values) {
				row[h] = values[i]
			} else {
				row[h] = nil
			}
		}
		rows = append(rows, row)
	}

	return &RawTable{Name: name, Headers: cleaned, Rows: rows}
}

// Len returns the number of data rows
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the values of one column in row order
func (t *RawTable) Column(header string) []any {
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[header]
	}
	return values
}

// Head returns a shallow view of at most n rows
func (t *RawTable) Head(n int) *RawTable {
	if t == nil {
		return nil
	}
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return &RawTable{Name: t.Name, Headers: t.Headers, Rows: t.Rows[:n]}
}
