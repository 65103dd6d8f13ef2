package cmd

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"revenue-dashboard/pkg/errors"
)

func TestHandleError(t *testing.T) {
	cause := fmt.Errorf("stat revenue.xlsx: no such file or directory")

	tests := []struct {
		name     string
		err      error
		verbose  bool
		exitCode int
		contains []string
		excludes []string
	}{
		{
			name:     "nil error",
			err:      nil,
			exitCode: 0,
		},
		{
			name:     "missing input",
			err:      errors.InputError(errors.CodeMissingInput, "revenue workbook", cause),
			exitCode: 2,
			contains: []string{
				"Error: required input is missing: revenue workbook",
				"source: revenue workbook",
				"Suggestion: provide both workbooks",
				"Input error help:",
			},
			excludes: []string{"Underlying error"},
		},
		{
			name:     "missing input verbose",
			err:      errors.InputError(errors.CodeMissingInput, "revenue workbook", cause),
			verbose:  true,
			exitCode: 2,
			contains: []string{"Underlying error: stat revenue.xlsx"},
		},
		{
			name:     "wrapped configuration error",
			err:      fmt.Errorf("running: %w", errors.ConfigurationError(errors.CodeInvalidDateRange, "start-date", "2025-13-01", nil)),
			exitCode: 4,
			contains: []string{"Error: invalid date range: 2025-13-01", "Configuration error help:"},
		},
		{
			name:     "parse error",
			err:      errors.ParseError(errors.CodeWorkbookCorrupted, "revenue.xlsx", "Source", nil),
			exitCode: 3,
			contains: []string{"Parse error help:", "sheet: Source"},
		},
		{
			name:     "wrapped not exist",
			err:      fmt.Errorf("open x: %w", os.ErrNotExist),
			exitCode: 1,
			contains: []string{"Error: open x: file does not exist"},
		},
		{
			name:     "raw not exist",
			err:      os.ErrNotExist,
			exitCode: 2,
			contains: []string{"Error: File not found"},
		},
		{
			name:     "generic",
			err:      fmt.Errorf("boom"),
			exitCode: 1,
			contains: []string{"Error: boom", "--verbose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewCLIErrorHandler(&buf, tt.verbose)

			assert.Equal(t, tt.exitCode, h.HandleError(tt.err))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
