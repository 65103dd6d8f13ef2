package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sheetData struct {
	name string
	rows [][]any
}

func writeWorkbook(t *testing.T, path string, sheets ...sheetData) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &values))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

// fixtures writes a revenue workbook with two clients over two months and a
// forecast workbook with one forecast row
func fixtures(t *testing.T) (revenue, forecast string) {
	t.Helper()
	dir := t.TempDir()

	revenue = filepath.Join(dir, "revenue.xlsx")
	writeWorkbook(t, revenue,
		sheetData{name: "Source", rows: [][]any{
			{"Client", "Amount", "Cost", "Fin Period"},
			{"Acme", 100, 40, "2025-01-15"},
			{"Globex", 120, 70, "2025-02-10"},
		}},
		sheetData{name: "Quaters", rows: [][]any{
			{"Fin Period", "Quarter"},
			{"2025-01-01", "Q1"},
		}},
	)

	forecast = filepath.Join(dir, "forecast.xlsx")
	writeWorkbook(t, forecast,
		sheetData{name: "Budget Details", rows: [][]any{
			{"Client", "Budget"},
			{"Acme", 1000},
		}},
		sheetData{name: "Forecast Detail", rows: [][]any{
			{"Client", "Period", "Forecast"},
			{"Acme", "2025-02-01", 90},
		}},
	)
	return revenue, forecast
}

// clearEnv keeps workbook paths from the environment out of the tests
func clearEnv(t *testing.T) {
	t.Setenv("RA_DATA_PATH", "")
	t.Setenv("FORECAST_PATH", "")
	t.Setenv("DASHBOARD_REVENUE_FILE", "")
	t.Setenv("DASHBOARD_FORECAST_FILE", "")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}
