package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"revenue-dashboard/internal/aggregator"
	"revenue-dashboard/internal/filter"
	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/reconciler"
	"revenue-dashboard/pkg/errors"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func sampleResult(t *testing.T) *reconciler.Result {
	t.Helper()

	facts := []models.FactRecord{
		models.NewFactRecord("Acme", models.NewDate(2025, time.January, 10), amount("1200"), amount("700")),
		models.NewFactRecord("Beta", models.NewDate(2025, time.January, 20), amount("300"), decimal.NullDecimal{}),
		models.NewFactRecord("Acme", models.NewDate(2025, time.February, 5), amount("1500.4"), amount("500")),
	}
	forecasts := []models.ForecastRecord{
		models.NewForecastRecord("Acme", models.NewDate(2025, time.February, 1), amount("1000")),
		models.NewForecastRecord("Beta", models.NewDate(2025, time.March, 1), amount("2000")),
	}

	trend := aggregator.MonthlyTrend(facts)
	stats, err := aggregator.SummarizeTrend(trend)
	require.NoError(t, err)

	rng, err := models.NewDateRange(
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	diagnostics := errors.NewDiagnostics(3)
	diagnostics.Unparseable("actuals", "cost", "Cost", "n/a")

	return &reconciler.Result{
		RunID:       "run-1",
		ProcessedAt: time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC),
		Revenue: reconciler.WorkbookSummary{
			Label:  "revenue.xlsx",
			Sheets: []string{"Source", "Quaters"},
			Roles:  map[string]string{"actuals": "Source", "quarters": "Quaters"},
		},
		Forecast: reconciler.WorkbookSummary{
			Label:  "forecast.xlsx",
			Sheets: []string{"Budget Details", "Forecast Detail"},
			Roles:  map[string]string{"budget": "Budget Details", "forecast": "Forecast Detail"},
			Cached: true,
		},
		Counts:           reconciler.RowCounts{SourceRows: 3, ForecastRows: 2, FilteredFacts: 3, FilteredForecasts: 2},
		ClientOptions:    []string{"Acme", "Beta"},
		Criteria:         filter.Criteria{Range: rng},
		KPIs:             aggregator.SumKPIs(facts),
		Trend:            trend,
		TrendStats:       stats,
		TopClients:       aggregator.TopClients(facts, aggregator.DefaultTopClients),
		ActualVsForecast: aggregator.ActualVsForecast(facts, forecasts),
		Facts:            facts,
		Forecasts:        forecasts,
		Quarters:         models.NewRawTable("Quaters", []string{"Fin Period", "Quarter"}, [][]any{{"2025-01-01", "Q1"}}),
		Diagnostics:      diagnostics,
	}
}

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{name: "default config", config: nil},
		{name: "valid config", config: DefaultReportConfig()},
		{
			name: "invalid format",
			config: func() *ReportConfig {
				c := DefaultReportConfig()
				c.Format = "xml"
				return c
			}(),
			expectError: true,
		},
		{
			name: "invalid dataset",
			config: func() *ReportConfig {
				c := DefaultReportConfig()
				c.Format = FormatCSV
				c.Dataset = "budget"
				return c
			}(),
			expectError: true,
		},
		{
			name: "zero explorer limit",
			config: func() *ReportConfig {
				c := DefaultReportConfig()
				c.ExplorerLimit = 0
				return c
			}(),
			expectError: true,
		},
		{
			name: "quote delimiter",
			config: func() *ReportConfig {
				c := DefaultReportConfig()
				c.Format = FormatCSV
				c.CSVDelimiter = '"'
				return c
			}(),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, generator)
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, FormatYAML.IsValid())
	assert.False(t, OutputFormat("html").IsValid())
	for _, d := range Datasets {
		assert.True(t, d.IsValid(), d)
	}
	assert.False(t, Dataset("quarters").IsValid())
}

func TestGenerateReportNilResult(t *testing.T) {
	generator, err := NewReportGenerator(nil)
	require.NoError(t, err)
	assert.Error(t, generator.GenerateReport(nil, &bytes.Buffer{}))
}

func TestConsoleReport(t *testing.T) {
	config := DefaultReportConfig()
	config.IncludeExplorer = true
	generator, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(sampleResult(t), &buf))
	out := buf.String()

	for _, section := range []string{
		"=== DATA SOURCES ===",
		"=== FILTERS ===",
		"=== KPIs ===",
		"=== REVENUE TREND ===",
		"=== TOP CLIENTS ===",
		"=== ACTUAL VS FORECAST ===",
		"=== DATA QUALITY ===",
		"=== DATA EXPLORER ===",
		"=== PROCESSING STATISTICS ===",
	} {
		assert.Contains(t, out, section)
	}

	assert.Contains(t, out, "forecast.xlsx (cached)")
	assert.Contains(t, out, "Clients:    all (2 available)")
	assert.Contains(t, out, "Date range: 2025-01-01 to 2025-03-31")
	assert.Contains(t, out, "R3,000")
	assert.Contains(t, out, "R1,500")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "  1. Acme")
	assert.Contains(t, out, "  2. Beta")
	assert.Contains(t, out, "2025-03")
	assert.Contains(t, out, `actuals cost (column "Cost")`)
	assert.Contains(t, out, "Quarters map (1 rows): Fin Period, Quarter")
}

func TestConsoleReportNoData(t *testing.T) {
	result := sampleResult(t)
	result.KPIs = aggregator.SumKPIs(nil)
	result.Trend = nil
	result.TrendStats = nil
	result.TopClients = nil
	result.ActualVsForecast = nil
	result.Criteria.Clients = []string{"Nobody"}

	generator, err := NewReportGenerator(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(result, &buf))
	out := buf.String()

	assert.Contains(t, out, "Revenue:       – (No data)")
	assert.Contains(t, out, "Margin %:      – (No data)")
	assert.Contains(t, out, "Clients:    Nobody")
	assert.Contains(t, out, "No dated revenue in the selection")
	assert.Contains(t, out, "No clients in the selection")
	assert.Contains(t, out, "No dated forecasts in the selection")
	assert.NotContains(t, out, "=== DATA EXPLORER ===")
}

func TestJSONReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	config.IncludeExplorer = true
	config.ExplorerLimit = 2
	generator, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(sampleResult(t), &buf))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.KPIs, 4)
	assert.Equal(t, "Revenue", report.KPIs[0].Name)
	require.NotNil(t, report.KPIs[0].Value)
	assert.InDelta(t, 3000.4, *report.KPIs[0].Value, 1e-9)
	assert.Equal(t, "R1,500", report.KPIs[2].Display)

	require.Len(t, report.ActualVsForecast, 3)
	jan := report.ActualVsForecast[0]
	assert.Equal(t, "2025-01", jan.Month)
	assert.Nil(t, jan.Forecast)
	assert.Nil(t, jan.Variance)
	assert.Equal(t, NoData, jan.ForecastDisplay)
	feb := report.ActualVsForecast[1]
	require.NotNil(t, feb.Variance)
	assert.InDelta(t, 500.4, *feb.Variance, 1e-9)

	require.NotNil(t, report.Explorer)
	assert.Len(t, report.Explorer.Facts, 2)
	assert.Len(t, report.Explorer.Forecasts, 2)
	assert.Nil(t, report.Explorer.Facts[1].Cost)
	assert.Len(t, report.Diagnostics, 1)
	assert.NotNil(t, report.Stats)
}

func TestYAMLReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatYAML
	generator, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(sampleResult(t), &buf))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Contains(t, decoded, "top_clients")
	assert.NotContains(t, decoded, "stats")
	assert.NotContains(t, decoded, "explorer")
}

func TestCSVDatasets(t *testing.T) {
	tests := []struct {
		dataset Dataset
		header  []string
		rows    [][]string
	}{
		{
			dataset: DatasetActualVsForecast,
			header:  []string{"Month", "Actual", "Forecast", "Variance"},
			rows: [][]string{
				{"2025-01", "1500", "", ""},
				{"2025-02", "1500.4", "1000", "500.4"},
				{"2025-03", "", "2000", ""},
			},
		},
		{
			dataset: DatasetTrend,
			header:  []string{"Month", "Revenue"},
			rows:    [][]string{{"2025-01", "1500"}, {"2025-02", "1500.4"}},
		},
		{
			dataset: DatasetTopClients,
			header:  []string{"Rank", "Client", "Revenue"},
			rows:    [][]string{{"1", "Acme", "2700.4"}, {"2", "Beta", "300"}},
		},
		{
			dataset: DatasetFacts,
			header:  []string{"Client", "Period", "Revenue", "Cost", "Gross_Profit"},
			rows: [][]string{
				{"Acme", "2025-01-10", "1200", "700", "500"},
				{"Beta", "2025-01-20", "300", "", ""},
				{"Acme", "2025-02-05", "1500.4", "500", "1000.4"},
			},
		},
		{
			dataset: DatasetForecasts,
			header:  []string{"Client", "Period", "Forecast"},
			rows:    [][]string{{"Acme", "2025-02-01", "1000"}, {"Beta", "2025-03-01", "2000"}},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.dataset), func(t *testing.T) {
			config := DefaultReportConfig()
			config.Format = FormatCSV
			config.Dataset = tt.dataset
			generator, err := NewReportGenerator(config)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, generator.GenerateReport(sampleResult(t), &buf))

			records, err := csv.NewReader(&buf).ReadAll()
			require.NoError(t, err)
			require.NotEmpty(t, records)
			assert.Equal(t, tt.header, records[0])
			assert.Equal(t, tt.rows, records[1:])
		})
	}
}

func TestCSVOptions(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	config.Dataset = DatasetTrend
	config.CSVDelimiter = ';'
	config.CSVHeaders = false
	generator, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(sampleResult(t), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"2025-01;1500", "2025-02;1500.4"}, lines)
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"currency", FormatCurrency(decimal.RequireFromString("1234567.4")), "R1,234,567"},
		{"small currency", FormatCurrency(decimal.RequireFromString("12")), "R12"},
		{"negative currency", FormatCurrency(decimal.RequireFromString("-1234")), "R-1,234"},
		{"currency half to even down", FormatCurrency(decimal.RequireFromString("2.5")), "R2"},
		{"currency half to even up", FormatCurrency(decimal.RequireFromString("3.5")), "R4"},
		{"currency half to zero", FormatCurrency(decimal.RequireFromString("0.5")), "R0"},
		{"currency thousands half", FormatCurrency(decimal.RequireFromString("1234.5")), "R1,234"},
		{"percent", FormatPercent(decimal.RequireFromString("12.34")), "12.3%"},
		{"percent half to even down", FormatPercent(decimal.RequireFromString("12.25")), "12.2%"},
		{"percent half to even up", FormatPercent(decimal.RequireFromString("12.35")), "12.4%"},
		{"zero percent", FormatPercent(decimal.Zero), "0.0%"},
		{"null currency", FormatNullCurrency(decimal.NullDecimal{}), NoData},
		{"null percent", FormatNullPercent(decimal.NullDecimal{}), NoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestSafeReportGenerator(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	generator, err := NewSafeReportGenerator(config, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReportSafely(sampleResult(t), &buf))
	assert.True(t, json.Valid(buf.Bytes()))

	err = generator.GenerateReportSafely(sampleResult(t), failingWriter{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnexpectedError))
	assert.ErrorIs(t, err, assert.AnError)

	assert.Error(t, generator.GenerateReportSafely(nil, &buf))
}

func TestNewSafeReportGeneratorInvalidConfig(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = "pdf"
	_, err := NewSafeReportGenerator(config, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidConfig))
}
