// Package reporter renders dashboard results.
//
// Supported output formats:
//   - Console: the dashboard laid out as text sections for a terminal
//   - JSON and YAML: the full report for programmatic consumption
//   - CSV: one dataset (actual vs forecast by default) for spreadsheets
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{
//		Format:  reporter.FormatCSV,
//		Dataset: reporter.DatasetTrend,
//	})
//	if err != nil {
//		return err
//	}
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"revenue-dashboard/internal/reconciler"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatYAML    OutputFormat = "yaml"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatYAML:
		return true
	default:
		return false
	}
}

// Dataset selects the table written by the CSV format
type Dataset string

const (
	DatasetActualVsForecast Dataset = "actual-vs-forecast"
	DatasetTrend            Dataset = "trend"
	DatasetTopClients       Dataset = "top-clients"
	DatasetFacts            Dataset = "facts"
	DatasetForecasts        Dataset = "forecasts"
)

// Datasets lists every CSV dataset
var Datasets = []Dataset{
	DatasetActualVsForecast,
	DatasetTrend,
	DatasetTopClients,
	DatasetFacts,
	DatasetForecasts,
}

// IsValid checks if the dataset is known
func (d Dataset) IsValid() bool {
	for _, known := range Datasets {
		if d == known {
			return true
		}
	}
	return false
}

// DefaultExplorerLimit is the number of rows shown per explorer table
const DefaultExplorerLimit = 1000

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeDiagnostics     bool `json:"include_diagnostics"`
	IncludeExplorer        bool `json:"include_explorer"`
	IncludeProcessingStats bool `json:"include_processing_stats"`

	// ExplorerLimit caps the rows of each explorer table
	ExplorerLimit int `json:"explorer_limit"`
	// ConsoleRows caps the explorer rows printed by the console format
	ConsoleRows int `json:"console_rows"`

	// CSV options
	Dataset      Dataset `json:"dataset"`
	CSVDelimiter rune    `json:"csv_delimiter"`
	CSVHeaders   bool    `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                 FormatConsole,
		IncludeDiagnostics:     true,
		IncludeExplorer:        false,
		IncludeProcessingStats: true,
		ExplorerLimit:          DefaultExplorerLimit,
		ConsoleRows:            20,
		Dataset:                DatasetActualVsForecast,
		CSVDelimiter:           ',',
		CSVHeaders:             true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.Format == FormatCSV && !c.Dataset.IsValid() {
		return fmt.Errorf("invalid dataset: %s", c.Dataset)
	}
	if c.ExplorerLimit <= 0 {
		return fmt.Errorf("explorer limit must be positive, got %d", c.ExplorerLimit)
	}
	if c.ConsoleRows < 0 {
		return fmt.Errorf("console rows cannot be negative, got %d", c.ConsoleRows)
	}
	if c.Format == FormatCSV && (c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n') {
		return fmt.Errorf("invalid CSV delimiter: %q", c.CSVDelimiter)
	}
	return nil
}

// ReportGenerator generates dashboard reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the report for result to writer
func (rg *ReportGenerator) GenerateReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("dashboard result cannot be nil")
	}

	report := NewReport(result, rg.config)

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatYAML:
		return rg.generateYAMLReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateJSONReport(report *Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateYAMLReport(report *Report, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode YAML report: %w", err)
	}
	return encoder.Close()
}

// generateCSVReport writes the configured dataset. Absent amounts are empty cells.
func (rg *ReportGenerator) generateCSVReport(report *Report, result *reconciler.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	var headers []string
	var records [][]string

	switch rg.config.Dataset {
	case DatasetActualVsForecast:
		headers = []string{"Month", "Actual", "Forecast", "Variance"}
		for _, row := range result.ActualVsForecast {
			records = append(records, []string{
				row.Month.Format(monthLayout),
				plainNumber(row.Actual),
				plainNumber(row.Forecast),
				plainNumber(row.Variance()),
			})
		}
	case DatasetTrend:
		headers = []string{"Month", "Revenue"}
		for _, p := range result.Trend {
			records = append(records, []string{p.Month.Format(monthLayout), p.Revenue.String()})
		}
	case DatasetTopClients:
		headers = []string{"Rank", "Client", "Revenue"}
		for i, c := range result.TopClients {
			records = append(records, []string{fmt.Sprint(i + 1), c.Client, c.Revenue.String()})
		}
	case DatasetFacts:
		headers = []string{"Client", "Period", "Revenue", "Cost", "Gross_Profit"}
		for _, f := range result.Facts {
			records = append(records, []string{
				f.Client,
				f.Period.String(),
				plainNumber(f.Revenue),
				plainNumber(f.Cost),
				plainNumber(f.GrossProfit()),
			})
		}
	case DatasetForecasts:
		headers = []string{"Client", "Period", "Forecast"}
		for _, f := range result.Forecasts {
			records = append(records, []string{f.Client, f.Period.String(), plainNumber(f.Amount)})
		}
	default:
		return fmt.Errorf("unsupported dataset: %s", rg.config.Dataset)
	}

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}
	if err := csvWriter.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s records: %w", rg.config.Dataset, err)
	}
	return nil
}

// generateConsoleReport lays the dashboard out as text sections
func (rg *ReportGenerator) generateConsoleReport(report *Report, writer io.Writer) error {
	fmt.Fprintf(writer, "REVENUE & FORECAST DASHBOARD\n")
	fmt.Fprintf(writer, "Generated: %s\n", report.GeneratedAt)
	fmt.Fprintf(writer, "Run ID:    %s\n\n", report.RunID)

	fmt.Fprintf(writer, "=== DATA SOURCES ===\n")
	rg.printInputs(report, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== FILTERS ===\n")
	rg.printFilter(report, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== KPIs ===\n")
	for _, k := range report.KPIs {
		if k.Note != "" {
			fmt.Fprintf(writer, "%-14s %s (%s)\n", k.Name+":", k.Display, k.Note)
		} else {
			fmt.Fprintf(writer, "%-14s %s\n", k.Name+":", k.Display)
		}
	}
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== REVENUE TREND ===\n")
	rg.printTrend(report, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== TOP CLIENTS ===\n")
	if len(report.TopClients) == 0 {
		fmt.Fprintf(writer, "No clients in the selection\n")
	}
	for _, c := range report.TopClients {
		fmt.Fprintf(writer, "%3d. %-40s %14s\n", c.Rank, c.Client, c.Display)
	}
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== ACTUAL VS FORECAST ===\n")
	rg.printComparison(report, writer)
	fmt.Fprintf(writer, "\n")

	if len(report.Diagnostics) > 0 {
		fmt.Fprintf(writer, "=== DATA QUALITY ===\n")
		for _, issue := range report.Diagnostics {
			fmt.Fprintf(writer, "- %s\n", issue.String())
		}
		fmt.Fprintf(writer, "\n")
	}

	if report.Explorer != nil {
		fmt.Fprintf(writer, "=== DATA EXPLORER ===\n")
		rg.printExplorer(report.Explorer, writer)
		fmt.Fprintf(writer, "\n")
	}

	if report.Stats != nil {
		fmt.Fprintf(writer, "=== PROCESSING STATISTICS ===\n")
		stats := report.Stats
		fmt.Fprintf(writer, "Load Time:      %v\n", stats.LoadTime)
		fmt.Fprintf(writer, "Filter Time:    %v\n", stats.FilterTime)
		fmt.Fprintf(writer, "Aggregate Time: %v\n", stats.AggregateTime)
		fmt.Fprintf(writer, "Total Time:     %v\n", stats.TotalTime)
		fmt.Fprintf(writer, "Cache:          %d hits, %d misses, %d entries\n",
			stats.Cache.Hits, stats.Cache.Misses, stats.Cache.Entries)
	}

	return nil
}

func (rg *ReportGenerator) printInputs(report *Report, writer io.Writer) {
	for _, in := range report.Inputs {
		cached := ""
		if in.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(writer, "%-9s %s%s\n", in.Name+":", in.Label, cached)
		for _, role := range sortedKeys(in.Roles) {
			fmt.Fprintf(writer, "  %-10s %s\n", role+":", in.Roles[role])
		}
	}
	fmt.Fprintf(writer, "Source rows:   %d\n", report.Counts.SourceRows)
	fmt.Fprintf(writer, "Forecast rows: %d\n", report.Counts.ForecastRows)
}

func (rg *ReportGenerator) printFilter(report *Report, writer io.Writer) {
	f := report.Filter
	if f.AllClients {
		fmt.Fprintf(writer, "Clients:    all (%d available)\n", len(f.ClientOptions))
	} else {
		fmt.Fprintf(writer, "Clients:    %s\n", strings.Join(f.Clients, ", "))
	}
	fmt.Fprintf(writer, "Date range: %s to %s\n", f.Start, f.End)
	fmt.Fprintf(writer, "Selected:   %d facts, %d forecasts\n",
		report.Counts.FilteredFacts, report.Counts.FilteredForecasts)
}

func (rg *ReportGenerator) printTrend(report *Report, writer io.Writer) {
	if len(report.Trend) == 0 {
		fmt.Fprintf(writer, "No dated revenue in the selection\n")
		return
	}
	for _, p := range report.Trend {
		fmt.Fprintf(writer, "%-8s %14s\n", p.Month, p.Display)
	}
	if s := report.TrendStats; s != nil && s.Months > 1 {
		fmt.Fprintf(writer, "\nMonthly mean:   %s\n", formatFloat(s.Mean))
		fmt.Fprintf(writer, "Monthly median: %s\n", formatFloat(s.Median))
		fmt.Fprintf(writer, "Best month:     %s (%s)\n", s.BestMonth, formatFloat(s.Max))
		fmt.Fprintf(writer, "Worst month:    %s (%s)\n", s.WorstMonth, formatFloat(s.Min))
	}
}

func (rg *ReportGenerator) printComparison(report *Report, writer io.Writer) {
	if len(report.ActualVsForecast) == 0 {
		fmt.Fprintf(writer, "No dated forecasts in the selection\n")
		return
	}
	fmt.Fprintf(writer, "%-8s %14s %14s %14s\n", "Month", "Actual", "Forecast", "Variance")
	for _, row := range report.ActualVsForecast {
		fmt.Fprintf(writer, "%-8s %14s %14s %14s\n",
			row.Month, row.ActualDisplay, row.ForecastDisplay, row.VarianceDisplay)
	}
}

func (rg *ReportGenerator) printExplorer(explorer *ExplorerView, writer io.Writer) {
	rows := rg.config.ConsoleRows

	fmt.Fprintf(writer, "Source fact (%d rows):\n", len(explorer.Facts))
	for _, f := range head(explorer.Facts, rows) {
		fmt.Fprintf(writer, "  %-30s %-10s %14s %14s\n", f.Client, f.Period,
			displayFloat(f.Revenue), displayFloat(f.Cost))
	}

	fmt.Fprintf(writer, "Forecast detail (%d rows):\n", len(explorer.Forecasts))
	for _, f := range head(explorer.Forecasts, rows) {
		fmt.Fprintf(writer, "  %-30s %-10s %14s\n", f.Client, f.Period, displayFloat(f.Forecast))
	}

	if explorer.Quarters != nil {
		fmt.Fprintf(writer, "Quarters map (%d rows): %s\n",
			explorer.Quarters.Len(), strings.Join(explorer.Quarters.Headers, ", "))
	}
}
