package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"

	"revenue-dashboard/internal/reconciler"
	"revenue-dashboard/internal/reporter"
	"revenue-dashboard/pkg/logger"
)

// Keys read from flags, the environment and the optional config file
const (
	KeyVerbose      = "verbose"
	KeyRevenueFile  = "revenue-file"
	KeyForecastFile = "forecast-file"

	KeyColumns = "columns"
	KeySheets  = "sheets"
	KeyCache   = "cache"

	KeyReportFormat       = "report.format"
	KeyReportDataset      = "report.dataset"
	KeyReportTopClients   = "report.top_clients"
	KeyReportExplorer     = "report.include_explorer"
	KeyReportExplorerRows = "report.explorer_limit"
	KeyReportConsoleRows  = "report.console_rows"
	KeyReportDiagnostics  = "report.include_diagnostics"
	KeyReportStats        = "report.include_processing_stats"
	KeyReportCSVDelimiter = "report.csv_delimiter"
	KeyReportCSVHeaders   = "report.csv_headers"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
	KeyLogOutput = "log.output"
	KeyLogFile   = "log.file"
)

// Environment variables naming the two workbooks
const (
	EnvRevenuePath  = "RA_DATA_PATH"
	EnvForecastPath = "FORECAST_PATH"
	EnvPrefix       = "DASHBOARD"
)

// Settings groups every configuration the CLI hands to the packages
type Settings struct {
	Service *reconciler.Config
	Report  *reporter.ReportConfig
	Log     *logger.Config
}

// BindEnvironment wires environment variables into v: the two workbook paths
// under their historical names, everything else under the DASHBOARD_ prefix
func BindEnvironment(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyRevenueFile, EnvPrefix+"_REVENUE_FILE", EnvRevenuePath); err != nil {
		return err
	}
	return v.BindEnv(KeyForecastFile, EnvPrefix+"_FORECAST_FILE", EnvForecastPath)
}

// Load builds the service, report and log configurations from v. Keys that
// are not set keep their defaults.
func Load(v *viper.Viper) (*Settings, error) {
	settings := &Settings{
		Service: reconciler.DefaultConfig(),
		Report:  reporter.DefaultReportConfig(),
		Log:     logger.DefaultConfig(),
	}

	service := settings.Service
	if err := v.UnmarshalKey(KeyColumns, &service.Builder.Columns); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyColumns, err)
	}
	if err := v.UnmarshalKey(KeySheets, &service.Builder.Sheets); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeySheets, err)
	}
	if err := v.UnmarshalKey(KeyCache, service.Cache); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyCache, err)
	}
	if v.IsSet(KeyReportTopClients) {
		service.TopClients = v.GetInt(KeyReportTopClients)
	}
	if err := service.Validate(); err != nil {
		return nil, err
	}

	if err := loadReport(v, settings.Report); err != nil {
		return nil, err
	}
	if err := settings.Report.Validate(); err != nil {
		return nil, err
	}

	if err := loadLog(v, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func loadReport(v *viper.Viper, report *reporter.ReportConfig) error {
	if v.IsSet(KeyReportFormat) {
		report.Format = reporter.OutputFormat(strings.ToLower(v.GetString(KeyReportFormat)))
	}
	if v.IsSet(KeyReportDataset) {
		report.Dataset = reporter.Dataset(strings.ToLower(v.GetString(KeyReportDataset)))
	}
	if v.IsSet(KeyReportExplorer) {
		report.IncludeExplorer = v.GetBool(KeyReportExplorer)
	}
	if v.IsSet(KeyReportExplorerRows) {
		report.ExplorerLimit = v.GetInt(KeyReportExplorerRows)
	}
	if v.IsSet(KeyReportConsoleRows) {
		report.ConsoleRows = v.GetInt(KeyReportConsoleRows)
	}
	if v.IsSet(KeyReportDiagnostics) {
		report.IncludeDiagnostics = v.GetBool(KeyReportDiagnostics)
	}
	if v.IsSet(KeyReportStats) {
		report.IncludeProcessingStats = v.GetBool(KeyReportStats)
	}
	if v.IsSet(KeyReportCSVHeaders) {
		report.CSVHeaders = v.GetBool(KeyReportCSVHeaders)
	}
	if v.IsSet(KeyReportCSVDelimiter) {
		delimiter := v.GetString(KeyReportCSVDelimiter)
		if delimiter == `\t` {
			delimiter = "\t"
		}
		if utf8.RuneCountInString(delimiter) != 1 {
			return fmt.Errorf("csv delimiter must be a single character, got %q", delimiter)
		}
		report.CSVDelimiter, _ = utf8.DecodeRuneInString(delimiter)
	}
	return nil
}

// loadLog starts from DebugConfig when verbose is set so that --verbose wins
// over a configured level
func loadLog(v *viper.Viper, settings *Settings) error {
	if v.GetBool(KeyVerbose) {
		settings.Log = logger.DebugConfig()
	} else if v.IsSet(KeyLogLevel) {
		settings.Log.Level = logger.Level(strings.ToLower(v.GetString(KeyLogLevel)))
	}
	if v.IsSet(KeyLogFormat) {
		settings.Log.Format = logger.Format(strings.ToLower(v.GetString(KeyLogFormat)))
	}
	if v.IsSet(KeyLogOutput) {
		settings.Log.Output = logger.Output(strings.ToLower(v.GetString(KeyLogOutput)))
	}
	if v.IsSet(KeyLogFile) {
		settings.Log.File = v.GetString(KeyLogFile)
	}
	return settings.Log.Validate()
}
