package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"revenue-dashboard/cmd/dashboard/config"
	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/internal/reconciler"
	"revenue-dashboard/internal/reporter"
	"revenue-dashboard/pkg/errors"
	"revenue-dashboard/pkg/logger"
)

// reportOptions holds the flags of the report command that are not part of
// the persistent configuration
type reportOptions struct {
	clients      []string
	startDate    string
	endDate      string
	outputFile   string
	showProgress bool
	watch        bool
	interval     time.Duration

	start *time.Time
	end   *time.Time
}

func newReportCommand(a *app) *cobra.Command {
	opts := &reportOptions{}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Build the dashboard and write a report",
		Long: `Report loads both workbooks, applies the client and date filters and
writes the dashboard: KPIs, monthly revenue trend, top clients and actual
versus forecast revenue per month.

An empty client selection means every client. Start and end dates default to
the span of the actuals; both bounds are inclusive.

Examples:
  # Console dashboard for all clients
  dashboard report -r revenue.xlsx -F forecast.xlsx

  # Two clients over the first half of the year, as JSON
  dashboard report --clients "Acme,Globex" --start-date 2025-01-01 \
    --end-date 2025-06-30 --output-format json --output-file dashboard.json

  # Monthly actual vs forecast as CSV
  dashboard report --output-format csv --dataset actual-vs-forecast

  # Re-render whenever either workbook changes
  dashboard report --watch --interval 10s`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, a, opts)
		},
	}

	flags := reportCmd.Flags()
	flags.StringSliceVarP(&opts.clients, "clients", "c", nil, "comma-separated clients to include (default: all)")
	flags.StringVar(&opts.startDate, "start-date", "", "filter start date (YYYY-MM-DD, inclusive)")
	flags.StringVar(&opts.endDate, "end-date", "", "filter end date (YYYY-MM-DD, inclusive)")
	flags.StringVarP(&opts.outputFile, "output-file", "o", "", "output file path (default: stdout)")
	flags.BoolVar(&opts.showProgress, "progress", false, "show progress indicators")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "re-render whenever an input changes")
	flags.DurationVar(&opts.interval, "interval", 5*time.Second, "polling interval for --watch")

	flags.IntP("top", "n", 15, "number of clients in the top clients ranking")
	flags.StringP("output-format", "f", string(reporter.FormatConsole), "output format: console, json, csv, yaml")
	flags.String("dataset", string(reporter.DatasetActualVsForecast),
		"csv dataset: "+strings.Join(lo.Map(reporter.Datasets, func(d reporter.Dataset, _ int) string { return string(d) }), ", "))
	flags.Bool("explorer", false, "include the data explorer tables")

	_ = a.viper.BindPFlag(config.KeyReportTopClients, flags.Lookup("top"))
	_ = a.viper.BindPFlag(config.KeyReportFormat, flags.Lookup("output-format"))
	_ = a.viper.BindPFlag(config.KeyReportDataset, flags.Lookup("dataset"))
	_ = a.viper.BindPFlag(config.KeyReportExplorer, flags.Lookup("explorer"))

	return reportCmd
}

func (o *reportOptions) validate() error {
	var err error
	if o.start, err = parseDateFlag("start-date", o.startDate); err != nil {
		return err
	}
	if o.end, err = parseDateFlag("end-date", o.endDate); err != nil {
		return err
	}
	if o.start != nil && o.end != nil && o.start.After(*o.end) {
		return errors.ConfigurationError(errors.CodeInvalidDateRange, "date_range",
			fmt.Sprintf("%s..%s", o.startDate, o.endDate), nil)
	}

	if o.watch && o.interval <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "interval", o.interval, nil).
			WithSuggestion("use a positive duration such as 5s")
	}

	if o.outputFile != "" {
		dir := filepath.Dir(o.outputFile)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "output-file", o.outputFile, err).
				WithSuggestion("the output directory must exist")
		}
	}
	return nil
}

func parseDateFlag(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidDateRange, name, value, err)
	}
	return &t, nil
}

// buildRequest assembles the dashboard request from the resolved configuration
func buildRequest(a *app, opts *reportOptions) *reconciler.Request {
	return &reconciler.Request{
		Revenue:   parsers.FileSource("revenue workbook", a.viper.GetString(config.KeyRevenueFile)),
		Forecast:  parsers.FileSource("forecast workbook", a.viper.GetString(config.KeyForecastFile)),
		Clients:   opts.clients,
		StartDate: opts.start,
		EndDate:   opts.end,
	}
}

func runReport(cmd *cobra.Command, a *app, opts *reportOptions) error {
	service, err := reconciler.NewDashboardService(a.settings.Service)
	if err != nil {
		return err
	}

	if opts.showProgress {
		progressOut := cmd.ErrOrStderr()
		service.AddProgressCallback(func(p reconciler.Progress) {
			fmt.Fprintf(progressOut, "[%d/%d] %s (%.0f%% complete)\n",
				p.CompletedSteps, p.TotalSteps, p.CurrentStep, p.PercentComplete)
		})
	}

	generator, err := reporter.NewSafeReportGenerator(a.settings.Report, a.logger)
	if err != nil {
		return err
	}

	req := buildRequest(a, opts)

	if !opts.watch {
		result, err := service.Build(cmd.Context(), req)
		if err != nil {
			return err
		}
		if err := writeReport(cmd, generator, result, opts.outputFile); err != nil {
			return err
		}
		a.logResult(result)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := NewCLIErrorHandler(cmd.ErrOrStderr(), a.viper.GetBool(config.KeyVerbose))
	a.logger.WithField("interval", opts.interval).Info("Watching inputs for changes")

	return service.Watch(ctx, req, opts.interval, func(result *reconciler.Result, err error) {
		if err != nil {
			// Keep watching: the inputs may be fixed in place
			handler.HandleError(err)
			return
		}
		if err := writeReport(cmd, generator, result, opts.outputFile); err != nil {
			handler.HandleError(err)
			return
		}
		a.logResult(result)
	})
}

// writeReport writes to the output file when one is given, replacing its
// contents, or to the command's output otherwise
func writeReport(cmd *cobra.Command, generator *reporter.SafeReportGenerator, result *reconciler.Result, outputFile string) error {
	if outputFile == "" {
		return generator.GenerateReportSafely(result, cmd.OutOrStdout())
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return errors.InputError(errors.CodeInputUnreadable, outputFile, err).
			WithSuggestion("check that the output path is writable")
	}
	return closeOutput(file, outputFile, generator.GenerateReportSafely(result, file))
}

// closeOutput closes a written report file. A close failure is reported
// unless rendering already failed.
func closeOutput(file io.Closer, outputFile string, renderErr error) error {
	if err := file.Close(); err != nil && renderErr == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "closing report file", err).
			WithContext("output_file", outputFile)
	}
	return renderErr
}

func (a *app) logResult(result *reconciler.Result) {
	a.logger.WithFields(logger.Fields{
		"run_id":             result.RunID,
		"source_rows":        result.Counts.SourceRows,
		"forecast_rows":      result.Counts.ForecastRows,
		"filtered_facts":     result.Counts.FilteredFacts,
		"filtered_forecasts": result.Counts.FilteredForecasts,
		"diagnostics":        result.Diagnostics.Len(),
		"total_time":         result.Stats.TotalTime,
	}).Info("Dashboard built")
}
