// Package reconciler runs the dashboard pipeline: both workbooks are loaded
// and normalized, the filters are applied and the aggregates computed.
//
// Example usage:
//
//	service, err := reconciler.NewDashboardService(reconciler.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	result, err := service.Build(ctx, &reconciler.Request{
//		Revenue:  parsers.FileSource("revenue workbook", revenuePath),
//		Forecast: parsers.FileSource("forecast workbook", forecastPath),
//	})
//
// Only whole-input failures (a missing or unreadable workbook) are returned
// as errors. Data problems are reported in Result.Diagnostics.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"revenue-dashboard/internal/aggregator"
	"revenue-dashboard/internal/builder"
	"revenue-dashboard/internal/cache"
	"revenue-dashboard/internal/filter"
	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/pkg/errors"
	"revenue-dashboard/pkg/logger"
)

// Config holds configuration options for the dashboard service
type Config struct {
	Builder *builder.Config
	Cache   *cache.Config
	// TopClients is the length of the top clients ranking
	TopClients int
}

// DefaultConfig returns a default configuration for the dashboard service
func DefaultConfig() *Config {
	return &Config{
		Builder:    builder.DefaultConfig(),
		Cache:      cache.DefaultConfig(),
		TopClients: aggregator.DefaultTopClients,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Builder == nil {
		return fmt.Errorf("builder configuration is required")
	}
	if err := c.Builder.Validate(); err != nil {
		return err
	}
	if c.Cache != nil {
		if err := c.Cache.Validate(); err != nil {
			return err
		}
	}
	if c.TopClients <= 0 {
		return fmt.Errorf("top clients must be positive, got %d", c.TopClients)
	}
	return nil
}

// Request selects the inputs and filters of one dashboard run
type Request struct {
	Revenue  parsers.Source
	Forecast parsers.Source
	// Clients restricts the view; empty means every client
	Clients []string
	// StartDate and EndDate default to the span of the actuals when nil
	StartDate *time.Time
	EndDate   *time.Time
}

// Validate checks that both inputs are present and the date range is ordered
func (r *Request) Validate() error {
	if _, err := r.Revenue.Identify(); err != nil {
		return err
	}
	if _, err := r.Forecast.Identify(); err != nil {
		return err
	}
	if r.StartDate != nil && r.EndDate != nil && r.StartDate.After(*r.EndDate) {
		return errors.ConfigurationError(errors.CodeInvalidDateRange, "date_range",
			fmt.Sprintf("%s..%s", r.StartDate.Format(models.DateLayout), r.EndDate.Format(models.DateLayout)), nil)
	}
	return nil
}

// WorkbookSummary describes which sheets of an input were used
type WorkbookSummary struct {
	Label  string            `json:"label" yaml:"label"`
	Sheets []string          `json:"sheets" yaml:"sheets"`
	Roles  map[string]string `json:"roles" yaml:"roles"`
	Cached bool              `json:"cached" yaml:"cached"`
}

func summarizeWorkbook(wb *builder.LoadedWorkbook) WorkbookSummary {
	roles := make(map[string]string, len(wb.Roles))
	for role, sheet := range wb.Roles {
		roles[string(role)] = sheet
	}
	return WorkbookSummary{
		Label:  wb.Source.Label(),
		Sheets: wb.Sheets,
		Roles:  roles,
		Cached: wb.Cached,
	}
}

// RowCounts reports table sizes before and after filtering
type RowCounts struct {
	SourceRows        int `json:"source_rows" yaml:"source_rows"`
	ForecastRows      int `json:"forecast_rows" yaml:"forecast_rows"`
	QuarterRows       int `json:"quarter_rows" yaml:"quarter_rows"`
	BudgetRows        int `json:"budget_rows" yaml:"budget_rows"`
	FilteredFacts     int `json:"filtered_facts" yaml:"filtered_facts"`
	FilteredForecasts int `json:"filtered_forecasts" yaml:"filtered_forecasts"`
}

// ProcessingStats contains timing and cache statistics of a run
type ProcessingStats struct {
	LoadTime      time.Duration `json:"load_time"`
	FilterTime    time.Duration `json:"filter_time"`
	AggregateTime time.Duration `json:"aggregate_time"`
	TotalTime     time.Duration `json:"total_time"`
	Cache         cache.Stats   `json:"cache"`
}

// Result contains everything the dashboard displays for one run
type Result struct {
	RunID       string    `json:"run_id"`
	ProcessedAt time.Time `json:"processed_at"`

	Revenue  WorkbookSummary   `json:"revenue"`
	Forecast WorkbookSummary   `json:"forecast"`
	Mappings []builder.Mapping `json:"mappings"`
	Counts   RowCounts         `json:"counts"`

	ClientOptions []string        `json:"client_options"`
	Criteria      filter.Criteria `json:"criteria"`

	KPIs             aggregator.KPIs              `json:"kpis"`
	Trend            []aggregator.TrendPoint      `json:"trend"`
	TrendStats       *aggregator.TrendStats       `json:"trend_stats,omitempty"`
	TopClients       []aggregator.ClientRevenue   `json:"top_clients"`
	ActualVsForecast []aggregator.MonthComparison `json:"actual_vs_forecast"`

	// Filtered records and passthrough tables for the data explorer
	Facts     []models.FactRecord     `json:"facts"`
	Forecasts []models.ForecastRecord `json:"forecasts"`
	Quarters  *models.RawTable        `json:"quarters,omitempty"`
	Budget    *models.RawTable        `json:"budget,omitempty"`

	Diagnostics *errors.Diagnostics `json:"-"`
	Stats       ProcessingStats     `json:"stats"`
}

// DashboardService builds dashboard results from the two workbooks
type DashboardService struct {
	config            *Config
	tables            *cache.TableCache
	builder           *builder.Builder
	logger            logger.Logger
	progressCallbacks []ProgressCallback
}

// NewDashboardService creates a new dashboard service. Parsed tables are
// cached for the lifetime of the service.
func NewDashboardService(config *Config) (*DashboardService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "dashboard", err.Error(), err)
	}

	tables, err := cache.NewTableCache(config.Cache)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "cache", config.Cache, err)
	}

	b, err := builder.NewBuilder(config.Builder, tables)
	if err != nil {
		return nil, err
	}

	return &DashboardService{
		config:  config,
		tables:  tables,
		builder: b,
		logger:  logger.GetGlobalLogger().WithComponent("dashboard_service"),
	}, nil
}

// AddProgressCallback registers a callback for progress updates
func (s *DashboardService) AddProgressCallback(cb ProgressCallback) {
	s.progressCallbacks = append(s.progressCallbacks, cb)
}

// Builder exposes the record builder, e.g. to inspect a single workbook
func (s *DashboardService) Builder() *builder.Builder {
	return s.builder
}

// CacheStats returns the table cache counters
func (s *DashboardService) CacheStats() cache.Stats {
	return s.tables.Stats()
}

// Build runs the full pipeline for a request
func (s *DashboardService) Build(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "build", fmt.Errorf("nil request"))
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	result := &Result{
		RunID:       uuid.NewString(),
		ProcessedAt: started,
		Diagnostics: errors.NewDiagnostics(s.config.Builder.MaxSamples),
	}
	log := s.logger.WithField("run_id", result.RunID)
	progress := newProgressTracker(result.RunID, s.progressCallbacks)

	// Load and build both workbooks
	loadStage := logger.StartStage(log, "load")

	progress.start(StepLoadRevenue)
	facts, err := s.builder.Facts(req.Revenue)
	if err != nil {
		loadStage.Fail(err)
		return nil, err
	}
	progress.done(len(facts.Records))

	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "build", err)
	}

	progress.start(StepLoadForecast)
	forecasts, err := s.builder.Forecasts(req.Forecast)
	if err != nil {
		loadStage.Fail(err)
		return nil, err
	}
	progress.done(len(forecasts.Records))

	result.Stats.LoadTime = loadStage.Done(logger.Fields{
		"facts":     len(facts.Records),
		"forecasts": len(forecasts.Records),
	})

	result.Revenue = summarizeWorkbook(facts.Workbook)
	result.Forecast = summarizeWorkbook(forecasts.Workbook)
	result.Mappings = []builder.Mapping{facts.Mapping, forecasts.Mapping}
	result.Quarters = facts.Quarters()
	result.Budget = forecasts.Budget()
	result.Diagnostics.Merge(facts.Diagnostics)
	result.Diagnostics.Merge(forecasts.Diagnostics)
	result.Counts = RowCounts{
		SourceRows:   len(facts.Records),
		ForecastRows: len(forecasts.Records),
		QuarterRows:  result.Quarters.Len(),
		BudgetRows:   result.Budget.Len(),
	}

	// Filter
	filterStage := logger.StartStage(log, "filter")
	progress.start(StepFilter)

	criteria, err := filter.NewCriteria(req.Clients, req.StartDate, req.EndDate, facts.Records)
	if err != nil {
		filterStage.Fail(err)
		return nil, err
	}
	result.Criteria = criteria
	result.ClientOptions = filter.ClientOptions(facts.Records)
	result.Facts = filter.Apply(facts.Records, criteria)
	result.Forecasts = filter.Apply(forecasts.Records, criteria)
	result.Counts.FilteredFacts = len(result.Facts)
	result.Counts.FilteredForecasts = len(result.Forecasts)

	if len(result.Facts) == 0 {
		result.Diagnostics.EmptyFilterResult(builder.TableActuals)
	}
	if len(result.Forecasts) == 0 {
		result.Diagnostics.EmptyFilterResult(builder.TableForecast)
	}
	progress.done(0)
	result.Stats.FilterTime = filterStage.Done(logger.Fields{
		"facts":     len(result.Facts),
		"forecasts": len(result.Forecasts),
		"range":     criteria.Range.String(),
	})

	// Aggregate
	aggStage := logger.StartStage(log, "aggregate")
	progress.start(StepAggregate)

	result.KPIs = aggregator.SumKPIs(result.Facts)
	result.Trend = aggregator.MonthlyTrend(result.Facts)
	result.TopClients = aggregator.TopClients(result.Facts, s.config.TopClients)
	result.ActualVsForecast = aggregator.ActualVsForecast(result.Facts, result.Forecasts)
	result.TrendStats, err = aggregator.SummarizeTrend(result.Trend)
	if err != nil {
		// statistics are informational only
		log.WithError(err).Warn("Failed to summarize trend")
	}

	progress.done(0)
	result.Stats.AggregateTime = aggStage.Done(logger.Fields{
		"months":  len(result.Trend),
		"clients": len(result.TopClients),
	})

	result.Stats.TotalTime = time.Since(started)
	result.Stats.Cache = s.tables.Stats()

	log.WithFields(logger.Fields{
		"source_rows":   result.Counts.SourceRows,
		"forecast_rows": result.Counts.ForecastRows,
		"issues":        result.Diagnostics.Len(),
		"duration":      result.Stats.TotalTime.String(),
	}).Info("Dashboard built")

	return result, nil
}
