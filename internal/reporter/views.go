package reporter

import (
	"time"

	"revenue-dashboard/internal/aggregator"
	"revenue-dashboard/internal/builder"
	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/reconciler"
	"revenue-dashboard/pkg/errors"
)

const monthLayout = "2006-01"

// Report is the presentation form of a dashboard result. Numbers are plain
// floats (null when absent) next to their display strings.
type Report struct {
	RunID            string                      `json:"run_id" yaml:"run_id"`
	GeneratedAt      string                      `json:"generated_at" yaml:"generated_at"`
	Inputs           []InputView                 `json:"inputs" yaml:"inputs"`
	Counts           reconciler.RowCounts        `json:"counts" yaml:"counts"`
	Filter           FilterView                  `json:"filter" yaml:"filter"`
	KPIs             []KPIView                   `json:"kpis" yaml:"kpis"`
	Trend            []TrendView                 `json:"trend" yaml:"trend"`
	TrendStats       *TrendStatsView             `json:"trend_stats,omitempty" yaml:"trend_stats,omitempty"`
	TopClients       []ClientView                `json:"top_clients" yaml:"top_clients"`
	ActualVsForecast []ComparisonView            `json:"actual_vs_forecast" yaml:"actual_vs_forecast"`
	Mappings         []builder.Mapping           `json:"mappings" yaml:"mappings"`
	Diagnostics      []*errors.Issue             `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Explorer         *ExplorerView               `json:"explorer,omitempty" yaml:"explorer,omitempty"`
	Stats            *reconciler.ProcessingStats `json:"stats,omitempty" yaml:"-"`
}

// InputView describes one workbook and the sheet used for each role
type InputView struct {
	Name   string            `json:"name" yaml:"name"`
	Label  string            `json:"label" yaml:"label"`
	Sheets []string          `json:"sheets" yaml:"sheets"`
	Roles  map[string]string `json:"roles" yaml:"roles"`
	Cached bool              `json:"cached" yaml:"cached"`
}

// FilterView is the effective filter of the run
type FilterView struct {
	Clients       []string `json:"clients" yaml:"clients"`
	AllClients    bool     `json:"all_clients" yaml:"all_clients"`
	Start         string   `json:"start" yaml:"start"`
	End           string   `json:"end" yaml:"end"`
	ClientOptions []string `json:"client_options" yaml:"client_options"`
}

// KPIView is one headline figure
type KPIView struct {
	Name    string   `json:"name" yaml:"name"`
	Value   *float64 `json:"value" yaml:"value"`
	Display string   `json:"display" yaml:"display"`
	Note    string   `json:"note,omitempty" yaml:"note,omitempty"`
}

// TrendView is one month of the revenue trend
type TrendView struct {
	Month   string  `json:"month" yaml:"month"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
	Display string  `json:"display" yaml:"display"`
}

// TrendStatsView summarizes the trend
type TrendStatsView struct {
	Months     int     `json:"months" yaml:"months"`
	Total      float64 `json:"total" yaml:"total"`
	Mean       float64 `json:"mean" yaml:"mean"`
	Median     float64 `json:"median" yaml:"median"`
	Min        float64 `json:"min" yaml:"min"`
	Max        float64 `json:"max" yaml:"max"`
	StdDev     float64 `json:"std_dev" yaml:"std_dev"`
	BestMonth  string  `json:"best_month" yaml:"best_month"`
	WorstMonth string  `json:"worst_month" yaml:"worst_month"`
}

// ClientView is one entry of the top clients ranking
type ClientView struct {
	Rank    int     `json:"rank" yaml:"rank"`
	Client  string  `json:"client" yaml:"client"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
	Display string  `json:"display" yaml:"display"`
}

// ComparisonView is one month of actual versus forecast
type ComparisonView struct {
	Month           string   `json:"month" yaml:"month"`
	Actual          *float64 `json:"actual" yaml:"actual"`
	Forecast        *float64 `json:"forecast" yaml:"forecast"`
	Variance        *float64 `json:"variance" yaml:"variance"`
	ActualDisplay   string   `json:"actual_display" yaml:"actual_display"`
	ForecastDisplay string   `json:"forecast_display" yaml:"forecast_display"`
	VarianceDisplay string   `json:"variance_display" yaml:"variance_display"`
}

// FactView is one row of the source fact explorer
type FactView struct {
	Client      string   `json:"client" yaml:"client"`
	Period      string   `json:"period" yaml:"period"`
	Revenue     *float64 `json:"revenue" yaml:"revenue"`
	Cost        *float64 `json:"cost" yaml:"cost"`
	GrossProfit *float64 `json:"gross_profit" yaml:"gross_profit"`
}

// ForecastView is one row of the forecast detail explorer
type ForecastView struct {
	Client   string   `json:"client" yaml:"client"`
	Period   string   `json:"period" yaml:"period"`
	Forecast *float64 `json:"forecast" yaml:"forecast"`
}

// ExplorerView holds the first rows of each table shown in the data explorer
type ExplorerView struct {
	Limit     int              `json:"limit" yaml:"limit"`
	Facts     []FactView       `json:"facts" yaml:"facts"`
	Forecasts []ForecastView   `json:"forecasts" yaml:"forecasts"`
	Quarters  *models.RawTable `json:"quarters,omitempty" yaml:"quarters,omitempty"`
	Budget    *models.RawTable `json:"budget,omitempty" yaml:"budget,omitempty"`
}

// NewReport builds the presentation form of a result
func NewReport(result *reconciler.Result, config *ReportConfig) *Report {
	if config == nil {
		config = DefaultReportConfig()
	}

	r := &Report{
		RunID:       result.RunID,
		GeneratedAt: result.ProcessedAt.Format(time.RFC3339),
		Inputs: []InputView{
			inputView("revenue", result.Revenue),
			inputView("forecast", result.Forecast),
		},
		Counts: result.Counts,
		Filter: FilterView{
			Clients:       result.Criteria.Clients,
			AllClients:    result.Criteria.AllClients(),
			Start:         result.Criteria.Range.Start.Format(models.DateLayout),
			End:           result.Criteria.Range.End.Format(models.DateLayout),
			ClientOptions: result.ClientOptions,
		},
		KPIs:             kpiViews(result.KPIs),
		Trend:            trendViews(result.Trend),
		TrendStats:       trendStatsView(result.TrendStats),
		TopClients:       clientViews(result.TopClients),
		ActualVsForecast: comparisonViews(result.ActualVsForecast),
		Mappings:         result.Mappings,
	}

	if config.IncludeDiagnostics {
		r.Diagnostics = result.Diagnostics.Issues()
	}
	if config.IncludeExplorer {
		r.Explorer = explorerView(result, config.ExplorerLimit)
	}
	if config.IncludeProcessingStats {
		stats := result.Stats
		r.Stats = &stats
	}
	return r
}

func inputView(name string, w reconciler.WorkbookSummary) InputView {
	return InputView{Name: name, Label: w.Label, Sheets: w.Sheets, Roles: w.Roles, Cached: w.Cached}
}

func kpiViews(k aggregator.KPIs) []KPIView {
	view := func(name string, value *float64, display string) KPIView {
		v := KPIView{Name: name, Value: value, Display: display}
		if value == nil {
			v.Note = NoDataNote
		}
		return v
	}
	return []KPIView{
		view("Revenue", nullFloat(k.Revenue), FormatNullCurrency(k.Revenue)),
		view("Cost", nullFloat(k.Cost), FormatNullCurrency(k.Cost)),
		view("Gross Profit", nullFloat(k.GrossProfit), FormatNullCurrency(k.GrossProfit)),
		view("Margin %", nullFloat(k.MarginPct), FormatNullPercent(k.MarginPct)),
	}
}

func trendViews(points []aggregator.TrendPoint) []TrendView {
	out := make([]TrendView, len(points))
	for i, p := range points {
		out[i] = TrendView{
			Month:   p.Month.Format(monthLayout),
			Revenue: p.Revenue.InexactFloat64(),
			Display: FormatCurrency(p.Revenue),
		}
	}
	return out
}

func trendStatsView(s *aggregator.TrendStats) *TrendStatsView {
	if s == nil {
		return nil
	}
	return &TrendStatsView{
		Months:     s.Months,
		Total:      s.Total,
		Mean:       s.Mean,
		Median:     s.Median,
		Min:        s.Min,
		Max:        s.Max,
		StdDev:     s.StdDev,
		BestMonth:  s.BestMonth.Format(monthLayout),
		WorstMonth: s.WorstMonth.Format(monthLayout),
	}
}

func clientViews(clients []aggregator.ClientRevenue) []ClientView {
	out := make([]ClientView, len(clients))
	for i, c := range clients {
		out[i] = ClientView{
			Rank:    i + 1,
			Client:  c.Client,
			Revenue: c.Revenue.InexactFloat64(),
			Display: FormatCurrency(c.Revenue),
		}
	}
	return out
}

func comparisonViews(rows []aggregator.MonthComparison) []ComparisonView {
	out := make([]ComparisonView, len(rows))
	for i, r := range rows {
		variance := r.Variance()
		out[i] = ComparisonView{
			Month:           r.Month.Format(monthLayout),
			Actual:          nullFloat(r.Actual),
			Forecast:        nullFloat(r.Forecast),
			Variance:        nullFloat(variance),
			ActualDisplay:   FormatNullCurrency(r.Actual),
			ForecastDisplay: FormatNullCurrency(r.Forecast),
			VarianceDisplay: FormatNullCurrency(variance),
		}
	}
	return out
}

func explorerView(result *reconciler.Result, limit int) *ExplorerView {
	facts := head(result.Facts, limit)
	forecasts := head(result.Forecasts, limit)

	view := &ExplorerView{
		Limit:     limit,
		Facts:     make([]FactView, len(facts)),
		Forecasts: make([]ForecastView, len(forecasts)),
		Quarters:  result.Quarters.Head(limit),
		Budget:    result.Budget.Head(limit),
	}
	for i, f := range facts {
		view.Facts[i] = FactView{
			Client:      f.Client,
			Period:      f.Period.String(),
			Revenue:     nullFloat(f.Revenue),
			Cost:        nullFloat(f.Cost),
			GrossProfit: nullFloat(f.GrossProfit()),
		}
	}
	for i, f := range forecasts {
		view.Forecasts[i] = ForecastView{
			Client:   f.Client,
			Period:   f.Period.String(),
			Forecast: nullFloat(f.Amount),
		}
	}
	return view
}

func head[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
