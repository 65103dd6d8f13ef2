// Package builder turns the revenue and forecast workbooks into canonical
// fact and forecast records.
//
// Sheets are chosen through the ordered rule table in the parsers package,
// read through the table cache, and mapped field by field with the column
// resolver. Missing columns and unparseable cells never fail a build; they
// are recorded as diagnostics and carried forward as absent values.
package builder

import (
	"fmt"

	"revenue-dashboard/internal/cache"
	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/pkg/errors"
	"revenue-dashboard/pkg/logger"
)

// Columns holds the candidate lists for both tables
type Columns struct {
	Actuals  FactColumns     `mapstructure:"actuals"`
	Forecast ForecastColumns `mapstructure:"forecast"`
}

// Config contains configuration for building records from workbooks
type Config struct {
	Columns Columns            `mapstructure:"columns"`
	Sheets  parsers.SheetNames `mapstructure:"sheets"`
	Read    *parsers.ReadConfig
	// MaxSamples caps the raw values kept per diagnostic
	MaxSamples int
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Columns: Columns{
			Actuals:  DefaultFactColumns(),
			Forecast: DefaultForecastColumns(),
		},
		Sheets:     parsers.DefaultSheetNames(),
		Read:       parsers.DefaultReadConfig(),
		MaxSamples: 5,
	}
}

// Validate validates the builder configuration
func (c *Config) Validate() error {
	if err := c.Columns.Actuals.Validate(); err != nil {
		return err
	}
	if err := c.Columns.Forecast.Validate(); err != nil {
		return err
	}
	if c.Read != nil {
		if err := c.Read.Validate(); err != nil {
			return err
		}
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max samples cannot be negative, got %d", c.MaxSamples)
	}
	return nil
}

// FactSet is the result of building the revenue workbook
type FactSet struct {
	Workbook    *LoadedWorkbook
	Records     []models.FactRecord
	Mapping     Mapping
	Diagnostics *errors.Diagnostics
}

// Quarters is the supplementary quarter-mapping table, passed through unmodified
func (s *FactSet) Quarters() *models.RawTable {
	return s.Workbook.Table(parsers.RoleQuarters)
}

// ForecastSet is the result of building the forecast workbook
type ForecastSet struct {
	Workbook    *LoadedWorkbook
	Records     []models.ForecastRecord
	Mapping     Mapping
	Diagnostics *errors.Diagnostics
}

// Budget is the budget table. It is loaded for display only and never aggregated.
func (s *ForecastSet) Budget() *models.RawTable {
	return s.Workbook.Table(parsers.RoleBudget)
}

// Builder builds fact and forecast records from workbook sources
type Builder struct {
	config *Config
	loader *Loader
	logger logger.Logger
}

// NewBuilder creates a builder reading through tables; a nil cache disables caching
func NewBuilder(config *Config, tables *cache.TableCache) (*Builder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "columns", err.Error(), err)
	}
	return &Builder{
		config: config,
		loader: NewLoader(tables, config.Read),
		logger: logger.GetGlobalLogger().WithComponent("builder"),
	}, nil
}

// Facts loads the actuals and quarters sheets and builds fact records
func (b *Builder) Facts(src parsers.Source) (*FactSet, error) {
	wb, err := b.loader.Load(src, b.config.Sheets.ActualsRules())
	if err != nil {
		return nil, err
	}

	diag := errors.NewDiagnostics(b.config.MaxSamples)
	records, mapping := BuildFacts(wb.Table(parsers.RoleActuals), b.config.Columns.Actuals, diag)

	b.logger.WithFields(logger.Fields{
		"sheet":   mapping.Sheet,
		"records": len(records),
		"cached":  wb.Cached,
		"issues":  diag.Len(),
	}).Info("Built fact records")

	return &FactSet{Workbook: wb, Records: records, Mapping: mapping, Diagnostics: diag}, nil
}

// Forecasts loads the budget and forecast sheets and builds forecast records
func (b *Builder) Forecasts(src parsers.Source) (*ForecastSet, error) {
	wb, err := b.loader.Load(src, b.config.Sheets.ForecastRules())
	if err != nil {
		return nil, err
	}

	diag := errors.NewDiagnostics(b.config.MaxSamples)
	records, mapping := BuildForecasts(wb.Table(parsers.RoleForecast), b.config.Columns.Forecast, diag)

	b.logger.WithFields(logger.Fields{
		"sheet":   mapping.Sheet,
		"records": len(records),
		"cached":  wb.Cached,
		"issues":  diag.Len(),
	}).Info("Built forecast records")

	return &ForecastSet{Workbook: wb, Records: records, Mapping: mapping, Diagnostics: diag}, nil
}
