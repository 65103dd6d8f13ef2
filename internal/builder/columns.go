package builder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/pkg/errors"
)

// Table labels used in mappings and diagnostics
const (
	TableActuals  = "actuals"
	TableForecast = "forecast"
)

// Logical fields resolved from sheet headers
const (
	FieldClient = "client"
	FieldAmount = "amount"
	FieldCost   = "cost"
	FieldPeriod = "period"
)

// FactColumns lists, per field, the header candidates tried in priority order
type FactColumns struct {
	Client []string `mapstructure:"client"`
	Amount []string `mapstructure:"amount"`
	Cost   []string `mapstructure:"cost"`
	Period []string `mapstructure:"period"`
}

// DefaultFactColumns returns the candidates for the actuals sheet
func DefaultFactColumns() FactColumns {
	return FactColumns{
		Client: []string{"Client", "Customer", "Account"},
		Amount: []string{"Amount", "Value", "Revenue"},
		Cost:   []string{"Cost", "Costs", "Direct Cost"},
		Period: []string{"Fin Period", "Period", "Month", "Date"},
	}
}

// Validate checks that every field has at least one non-blank candidate
func (c FactColumns) Validate() error {
	return validateCandidates(TableActuals, map[string][]string{
		FieldClient: c.Client,
		FieldAmount: c.Amount,
		FieldCost:   c.Cost,
		FieldPeriod: c.Period,
	})
}

// ForecastColumns lists the header candidates for the forecast sheet
type ForecastColumns struct {
	Client []string `mapstructure:"client"`
	Amount []string `mapstructure:"amount"`
	Period []string `mapstructure:"period"`
}

// DefaultForecastColumns returns the candidates for the forecast sheet
func DefaultForecastColumns() ForecastColumns {
	return ForecastColumns{
		Client: []string{"Client", "Customer"},
		Amount: []string{"Forecast", "Amount", "Value", "Revenue"},
		Period: []string{"Period", "Month", "Fin Period", "Date"},
	}
}

// Validate checks that every field has at least one non-blank candidate
func (c ForecastColumns) Validate() error {
	return validateCandidates(TableForecast, map[string][]string{
		FieldClient: c.Client,
		FieldAmount: c.Amount,
		FieldPeriod: c.Period,
	})
}

func validateCandidates(table string, fields map[string][]string) error {
	for field, candidates := range fields {
		ok := false
		for _, c := range candidates {
			if strings.TrimSpace(c) != "" {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s %s: at least one column candidate is required", table, field)
		}
	}
	return nil
}

// FieldMapping records which header, if any, a field was resolved to
type FieldMapping struct {
	Field      string   `json:"field" yaml:"field"`
	Column     string   `json:"column,omitempty" yaml:"column,omitempty"`
	Found      bool     `json:"found" yaml:"found"`
	Candidates []string `json:"candidates" yaml:"candidates"`
}

// Mapping is the resolved header for each field of one table
type Mapping struct {
	Table  string         `json:"table" yaml:"table"`
	Sheet  string         `json:"sheet" yaml:"sheet"`
	Fields []FieldMapping `json:"fields" yaml:"fields"`
}

// Column returns the header resolved for field
func (m Mapping) Column(field string) (string, bool) {
	for _, f := range m.Fields {
		if f.Field == field {
			return f.Column, f.Found
		}
	}
	return "", false
}

// Missing returns the fields that did not resolve
func (m Mapping) Missing() []string {
	var missing []string
	for _, f := range m.Fields {
		if !f.Found {
			missing = append(missing, f.Field)
		}
	}
	return missing
}

type resolver struct {
	table   *models.RawTable
	mapping *Mapping
	diag    *errors.Diagnostics
}

func newResolver(label string, table *models.RawTable, diag *errors.Diagnostics) *resolver {
	m := &Mapping{Table: label}
	if table != nil {
		m.Sheet = table.Name
	}
	return &resolver{table: table, mapping: m, diag: diag}
}

// resolve looks up one field; a miss is recorded, never returned as an error
func (r *resolver) resolve(field string, candidates []string) (string, bool) {
	var headers []string
	if r.table != nil {
		headers = r.table.Headers
	}

	column, ok := parsers.ResolveColumn(headers, candidates)
	r.mapping.Fields = append(r.mapping.Fields, FieldMapping{
		Field:      field,
		Column:     column,
		Found:      ok,
		Candidates: candidates,
	})
	if !ok {
		r.diag.MissingColumn(r.mapping.Table, field, candidates)
	}
	return column, ok
}

func (r *resolver) rows() int {
	return r.table.Len()
}

// clients stringifies the client column; an absent column maps every row to the sentinel
func (r *resolver) clients(column string, found bool) []string {
	out := make([]string, r.rows())
	for i := range out {
		if !found {
			out[i] = models.UnmappedClient
			continue
		}
		v := r.table.Rows[i][column]
		out[i] = parsers.CoerceClient(v)
		if out[i] == models.UnmappedClient && !parsers.IsBlank(v) {
			r.diag.AmbiguousClient(r.mapping.Table, column, parsers.CellText(v))
		}
	}
	return out
}

func (r *resolver) numbers(field, column string, found bool) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, r.rows())
	if !found {
		return out
	}
	for i, row := range r.table.Rows {
		v := row[column]
		n := parsers.CoerceNumber(v)
		if !n.Valid && !parsers.IsBlank(v) {
			r.diag.Unparseable(r.mapping.Table, field, column, parsers.CellText(v))
		}
		out[i] = n
	}
	return out
}

func (r *resolver) periods(column string, found bool) []models.NullDate {
	if !found {
		return make([]models.NullDate, r.rows())
	}
	values := r.table.Column(column)
	dates := parsers.NormalizeDates(values)
	for i, d := range dates {
		if !d.Valid && !parsers.IsBlank(values[i]) {
			r.diag.Unparseable(r.mapping.Table, FieldPeriod, column, parsers.CellText(values[i]))
		}
	}
	return dates
}
