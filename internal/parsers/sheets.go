package parsers

import (
	"fmt"
	"strings"
)

// SheetRole is the purpose a sheet serves in the pipeline
type SheetRole string

const (
	RoleActuals  SheetRole = "actuals"
	RoleQuarters SheetRole = "quarters"
	RoleBudget   SheetRole = "budget"
	RoleForecast SheetRole = "forecast"
)

// SheetPredicate picks a sheet out of a workbook's sheet list
type SheetPredicate struct {
	Description string
	Match       func(sheets []string) (string, bool)
}

// NameIs matches the first sheet, in workbook order, whose name equals any of
// names ignoring case
func NameIs(names ...string) SheetPredicate {
	return SheetPredicate{
		Description: fmt.Sprintf("name is one of [%s]", strings.Join(names, ", ")),
		Match: func(sheets []string) (string, bool) {
			for _, sheet := range sheets {
				for _, name := range names {
					if strings.EqualFold(sheet, name) {
						return sheet, true
					}
				}
			}
			return "", false
		},
	}
}

// FirstSheet matches the first sheet of a non-empty workbook
func FirstSheet() SheetPredicate {
	return SheetPredicate{
		Description: "first sheet",
		Match: func(sheets []string) (string, bool) {
			if len(sheets) == 0 {
				return "", false
			}
			return sheets[0], true
		},
	}
}

// LastSheet matches the last sheet of a non-empty workbook
func LastSheet() SheetPredicate {
	return SheetPredicate{
		Description: "last sheet",
		Match: func(sheets []string) (string, bool) {
			if len(sheets) == 0 {
				return "", false
			}
			return sheets[len(sheets)-1], true
		},
	}
}

// SheetRule is an ordered list of predicates; the first one that matches wins
type SheetRule struct {
	Role       SheetRole
	Predicates []SheetPredicate
}

// Select returns the sheet chosen for the rule's role
func (r SheetRule) Select(sheets []string) (string, bool) {
	for _, p := range r.Predicates {
		if sheet, ok := p.Match(sheets); ok {
			return sheet, true
		}
	}
	return "", false
}

// Prepend returns a copy of the rule that tries p before its existing predicates
func (r SheetRule) Prepend(p SheetPredicate) SheetRule {
	predicates := make([]SheetPredicate, 0, len(r.Predicates)+1)
	predicates = append(predicates, p)
	predicates = append(predicates, r.Predicates...)
	return SheetRule{Role: r.Role, Predicates: predicates}
}

// Describe renders the predicate chain, e.g. "name is one of [source] -> first sheet"
func (r SheetRule) Describe() string {
	parts := make([]string, len(r.Predicates))
	for i, p := range r.Predicates {
		parts[i] = p.Description
	}
	return strings.Join(parts, " -> ")
}

// SheetNames holds the configurable sheet names matched for each role
type SheetNames struct {
	Actuals  []string `mapstructure:"actuals"`
	Quarters []string `mapstructure:"quarters"`
	Budget   []string `mapstructure:"budget"`
	Forecast []string `mapstructure:"forecast"`
}

// DefaultSheetNames returns the sheet names used by the revenue and forecast workbooks
func DefaultSheetNames() SheetNames {
	return SheetNames{
		Actuals:  []string{"source"},
		Quarters: []string{"quaters", "quarters"},
		Budget:   []string{"budget details"},
		Forecast: []string{"forecast detail"},
	}
}

// ActualsRules builds the rules for the revenue workbook: actuals then quarters
func (n SheetNames) ActualsRules() []SheetRule {
	return []SheetRule{
		{Role: RoleActuals, Predicates: []SheetPredicate{NameIs(n.Actuals...), FirstSheet()}},
		{Role: RoleQuarters, Predicates: []SheetPredicate{NameIs(n.Quarters...), LastSheet()}},
	}
}

// ForecastRules builds the rules for the forecast workbook: budget then forecast
func (n SheetNames) ForecastRules() []SheetRule {
	return []SheetRule{
		{Role: RoleBudget, Predicates: []SheetPredicate{NameIs(n.Budget...), FirstSheet()}},
		{Role: RoleForecast, Predicates: []SheetPredicate{NameIs(n.Forecast...), LastSheet()}},
	}
}

// DefaultActualsRules returns the revenue workbook rules with default names
func DefaultActualsRules() []SheetRule {
	return DefaultSheetNames().ActualsRules()
}

// DefaultForecastRules returns the forecast workbook rules with default names
func DefaultForecastRules() []SheetRule {
	return DefaultSheetNames().ForecastRules()
}
