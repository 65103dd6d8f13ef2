package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Issue is a non-fatal data quality finding. Issues never abort the pipeline;
// the affected values are carried forward as nulls or the unmapped sentinel.
type Issue struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Table   string    `json:"table" yaml:"table"`
	Field   string    `json:"field,omitempty" yaml:"field,omitempty"`
	Column  string    `json:"column,omitempty" yaml:"column,omitempty"`
	Count   int       `json:"count" yaml:"count"`
	Samples []string  `json:"samples,omitempty" yaml:"samples,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

func (i *Issue) String() string {
	location := joinNonEmpty(i.Table, i.Field)
	if i.Column != "" {
		location = fmt.Sprintf("%s (column %q)", location, i.Column)
	}
	if i.Count > 1 {
		return fmt.Sprintf("%s: %s [%d occurrences]", location, i.Message, i.Count)
	}
	return fmt.Sprintf("%s: %s", location, i.Message)
}

// Diagnostics collects issues raised while building and filtering tables.
// Repeated unparseable values for the same column are folded into one issue.
// A nil *Diagnostics discards everything recorded on it.
type Diagnostics struct {
	issues     []*Issue
	index      map[string]*Issue
	maxSamples int
}

// NewDiagnostics creates a collector keeping up to maxSamples raw values per issue
func NewDiagnostics(maxSamples int) *Diagnostics {
	if maxSamples < 0 {
		maxSamples = 0
	}
	return &Diagnostics{
		index:      make(map[string]*Issue),
		maxSamples: maxSamples,
	}
}

// MissingColumn records that no header matched any candidate for a field
func (d *Diagnostics) MissingColumn(table, field string, candidates []string) {
	d.add(&Issue{
		Code:    CodeMissingColumn,
		Table:   table,
		Field:   field,
		Message: fmt.Sprintf("no column matches any of [%s]", strings.Join(candidates, ", ")),
	}, "")
}

// Unparseable records a cell that could not be coerced for a field
func (d *Diagnostics) Unparseable(table, field, column, value string) {
	d.add(&Issue{
		Code:    CodeUnparseableValue,
		Table:   table,
		Field:   field,
		Column:  column,
		Message: "values could not be parsed and were treated as empty",
	}, value)
}

// AmbiguousClient records a client cell whose text equals the unmapped
// sentinel. Such rows cannot be told apart from rows with no client.
func (d *Diagnostics) AmbiguousClient(table, column, value string) {
	d.add(&Issue{
		Code:    CodeAmbiguousClient,
		Table:   table,
		Field:   "client",
		Column:  column,
		Message: "client name equals the unmapped placeholder and is merged with rows that have no client",
	}, value)
}

// EmptyFilterResult records that the filters selected no rows of a table
func (d *Diagnostics) EmptyFilterResult(table string) {
	d.add(&Issue{
		Code:    CodeEmptyFilterResult,
		Table:   table,
		Message: "filters selected no rows",
	}, "")
}

func (d *Diagnostics) add(issue *Issue, sample string) {
	if d == nil {
		return
	}
	key := fmt.Sprintf("%s|%s|%s|%s", issue.Code, issue.Table, issue.Field, issue.Column)
	existing, ok := d.index[key]
	if !ok {
		existing = issue
		d.index[key] = existing
		d.issues = append(d.issues, existing)
	}
	existing.Count++
	if sample != "" && len(existing.Samples) < d.maxSamples {
		existing.Samples = append(existing.Samples, sample)
	}
}

// Merge folds the issues of other into d
func (d *Diagnostics) Merge(other *Diagnostics) {
	if d == nil || other == nil {
		return
	}
	for _, issue := range other.issues {
		key := fmt.Sprintf("%s|%s|%s|%s", issue.Code, issue.Table, issue.Field, issue.Column)
		existing, ok := d.index[key]
		if !ok {
			copied := *issue
			copied.Samples = append([]string(nil), issue.Samples...)
			d.index[key] = &copied
			d.issues = append(d.issues, &copied)
			continue
		}
		existing.Count += issue.Count
		for _, s := range issue.Samples {
			if len(existing.Samples) >= d.maxSamples {
				break
			}
			existing.Samples = append(existing.Samples, s)
		}
	}
}

// Issues returns the collected issues in the order they were first raised
func (d *Diagnostics) Issues() []*Issue {
	if d == nil {
		return nil
	}
	return d.issues
}

// Len returns the number of distinct issues
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.issues)
}

// HasCode checks if any issue carries the given code
func (d *Diagnostics) HasCode(code ErrorCode) bool {
	return d.Count(code) > 0
}

// Count returns the number of occurrences recorded for a code
func (d *Diagnostics) Count(code ErrorCode) int {
	total := 0
	for _, issue := range d.Issues() {
		if issue.Code == code {
			total += issue.Count
		}
	}
	return total
}

// ByCode returns occurrence totals per code, sorted by code for stable output
func (d *Diagnostics) ByCode() []CodeCount {
	totals := make(map[ErrorCode]int)
	for _, issue := range d.Issues() {
		totals[issue.Code] += issue.Count
	}
	out := make([]CodeCount, 0, len(totals))
	for code, n := range totals {
		out = append(out, CodeCount{Code: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// CodeCount pairs an error code with its occurrence total
type CodeCount struct {
	Code  ErrorCode `json:"code" yaml:"code"`
	Count int       `json:"count" yaml:"count"`
}
