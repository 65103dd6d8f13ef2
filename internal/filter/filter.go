// Package filter selects the fact and forecast records shown on the dashboard.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"revenue-dashboard/internal/models"
	"revenue-dashboard/pkg/errors"
)

// Record is anything that can be filtered by client and period
type Record interface {
	ClientKey() string
	PeriodDate() models.NullDate
}

// FallbackStart and FallbackEnd bound the default date range when no fact has a period
var (
	FallbackStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	FallbackEnd   = time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Criteria selects records by client and inclusive date range.
// An empty client list selects every client.
type Criteria struct {
	Clients []string         `json:"clients" yaml:"clients"`
	Range   models.DateRange `json:"range" yaml:"range"`
}

// AllClients reports whether the client predicate is vacuous
func (c Criteria) AllClients() bool {
	return len(c.Clients) == 0
}

// Apply returns the records matching the criteria, in their original order.
// Records without a period never match. The input slice is not modified.
func Apply[T Record](records []T, criteria Criteria) []T {
	clients := lo.SliceToMap(criteria.Clients, func(c string) (string, struct{}) {
		return c, struct{}{}
	})

	return lo.Filter(records, func(r T, _ int) bool {
		if !criteria.AllClients() {
			if _, ok := clients[r.ClientKey()]; !ok {
				return false
			}
		}
		return criteria.Range.Contains(r.PeriodDate())
	})
}

// ClientOptions returns the distinct non-empty client keys of the records, sorted
func ClientOptions[T Record](records []T) []string {
	keys := lo.Uniq(lo.Map(records, func(r T, _ int) string { return r.ClientKey() }))
	keys = lo.Filter(keys, func(k string, _ int) bool { return k != "" })
	sort.Strings(keys)
	return keys
}

// DefaultDateRange spans the earliest to the latest period of the records,
// or the fallback range when none has a period
func DefaultDateRange[T Record](records []T) models.DateRange {
	dated := lo.FilterMap(records, func(r T, _ int) (time.Time, bool) {
		d := r.PeriodDate()
		return d.Time, d.Valid
	})
	if len(dated) == 0 {
		return models.DateRange{Start: FallbackStart, End: FallbackEnd}
	}

	start := lo.MinBy(dated, func(a, b time.Time) bool { return a.Before(b) })
	end := lo.MaxBy(dated, func(a, b time.Time) bool { return a.After(b) })
	return models.DateRange{Start: start, End: end}
}

// NewCriteria builds criteria from user input. Blank client names are
// ignored and duplicates removed. A nil start or end takes the matching
// bound of the default range for defaults.
func NewCriteria[T Record](clients []string, start, end *time.Time, defaults []T) (Criteria, error) {
	selected := lo.Uniq(lo.FilterMap(clients, func(c string, _ int) (string, bool) {
		c = strings.TrimSpace(c)
		return c, c != ""
	}))

	fallback := DefaultDateRange(defaults)
	from, to := fallback.Start, fallback.End
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}

	dateRange, err := models.NewDateRange(from, to)
	if err != nil {
		return Criteria{}, errors.ConfigurationError(errors.CodeInvalidDateRange, "date_range",
			from.Format(models.DateLayout)+".."+to.Format(models.DateLayout), err)
	}
	return Criteria{Clients: selected, Range: dateRange}, nil
}
