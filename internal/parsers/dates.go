package parsers

import (
	"regexp"
	"strings"
	"time"

	"revenue-dashboard/internal/models"
)

// lenientLayouts are tried in order after the strict ISO pass fails.
// Numeric day/month pairs are read day-first; a leading four-digit year is
// always read year-month-day. Layouts without a day resolve to the 1st and a
// bare year to 1 January.
// Order matters: "1/2006" must come after the three-part layouts.
var lenientLayouts = []string{
	// ISO-like, year first
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"20060102",

	// day first
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 3:04 PM",
	"2-1-2006 15:04:05",
	"2.1.2006 15:04",

	// month names
	"2 January 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 06",
	"2/Jan/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"Monday, 2 January 2006",
	"Mon, 2 Jan 2006",
	"Monday, January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,

	// month only
	"January 2006",
	"Jan 2006",
	"Jan-2006",
	"Jan-06",
	"2006-1",
	"2006/1",
	"1/2006",
	"1-2006",

	// year only, read as 1 January
	"2006",

	// month first, reached only when the day-first reading is impossible
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",
	"1/2/06",
}

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// NormalizeDates converts raw period cells to calendar dates, index-aligned
// with the input. Every value is first matched against YYYY-MM-DD exactly;
// only values that fail that pass are given to the lenient parser. Values
// that fail both are absent.
func NormalizeDates(values []any) []models.NullDate {
	out := make([]models.NullDate, len(values))
	texts := make([]string, len(values))
	var unresolved []int

	for i, v := range values {
		texts[i] = strings.TrimSpace(CellText(v))
		if d, ok := ParseStrictDate(texts[i]); ok {
			out[i] = d
			continue
		}
		unresolved = append(unresolved, i)
	}

	for _, i := range unresolved {
		if d, ok := ParseLenientDate(texts[i]); ok {
			out[i] = d
		}
	}
	return out
}

// ParseStrictDate accepts exactly YYYY-MM-DD
func ParseStrictDate(s string) (models.NullDate, bool) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return models.NullDate{}, false
	}
	return models.DateOf(t), true
}

// ParseLenientDate infers the layout of s, preferring day-first for
// ambiguous numeric dates ("03/04/2025" is 3 April 2025)
func ParseLenientDate(s string) (models.NullDate, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return models.NullDate{}, false
	}
	s = ordinalSuffix.ReplaceAllString(s, "$1")

	for _, layout := range lenientLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), true
		}
	}
	return models.NullDate{}, false
}
