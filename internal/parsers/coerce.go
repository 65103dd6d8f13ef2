package parsers

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"revenue-dashboard/internal/models"
)

// currencyMarks are stripped from the front of numeric text
var currencyMarks = []string{"ZAR", "USD", "EUR", "GBP", "R", "$", "€", "£"}

// numberText is a bare digit run or digits grouped in threes by one
// separator kind, with an optional fraction and exponent
var numberText = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d{1,3}(?:[ \x{00a0}]\d{3})+|\d*)(?:\.\d+)?(?:[eE][-+]?\d+)?$`)

// CellText renders a cell value as text. Dates without a time of day render
// as YYYY-MM-DD so that they pass the strict date tier.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(models.DateLayout)
		}
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// IsBlank reports whether a cell carries no value
func IsBlank(v any) bool {
	return strings.TrimSpace(CellText(v)) == ""
}

// CoerceNumber converts a cell to a number. Blank and non-numeric cells are
// absent, never zero. Text may carry a leading currency mark, thousands
// separators and accounting-style parentheses for negatives.
func CoerceNumber(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(x))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(x)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x))
	case string:
		return parseNumberText(x)
	default:
		return decimal.NullDecimal{}
	}
}

func parseNumberText(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	}

	upper := strings.ToUpper(s)
	for _, mark := range currencyMarks {
		if strings.HasPrefix(upper, mark) {
			s = strings.TrimSpace(s[len(mark):])
			break
		}
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	if !numberText.MatchString(s) || !strings.ContainsAny(s, "0123456789") {
		return decimal.NullDecimal{}
	}
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d)
}

// CoerceClient stringifies a client cell. Blank cells become the unmapped sentinel.
func CoerceClient(v any) string {
	text := CellText(v)
	if strings.TrimSpace(text) == "" {
		return models.UnmappedClient
	}
	return text
}
