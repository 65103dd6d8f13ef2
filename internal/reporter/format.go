package reporter

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// NoData is displayed in place of an absent figure
const (
	NoData     = "–"
	NoDataNote = "No data"
)

// FormatCurrency renders an amount in rand with thousands separators and no
// decimals, e.g. R1,234. Halves round to even (R2 for 2.5).
func FormatCurrency(d decimal.Decimal) string {
	return "R" + humanize.FormatFloat("#,###.", d.RoundBank(0).InexactFloat64())
}

// FormatPercent renders a percentage with one decimal, e.g. 12.3%.
// Halves round to even like FormatCurrency.
func FormatPercent(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.#", d.RoundBank(1).InexactFloat64()) + "%"
}

// FormatNullCurrency renders an optional amount, absent values as NoData
func FormatNullCurrency(d decimal.NullDecimal) string {
	if !d.Valid {
		return NoData
	}
	return FormatCurrency(d.Decimal)
}

// FormatNullPercent renders an optional percentage, absent values as NoData
func FormatNullPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return NoData
	}
	return FormatPercent(d.Decimal)
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// plainNumber renders a number for CSV cells; absent values are empty
func plainNumber(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func formatFloat(v float64) string {
	return FormatCurrency(decimal.NewFromFloat(v))
}

func displayFloat(v *float64) string {
	if v == nil {
		return NoData
	}
	return formatFloat(*v)
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
