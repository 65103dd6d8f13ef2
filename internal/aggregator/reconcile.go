package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"revenue-dashboard/internal/models"
)

// MonthComparison pairs actual and forecast revenue for one month.
// A side with no records in the month is absent rather than zero.
type MonthComparison struct {
	Month    time.Time           `json:"month"`
	Actual   decimal.NullDecimal `json:"actual"`
	Forecast decimal.NullDecimal `json:"forecast"`
}

// Variance is actual minus forecast, absent unless both sides are present
func (m MonthComparison) Variance() decimal.NullDecimal {
	if !m.Actual.Valid || !m.Forecast.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(m.Actual.Decimal.Sub(m.Forecast.Decimal))
}

// VariancePct is the variance relative to forecast, absent when forecast is zero
func (m MonthComparison) VariancePct() decimal.NullDecimal {
	v := m.Variance()
	if !v.Valid || m.Forecast.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Decimal.Div(m.Forecast.Decimal).Mul(hundred))
}

// ActualVsForecast joins monthly actual and forecast sums on month. Every
// month present on either side appears once, ordered ascending.
func ActualVsForecast(facts []models.FactRecord, forecasts []models.ForecastRecord) []MonthComparison {
	actual := monthlySums(facts, func(f models.FactRecord) (models.NullDate, decimal.NullDecimal) {
		return f.Period, f.Revenue
	})
	forecast := monthlySums(forecasts, func(f models.ForecastRecord) (models.NullDate, decimal.NullDecimal) {
		return f.Period, f.Amount
	})

	rows := make(map[time.Time]*MonthComparison, len(actual)+len(forecast))
	row := func(month time.Time) *MonthComparison {
		r, ok := rows[month]
		if !ok {
			r = &MonthComparison{Month: month}
			rows[month] = r
		}
		return r
	}
	for month, sum := range actual {
		row(month).Actual = decimal.NewNullDecimal(sum)
	}
	for month, sum := range forecast {
		row(month).Forecast = decimal.NewNullDecimal(sum)
	}

	out := make([]MonthComparison, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}
