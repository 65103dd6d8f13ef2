// Package aggregator computes the dashboard figures from filtered records.
// Every function is pure: inputs are never modified and no state is kept.
package aggregator

import (
	"github.com/shopspring/decimal"

	"revenue-dashboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// KPIs are the headline figures of the selected facts. Each value is absent
// ("no data") when there are no facts; MarginPct is also absent when revenue
// sums to zero.
type KPIs struct {
	Revenue     decimal.NullDecimal `json:"revenue"`
	Cost        decimal.NullDecimal `json:"cost"`
	GrossProfit decimal.NullDecimal `json:"gross_profit"`
	MarginPct   decimal.NullDecimal `json:"margin_pct"`
	Rows        int                 `json:"rows"`
}

// SumKPIs sums revenue, cost and gross profit, skipping absent values.
// Gross profit is the sum of per-row gross profits, so rows missing either
// revenue or cost do not contribute to it.
func SumKPIs(facts []models.FactRecord) KPIs {
	kpis := KPIs{Rows: len(facts)}
	if len(facts) == 0 {
		return kpis
	}

	var revenue, cost, gp decimal.Decimal
	for _, f := range facts {
		revenue = addNull(revenue, f.Revenue)
		cost = addNull(cost, f.Cost)
		gp = addNull(gp, f.GrossProfit())
	}

	kpis.Revenue = decimal.NewNullDecimal(revenue)
	kpis.Cost = decimal.NewNullDecimal(cost)
	kpis.GrossProfit = decimal.NewNullDecimal(gp)
	if !revenue.IsZero() {
		kpis.MarginPct = decimal.NewNullDecimal(gp.Div(revenue).Mul(hundred))
	}
	return kpis
}

func addNull(sum decimal.Decimal, v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return sum
	}
	return sum.Add(v.Decimal)
}
