package builder

import (
	"revenue-dashboard/internal/models"
	"revenue-dashboard/pkg/errors"
)

// BuildFacts maps every row of the actuals table to a fact record. Each field
// is resolved independently; a missing column leaves that field absent (or
// the client unmapped) for all rows. The output is index-aligned with the
// table rows.
func BuildFacts(table *models.RawTable, columns FactColumns, diag *errors.Diagnostics) ([]models.FactRecord, Mapping) {
	r := newResolver(TableActuals, table, diag)

	clientCol, clientOK := r.resolve(FieldClient, columns.Client)
	amountCol, amountOK := r.resolve(FieldAmount, columns.Amount)
	costCol, costOK := r.resolve(FieldCost, columns.Cost)
	periodCol, periodOK := r.resolve(FieldPeriod, columns.Period)

	clients := r.clients(clientCol, clientOK)
	revenue := r.numbers(FieldAmount, amountCol, amountOK)
	cost := r.numbers(FieldCost, costCol, costOK)
	periods := r.periods(periodCol, periodOK)

	records := make([]models.FactRecord, r.rows())
	for i := range records {
		records[i] = models.NewFactRecord(clients[i], periods[i], revenue[i], cost[i])
	}
	return records, *r.mapping
}

// BuildForecasts maps every row of the forecast table to a forecast record
func BuildForecasts(table *models.RawTable, columns ForecastColumns, diag *errors.Diagnostics) ([]models.ForecastRecord, Mapping) {
	r := newResolver(TableForecast, table, diag)

	clientCol, clientOK := r.resolve(FieldClient, columns.Client)
	amountCol, amountOK := r.resolve(FieldAmount, columns.Amount)
	periodCol, periodOK := r.resolve(FieldPeriod, columns.Period)

	clients := r.clients(clientCol, clientOK)
	amounts := r.numbers(FieldAmount, amountCol, amountOK)
	periods := r.periods(periodCol, periodOK)

	records := make([]models.ForecastRecord, r.rows())
	for i := range records {
		records[i] = models.NewForecastRecord(clients[i], periods[i], amounts[i])
	}
	return records, *r.mapping
}
