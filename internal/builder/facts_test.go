package builder

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue-dashboard/internal/models"
	"revenue-dashboard/pkg/errors"
)

func assertDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	if assert.True(t, got.Valid, "expected %s, got null", want) {
		assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "expected %s, got %s", want, got.Decimal)
	}
}

func TestBuildFacts(t *testing.T) {
	table := models.NewRawTable("Source", []string{"CLIENT", "Value", "Costs", "Fin Period"}, [][]any{
		{"A", 100.0, 40.0, "2025-01-05"},
		{"B", "n/a", 10.0, "03/04/2025"},
		{nil, 50.0, nil, "bad"},
		{1001.0, "R1,000", "5", nil},
	})
	diag := errors.NewDiagnostics(3)

	records, mapping := BuildFacts(table, DefaultFactColumns(), diag)
	require.Len(t, records, 4)

	assert.Equal(t, "A", records[0].Client)
	assert.Equal(t, models.NewDate(2025, time.January, 5), records[0].Period)
	assertDecimal(t, "100", records[0].Revenue)
	assertDecimal(t, "40", records[0].Cost)
	assertDecimal(t, "60", records[0].GrossProfit())

	assert.Equal(t, models.NewDate(2025, time.April, 3), records[1].Period)
	assert.False(t, records[1].Revenue.Valid)
	assertDecimal(t, "10", records[1].Cost)
	assert.False(t, records[1].GrossProfit().Valid, "gross profit is null when revenue is null")

	assert.Equal(t, models.UnmappedClient, records[2].Client)
	assert.False(t, records[2].Period.Valid)
	assert.False(t, records[2].GrossProfit().Valid, "gross profit is null when cost is null")

	assert.Equal(t, "1001", records[3].Client)
	assertDecimal(t, "1000", records[3].Revenue)
	assertDecimal(t, "995", records[3].GrossProfit())

	assert.Equal(t, "Source", mapping.Sheet)
	for field, want := range map[string]string{
		FieldClient: "CLIENT",
		FieldAmount: "Value",
		FieldCost:   "Costs",
		FieldPeriod: "Fin Period",
	} {
		got, ok := mapping.Column(field)
		assert.True(t, ok, field)
		assert.Equal(t, want, got, field)
	}
	assert.Empty(t, mapping.Missing())

	assert.False(t, diag.HasCode(errors.CodeMissingColumn))
	assert.Equal(t, 2, diag.Count(errors.CodeUnparseableValue))
	issues := diag.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, FieldAmount, issues[0].Field)
	assert.Equal(t, []string{"n/a"}, issues[0].Samples)
	assert.Equal(t, FieldPeriod, issues[1].Field)
	assert.Equal(t, []string{"bad"}, issues[1].Samples)
}

func TestBuildFactsMissingColumns(t *testing.T) {
	table := models.NewRawTable("Data", []string{"Revenue", "Date", "Notes"}, [][]any{
		{100.0, "2025-01-05", "x"},
		{200.0, "2025-02-05", nil},
	})
	diag := errors.NewDiagnostics(3)

	records, mapping := BuildFacts(table, DefaultFactColumns(), diag)
	require.Len(t, records, 2)

	for _, r := range records {
		assert.Equal(t, models.UnmappedClient, r.Client, "the sentinel applies to every row")
		assert.True(t, r.Revenue.Valid, "a missing cost column does not block revenue")
		assert.False(t, r.Cost.Valid)
		assert.False(t, r.GrossProfit().Valid)
		assert.True(t, r.Period.Valid)
	}

	assert.Equal(t, []string{FieldClient, FieldCost}, mapping.Missing())
	assert.Equal(t, 2, diag.Count(errors.CodeMissingColumn))
	assert.Contains(t, diag.Issues()[0].Message, "Client, Customer, Account")
}

func TestBuildFactsRowCountPreserved(t *testing.T) {
	table := models.NewRawTable("Source", []string{"Client", "Amount"}, [][]any{
		{"A", 1.0}, {"A", 1.0}, {nil, nil}, {"", "x"},
	})

	records, _ := BuildFacts(table, DefaultFactColumns(), nil)
	assert.Len(t, records, table.Len(), "duplicate and empty rows are neither merged nor dropped")
	assert.Equal(t, models.UnmappedClient, records[3].Client)
}

func TestBuildFactsNilTable(t *testing.T) {
	diag := errors.NewDiagnostics(1)
	records, mapping := BuildFacts(nil, DefaultFactColumns(), diag)

	assert.Empty(t, records)
	assert.Len(t, mapping.Missing(), 4)
	assert.Equal(t, 4, diag.Count(errors.CodeMissingColumn))
}

func TestBuildForecasts(t *testing.T) {
	table := models.NewRawTable("Forecast Detail", []string{"Customer", "Month", "Amount", "Forecast"}, [][]any{
		{"A", "2025-03-01", 1.0, 300.0},
		{"B", "Apr-25", 2.0, ""},
		{"C", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), 3.0, "(1,250)"},
	})
	diag := errors.NewDiagnostics(3)

	records, mapping := BuildForecasts(table, DefaultForecastColumns(), diag)
	require.Len(t, records, 3)

	column, _ := mapping.Column(FieldAmount)
	assert.Equal(t, "Forecast", column, "Forecast outranks Amount")

	assertDecimal(t, "300", records[0].Amount)
	assert.False(t, records[1].Amount.Valid, "blank is absent, not zero")
	assert.Equal(t, models.NewDate(2025, time.April, 1), records[1].Period)
	assertDecimal(t, "-1250", records[2].Amount)
	assert.Equal(t, models.NewDate(2025, time.May, 1), records[2].Period)

	assert.Equal(t, 0, diag.Len(), "blank cells are not reported as unparseable")
}

func TestBuildForecastsWithoutClientColumn(t *testing.T) {
	table := models.NewRawTable("Forecast Detail", []string{"Account", "Period", "Value"}, [][]any{
		{"A", "2025-03-01", 10.0},
	})
	diag := errors.NewDiagnostics(3)

	records, mapping := BuildForecasts(table, DefaultForecastColumns(), diag)
	require.Len(t, records, 1)
	assert.Equal(t, models.UnmappedClient, records[0].Client, "Account is not a forecast client candidate")
	assert.Equal(t, []string{FieldClient}, mapping.Missing())
}

func TestColumnsValidate(t *testing.T) {
	assert.NoError(t, DefaultFactColumns().Validate())
	assert.NoError(t, DefaultForecastColumns().Validate())

	cols := DefaultFactColumns()
	cols.Cost = []string{" "}
	assert.Error(t, cols.Validate())

	fc := DefaultForecastColumns()
	fc.Period = nil
	assert.Error(t, fc.Validate())
}

func TestBuildFactsFlagsSentinelClientName(t *testing.T) {
	table := models.NewRawTable("Source", []string{"Client", "Amount"}, [][]any{
		{"(Unmapped)", 1.0},
		{nil, 2.0},
	})
	diag := errors.NewDiagnostics(3)

	records, _ := BuildFacts(table, DefaultFactColumns(), diag)
	assert.Equal(t, records[0].Client, records[1].Client)
	assert.Equal(t, 1, diag.Count(errors.CodeAmbiguousClient))
}
