// Package models holds the canonical records produced from the revenue and
// forecast workbooks, and the raw tables they are built from.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UnmappedClient is the client key used for every row of a table that has no
// resolvable client column, and for rows whose client cell is empty.
// It cannot be told apart from a client legitimately named "(Unmapped)".
const UnmappedClient = "(Unmapped)"

// DateLayout is the canonical textual form of a calendar date
const DateLayout = "2006-01-02"

// NullDate is a calendar date that may be absent
type NullDate struct {
	Time  time.Time
	Valid bool
}

// DateOf truncates t to its calendar day in UTC
func DateOf(t time.Time) NullDate {
	return NullDate{
		Time:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}

// NewDate builds a valid NullDate from its components
func NewDate(year int, month time.Month, day int) NullDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// MonthStart returns the first day of the date's month; absent dates stay absent
func (d NullDate) MonthStart() NullDate {
	if !d.Valid {
		return d
	}
	return NewDate(d.Time.Year(), d.Time.Month(), 1)
}

func (d NullDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// MarshalJSON renders the date as "YYYY-MM-DD" or null
func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// FactRecord is one row of the actuals sheet in canonical form
type FactRecord struct {
	Client  string
	Period  NullDate
	Revenue decimal.NullDecimal
	Cost    decimal.NullDecimal
}

// NewFactRecord creates a fact record; gross profit is always derived
func NewFactRecord(client string, period NullDate, revenue, cost decimal.NullDecimal) FactRecord {
	return FactRecord{
		Client:  client,
		Period:  period,
		Revenue: revenue,
		Cost:    cost,
	}
}

// GrossProfit is revenue minus cost, absent if either operand is absent
func (f FactRecord) GrossProfit() decimal.NullDecimal {
	if !f.Revenue.Valid || !f.Cost.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(f.Revenue.Decimal.Sub(f.Cost.Decimal))
}

func (f FactRecord) ClientKey() string { return f.Client }

func (f FactRecord) PeriodDate() NullDate { return f.Period }

func (f FactRecord) String() string {
	return fmt.Sprintf("FactRecord{Client: %s, Period: %s, Revenue: %s, Cost: %s}",
		f.Client, f.Period, nullString(f.Revenue), nullString(f.Cost))
}

// MarshalJSON includes the derived gross profit
func (f FactRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Client      string              `json:"client"`
		Period      NullDate            `json:"period"`
		Revenue     decimal.NullDecimal `json:"revenue"`
		Cost        decimal.NullDecimal `json:"cost"`
		GrossProfit decimal.NullDecimal `json:"gross_profit"`
	}{
		Client:      f.Client,
		Period:      f.Period,
		Revenue:     f.Revenue,
		Cost:        f.Cost,
		GrossProfit: f.GrossProfit(),
	})
}

// ForecastRecord is one row of the forecast sheet in canonical form
type ForecastRecord struct {
	Client string
	Period NullDate
	Amount decimal.NullDecimal
}

// NewForecastRecord creates a forecast record
func NewForecastRecord(client string, period NullDate, amount decimal.NullDecimal) ForecastRecord {
	return ForecastRecord{Client: client, Period: period, Amount: amount}
}

func (f ForecastRecord) ClientKey() string { return f.Client }

func (f ForecastRecord) PeriodDate() NullDate { return f.Period }

func (f ForecastRecord) String() string {
	return fmt.Sprintf("ForecastRecord{Client: %s, Period: %s, Amount: %s}",
		f.Client, f.Period, nullString(f.Amount))
}

func (f ForecastRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Client string              `json:"client"`
		Period NullDate            `json:"period"`
		Amount decimal.NullDecimal `json:"forecast"`
	}{f.Client, f.Period, f.Amount})
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a range truncated to whole days. Start must not be after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := DateOf(start).Time
	e := DateOf(end).Time
	if s.After(e) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", s.Format(DateLayout), e.Format(DateLayout))
	}
	return DateRange{Start: s, End: e}, nil
}

// Contains reports whether d is present and falls within the range, both ends included
func (r DateRange) Contains(d NullDate) bool {
	if !d.Valid {
		return false
	}
	return !d.Time.Before(r.Start) && !d.Time.After(r.End)
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "null"
	}
	return d.Decimal.String()
}
