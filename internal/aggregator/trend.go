package aggregator

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"revenue-dashboard/internal/models"
)

// TrendPoint is the revenue of one calendar month
type TrendPoint struct {
	Month   time.Time       `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// MonthlyTrend sums revenue per month for facts with a period, ordered by
// month ascending. Facts without a period are left out.
func MonthlyTrend(facts []models.FactRecord) []TrendPoint {
	sums := monthlySums(facts, func(f models.FactRecord) (models.NullDate, decimal.NullDecimal) {
		return f.Period, f.Revenue
	})

	points := make([]TrendPoint, 0, len(sums))
	for month, revenue := range sums {
		points = append(points, TrendPoint{Month: month, Revenue: revenue})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month.Before(points[j].Month) })
	return points
}

// monthlySums groups values by the first day of their period's month.
// A month is present once any record falls in it, even if all its values are absent.
func monthlySums[T any](records []T, fields func(T) (models.NullDate, decimal.NullDecimal)) map[time.Time]decimal.Decimal {
	sums := make(map[time.Time]decimal.Decimal)
	for _, r := range records {
		period, value := fields(r)
		if !period.Valid {
			continue
		}
		month := period.MonthStart().Time
		sums[month] = addNull(sums[month], value)
	}
	return sums
}

// TrendStats summarizes the monthly revenue series
type TrendStats struct {
	Months int     `json:"months" yaml:"months"`
	Total  float64 `json:"total" yaml:"total"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	// BestMonth and WorstMonth are the months with the highest and lowest revenue
	BestMonth  time.Time `json:"best_month" yaml:"best_month"`
	WorstMonth time.Time `json:"worst_month" yaml:"worst_month"`
}

// SummarizeTrend computes descriptive statistics of a trend. It returns nil
// for an empty trend.
func SummarizeTrend(points []TrendPoint) (*TrendStats, error) {
	if len(points) == 0 {
		return nil, nil
	}

	data := make(stats.Float64Data, len(points))
	best, worst := 0, 0
	for i, p := range points {
		data[i] = p.Revenue.InexactFloat64()
		if data[i] > data[best] {
			best = i
		}
		if data[i] < data[worst] {
			worst = i
		}
	}

	total, err := data.Sum()
	if err != nil {
		return nil, err
	}
	mean, err := data.Mean()
	if err != nil {
		return nil, err
	}
	median, err := data.Median()
	if err != nil {
		return nil, err
	}
	min, err := data.Min()
	if err != nil {
		return nil, err
	}
	max, err := data.Max()
	if err != nil {
		return nil, err
	}
	stdDev, err := data.StandardDeviation()
	if err != nil {
		return nil, err
	}

	return &TrendStats{
		Months:     len(points),
		Total:      total,
		Mean:       mean,
		Median:     median,
		Min:        min,
		Max:        max,
		StdDev:     stdDev,
		BestMonth:  points[best].Month,
		WorstMonth: points[worst].Month,
	}, nil
}
