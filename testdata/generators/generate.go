package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// WorkbookGenerator writes a revenue analysis workbook and a contracting
// forecast workbook with the sheet names and headers the dashboard expects
type WorkbookGenerator struct {
	Clients   int
	Months    int
	RowsPerMo int
	Start     time.Time
	Messy     bool
	rng       *rand.Rand
}

var clientNames = []string{
	"Acme Holdings", "Globex", "Initech", "Umbrella Logistics", "Stark Mining",
	"Wayne Freight", "Tyrell Systems", "Cyberdyne", "Soylent Foods", "Hooli",
	"Vandelay Imports", "Wonka Retail", "Oscorp", "Gringotts", "Pied Piper",
	"Dunder Paper", "Monarch Energy", "Nakatomi Trading", "Massive Dynamic", "Aperture Labs",
}

func main() {
	var (
		outputDir = flag.String("output-dir", "../generated", "Output directory for generated workbooks")
		clients   = flag.Int("clients", 12, "Number of distinct clients")
		months    = flag.Int("months", 12, "Number of months of actuals")
		rows      = flag.Int("rows", 20, "Actuals rows per month")
		startDate = flag.String("start-date", "2025-01-01", "First month (YYYY-MM-DD)")
		messy     = flag.Bool("messy", true, "Mix date formats, currency text and blank cells into the actuals")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	if *clients < 1 || *clients > len(clientNames) {
		log.Fatalf("Clients must be between 1 and %d", len(clientNames))
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	g := &WorkbookGenerator{
		Clients:   *clients,
		Months:    *months,
		RowsPerMo: *rows,
		Start:     time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC),
		Messy:     *messy,
		rng:       rand.New(rand.NewSource(*seed)),
	}

	revenuePath := filepath.Join(*outputDir, "Revenue Analysis - Data Source.xlsx")
	if err := g.WriteRevenueWorkbook(revenuePath); err != nil {
		log.Fatalf("Failed to write revenue workbook: %v", err)
	}
	fmt.Printf("Generated %s\n", revenuePath)

	forecastPath := filepath.Join(*outputDir, "FY2026 Contracting Forecast.xlsx")
	if err := g.WriteForecastWorkbook(forecastPath); err != nil {
		log.Fatalf("Failed to write forecast workbook: %v", err)
	}
	fmt.Printf("Generated %s\n", forecastPath)

	fmt.Println()
	fmt.Println("Run the dashboard with:")
	fmt.Printf("  RA_DATA_PATH=%q FORECAST_PATH=%q dashboard report\n", revenuePath, forecastPath)
}

// WriteRevenueWorkbook writes the Source and Quaters sheets
func (g *WorkbookGenerator) WriteRevenueWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Source"); err != nil {
		return err
	}
	rows := [][]any{{"Client", "Amount", "Cost", "Fin Period", "Region"}}
	for m := 0; m < g.Months; m++ {
		month := g.Start.AddDate(0, m, 0)
		for i := 0; i < g.RowsPerMo; i++ {
			rows = append(rows, g.actualRow(month))
		}
	}
	if err := writeRows(f, "Source", rows); err != nil {
		return err
	}

	if _, err := f.NewSheet("Quaters"); err != nil {
		return err
	}
	quarters := [][]any{{"Fin Period", "Quarter", "Fiscal Year"}}
	for m := 0; m < g.Months; m++ {
		month := g.Start.AddDate(0, m, 0)
		quarters = append(quarters, []any{
			month.Format("2006-01-02"),
			fmt.Sprintf("Q%d", (int(month.Month())-1)/3+1),
			fmt.Sprintf("FY%d", month.Year()),
		})
	}
	if err := writeRows(f, "Quaters", quarters); err != nil {
		return err
	}

	return f.SaveAs(path)
}

// WriteForecastWorkbook writes the Budget Details and Forecast Detail sheets
func (g *WorkbookGenerator) WriteForecastWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Budget Details"); err != nil {
		return err
	}
	budget := [][]any{{"Client", "Annual Budget", "Owner"}}
	for _, client := range clientNames[:g.Clients] {
		budget = append(budget, []any{client, g.amount(200000, 2000000).InexactFloat64(), "Sales"})
	}
	if err := writeRows(f, "Budget Details", budget); err != nil {
		return err
	}

	if _, err := f.NewSheet("Forecast Detail"); err != nil {
		return err
	}
	forecast := [][]any{{"Client", "Period", "Forecast"}}
	// Forecasts run three months past the actuals
	for m := 0; m < g.Months+3; m++ {
		month := g.Start.AddDate(0, m, 0)
		for _, client := range clientNames[:g.Clients] {
			forecast = append(forecast, []any{
				client,
				month.Format("2006-01-02"),
				g.amount(5000, 60000).InexactFloat64(),
			})
		}
	}
	if err := writeRows(f, "Forecast Detail", forecast); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func (g *WorkbookGenerator) actualRow(month time.Time) []any {
	client := clientNames[g.rng.Intn(g.Clients)]
	day := month.AddDate(0, 0, g.rng.Intn(28))
	revenue := g.amount(1000, 40000)
	cost := revenue.Mul(decimal.NewFromFloat(0.4 + g.rng.Float64()*0.4)).Round(2)

	row := []any{client, revenue.InexactFloat64(), cost.InexactFloat64(), day.Format("2006-01-02"), "Gauteng"}
	if !g.Messy {
		return row
	}

	// Exercise the lenient paths of the normalizer
	switch g.rng.Intn(10) {
	case 0:
		row[3] = day.Format("02/01/2006")
	case 1:
		row[3] = day
	case 2:
		row[3] = day.Format("2 January 2006")
	case 3:
		row[1] = "R " + revenue.StringFixed(2)
	case 4:
		row[2] = nil
	case 5:
		row[2] = "(" + cost.StringFixed(2) + ")"
	}
	if g.rng.Intn(200) == 0 {
		row[3] = "TBC"
	}
	return row
}

func (g *WorkbookGenerator) amount(lo, hi int64) decimal.Decimal {
	cents := lo*100 + g.rng.Int63n((hi-lo)*100)
	return decimal.New(cents, -2)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
