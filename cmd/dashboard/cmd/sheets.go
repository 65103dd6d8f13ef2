package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"revenue-dashboard/cmd/dashboard/config"
	"revenue-dashboard/internal/builder"
	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/internal/reconciler"
	"revenue-dashboard/pkg/errors"
)

const absentColumn = "<absent>"

func newSheetsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Show the sheets and columns picked from each workbook",
		Long: `Sheets lists, for both workbooks, the sheets found, the sheet picked for
each role and the column resolved for each field. Fields without a matching
column are shown as <absent> together with the candidates that were tried.

Examples:
  dashboard sheets -r revenue.xlsx -F forecast.xlsx
  dashboard sheets --config dashboard.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSheets(cmd, a)
		},
	}
}

func runSheets(cmd *cobra.Command, a *app) error {
	service, err := reconciler.NewDashboardService(a.settings.Service)
	if err != nil {
		return err
	}
	b := service.Builder()
	out := cmd.OutOrStdout()

	facts, err := b.Facts(parsers.FileSource("revenue workbook", a.viper.GetString(config.KeyRevenueFile)))
	if err != nil {
		return err
	}
	printWorkbook(out, facts.Workbook, facts.Mapping, facts.Diagnostics,
		[]parsers.SheetRole{parsers.RoleActuals, parsers.RoleQuarters})

	fmt.Fprintln(out)

	forecasts, err := b.Forecasts(parsers.FileSource("forecast workbook", a.viper.GetString(config.KeyForecastFile)))
	if err != nil {
		return err
	}
	printWorkbook(out, forecasts.Workbook, forecasts.Mapping, forecasts.Diagnostics,
		[]parsers.SheetRole{parsers.RoleBudget, parsers.RoleForecast})

	return nil
}

func printWorkbook(out io.Writer, wb *builder.LoadedWorkbook, mapping builder.Mapping, diag *errors.Diagnostics, roles []parsers.SheetRole) {
	fmt.Fprintf(out, "%s: %s\n", wb.Source.Name, wb.Source.Label())
	fmt.Fprintf(out, "  Sheets: %s\n", strings.Join(wb.Sheets, ", "))
	for _, role := range roles {
		fmt.Fprintf(out, "  %-9s -> %s (%d rows)\n", role, wb.Sheet(role), wb.Table(role).Len())
	}

	fmt.Fprintf(out, "  Columns (%s):\n", mapping.Table)
	for _, f := range mapping.Fields {
		if f.Found {
			fmt.Fprintf(out, "    %-7s -> %s\n", f.Field, f.Column)
		} else {
			fmt.Fprintf(out, "    %-7s -> %s (tried: %s)\n", f.Field, absentColumn, strings.Join(f.Candidates, ", "))
		}
	}

	if diag.Len() > 0 {
		fmt.Fprintf(out, "  Issues:\n")
		for _, issue := range diag.Issues() {
			fmt.Fprintf(out, "    - %s\n", issue.String())
		}
	}
}
