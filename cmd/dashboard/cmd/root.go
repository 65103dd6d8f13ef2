package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"revenue-dashboard/cmd/dashboard/config"
	"revenue-dashboard/pkg/errors"
	"revenue-dashboard/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app carries the state shared by the commands of one invocation
type app struct {
	viper    *viper.Viper
	cfgFile  string
	settings *config.Settings
	logger   logger.Logger
}

// NewRootCommand builds the command tree with its own viper instance
func NewRootCommand() *cobra.Command {
	a := &app{viper: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Revenue and forecast dashboard",
		Long: `Dashboard reads the revenue analysis workbook and the contracting
forecast workbook, normalizes them into client / period / amount records and
reports KPIs, the monthly revenue trend, the top clients and actual versus
forecast revenue per month.

Workbook paths are taken from --revenue-file and --forecast-file, or from the
RA_DATA_PATH and FORECAST_PATH environment variables (a .env file in the
working directory is honoured).

Examples:
  dashboard report --revenue-file revenue.xlsx --forecast-file forecast.xlsx
  dashboard report --clients "Acme,Globex" --start-date 2025-01-01 --end-date 2025-06-30
  dashboard report --output-format csv --dataset top-clients --output-file top.csv
  dashboard report --watch --interval 10s
  dashboard sheets`,
		Version:           getVersionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (optional, yaml/json/toml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.StringP("revenue-file", "r", "", "path to the revenue analysis workbook (env RA_DATA_PATH)")
	flags.StringP("forecast-file", "F", "", "path to the contracting forecast workbook (env FORECAST_PATH)")

	_ = a.viper.BindPFlag(config.KeyVerbose, flags.Lookup("verbose"))
	_ = a.viper.BindPFlag(config.KeyRevenueFile, flags.Lookup("revenue-file"))
	_ = a.viper.BindPFlag(config.KeyForecastFile, flags.Lookup("forecast-file"))

	rootCmd.AddCommand(newReportCommand(a))
	rootCmd.AddCommand(newSheetsCommand(a))

	return rootCmd
}

// Execute runs the command tree and returns the process exit code
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		return NewCLIErrorHandler(rootCmd.ErrOrStderr(), rootCmd.PersistentFlags().Changed("verbose")).HandleError(err)
	}
	return 0
}

// initConfig reads .env, the environment and the optional config file, then
// installs the configured global logger
func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	// A missing .env is the common case
	_ = godotenv.Load()

	if err := config.BindEnvironment(a.viper); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "environment", err.Error(), err)
	}

	if a.cfgFile != "" {
		a.viper.SetConfigFile(a.cfgFile)
		if err := a.viper.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", a.cfgFile, err).
				WithSuggestion("check the config file path and syntax")
		}
	}

	settings, err := config.Load(a.viper)
	if err != nil {
		return errors.WrapIfNeeded(err, errors.CategoryConfiguration, errors.CodeInvalidConfig,
			fmt.Sprintf("invalid configuration: %v", err))
	}
	a.settings = settings

	log, err := logger.NewLogger(settings.Log)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", settings.Log, err)
	}
	logger.SetGlobalLogger(log)
	a.logger = log.WithComponent("cli")

	if a.cfgFile != "" {
		a.logger.WithField("config", a.viper.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
