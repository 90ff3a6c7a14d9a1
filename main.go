// crimedb provisions a PostgreSQL database for the Boston crime-reports
// analytics team: schema, enum type, incidents table, CSV bulk load,
// privilege groups and users.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clu0501/database-for-crime-reports/cmd/load"
	"github.com/clu0501/database-for-crime-reports/cmd/provision"
	"github.com/clu0501/database-for-crime-reports/cmd/verify"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "crimedb",
	Short: "Provision the crime-reports PostgreSQL database",
	Long: `crimedb is a one-shot provisioning tool for the crime-reports database.

It creates the crimes schema, the day_of_week enum type and the
boston_crimes table, bulk-loads incident CSV data over the COPY protocol,
locks down default public privileges, and sets up the readonly/readwrite
groups with their data_analyst and data_scientist users.

Connection and credentials come from the environment (CRIMEDB_* variables
or a .env file); see each command's help for details.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		initLogger(logLevel)
	}

	rootCmd.AddCommand(provision.NewProvisionCommand())
	rootCmd.AddCommand(load.NewLoadCommand())
	rootCmd.AddCommand(verify.NewVerifyCommand())
}

func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
