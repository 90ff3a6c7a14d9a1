package load

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/clu0501/database-for-crime-reports/config"
	"github.com/clu0501/database-for-crime-reports/dbschema"
	"github.com/clu0501/database-for-crime-reports/provision"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk-load the incident CSV into an existing table",
	Long: `Bulk-load the incident CSV via the COPY protocol.

The table is created first when absent. The load is all-or-nothing: a
duplicate incident_number aborts the COPY and leaves the table unchanged.

Examples:
  crimedb load --csv boston_crimes.csv`,
	RunE: loadCommand,
}

const csvFlag = "csv"

var loadFlags = map[string]cobraflags.Flag{
	csvFlag: &cobraflags.StringFlag{
		Name:  csvFlag,
		Value: "",
		Usage: "Path to the incident CSV to bulk-load (overrides CRIMEDB_CSV_PATH)",
	},
}

// NewLoadCommand creates the load command
func NewLoadCommand() *cobra.Command {
	cobraflags.RegisterMap(loadCmd, loadFlags)
	return loadCmd
}

func loadCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := loadFlags[csvFlag].GetString(); v != "" {
		cfg.CSVPath = v
	}
	if cfg.CSVPath == "" {
		return fmt.Errorf("no CSV path given: set --csv or CRIMEDB_CSV_PATH")
	}

	conn, err := dbschema.ConnectToDatabase(cfg.DatabaseURL, cfg.Schema)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	opts := provision.Options{
		DatabaseURL: cfg.DatabaseURL,
		Schema:      cfg.Schema,
		Table:       cfg.Table,
		CSVPath:     cfg.CSVPath,
	}

	steps := provision.LoadSteps(opts)
	return provision.New(conn, steps).Run(cmd.Context())
}
