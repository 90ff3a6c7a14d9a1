package provision

import (
	"fmt"
	"log/slog"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/clu0501/database-for-crime-reports/config"
	"github.com/clu0501/database-for-crime-reports/dbschema"
	"github.com/clu0501/database-for-crime-reports/provision"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Run the full provisioning sequence",
	Long: `Provision the crime-reports database end to end.

Creates the crimes schema, the day_of_week enum type and the boston_crimes
table, bulk-loads the incident CSV, revokes default public privileges,
creates the readonly/readwrite groups and their users, and verifies the
result against the system catalogs.

Every step is idempotent, so the sequence can be re-run against a
partially provisioned server. With --skip-load (or no CSV configured)
the bulk load and its row verification are omitted; the schema and
privilege steps still run.

--dry-run logs every statement without executing it. It still connects
to the server, so the target database must already exist.

Examples:
  crimedb provision --csv boston_crimes.csv
  crimedb provision --skip-load          # schema and privileges only
  crimedb provision --dry-run            # log statements without executing`,
	RunE: provisionCommand,
}

const (
	csvFlag      = "csv"
	schemaFlag   = "schema"
	tableFlag    = "table"
	skipLoadFlag = "skip-load"
	dryRunFlag   = "dry-run"
)

var provisionFlags = map[string]cobraflags.Flag{
	csvFlag: &cobraflags.StringFlag{
		Name:  csvFlag,
		Value: "",
		Usage: "Path to the incident CSV to bulk-load (overrides CRIMEDB_CSV_PATH)",
	},
	schemaFlag: &cobraflags.StringFlag{
		Name:  schemaFlag,
		Value: "",
		Usage: "Schema to provision (overrides CRIMEDB_SCHEMA)",
	},
	tableFlag: &cobraflags.StringFlag{
		Name:  tableFlag,
		Value: "",
		Usage: "Incidents table name (overrides CRIMEDB_TABLE)",
	},
	skipLoadFlag: &cobraflags.BoolFlag{
		Name:  skipLoadFlag,
		Value: false,
		Usage: "Skip the CSV bulk-load step",
	},
	dryRunFlag: &cobraflags.BoolFlag{
		Name:  dryRunFlag,
		Value: false,
		Usage: "Log statements without executing them",
	},
}

// NewProvisionCommand creates the provision command
func NewProvisionCommand() *cobra.Command {
	cobraflags.RegisterMap(provisionCmd, provisionFlags)
	return provisionCmd
}

func provisionCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	if err := cfg.RequirePasswords(); err != nil {
		return err
	}

	dryRun := provisionFlags[dryRunFlag].GetBool()
	if !dryRun {
		created, err := dbschema.EnsureDatabase(cfg.MaintenanceURL(), cfg.DatabaseName())
		if err != nil {
			return fmt.Errorf("failed to ensure database exists: %w", err)
		}
		if created {
			slog.Info("Created database", "database", cfg.DatabaseName())
		}
	}

	conn, err := dbschema.ConnectToDatabase(cfg.DatabaseURL, cfg.Schema)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	conn.Writer().SetDryRun(dryRun)

	steps := provision.Steps(provision.Options{
		DatabaseURL: cfg.DatabaseURL,
		Schema:      cfg.Schema,
		Table:       cfg.Table,
		CSVPath:     cfg.CSVPath,
		SkipLoad:    provisionFlags[skipLoadFlag].GetBool(),
		Passwords:   cfg.Passwords,
	})

	return provision.New(conn, steps).Run(cmd.Context())
}

func applyFlagOverrides(cfg *config.Config) {
	if v := provisionFlags[csvFlag].GetString(); v != "" {
		cfg.CSVPath = v
	}
	if v := provisionFlags[schemaFlag].GetString(); v != "" {
		cfg.Schema = v
	}
	if v := provisionFlags[tableFlag].GetString(); v != "" {
		cfg.Table = v
	}
}
