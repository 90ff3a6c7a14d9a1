package verify

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clu0501/database-for-crime-reports/config"
	"github.com/clu0501/database-for-crime-reports/dbschema"
	"github.com/clu0501/database-for-crime-reports/provision"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify loaded rows and privilege grants",
	Long: `Verify the provisioned database against the system catalogs.

Samples the incidents table for typed, duplicate-free rows and checks that
the readonly and readwrite groups hold exactly their expected privilege
sets. Exits non-zero on any mismatch.`,
	RunE: verifyCommand,
}

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	return verifyCmd
}

func verifyCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	conn, err := dbschema.ConnectToDatabase(cfg.DatabaseURL, cfg.Schema)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	steps := provision.VerifySteps(provision.Options{
		Schema: cfg.Schema,
		Table:  cfg.Table,
	})
	return provision.New(conn, steps).Run(cmd.Context())
}
