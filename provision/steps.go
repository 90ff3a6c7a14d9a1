package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clu0501/database-for-crime-reports/crimeschema"
	"github.com/clu0501/database-for-crime-reports/loader"
	"github.com/clu0501/database-for-crime-reports/render"
)

// Options selects what the provisioning sequence operates on
type Options struct {
	DatabaseURL string
	Schema      string
	Table       string
	CSVPath     string
	SkipLoad    bool
	// Passwords maps user name to login password, sourced from external
	// configuration. Required unless only the schema steps run.
	Passwords map[string]string
}

// Steps returns the full provisioning sequence for the given options.
// The bulk load and its row verification run only when a CSV path is set
// and the load is not skipped; the privilege steps run either way.
func Steps(opts Options) []Step {
	table := crimeschema.BostonCrimesTable(opts.Schema, opts.Table)

	steps := []Step{
		EnsureSchema(opts.Schema),
		EnsureEnum(crimeschema.DayOfWeekEnum(opts.Schema)),
		EnsureTable(table),
	}
	if !opts.SkipLoad && opts.CSVPath != "" {
		steps = append(steps,
			LoadIncidents(opts.DatabaseURL, table, opts.CSVPath),
			VerifyRows(table),
		)
	}
	steps = append(steps,
		RevokePublic(),
		EnsureGroups(opts.Schema, crimeschema.Groups()),
		EnsureUsers(crimeschema.Users(), opts.Passwords),
		VerifyPrivileges(table, crimeschema.ExpectedGrants()),
	)
	return steps
}

// LoadSteps returns the load-only sequence: table creation, bulk load
// and row verification.
func LoadSteps(opts Options) []Step {
	table := crimeschema.BostonCrimesTable(opts.Schema, opts.Table)
	return []Step{
		EnsureTable(table),
		LoadIncidents(opts.DatabaseURL, table, opts.CSVPath),
		VerifyRows(table),
	}
}

// VerifySteps returns the verification-only sequence
func VerifySteps(opts Options) []Step {
	table := crimeschema.BostonCrimesTable(opts.Schema, opts.Table)
	return []Step{
		VerifyRows(table),
		VerifyPrivileges(table, crimeschema.ExpectedGrants()),
	}
}

// EnsureSchema creates the target schema when absent
func EnsureSchema(schema string) Step {
	return Step{
		Name: "ensure-schema",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			return conn.Writer().ExecuteSQL(render.CreateSchema(schema))
		},
	}
}

// EnsureEnum creates the enum type when absent. CREATE TYPE has no
// IF NOT EXISTS clause, so the catalog is checked first. Dry-run renders
// the statement without touching the catalog.
func EnsureEnum(enum crimeschema.Enum) Step {
	return Step{
		Name: "ensure-enum",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			if !conn.Writer().IsDryRun() {
				exists, err := conn.Reader().EnumExists(enum.Name)
				if err != nil {
					return err
				}
				if exists {
					logger.Info("Enum type already exists, skipping", "enum", enum.Name)
					return nil
				}
			}
			if err := conn.Writer().ExecuteSQL(render.CreateEnum(enum)); err != nil {
				return describeError(err)
			}
			return nil
		},
	}
}

// EnsureTable creates the incidents table when absent
func EnsureTable(table crimeschema.Table) Step {
	return Step{
		Name: "ensure-table",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			if err := conn.Writer().ExecuteSQL(render.CreateTable(table)); err != nil {
				return describeError(err)
			}
			return nil
		},
	}
}

// LoadIncidents bulk-loads the incident CSV into the table. The load is
// transactional on the server side: a duplicate incident_number aborts
// the COPY and leaves the table unchanged.
func LoadIncidents(dbURL string, table crimeschema.Table, csvPath string) Step {
	return Step{
		Name: "load-incidents",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			if conn.Writer().IsDryRun() {
				logger.Info("Dry run, skipping bulk load", "csv", csvPath)
				return nil
			}
			l := loader.New(dbURL).WithLogger(logger)
			if _, err := l.LoadFile(ctx, table, csvPath); err != nil {
				return describeError(err)
			}
			return nil
		},
	}
}

// VerifyRows samples the first rows of the table, checking that results
// are present, typed and free of duplicate incident numbers.
func VerifyRows(table crimeschema.Table) Step {
	return Step{
		Name: "verify-rows",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			if conn.Writer().IsDryRun() {
				return nil
			}
			return verifyRows(ctx, conn, table)
		},
	}
}

// RevokePublic removes the default privileges the implicit PUBLIC role
// holds on the public schema and on the database, so new roles inherit
// nothing.
func RevokePublic() Step {
	return Step{
		Name: "revoke-public",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			w := conn.Writer()
			if err := w.ExecuteSQL(render.RevokeAllOnSchema("public")); err != nil {
				return err
			}
			return w.ExecuteSQL(render.RevokeAllOnDatabase(conn.Info().Database))
		},
	}
}

// EnsureGroups creates the non-login privilege groups when absent and
// grants each its database, schema and table privileges. GRANT is
// idempotent, so grants are reapplied unconditionally.
func EnsureGroups(schema string, groups []crimeschema.Group) Step {
	return Step{
		Name: "ensure-groups",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			w := conn.Writer()
			database := conn.Info().Database

			for _, group := range groups {
				if err := ensureRole(conn, logger, group.Name, render.CreateGroup(group.Name)); err != nil {
					return err
				}
				if err := w.ExecuteSQL(render.GrantConnect(database, group.Name)); err != nil {
					return err
				}
				if err := w.ExecuteSQL(render.GrantUsage(schema, group.Name)); err != nil {
					return err
				}
				if err := w.ExecuteSQL(render.GrantTablePrivileges(group.Privileges, schema, group.Name)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// EnsureUsers creates the login users when absent and grants each its
// group membership. Passwords come from the passwords map; a missing
// password is an error.
func EnsureUsers(users []crimeschema.User, passwords map[string]string) Step {
	return Step{
		Name: "ensure-users",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			for _, user := range users {
				password, ok := passwords[user.Name]
				if !ok || password == "" {
					return fmt.Errorf("no password configured for user %s", user.Name)
				}
				if err := ensureRole(conn, logger, user.Name, render.CreateUser(user.Name, password)); err != nil {
					return err
				}
				if err := conn.Writer().ExecuteSQL(render.GrantMembership(user.Group, user.Name)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// VerifyPrivileges reads the catalog grants for the privilege groups and
// asserts each holds exactly its expected privilege set on the table.
func VerifyPrivileges(table crimeschema.Table, expected map[string][]string) Step {
	return Step{
		Name: "verify-privileges",
		Run: func(ctx context.Context, conn Connection, logger *slog.Logger) error {
			if conn.Writer().IsDryRun() {
				return nil
			}

			grantees := make([]string, 0, len(expected))
			for grantee := range expected {
				grantees = append(grantees, grantee)
			}

			grants, err := conn.Reader().GrantsForRoles(grantees...)
			if err != nil {
				return err
			}
			return comparePrivileges(grants, table.Name, expected)
		},
	}
}

// ensureRole creates a role via createSQL unless it already exists.
// Existence checks keep reruns quiet; a concurrent creation between check
// and create still surfaces as a duplicate-object error. Dry-run renders
// the statement without touching the catalog.
func ensureRole(conn Connection, logger *slog.Logger, name, createSQL string) error {
	if !conn.Writer().IsDryRun() {
		exists, err := conn.Reader().RoleExists(name)
		if err != nil {
			return err
		}
		if exists {
			logger.Info("Role already exists, skipping", "role", name)
			return nil
		}
	}
	if err := conn.Writer().ExecuteSQL(createSQL); err != nil {
		return describeError(err)
	}
	return nil
}
