package provision

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/clu0501/database-for-crime-reports/crimeschema"
)

func TestEnsureSchema(t *testing.T) {
	c := qt.New(t)
	conn := newFakeConn()

	err := EnsureSchema("crimes").Run(context.Background(), conn, discardLogger())

	c.Assert(err, qt.IsNil)
	c.Assert(conn.writer.statements, qt.DeepEquals, []string{
		`CREATE SCHEMA IF NOT EXISTS "crimes";`,
	})
}

func TestEnsureEnum(t *testing.T) {
	t.Run("creates the enum when absent", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()

		err := EnsureEnum(crimeschema.DayOfWeekEnum("crimes")).Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.IsNil)
		c.Assert(len(conn.writer.statements), qt.Equals, 1)
		c.Assert(conn.writer.statements[0], qt.Contains, `CREATE TYPE "crimes"."day_of_week" AS ENUM`)
	})

	t.Run("skips creation when present", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()
		conn.reader.enums["day_of_week"] = true

		err := EnsureEnum(crimeschema.DayOfWeekEnum("crimes")).Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.IsNil)
		c.Assert(len(conn.writer.statements), qt.Equals, 0)
	})
}

func TestRevokePublic(t *testing.T) {
	c := qt.New(t)
	conn := newFakeConn()

	err := RevokePublic().Run(context.Background(), conn, discardLogger())

	c.Assert(err, qt.IsNil)
	c.Assert(conn.writer.statements, qt.DeepEquals, []string{
		`REVOKE ALL ON SCHEMA "public" FROM PUBLIC;`,
		`REVOKE ALL ON DATABASE "crime_db" FROM PUBLIC;`,
	})
}

func TestEnsureGroups(t *testing.T) {
	t.Run("creates groups and applies grants", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()

		err := EnsureGroups("crimes", crimeschema.Groups()).Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.IsNil)
		c.Assert(conn.writer.statements, qt.DeepEquals, []string{
			`CREATE ROLE "readonly" WITH NOLOGIN NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT NOREPLICATION;`,
			`GRANT CONNECT ON DATABASE "crime_db" TO "readonly";`,
			`GRANT USAGE ON SCHEMA "crimes" TO "readonly";`,
			`GRANT SELECT ON ALL TABLES IN SCHEMA "crimes" TO "readonly";`,
			`CREATE ROLE "readwrite" WITH NOLOGIN NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT NOREPLICATION;`,
			`GRANT CONNECT ON DATABASE "crime_db" TO "readwrite";`,
			`GRANT USAGE ON SCHEMA "crimes" TO "readwrite";`,
			`GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA "crimes" TO "readwrite";`,
		})
	})

	t.Run("existing groups are not recreated but grants reapply", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()
		conn.reader.roles["readonly"] = true
		conn.reader.roles["readwrite"] = true

		err := EnsureGroups("crimes", crimeschema.Groups()).Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.IsNil)
		for _, stmt := range conn.writer.statements {
			c.Assert(stmt, qt.Not(qt.Contains), "CREATE ROLE")
		}
		c.Assert(len(conn.writer.statements), qt.Equals, 6)
	})
}

func TestEnsureUsers(t *testing.T) {
	t.Run("creates users with passwords and memberships", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()
		passwords := map[string]string{
			"data_analyst":   "s1",
			"data_scientist": "s2",
		}

		err := EnsureUsers(crimeschema.Users(), passwords).Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.IsNil)
		c.Assert(conn.writer.statements, qt.DeepEquals, []string{
			`CREATE ROLE "data_analyst" WITH LOGIN PASSWORD 's1' NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT NOREPLICATION;`,
			`GRANT "readonly" TO "data_analyst";`,
			`CREATE ROLE "data_scientist" WITH LOGIN PASSWORD 's2' NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT NOREPLICATION;`,
			`GRANT "readwrite" TO "data_scientist";`,
		})
	})

	t.Run("missing password is an error", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()

		err := EnsureUsers(crimeschema.Users(), map[string]string{"data_analyst": "s1"}).
			Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.ErrorMatches, "no password configured for user data_scientist")
	})
}

func TestSkipLoadSequenceProvisionsPrivileges(t *testing.T) {
	c := qt.New(t)
	conn := newFakeConn()
	conn.reader.grants = grantsFor("boston_crimes",
		"readonly", []string{"SELECT"},
		"readwrite", []string{"SELECT", "INSERT", "UPDATE", "DELETE"},
	)

	steps := Steps(Options{
		Schema:   "crimes",
		Table:    "boston_crimes",
		SkipLoad: true,
		Passwords: map[string]string{
			"data_analyst":   "s1",
			"data_scientist": "s2",
		},
	})

	// The whole sequence must complete against an empty table: the schema
	// and privilege steps cannot depend on loaded data.
	err := New(conn, steps).WithLogger(discardLogger()).Run(context.Background())

	c.Assert(err, qt.IsNil)
	c.Assert(conn.writer.statements, qt.Contains, `REVOKE ALL ON SCHEMA "public" FROM PUBLIC;`)
	c.Assert(conn.writer.statements, qt.Contains, `GRANT "readwrite" TO "data_scientist";`)
}

func TestDryRunRendersWithoutCatalogReads(t *testing.T) {
	c := qt.New(t)
	conn := newFakeConn()
	conn.reader = nil // any catalog read would panic
	conn.writer.SetDryRun(true)

	ctx := context.Background()
	c.Assert(EnsureEnum(crimeschema.DayOfWeekEnum("crimes")).Run(ctx, conn, discardLogger()), qt.IsNil)
	c.Assert(EnsureGroups("crimes", crimeschema.Groups()).Run(ctx, conn, discardLogger()), qt.IsNil)

	passwords := map[string]string{"data_analyst": "s1", "data_scientist": "s2"}
	c.Assert(EnsureUsers(crimeschema.Users(), passwords).Run(ctx, conn, discardLogger()), qt.IsNil)

	// Every create and grant is still rendered for the preview.
	c.Assert(conn.writer.statements[0], qt.Contains, `CREATE TYPE "crimes"."day_of_week" AS ENUM`)
	c.Assert(conn.writer.statements, qt.Contains,
		`CREATE ROLE "readonly" WITH NOLOGIN NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT NOREPLICATION;`)
	c.Assert(conn.writer.statements, qt.Contains, `GRANT "readonly" TO "data_analyst";`)
}

func TestLoadIncidentsDryRun(t *testing.T) {
	c := qt.New(t)
	conn := newFakeConn()
	conn.writer.SetDryRun(true)

	table := crimeschema.BostonCrimesTable("crimes", "boston_crimes")
	err := LoadIncidents("postgres://localhost/crime_db", table, "boston.csv").
		Run(context.Background(), conn, discardLogger())

	c.Assert(err, qt.IsNil)
	c.Assert(len(conn.writer.statements), qt.Equals, 0)
}

func TestVerifyStepsDryRun(t *testing.T) {
	c := qt.New(t)
	conn := newFakeConn()
	conn.writer.SetDryRun(true)

	table := crimeschema.BostonCrimesTable("crimes", "boston_crimes")

	// Both verify steps consult live state; in dry-run they are no-ops
	// since nothing has been provisioned.
	c.Assert(VerifyRows(table).Run(context.Background(), conn, discardLogger()), qt.IsNil)
	c.Assert(VerifyPrivileges(table, crimeschema.ExpectedGrants()).Run(context.Background(), conn, discardLogger()), qt.IsNil)
}

func TestVerifyPrivilegesStep(t *testing.T) {
	t.Run("passes on the exact expected grants", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()
		conn.reader.grants = grantsFor("boston_crimes",
			"readonly", []string{"SELECT"},
			"readwrite", []string{"SELECT", "INSERT", "UPDATE", "DELETE"},
		)

		table := crimeschema.BostonCrimesTable("crimes", "boston_crimes")
		err := VerifyPrivileges(table, crimeschema.ExpectedGrants()).Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.IsNil)
	})

	t.Run("fails when a privilege is missing", func(t *testing.T) {
		c := qt.New(t)
		conn := newFakeConn()
		conn.reader.grants = grantsFor("boston_crimes",
			"readonly", []string{"SELECT"},
			"readwrite", []string{"SELECT", "INSERT", "UPDATE"},
		)

		table := crimeschema.BostonCrimesTable("crimes", "boston_crimes")
		err := VerifyPrivileges(table, crimeschema.ExpectedGrants()).Run(context.Background(), conn, discardLogger())

		c.Assert(err, qt.ErrorMatches, ".*readwrite: missing DELETE.*")
	})
}
