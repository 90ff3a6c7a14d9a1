// Package dbschema provides the database connection layer used by the
// provisioning tool. It wraps database/sql over the pgx stdlib driver and
// exposes a reader over the system catalogs and a writer for executing
// provisioning statements.
package dbschema

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver

	"github.com/clu0501/database-for-crime-reports/dbschema/postgres"
	"github.com/clu0501/database-for-crime-reports/dbschema/types"
)

// DatabaseConnection wraps a database connection together with its
// schema reader, statement writer and connection metadata.
type DatabaseConnection struct {
	db     *sql.DB
	info   types.DBInfo
	reader types.SchemaReader
	writer types.SchemaWriter
}

// ConnectToDatabase establishes a connection to the PostgreSQL server
// identified by dbURL and scopes catalog reads to the given schema.
// Only postgres:// and postgresql:// URLs are supported.
func ConnectToDatabase(dbURL, schema string) (*DatabaseConnection, error) {
	dialect, err := dialectFromURL(dbURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", removePostgresPoolParams(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var version, database string
	if err := db.QueryRow("SELECT version(), current_database()").Scan(&version, &database); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read server metadata: %w", err)
	}

	if schema == "" {
		schema = "public"
	}

	return &DatabaseConnection{
		db: db,
		info: types.DBInfo{
			Dialect:  dialect,
			Version:  version,
			Database: database,
			Schema:   schema,
			URL:      dbURL,
		},
		reader: postgres.NewReader(db, schema),
		writer: postgres.NewWriter(db),
	}, nil
}

// Reader returns the schema reader for this connection
func (c *DatabaseConnection) Reader() types.SchemaReader {
	return c.reader
}

// Writer returns the statement writer for this connection
func (c *DatabaseConnection) Writer() types.SchemaWriter {
	return c.writer
}

// Info returns connection metadata
func (c *DatabaseConnection) Info() types.DBInfo {
	return c.info
}

// DB exposes the underlying database handle
func (c *DatabaseConnection) DB() *sql.DB {
	return c.db
}

// ExecContext executes a statement on the underlying connection
func (c *DatabaseConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the underlying connection
func (c *DatabaseConnection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the underlying connection
func (c *DatabaseConnection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// Close releases the connection. Safe to call on every exit path.
func (c *DatabaseConnection) Close() error {
	return c.db.Close()
}

func dialectFromURL(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database dialect: %q (only postgres is supported)", u.Scheme)
	}
}

// removePostgresPoolParams strips pgxpool-specific query parameters that the
// stdlib driver does not understand. Returns the input unchanged when it is
// not a parseable URL.
func removePostgresPoolParams(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}

	q := u.Query()
	q.Del("pool_max_conns")
	q.Del("pool_min_conns")
	u.RawQuery = q.Encode()

	return u.String()
}
