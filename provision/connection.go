package provision

import (
	"context"
	"database/sql"

	"github.com/clu0501/database-for-crime-reports/dbschema/types"
)

// Connection is the slice of the database connection that provisioning
// steps operate on. *dbschema.DatabaseConnection satisfies it.
type Connection interface {
	Info() types.DBInfo
	Reader() types.SchemaReader
	Writer() types.SchemaWriter
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
