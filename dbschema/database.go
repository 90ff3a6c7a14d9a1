package dbschema

import (
	"database/sql"
	"fmt"

	"github.com/clu0501/database-for-crime-reports/render"
)

// EnsureDatabase creates the named database when absent. CREATE DATABASE
// cannot run inside the target database, so this connects through the
// maintenance URL instead. Reports whether the database was created.
func EnsureDatabase(maintenanceURL, name string) (bool, error) {
	if _, err := dialectFromURL(maintenanceURL); err != nil {
		return false, err
	}

	db, err := sql.Open("pgx", removePostgresPoolParams(maintenanceURL))
	if err != nil {
		return false, fmt.Errorf("failed to open maintenance connection: %w", err)
	}
	defer db.Close()

	var exists bool
	err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	if _, err := db.Exec(render.CreateDatabase(name)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", name, err)
	}

	return true, nil
}
