package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Writer executes provisioning statements against a PostgreSQL database.
// When a transaction is open, statements run inside it; otherwise they are
// executed directly on the connection.
type Writer struct {
	db     *sql.DB
	tx     *sql.Tx
	dryRun bool
	logger *slog.Logger
}

// NewWriter creates a new PostgreSQL statement writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{
		db:     db,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the writer
func (w *Writer) WithLogger(l *slog.Logger) *Writer {
	w.logger = l
	return w
}

// ExecuteSQL executes a single SQL statement
func (w *Writer) ExecuteSQL(sqlStr string) error {
	if w.dryRun {
		w.logger.Info("Dry run, skipping statement", "sql", sqlStr)
		return nil
	}

	w.logger.Debug("Executing statement", "sql", sqlStr)

	var err error
	if w.tx != nil {
		_, err = w.tx.Exec(sqlStr)
	} else {
		_, err = w.db.Exec(sqlStr)
	}
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}

	return nil
}

// BeginTransaction starts a new transaction
func (w *Writer) BeginTransaction() error {
	if w.dryRun {
		return nil
	}
	if w.tx != nil {
		return fmt.Errorf("transaction already in progress")
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx

	return nil
}

// CommitTransaction commits the current transaction
func (w *Writer) CommitTransaction() error {
	if w.dryRun {
		return nil
	}
	if w.tx == nil {
		return fmt.Errorf("no transaction in progress")
	}

	err := w.tx.Commit()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RollbackTransaction rolls back the current transaction
func (w *Writer) RollbackTransaction() error {
	if w.dryRun {
		return nil
	}
	if w.tx == nil {
		return fmt.Errorf("no transaction in progress")
	}

	err := w.tx.Rollback()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// SetDryRun toggles dry-run mode. In dry-run mode statements are logged
// but not executed.
func (w *Writer) SetDryRun(dryRun bool) {
	w.dryRun = dryRun
}

// IsDryRun reports whether the writer is in dry-run mode
func (w *Writer) IsDryRun() bool {
	return w.dryRun
}
