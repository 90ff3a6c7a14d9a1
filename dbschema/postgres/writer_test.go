package postgres

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWriterDryRun(t *testing.T) {
	c := qt.New(t)

	// A nil handle is safe here: dry-run statements never reach the database.
	w := NewWriter(nil)
	c.Assert(w.IsDryRun(), qt.IsFalse)

	w.SetDryRun(true)
	c.Assert(w.IsDryRun(), qt.IsTrue)
	c.Assert(w.ExecuteSQL(`CREATE SCHEMA IF NOT EXISTS "crimes";`), qt.IsNil)
	c.Assert(w.BeginTransaction(), qt.IsNil)
	c.Assert(w.CommitTransaction(), qt.IsNil)
	c.Assert(w.RollbackTransaction(), qt.IsNil)
}

func TestWriterTransactionState(t *testing.T) {
	t.Run("commit without transaction", func(t *testing.T) {
		c := qt.New(t)

		w := NewWriter(nil)
		c.Assert(w.CommitTransaction(), qt.ErrorMatches, "no transaction in progress")
	})

	t.Run("rollback without transaction", func(t *testing.T) {
		c := qt.New(t)

		w := NewWriter(nil)
		c.Assert(w.RollbackTransaction(), qt.ErrorMatches, "no transaction in progress")
	})
}
