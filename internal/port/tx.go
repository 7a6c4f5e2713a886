package port

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by lookups for missing rows.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned by conditional updates when the row
	// version changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

// Tx is one unit of work. Commit applies every write made through
// repositories bound to it; Rollback discards them. Rollback after a
// successful Commit is a no-op.
type Tx interface {
	Commit() error
	Rollback() error
}

// Store opens transactions. The core never opens a persistence session on
// its own: every read and write goes through a Tx obtained here.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
}
