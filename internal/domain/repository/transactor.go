package repository

import (
	"context"
	"errors"
)

// Transactor runs fn inside a single database transaction. Repositories
// called with the ctx handed to fn take part in that transaction.
// A nested call joins the outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ErrCommitUncertain is returned when COMMIT itself fails. The database may
// or may not have applied the transaction.
var ErrCommitUncertain = errors.New("transaction commit outcome unknown")
