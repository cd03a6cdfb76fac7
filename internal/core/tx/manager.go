// Package tx provides transaction management abstractions.
// Domain services depend on this interface; the PostgreSQL and in-memory
// stores provide implementations.
package tx

import (
	"context"
	"errors"
)

// ErrReadOnly is returned when a write is attempted inside ReadOnly.
var ErrReadOnly = errors.New("write attempted in a read-only transaction")

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, every write made through ctx is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// ReadOnly executes fn in a read-only transaction whose reads all see
	// the same committed snapshot. No write locks are taken.
	// Inside a running transaction fn joins it.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
