package ledger

import (
	"context"
	"time"
)

// LedgerStore is the unit-of-work handle the Recalculator operates through.
// All three operations run against the caller's active transaction; the store
// never commits or rolls back on its own. Soft-deleted records are invisible
// through this interface.
type LedgerStore interface {
	// LatestBefore returns the single record with the greatest (received_at, id)
	// strictly before t, or nil when no such record exists.
	LatestBefore(ctx context.Context, t time.Time) (*Invoice, error)
	// ListFrom returns all records with received_at >= t, ordered ascending by
	// (received_at, id).
	ListFrom(ctx context.Context, t time.Time) ([]*Invoice, error)
	// UpdateBalance persists a recomputed balance onto a single record.
	UpdateBalance(ctx context.Context, id uint64, balance string) error
}

// LedgerTx extends LedgerStore with the mutations invoice maintenance needs
// inside the same transaction as a recalculation.
type LedgerTx interface {
	LedgerStore
	FindByID(ctx context.Context, id uint64) (*Invoice, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*Invoice, error)
	Create(ctx context.Context, invoice *Invoice) error
	Update(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, id uint64) error
}

// UnitOfWork hands callers a transaction-scoped LedgerTx. Implementations
// serialize concurrent units of work over the same ledger (the running-balance
// invariant does not survive interleaved recalculations).
type UnitOfWork interface {
	WithinLedger(ctx context.Context, fn func(tx LedgerTx) error) error
}

// InvoiceRepository provides the read side used outside of transactions.
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint64) (*Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int64, error)
	EarliestReceivedAt(ctx context.Context) (*time.Time, error)
}
