package integration

import "context"

// BankTransactionRepository persists partner statement entries.
type BankTransactionRepository interface {
	// Upsert inserts or refreshes a transaction keyed by EndToEndID.
	// It reports whether a new row was created.
	Upsert(ctx context.Context, tx *BankTransaction) (created bool, err error)
	FindByEndToEndID(ctx context.Context, endToEndID string) (*BankTransaction, error)
	ListRecent(ctx context.Context, limit int) ([]*BankTransaction, error)
}

// ExchangeTransactionRepository persists exchange sub-account movements.
type ExchangeTransactionRepository interface {
	// Upsert inserts or refreshes a transaction keyed by ExternalID.
	// It reports whether a new row was created.
	Upsert(ctx context.Context, tx *ExchangeTransaction) (created bool, err error)
	ListRecent(ctx context.Context, limit int) ([]*ExchangeTransaction, error)
}

// SyncCursorRepository persists per-source sync state.
type SyncCursorRepository interface {
	Get(ctx context.Context, source string) (*SyncCursor, error)
	Save(ctx context.Context, cursor *SyncCursor) error
}
