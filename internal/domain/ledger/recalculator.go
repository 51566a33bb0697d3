package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Recalculator restores the running-balance invariant from a boundary
// timestamp onward: for records ordered by (received_at, id) ascending,
// balance[i] = balance[i-1] + debit[i] - credit[i], seeded from the last
// record before the boundary (zero when history starts there).
type Recalculator struct {
	logger *zap.Logger
}

// NewRecalculator creates a Recalculator.
func NewRecalculator(logger *zap.Logger) *Recalculator {
	return &Recalculator{logger: logger}
}

// RecalculateFrom recomputes and persists the balance of every record at or
// after boundary, through the caller-supplied store. Processing is strictly
// sequential: each balance depends on the previous one, so records are never
// reordered, batched, or skipped. The first persistence error aborts the run
// and is returned unchanged; the enclosing transaction decides atomicity.
func (r *Recalculator) RecalculateFrom(ctx context.Context, store LedgerStore, boundary time.Time) error {
	running := decimal.Zero

	seed, err := store.LatestBefore(ctx, boundary)
	if err != nil {
		return err
	}
	if seed != nil {
		running = ParseAmount(seed.Balance)
	}

	invoices, err := store.ListFrom(ctx, boundary)
	if err != nil {
		return err
	}
	if len(invoices) == 0 {
		return nil
	}

	for _, invoice := range invoices {
		running = running.Add(invoice.Delta())
		if err := store.UpdateBalance(ctx, invoice.ID, FormatAmount(running)); err != nil {
			return err
		}
	}

	r.logger.Debug("ledger balances recalculated",
		zap.Time("boundary", boundary),
		zap.Int("records", len(invoices)),
		zap.String("closing_balance", FormatAmount(running)),
	)
	return nil
}

// EarlierOf returns the earlier of two timestamps. Callers that move a record
// must recalculate from the earlier of its old and new position so the change
// cascades through both affected ranges.
func EarlierOf(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
