package integration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/shared"
)

// ExchangeSyncService pulls sub-account movements from the exchange over a
// trailing window and mirrors them locally. Like the bank sync, it re-fetches
// the same window every run so late amendments overwrite earlier pulls via
// the external id. The exchange feed never creates invoices; the ledger is
// driven by the bank statement alone.
type ExchangeSyncService struct {
	gateway      integration.ExchangeStatementGateway
	transactions integration.ExchangeTransactionRepository
	cursors      integration.SyncCursorRepository
	windowDays   int
	logger       *zap.Logger
}

// NewExchangeSyncService creates a new ExchangeSyncService
func NewExchangeSyncService(
	gateway integration.ExchangeStatementGateway,
	transactions integration.ExchangeTransactionRepository,
	cursors integration.SyncCursorRepository,
	windowDays int,
	logger *zap.Logger,
) *ExchangeSyncService {
	if windowDays < 1 {
		windowDays = 3
	}
	return &ExchangeSyncService{
		gateway:      gateway,
		transactions: transactions,
		cursors:      cursors,
		windowDays:   windowDays,
		logger:       logger,
	}
}

// Source names the cursor this service runs under
func (s *ExchangeSyncService) Source() string {
	return integration.SourceExchange
}

// Sync runs one full sync cycle and records the outcome on the cursor
func (s *ExchangeSyncService) Sync(ctx context.Context) (*SyncResult, error) {
	now := time.Now()
	result, err := s.run(ctx, now)

	cursor := s.loadCursor(ctx)
	if err != nil {
		cursor.MarkFailure(now, err)
	} else {
		cursor.MarkSuccess(now)
	}
	if saveErr := s.cursors.Save(ctx, cursor); saveErr != nil {
		s.logger.Error("failed to persist sync cursor", zap.Error(saveErr))
	}

	return result, err
}

func (s *ExchangeSyncService) run(ctx context.Context, now time.Time) (*SyncResult, error) {
	to := now
	from := now.AddDate(0, 0, -s.windowDays)

	txs, err := s.gateway.FetchTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{WindowFrom: from, WindowTo: to, Fetched: len(txs)}

	for _, tx := range txs {
		if tx.ExternalID == "" {
			continue
		}

		created, err := s.transactions.Upsert(ctx, tx)
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
		} else {
			result.Refreshed++
		}
	}

	s.logger.Info("exchange sync completed",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created))

	return result, nil
}

// Subaccounts lists the exchange sub-accounts with their current balances
func (s *ExchangeSyncService) Subaccounts(ctx context.Context) ([]*integration.ExchangeSubaccount, error) {
	return s.gateway.ListSubaccounts(ctx)
}

// Status returns the current cursor for the exchange source
func (s *ExchangeSyncService) Status(ctx context.Context) (*integration.SyncCursor, error) {
	cursor, err := s.cursors.Get(ctx, integration.SourceExchange)
	if err == shared.ErrNotFound {
		return &integration.SyncCursor{Source: integration.SourceExchange}, nil
	}
	return cursor, err
}

func (s *ExchangeSyncService) loadCursor(ctx context.Context) *integration.SyncCursor {
	cursor, err := s.cursors.Get(ctx, integration.SourceExchange)
	if err != nil {
		return &integration.SyncCursor{Source: integration.SourceExchange}
	}
	return cursor
}
