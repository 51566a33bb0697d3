package integration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
)

// SyncResult summarizes one bank sync run
type SyncResult struct {
	WindowFrom time.Time `json:"window_from"`
	WindowTo   time.Time `json:"window_to"`
	Fetched    int       `json:"fetched"`
	Created    int       `json:"created"`
	Refreshed  int       `json:"refreshed"`
	Ingested   int       `json:"ingested"`
}

// BankSyncService pulls partner statement entries over a trailing window and
// mirrors them locally. Re-fetching the same window every run makes the sync
// self-healing: late amendments from the partner overwrite earlier pulls via
// the end-to-end id.
//
// When ledger ingestion is on, credit entries that have no invoice yet become
// system-generated invoices, each inside its own unit of work with the
// balance repair the insert makes necessary.
type BankSyncService struct {
	gateway      integration.BankGateway
	transactions integration.BankTransactionRepository
	cursors      integration.SyncCursorRepository
	uow          ledger.UnitOfWork
	recalculator *ledger.Recalculator
	windowDays   int
	ingestLedger bool
	logger       *zap.Logger
}

// NewBankSyncService creates a new BankSyncService
func NewBankSyncService(
	gateway integration.BankGateway,
	transactions integration.BankTransactionRepository,
	cursors integration.SyncCursorRepository,
	uow ledger.UnitOfWork,
	recalculator *ledger.Recalculator,
	windowDays int,
	ingestLedger bool,
	logger *zap.Logger,
) *BankSyncService {
	if windowDays < 1 {
		windowDays = 3
	}
	return &BankSyncService{
		gateway:      gateway,
		transactions: transactions,
		cursors:      cursors,
		uow:          uow,
		recalculator: recalculator,
		windowDays:   windowDays,
		ingestLedger: ingestLedger,
		logger:       logger,
	}
}

// Sync runs one full sync cycle and records the outcome on the cursor
func (s *BankSyncService) Sync(ctx context.Context) (*SyncResult, error) {
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

func (s *BankSyncService) run(ctx context.Context, now time.Time) (*SyncResult, error) {
	to := now
	from := now.AddDate(0, 0, -s.windowDays)

	txs, err := s.gateway.FetchTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{WindowFrom: from, WindowTo: to, Fetched: len(txs)}

	for _, tx := range txs {
		if tx.EndToEndID == "" {
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

		if s.ingestLedger && tx.IsCredit() {
			ingested, err := s.ingest(ctx, tx)
			if err != nil {
				return result, err
			}
			if ingested {
				result.Ingested++
			}
		}
	}

	s.logger.Info("bank sync completed",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created),
		zap.Int("ingested", result.Ingested))

	return result, nil
}

// ingest turns a credited bank transaction into a ledger invoice unless one
// already exists for its end-to-end id
func (s *BankSyncService) ingest(ctx context.Context, tx *integration.BankTransaction) (bool, error) {
	var ingested bool
	err := s.uow.WithinLedger(ctx, func(ltx ledger.LedgerTx) error {
		existing, err := ltx.FindByTransactionID(ctx, tx.EndToEndID)
		if err != nil && err != shared.ErrNotFound {
			return err
		}
		if existing != nil {
			return nil
		}

		invoice := &ledger.Invoice{
			TransactionID: tx.EndToEndID,
			SenderName:    tx.PayerName,
			Amount:        tx.Value,
			Notes:         tx.Description,
			SourceGroup:   integration.SourceBank,
			IsManual:      false,
			ReceivedAt:    tx.TransactionDate,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		invoice.Normalize()

		if err := ltx.Create(ctx, invoice); err != nil {
			return err
		}
		ingested = true
		return s.recalculator.RecalculateFrom(ctx, ltx, invoice.ReceivedAt)
	})
	return ingested, err
}

// Source names the cursor this service runs under
func (s *BankSyncService) Source() string {
	return integration.SourceBank
}

// Status returns the current cursor for the bank source
func (s *BankSyncService) Status(ctx context.Context) (*integration.SyncCursor, error) {
	cursor, err := s.cursors.Get(ctx, integration.SourceBank)
	if err == shared.ErrNotFound {
		return &integration.SyncCursor{Source: integration.SourceBank}, nil
	}
	return cursor, err
}

func (s *BankSyncService) loadCursor(ctx context.Context) *integration.SyncCursor {
	cursor, err := s.cursors.Get(ctx, integration.SourceBank)
	if err != nil {
		return &integration.SyncCursor{Source: integration.SourceBank}
	}
	return cursor
}
