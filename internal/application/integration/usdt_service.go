package integration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
)

// ConfirmUSDTRequest identifies the transfer an operator expects to see
type ConfirmUSDTRequest struct {
	TxID      string `json:"tx_id" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// USDTService verifies operator-reported USDT settlements against the chain.
// Every verification attempt, confirmed or not, is recorded on the usdt sync
// cursor so operators can see when the chain was last consulted.
type USDTService struct {
	verifier integration.USDTVerifier
	cursors  integration.SyncCursorRepository
	logger   *zap.Logger
}

// NewUSDTService creates a new USDTService
func NewUSDTService(verifier integration.USDTVerifier, cursors integration.SyncCursorRepository, logger *zap.Logger) *USDTService {
	return &USDTService{verifier: verifier, cursors: cursors, logger: logger}
}

// Confirm checks that the reported transaction is a successful transfer of
// the expected amount to the expected address
func (s *USDTService) Confirm(ctx context.Context, req ConfirmUSDTRequest) (*integration.TransferCheck, error) {
	amount := ledger.ParseAmount(req.Amount)
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expected transfer amount must be a positive number")
	}

	check, err := s.verifier.ConfirmTransfer(ctx, req.TxID, req.Recipient, amount)
	s.recordAttempt(ctx, err)
	if err != nil {
		return nil, err
	}

	if !check.Confirmed {
		s.logger.Warn("usdt transfer not confirmed",
			zap.String("tx_id", req.TxID),
			zap.String("reason", check.Reason))
	}

	return check, nil
}

// Status returns the current cursor for the usdt source
func (s *USDTService) Status(ctx context.Context) (*integration.SyncCursor, error) {
	cursor, err := s.cursors.Get(ctx, integration.SourceUSDT)
	if err == shared.ErrNotFound {
		return &integration.SyncCursor{Source: integration.SourceUSDT}, nil
	}
	return cursor, err
}

func (s *USDTService) recordAttempt(ctx context.Context, verifyErr error) {
	cursor, err := s.cursors.Get(ctx, integration.SourceUSDT)
	if err != nil {
		cursor = &integration.SyncCursor{Source: integration.SourceUSDT}
	}

	now := time.Now()
	if verifyErr != nil {
		cursor.MarkFailure(now, verifyErr)
	} else {
		cursor.MarkSuccess(now)
	}
	if saveErr := s.cursors.Save(ctx, cursor); saveErr != nil {
		s.logger.Error("failed to persist sync cursor", zap.Error(saveErr))
	}
}
