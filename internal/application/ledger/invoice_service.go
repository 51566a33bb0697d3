package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
)

// CreateInvoiceRequest carries the data for a new ledger record
type CreateInvoiceRequest struct {
	TransactionID string     `json:"transaction_id"`
	SenderName    string     `json:"sender_name"`
	RecipientName string     `json:"recipient_name"`
	PixKey        string     `json:"pix_key"`
	Amount        string     `json:"amount"`
	Credit        string     `json:"credit"`
	Notes         string     `json:"notes"`
	SourceGroup   string     `json:"source_group"`
	IsManual      bool       `json:"is_manual"`
	ReceivedAt    *time.Time `json:"received_at"`
}

// UpdateInvoiceRequest carries the editable fields of a ledger record
type UpdateInvoiceRequest struct {
	SenderName    *string    `json:"sender_name"`
	RecipientName *string    `json:"recipient_name"`
	PixKey        *string    `json:"pix_key"`
	Amount        *string    `json:"amount"`
	Credit        *string    `json:"credit"`
	Notes         *string    `json:"notes"`
	ReceivedAt    *time.Time `json:"received_at"`
}

// InvoiceService maintains the invoice ledger. Every mutation runs inside a
// unit of work together with the balance recalculation it makes necessary,
// so readers never observe a record whose running balance is stale.
type InvoiceService struct {
	uow          ledger.UnitOfWork
	invoiceRepo  ledger.InvoiceRepository
	recalculator *ledger.Recalculator
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	uow ledger.UnitOfWork,
	invoiceRepo ledger.InvoiceRepository,
	recalculator *ledger.Recalculator,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		uow:          uow,
		invoiceRepo:  invoiceRepo,
		recalculator: recalculator,
		logger:       logger,
	}
}

// Create inserts a new invoice and recalculates balances from its position
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*ledger.Invoice, error) {
	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	invoice := &ledger.Invoice{
		TransactionID: req.TransactionID,
		SenderName:    req.SenderName,
		RecipientName: req.RecipientName,
		PixKey:        req.PixKey,
		Amount:        req.Amount,
		Credit:        req.Credit,
		Notes:         req.Notes,
		SourceGroup:   req.SourceGroup,
		IsManual:      req.IsManual,
		ReceivedAt:    receivedAt,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	invoice.Normalize()

	err := s.uow.WithinLedger(ctx, func(tx ledger.LedgerTx) error {
		if invoice.TransactionID != "" {
			existing, err := tx.FindByTransactionID(ctx, invoice.TransactionID)
			if err != nil && err != shared.ErrNotFound {
				return err
			}
			if existing != nil {
				return shared.NewDomainError("DUPLICATE_TRANSACTION", "An invoice with this transaction id already exists")
			}
		}
		if err := tx.Create(ctx, invoice); err != nil {
			return err
		}
		return s.recalculator.RecalculateFrom(ctx, tx, invoice.ReceivedAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.Uint64("invoice_id", invoice.ID),
		zap.String("transaction_id", invoice.TransactionID),
		zap.Bool("is_manual", invoice.IsManual))

	return s.invoiceRepo.FindByID(ctx, invoice.ID)
}

// Update edits an invoice and recalculates from the earlier of its old and
// new positions, so a record moved backward in time repairs both regions
func (s *InvoiceService) Update(ctx context.Context, id uint64, req UpdateInvoiceRequest) (*ledger.Invoice, error) {
	err := s.uow.WithinLedger(ctx, func(tx ledger.LedgerTx) error {
		invoice, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if invoice.IsDeleted {
			return shared.ErrNotFound
		}

		oldReceivedAt := invoice.ReceivedAt

		if req.SenderName != nil {
			invoice.SenderName = *req.SenderName
		}
		if req.RecipientName != nil {
			invoice.RecipientName = *req.RecipientName
		}
		if req.PixKey != nil {
			invoice.PixKey = *req.PixKey
		}
		if req.Amount != nil {
			invoice.Amount = *req.Amount
		}
		if req.Credit != nil {
			invoice.Credit = *req.Credit
		}
		if req.Notes != nil {
			invoice.Notes = *req.Notes
		}
		if req.ReceivedAt != nil {
			invoice.ReceivedAt = *req.ReceivedAt
		}
		invoice.Normalize()
		invoice.UpdatedAt = time.Now()

		if err := tx.Update(ctx, invoice); err != nil {
			return err
		}
		return s.recalculator.RecalculateFrom(ctx, tx, ledger.EarlierOf(oldReceivedAt, invoice.ReceivedAt))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice updated", zap.Uint64("invoice_id", id))

	return s.invoiceRepo.FindByID(ctx, id)
}

// SoftDelete hides an invoice from the ledger and repairs balances from its
// position. The row itself stays for audit.
func (s *InvoiceService) SoftDelete(ctx context.Context, id uint64) error {
	err := s.uow.WithinLedger(ctx, func(tx ledger.LedgerTx) error {
		invoice, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if invoice.IsDeleted {
			return shared.ErrNotFound
		}

		invoice.IsDeleted = true
		invoice.UpdatedAt = time.Now()

		if err := tx.Update(ctx, invoice); err != nil {
			return err
		}
		return s.recalculator.RecalculateFrom(ctx, tx, invoice.ReceivedAt)
	})
	if err != nil {
		return err
	}

	s.logger.Info("invoice soft-deleted", zap.Uint64("invoice_id", id))
	return nil
}

// Delete removes an invoice permanently and repairs balances from its position
func (s *InvoiceService) Delete(ctx context.Context, id uint64) error {
	err := s.uow.WithinLedger(ctx, func(tx ledger.LedgerTx) error {
		invoice, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		return s.recalculator.RecalculateFrom(ctx, tx, invoice.ReceivedAt)
	})
	if err != nil {
		return err
	}

	s.logger.Info("invoice deleted", zap.Uint64("invoice_id", id))
	return nil
}

// Get returns a single invoice
func (s *InvoiceService) Get(ctx context.Context, id uint64) (*ledger.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, id)
}

// List returns invoices matching the filter with a total count
func (s *InvoiceService) List(ctx context.Context, filter ledger.InvoiceFilter) ([]*ledger.Invoice, int64, error) {
	return s.invoiceRepo.List(ctx, filter)
}

// Recalculate rebuilds every running balance from the start of the ledger.
// Used by operators after bulk changes outside the service.
func (s *InvoiceService) Recalculate(ctx context.Context) error {
	earliest, err := s.invoiceRepo.EarliestReceivedAt(ctx)
	if err != nil {
		return err
	}
	if earliest == nil {
		return nil
	}

	err = s.uow.WithinLedger(ctx, func(tx ledger.LedgerTx) error {
		return s.recalculator.RecalculateFrom(ctx, tx, *earliest)
	})
	if err != nil {
		return err
	}

	s.logger.Info("full ledger recalculation completed", zap.Time("from", *earliest))
	return nil
}
