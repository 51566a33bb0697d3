package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
	"github.com/remitdesk/backend/internal/infrastructure/persistence/models"

	"time"
)

// ledgerLockKey identifies the advisory lock serializing balance
// recalculations. Two concurrent recalculations interleaving their
// balance writes would corrupt the running-balance chain.
const ledgerLockKey = 0x4c454447 // "LEDG"

// GormLedgerStore implements ledger.LedgerTx over a single *gorm.DB handle.
// When that handle is a transaction, every operation joins it.
// Soft-deleted invoices are invisible to the balance queries.
type GormLedgerStore struct {
	db *gorm.DB
}

// NewGormLedgerStore creates a ledger store over the given handle
func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

// LatestBefore returns the invoice with the greatest (received_at, id)
// strictly before t
func (s *GormLedgerStore) LatestBefore(ctx context.Context, t time.Time) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := s.db.WithContext(ctx).
		Where("is_deleted = ? AND received_at < ?", false, t).
		Order("received_at DESC, id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListFrom returns all invoices with received_at >= t ordered by (received_at, id)
func (s *GormLedgerStore) ListFrom(ctx context.Context, t time.Time) ([]*ledger.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := s.db.WithContext(ctx).
		Where("is_deleted = ? AND received_at >= ?", false, t).
		Order("received_at ASC, id ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]*ledger.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = model.ToDomain()
	}
	return invoices, nil
}

// UpdateBalance persists a recomputed balance onto a single invoice
func (s *GormLedgerStore) UpdateBalance(ctx context.Context, id uint64, balance string) error {
	return s.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}

// FindByID finds an invoice by primary key, including soft-deleted rows
func (s *GormLedgerStore) FindByID(ctx context.Context, id uint64) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransactionID finds an invoice by its external transaction id
func (s *GormLedgerStore) FindByTransactionID(ctx context.Context, transactionID string) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new invoice and backfills the generated id
func (s *GormLedgerStore) Create(ctx context.Context, invoice *ledger.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	invoice.ID = model.ID
	return nil
}

// Update saves all columns of an existing invoice
func (s *GormLedgerStore) Update(ctx context.Context, invoice *ledger.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := s.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", model.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an invoice row permanently
func (s *GormLedgerStore) Delete(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ ledger.LedgerTx = (*GormLedgerStore)(nil)

// GormUnitOfWork implements ledger.UnitOfWork over a database transaction.
// Each unit takes a transaction-scoped advisory lock so concurrent balance
// recalculations over the same ledger run one at a time; the lock releases
// automatically on commit or rollback.
type GormUnitOfWork struct {
	db *Database
}

// NewGormUnitOfWork creates a unit-of-work factory
func NewGormUnitOfWork(db *Database) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// WithinLedger runs fn against a transaction-scoped ledger store
func (u *GormUnitOfWork) WithinLedger(ctx context.Context, fn func(tx ledger.LedgerTx) error) error {
	return u.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", ledgerLockKey).Error; err != nil {
			return err
		}
		return fn(NewGormLedgerStore(tx))
	})
}

var _ ledger.UnitOfWork = (*GormUnitOfWork)(nil)
