package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
	"github.com/remitdesk/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements the read side of invoice access using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by primary key
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uint64) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List lists invoices with filtering and pagination
func (r *GormInvoiceRepository) List(ctx context.Context, filter ledger.InvoiceFilter) ([]*ledger.Invoice, int64, error) {
	var invoiceModels []models.InvoiceModel
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	order := "received_at DESC, id DESC"
	if filter.SortAsc {
		order = "received_at ASC, id ASC"
	}

	if err := query.Order(order).Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]*ledger.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = model.ToDomain()
	}
	return invoices, total, nil
}

// EarliestReceivedAt returns the received_at of the oldest live invoice,
// or nil when the ledger is empty
func (r *GormInvoiceRepository) EarliestReceivedAt(ctx context.Context) (*time.Time, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("received_at ASC, id ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := model.ReceivedAt
	return &t, nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter ledger.InvoiceFilter) *gorm.DB {
	if !filter.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if filter.ManualOnly {
		query = query.Where("is_manual = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"sender_name ILIKE ? OR recipient_name ILIKE ? OR transaction_id ILIKE ? OR pix_key ILIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if filter.DateFrom != nil {
		query = query.Where("received_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("received_at <= ?", *filter.DateTo)
	}
	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ ledger.InvoiceRepository = (*GormInvoiceRepository)(nil)
