package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/shared"
	"github.com/remitdesk/backend/internal/infrastructure/persistence/models"
)

// GormBankTransactionRepository implements BankTransactionRepository using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// Upsert inserts or refreshes a transaction keyed by end_to_end_id.
// Trailing-window syncs replay the same entries every run, so an existing
// row is overwritten with the latest partner data.
func (r *GormBankTransactionRepository) Upsert(ctx context.Context, tx *integration.BankTransaction) (bool, error) {
	var existing models.BankTransactionModel
	err := r.db.WithContext(ctx).
		Select("id").
		Where("end_to_end_id = ?", tx.EndToEndID).
		First(&existing).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, err
	}

	model := models.BankTransactionModelFromDomain(tx)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "end_to_end_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"transaction_id", "inclusion_date", "transaction_date", "type",
			"operation", "value", "title", "description",
			"payer_name", "payer_document", "raw_details", "updated_at",
		}),
	}).Create(model)
	if result.Error != nil {
		return false, result.Error
	}

	tx.ID = model.ID
	return created, nil
}

// FindByEndToEndID finds a transaction by its natural key
func (r *GormBankTransactionRepository) FindByEndToEndID(ctx context.Context, endToEndID string) (*integration.BankTransaction, error) {
	var model models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		Where("end_to_end_id = ?", endToEndID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRecent returns the most recent transactions by transaction date
func (r *GormBankTransactionRepository) ListRecent(ctx context.Context, limit int) ([]*integration.BankTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txModels []models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		Order("transaction_date DESC, id DESC").
		Limit(limit).
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	txs := make([]*integration.BankTransaction, len(txModels))
	for i, model := range txModels {
		txs[i] = model.ToDomain()
	}
	return txs, nil
}

// Ensure GormBankTransactionRepository implements BankTransactionRepository
var _ integration.BankTransactionRepository = (*GormBankTransactionRepository)(nil)
