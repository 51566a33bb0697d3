package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/infrastructure/persistence/models"
)

// GormExchangeTransactionRepository implements ExchangeTransactionRepository using GORM
type GormExchangeTransactionRepository struct {
	db *gorm.DB
}

// NewGormExchangeTransactionRepository creates a new GormExchangeTransactionRepository
func NewGormExchangeTransactionRepository(db *gorm.DB) *GormExchangeTransactionRepository {
	return &GormExchangeTransactionRepository{db: db}
}

// Upsert inserts or refreshes a transaction keyed by external_id.
// Trailing-window syncs replay the same entries every run, so an existing
// row is overwritten with the latest provider data.
func (r *GormExchangeTransactionRepository) Upsert(ctx context.Context, tx *integration.ExchangeTransaction) (bool, error) {
	var existing models.ExchangeTransactionModel
	err := r.db.WithContext(ctx).
		Select("id").
		Where("external_id = ?", tx.ExternalID).
		First(&existing).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, err
	}

	model := models.ExchangeTransactionModelFromDomain(tx)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"end_to_end_id", "subaccount", "operation", "value",
			"description", "transaction_date", "raw_details", "updated_at",
		}),
	}).Create(model)
	if result.Error != nil {
		return false, result.Error
	}

	tx.ID = model.ID
	return created, nil
}

// ListRecent returns the most recent transactions by transaction date
func (r *GormExchangeTransactionRepository) ListRecent(ctx context.Context, limit int) ([]*integration.ExchangeTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txModels []models.ExchangeTransactionModel
	if err := r.db.WithContext(ctx).
		Order("transaction_date DESC, id DESC").
		Limit(limit).
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	txs := make([]*integration.ExchangeTransaction, len(txModels))
	for i, model := range txModels {
		txs[i] = model.ToDomain()
	}
	return txs, nil
}

// Ensure GormExchangeTransactionRepository implements ExchangeTransactionRepository
var _ integration.ExchangeTransactionRepository = (*GormExchangeTransactionRepository)(nil)
