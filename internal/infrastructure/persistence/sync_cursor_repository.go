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

// GormSyncCursorRepository implements SyncCursorRepository using GORM
type GormSyncCursorRepository struct {
	db *gorm.DB
}

// NewGormSyncCursorRepository creates a new GormSyncCursorRepository
func NewGormSyncCursorRepository(db *gorm.DB) *GormSyncCursorRepository {
	return &GormSyncCursorRepository{db: db}
}

// Get returns the cursor for a sync source
func (r *GormSyncCursorRepository) Get(ctx context.Context, source string) (*integration.SyncCursor, error) {
	var model models.SyncCursorModel
	if err := r.db.WithContext(ctx).
		Where("source = ?", source).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or replaces the cursor for a sync source
func (r *GormSyncCursorRepository) Save(ctx context.Context, cursor *integration.SyncCursor) error {
	model := models.SyncCursorModelFromDomain(cursor)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}},
		UpdateAll: true,
	}).Create(model).Error
}

// Ensure GormSyncCursorRepository implements SyncCursorRepository
var _ integration.SyncCursorRepository = (*GormSyncCursorRepository)(nil)
