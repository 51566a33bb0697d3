package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/remitdesk/backend/internal/domain/schedule"
	"github.com/remitdesk/backend/internal/domain/shared"
	"github.com/remitdesk/backend/internal/infrastructure/persistence/models"
)

// GormBroadcastScheduleRepository implements BroadcastScheduleRepository using GORM
type GormBroadcastScheduleRepository struct {
	db *gorm.DB
}

// NewGormBroadcastScheduleRepository creates a new GormBroadcastScheduleRepository
func NewGormBroadcastScheduleRepository(db *gorm.DB) *GormBroadcastScheduleRepository {
	return &GormBroadcastScheduleRepository{db: db}
}

// FindByID finds a broadcast schedule by ID
func (r *GormBroadcastScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.BroadcastSchedule, error) {
	var model models.BroadcastScheduleModel
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

// List lists broadcast schedules, optionally only active ones
func (r *GormBroadcastScheduleRepository) List(ctx context.Context, activeOnly bool) ([]*schedule.BroadcastSchedule, error) {
	var scheduleModels []models.BroadcastScheduleModel
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return broadcastsToDomain(scheduleModels), nil
}

// FindDue returns active schedules whose next run is at or before now
func (r *GormBroadcastScheduleRepository) FindDue(ctx context.Context, now time.Time) ([]*schedule.BroadcastSchedule, error) {
	var scheduleModels []models.BroadcastScheduleModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now).
		Order("next_run_at ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return broadcastsToDomain(scheduleModels), nil
}

// Create creates a new broadcast schedule
func (r *GormBroadcastScheduleRepository) Create(ctx context.Context, s *schedule.BroadcastSchedule) error {
	model := models.BroadcastScheduleModelFromDomain(s)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save persists all fields of an existing broadcast schedule
func (r *GormBroadcastScheduleRepository) Save(ctx context.Context, s *schedule.BroadcastSchedule) error {
	model := models.BroadcastScheduleModelFromDomain(s)
	result := r.db.WithContext(ctx).
		Model(&models.BroadcastScheduleModel{}).
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

// Delete removes a broadcast schedule
func (r *GormBroadcastScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.BroadcastScheduleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func broadcastsToDomain(scheduleModels []models.BroadcastScheduleModel) []*schedule.BroadcastSchedule {
	out := make([]*schedule.BroadcastSchedule, len(scheduleModels))
	for i, model := range scheduleModels {
		out[i] = model.ToDomain()
	}
	return out
}

// Ensure GormBroadcastScheduleRepository implements BroadcastScheduleRepository
var _ schedule.BroadcastScheduleRepository = (*GormBroadcastScheduleRepository)(nil)

// GormWithdrawalScheduleRepository implements WithdrawalScheduleRepository using GORM
type GormWithdrawalScheduleRepository struct {
	db *gorm.DB
}

// NewGormWithdrawalScheduleRepository creates a new GormWithdrawalScheduleRepository
func NewGormWithdrawalScheduleRepository(db *gorm.DB) *GormWithdrawalScheduleRepository {
	return &GormWithdrawalScheduleRepository{db: db}
}

// FindByID finds a withdrawal schedule by ID
func (r *GormWithdrawalScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.WithdrawalSchedule, error) {
	var model models.WithdrawalScheduleModel
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

// List lists withdrawal schedules, optionally only active ones
func (r *GormWithdrawalScheduleRepository) List(ctx context.Context, activeOnly bool) ([]*schedule.WithdrawalSchedule, error) {
	var scheduleModels []models.WithdrawalScheduleModel
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return withdrawalsToDomain(scheduleModels), nil
}

// FindDue returns active schedules whose next run is at or before now
func (r *GormWithdrawalScheduleRepository) FindDue(ctx context.Context, now time.Time) ([]*schedule.WithdrawalSchedule, error) {
	var scheduleModels []models.WithdrawalScheduleModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now).
		Order("next_run_at ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return withdrawalsToDomain(scheduleModels), nil
}

// Create creates a new withdrawal schedule
func (r *GormWithdrawalScheduleRepository) Create(ctx context.Context, s *schedule.WithdrawalSchedule) error {
	model := models.WithdrawalScheduleModelFromDomain(s)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save persists all fields of an existing withdrawal schedule
func (r *GormWithdrawalScheduleRepository) Save(ctx context.Context, s *schedule.WithdrawalSchedule) error {
	model := models.WithdrawalScheduleModelFromDomain(s)
	result := r.db.WithContext(ctx).
		Model(&models.WithdrawalScheduleModel{}).
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

// Delete removes a withdrawal schedule
func (r *GormWithdrawalScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.WithdrawalScheduleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func withdrawalsToDomain(scheduleModels []models.WithdrawalScheduleModel) []*schedule.WithdrawalSchedule {
	out := make([]*schedule.WithdrawalSchedule, len(scheduleModels))
	for i, model := range scheduleModels {
		out[i] = model.ToDomain()
	}
	return out
}

// Ensure GormWithdrawalScheduleRepository implements WithdrawalScheduleRepository
var _ schedule.WithdrawalScheduleRepository = (*GormWithdrawalScheduleRepository)(nil)
