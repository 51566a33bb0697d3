package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/schedule"
)

// CreateWithdrawalRequest carries the data for a new withdrawal schedule
type CreateWithdrawalRequest struct {
	SubaccountNumber string         `json:"subaccount_number" binding:"required"`
	SubaccountName   string         `json:"subaccount_name"`
	Type             string         `json:"type" binding:"required"`
	Timezone         string         `json:"timezone"`
	AtTime           string         `json:"at_time" binding:"required"`
	Date             string         `json:"date"`
	DaysOfWeek       []time.Weekday `json:"days_of_week"`
}

// WithdrawalService manages scheduled full-balance withdrawals
type WithdrawalService struct {
	repo   schedule.WithdrawalScheduleRepository
	logger *zap.Logger
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(repo schedule.WithdrawalScheduleRepository, logger *zap.Logger) *WithdrawalService {
	return &WithdrawalService{repo: repo, logger: logger}
}

// Create creates an active withdrawal schedule
func (s *WithdrawalService) Create(ctx context.Context, req CreateWithdrawalRequest) (*schedule.WithdrawalSchedule, error) {
	spec := schedule.Spec{
		Type:       schedule.Type(req.Type),
		Timezone:   req.Timezone,
		AtTime:     req.AtTime,
		Date:       req.Date,
		DaysOfWeek: req.DaysOfWeek,
	}

	w, err := schedule.NewWithdrawalSchedule(req.SubaccountNumber, req.SubaccountName, spec)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal schedule created",
		zap.String("schedule_id", w.ID.String()),
		zap.String("subaccount", w.SubaccountNumber))

	return w, nil
}

// Get returns a single withdrawal schedule
func (s *WithdrawalService) Get(ctx context.Context, id uuid.UUID) (*schedule.WithdrawalSchedule, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns withdrawal schedules, optionally only active ones
func (s *WithdrawalService) List(ctx context.Context, activeOnly bool) ([]*schedule.WithdrawalSchedule, error) {
	return s.repo.List(ctx, activeOnly)
}

// SetActive activates or deactivates a schedule
func (s *WithdrawalService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*schedule.WithdrawalSchedule, error) {
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		if err := w.Activate(time.Now()); err != nil {
			return nil, err
		}
	} else {
		w.Deactivate()
	}

	if err := s.repo.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Delete removes a withdrawal schedule
func (s *WithdrawalService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("withdrawal schedule deleted", zap.String("schedule_id", id.String()))
	return nil
}
