package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/schedule"
)

// CreateBroadcastRequest carries the data for a new broadcast schedule
type CreateBroadcastRequest struct {
	Name       string         `json:"name" binding:"required"`
	Message    string         `json:"message" binding:"required"`
	GroupIDs   []string       `json:"group_ids" binding:"required"`
	Type       string         `json:"type" binding:"required"`
	Timezone   string         `json:"timezone"`
	AtTime     string         `json:"at_time" binding:"required"`
	Date       string         `json:"date"`
	DaysOfWeek []time.Weekday `json:"days_of_week"`
}

// BroadcastService manages broadcast schedules
type BroadcastService struct {
	repo   schedule.BroadcastScheduleRepository
	logger *zap.Logger
}

// NewBroadcastService creates a new BroadcastService
func NewBroadcastService(repo schedule.BroadcastScheduleRepository, logger *zap.Logger) *BroadcastService {
	return &BroadcastService{repo: repo, logger: logger}
}

// Create creates an active broadcast schedule
func (s *BroadcastService) Create(ctx context.Context, req CreateBroadcastRequest) (*schedule.BroadcastSchedule, error) {
	spec := schedule.Spec{
		Type:       schedule.Type(req.Type),
		Timezone:   req.Timezone,
		AtTime:     req.AtTime,
		Date:       req.Date,
		DaysOfWeek: req.DaysOfWeek,
	}

	b, err := schedule.NewBroadcastSchedule(req.Name, req.Message, req.GroupIDs, spec)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("broadcast schedule created",
		zap.String("schedule_id", b.ID.String()),
		zap.String("type", string(spec.Type)))

	return b, nil
}

// Get returns a single broadcast schedule
func (s *BroadcastService) Get(ctx context.Context, id uuid.UUID) (*schedule.BroadcastSchedule, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns broadcast schedules, optionally only active ones
func (s *BroadcastService) List(ctx context.Context, activeOnly bool) ([]*schedule.BroadcastSchedule, error) {
	return s.repo.List(ctx, activeOnly)
}

// SetActive activates or deactivates a schedule
func (s *BroadcastService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*schedule.BroadcastSchedule, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		if err := b.Activate(time.Now()); err != nil {
			return nil, err
		}
	} else {
		b.Deactivate()
	}

	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a broadcast schedule
func (s *BroadcastService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("broadcast schedule deleted", zap.String("schedule_id", id.String()))
	return nil
}
