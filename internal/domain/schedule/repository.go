package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BroadcastScheduleRepository persists broadcast schedules.
type BroadcastScheduleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BroadcastSchedule, error)
	List(ctx context.Context, activeOnly bool) ([]*BroadcastSchedule, error)
	// FindDue returns active schedules with next_run_at <= now.
	FindDue(ctx context.Context, now time.Time) ([]*BroadcastSchedule, error)
	Create(ctx context.Context, s *BroadcastSchedule) error
	Save(ctx context.Context, s *BroadcastSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// WithdrawalScheduleRepository persists withdrawal schedules.
type WithdrawalScheduleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WithdrawalSchedule, error)
	List(ctx context.Context, activeOnly bool) ([]*WithdrawalSchedule, error)
	FindDue(ctx context.Context, now time.Time) ([]*WithdrawalSchedule, error)
	Create(ctx context.Context, s *WithdrawalSchedule) error
	Save(ctx context.Context, s *WithdrawalSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}
