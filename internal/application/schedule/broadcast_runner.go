package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/schedule"
	"github.com/remitdesk/backend/internal/infrastructure/scheduler"
)

// Messenger delivers a broadcast message to one recipient group. The concrete
// transport is wired at startup; a logging stub stands in when none is
// configured.
type Messenger interface {
	SendToGroup(ctx context.Context, groupID, message string) error
}

// BroadcastRunner executes due broadcast schedules. It doubles as the
// poller's job source for its own kind: each tick it emits one job per due
// schedule, and each job re-checks eligibility before delivering so a
// schedule toggled off between tick and execution stays silent.
type BroadcastRunner struct {
	repo      schedule.BroadcastScheduleRepository
	messenger Messenger
	logger    *zap.Logger
}

// NewBroadcastRunner creates a new BroadcastRunner
func NewBroadcastRunner(repo schedule.BroadcastScheduleRepository, messenger Messenger, logger *zap.Logger) *BroadcastRunner {
	return &BroadcastRunner{repo: repo, messenger: messenger, logger: logger}
}

// Name identifies this source in poller logs
func (r *BroadcastRunner) Name() string {
	return "broadcast-schedules"
}

// CollectDue emits one job per due broadcast schedule
func (r *BroadcastRunner) CollectDue(ctx context.Context, now time.Time) ([]*scheduler.Job, error) {
	due, err := r.repo.FindDue(ctx, now)
	if err != nil {
		return nil, err
	}

	jobs := make([]*scheduler.Job, 0, len(due))
	for _, b := range due {
		jobs = append(jobs, scheduler.NewJob(scheduler.JobKindBroadcast, b.ID.String(), 0))
	}
	return jobs, nil
}

// Execute delivers one due broadcast and advances its state machine
func (r *BroadcastRunner) Execute(ctx context.Context, job *scheduler.Job) error {
	id, err := uuid.Parse(job.TargetID)
	if err != nil {
		return fmt.Errorf("invalid broadcast schedule id %q: %w", job.TargetID, err)
	}

	b, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if !b.IsDue(now) {
		r.logger.Debug("broadcast no longer due, skipping",
			zap.String("schedule_id", b.ID.String()))
		return nil
	}

	var deliveryErr error
	delivered := 0
	for _, groupID := range b.GroupIDs {
		if err := r.messenger.SendToGroup(ctx, groupID, b.Message); err != nil {
			deliveryErr = fmt.Errorf("group %s: %w", groupID, err)
			break
		}
		delivered++
	}

	if err := b.CompleteRun(now, deliveryErr); err != nil {
		return err
	}
	if err := r.repo.Save(ctx, b); err != nil {
		return err
	}

	if deliveryErr != nil {
		r.logger.Error("broadcast delivery failed",
			zap.String("schedule_id", b.ID.String()),
			zap.Int("delivered", delivered),
			zap.Error(deliveryErr))
		return deliveryErr
	}

	r.logger.Info("broadcast delivered",
		zap.String("schedule_id", b.ID.String()),
		zap.Int("groups", delivered))
	return nil
}

var (
	_ scheduler.JobSource   = (*BroadcastRunner)(nil)
	_ scheduler.JobExecutor = (*BroadcastRunner)(nil)
)

// LogMessenger is a stand-in transport that only records deliveries.
// Used when no outbound messaging integration is configured.
type LogMessenger struct {
	logger *zap.Logger
}

// NewLogMessenger creates a logging messenger
func NewLogMessenger(logger *zap.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

func (m *LogMessenger) SendToGroup(_ context.Context, groupID, message string) error {
	m.logger.Info("broadcast message (no transport configured)",
		zap.String("group_id", groupID),
		zap.Int("message_len", len(message)))
	return nil
}

var _ Messenger = (*LogMessenger)(nil)
