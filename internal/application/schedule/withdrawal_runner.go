package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/schedule"
	"github.com/remitdesk/backend/internal/infrastructure/scheduler"
)

// WithdrawalRunner executes due withdrawal schedules against the exchange.
// A sweep over an empty sub-account is recorded as SKIPPED, not a failure.
type WithdrawalRunner struct {
	repo     schedule.WithdrawalScheduleRepository
	exchange integration.ExchangeGateway
	logger   *zap.Logger
}

// NewWithdrawalRunner creates a new WithdrawalRunner
func NewWithdrawalRunner(repo schedule.WithdrawalScheduleRepository, exchange integration.ExchangeGateway, logger *zap.Logger) *WithdrawalRunner {
	return &WithdrawalRunner{repo: repo, exchange: exchange, logger: logger}
}

// Name identifies this source in poller logs
func (r *WithdrawalRunner) Name() string {
	return "withdrawal-schedules"
}

// CollectDue emits one job per due withdrawal schedule
func (r *WithdrawalRunner) CollectDue(ctx context.Context, now time.Time) ([]*scheduler.Job, error) {
	due, err := r.repo.FindDue(ctx, now)
	if err != nil {
		return nil, err
	}

	jobs := make([]*scheduler.Job, 0, len(due))
	for _, w := range due {
		jobs = append(jobs, scheduler.NewJob(scheduler.JobKindWithdrawal, w.ID.String(), 0))
	}
	return jobs, nil
}

// Execute performs one due withdrawal and advances its state machine
func (r *WithdrawalRunner) Execute(ctx context.Context, job *scheduler.Job) error {
	id, err := uuid.Parse(job.TargetID)
	if err != nil {
		return fmt.Errorf("invalid withdrawal schedule id %q: %w", job.TargetID, err)
	}

	w, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if !w.IsDue(now) {
		r.logger.Debug("withdrawal no longer due, skipping",
			zap.String("schedule_id", w.ID.String()))
		return nil
	}

	outcome, sweepErr := r.exchange.WithdrawFullBalance(ctx, w.SubaccountNumber)

	status := schedule.RunStatusSuccess
	var response []byte
	switch {
	case sweepErr != nil:
		status = schedule.RunStatusFailed
	case outcome.Status == "SKIPPED":
		status = schedule.RunStatusSkipped
		response = outcome.Raw
	default:
		response = outcome.Raw
	}

	if err := w.CompleteRun(now, status, sweepErr, response); err != nil {
		return err
	}
	if err := r.repo.Save(ctx, w); err != nil {
		return err
	}

	if sweepErr != nil {
		r.logger.Error("scheduled withdrawal failed",
			zap.String("schedule_id", w.ID.String()),
			zap.String("subaccount", w.SubaccountNumber),
			zap.Error(sweepErr))
		return sweepErr
	}

	r.logger.Info("scheduled withdrawal completed",
		zap.String("schedule_id", w.ID.String()),
		zap.String("subaccount", w.SubaccountNumber),
		zap.String("status", string(status)))
	return nil
}

var (
	_ scheduler.JobSource   = (*WithdrawalRunner)(nil)
	_ scheduler.JobExecutor = (*WithdrawalRunner)(nil)
)
