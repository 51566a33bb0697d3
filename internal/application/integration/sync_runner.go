package integration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/infrastructure/scheduler"
)

// PartnerSyncer is one source-keyed sync cycle: the bank statement pull and
// the exchange sub-account pull both satisfy it.
type PartnerSyncer interface {
	Source() string
	Sync(ctx context.Context) (*SyncResult, error)
	Status(ctx context.Context) (*integration.SyncCursor, error)
}

// SyncRunner drives partner syncs from the poller. It emits at most one job
// per source per interval, keyed off that source's cursor, so a slow partner
// never piles up overlapping pulls. Jobs carry the source name as their
// target and Execute dispatches on it.
type SyncRunner struct {
	syncers  map[string]PartnerSyncer
	order    []string
	interval time.Duration
	logger   *zap.Logger
}

// NewSyncRunner creates a new SyncRunner over the given syncers
func NewSyncRunner(interval time.Duration, logger *zap.Logger, syncers ...PartnerSyncer) *SyncRunner {
	if interval <= 0 {
		interval = time.Minute
	}
	r := &SyncRunner{
		syncers:  make(map[string]PartnerSyncer, len(syncers)),
		interval: interval,
		logger:   logger,
	}
	for _, s := range syncers {
		r.syncers[s.Source()] = s
		r.order = append(r.order, s.Source())
	}
	return r
}

// Name identifies this source in poller logs
func (r *SyncRunner) Name() string {
	return "partner-sync"
}

// CollectDue emits one job per source whose last run is older than the interval
func (r *SyncRunner) CollectDue(ctx context.Context, now time.Time) ([]*scheduler.Job, error) {
	var jobs []*scheduler.Job
	for _, source := range r.order {
		cursor, err := r.syncers[source].Status(ctx)
		if err != nil {
			return nil, err
		}
		if now.Sub(cursor.LastSyncedAt) < r.interval {
			continue
		}
		jobs = append(jobs, scheduler.NewJob(scheduler.JobKindSync, source, 0))
	}
	return jobs, nil
}

// Execute runs one sync cycle for the source named by the job
func (r *SyncRunner) Execute(ctx context.Context, job *scheduler.Job) error {
	syncer, ok := r.syncers[job.TargetID]
	if !ok {
		return fmt.Errorf("unknown sync source %q", job.TargetID)
	}

	result, err := syncer.Sync(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("sync job finished",
		zap.String("source", job.TargetID),
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created))
	return nil
}

var (
	_ scheduler.JobSource   = (*SyncRunner)(nil)
	_ scheduler.JobExecutor = (*SyncRunner)(nil)
)
