package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobSource produces due jobs on each poll tick. Sources decide their own
// eligibility; the poller only asks and submits.
type JobSource interface {
	Name() string
	CollectDue(ctx context.Context, now time.Time) ([]*Job, error)
}

// Poller drives the scheduler from a clock: every tick it gathers due jobs
// from all registered sources and submits them to the worker pool.
type Poller struct {
	scheduler *Scheduler
	sources   []JobSource
	interval  time.Duration
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	active bool
}

// NewPoller creates a poller over the given scheduler
func NewPoller(s *Scheduler, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		scheduler: s,
		interval:  interval,
		logger:    logger,
	}
}

// AddSource registers a job source. Must be called before Start.
func (p *Poller) AddSource(source JobSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = append(p.sources, source)
}

// Start begins the poll loop
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return
	}
	p.active = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("Schedule poller started", zap.Duration("interval", p.interval))
}

// Stop halts the poll loop and waits for it to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.logger.Info("Schedule poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.Tick(ctx, now)
		}
	}
}

// Tick runs one poll round. Exposed so callers can force an immediate round.
func (p *Poller) Tick(ctx context.Context, now time.Time) {
	p.mu.Lock()
	sources := make([]JobSource, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	for _, source := range sources {
		jobs, err := source.CollectDue(ctx, now)
		if err != nil {
			p.logger.Error("Failed to collect due jobs",
				zap.String("source", source.Name()),
				zap.Error(err),
			)
			continue
		}

		for _, job := range jobs {
			if err := p.scheduler.SubmitJob(job); err != nil {
				p.logger.Error("Failed to submit due job",
					zap.String("source", source.Name()),
					zap.String("job_id", job.ID.String()),
					zap.Error(err),
				)
			}
		}

		if len(jobs) > 0 {
			p.logger.Debug("Submitted due jobs",
				zap.String("source", source.Name()),
				zap.Int("count", len(jobs)),
			)
		}
	}
}
