package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/infrastructure/scheduler"
)

// stubSyncer is a canned PartnerSyncer for runner tests
type stubSyncer struct {
	source     string
	lastSynced time.Time
	synced     int
	err        error
}

func (s *stubSyncer) Source() string { return s.source }

func (s *stubSyncer) Sync(context.Context) (*SyncResult, error) {
	s.synced++
	if s.err != nil {
		return nil, s.err
	}
	return &SyncResult{Fetched: 1}, nil
}

func (s *stubSyncer) Status(context.Context) (*integration.SyncCursor, error) {
	return &integration.SyncCursor{Source: s.source, LastSyncedAt: s.lastSynced}, nil
}

func TestSyncRunner_CollectDue_EmitsJobPerOverdueSource(t *testing.T) {
	now := time.Now()
	bank := &stubSyncer{source: integration.SourceBank, lastSynced: now.Add(-time.Hour)}
	exchange := &stubSyncer{source: integration.SourceExchange, lastSynced: now.Add(-10 * time.Second)}

	r := NewSyncRunner(time.Minute, zap.NewNop(), bank, exchange)

	jobs, err := r.CollectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, scheduler.JobKindSync, jobs[0].Kind)
	assert.Equal(t, integration.SourceBank, jobs[0].TargetID)
}

func TestSyncRunner_CollectDue_AllSourcesOverdue(t *testing.T) {
	now := time.Now()
	bank := &stubSyncer{source: integration.SourceBank}
	exchange := &stubSyncer{source: integration.SourceExchange}

	r := NewSyncRunner(time.Minute, zap.NewNop(), bank, exchange)

	jobs, err := r.CollectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, integration.SourceBank, jobs[0].TargetID)
	assert.Equal(t, integration.SourceExchange, jobs[1].TargetID)
}

func TestSyncRunner_Execute_DispatchesBySource(t *testing.T) {
	bank := &stubSyncer{source: integration.SourceBank}
	exchange := &stubSyncer{source: integration.SourceExchange}

	r := NewSyncRunner(time.Minute, zap.NewNop(), bank, exchange)

	job := scheduler.NewJob(scheduler.JobKindSync, integration.SourceExchange, 0)
	require.NoError(t, r.Execute(context.Background(), job))

	assert.Equal(t, 0, bank.synced)
	assert.Equal(t, 1, exchange.synced)
}

func TestSyncRunner_Execute_UnknownSource(t *testing.T) {
	r := NewSyncRunner(time.Minute, zap.NewNop(), &stubSyncer{source: integration.SourceBank})

	job := scheduler.NewJob(scheduler.JobKindSync, "nope", 0)
	err := r.Execute(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sync source")
}
