package schedule

import (
	"time"

	"github.com/remitdesk/backend/internal/domain/shared"
)

// RunStatus records the outcome of the most recent execution of a schedule.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusSkipped RunStatus = "SKIPPED"
)

// BroadcastSchedule is a recurring or one-off broadcast of a message to a set
// of recipient groups. Delivery itself is an external collaborator; this
// aggregate owns only the eligibility state machine.
type BroadcastSchedule struct {
	shared.BaseEntity
	Name       string
	Message    string
	GroupIDs   []string
	Spec       Spec
	Active     bool
	LastRunAt  *time.Time
	NextRunAt  *time.Time
	LastStatus RunStatus
	LastError  string
}

// NewBroadcastSchedule creates an active broadcast schedule with its first
// eligible run precomputed from now.
func NewBroadcastSchedule(name, message string, groupIDs []string, spec Spec) (*BroadcastSchedule, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if message == "" {
		return nil, shared.NewDomainError("EMPTY_MESSAGE", "Broadcast message cannot be empty")
	}
	if len(groupIDs) == 0 {
		return nil, shared.NewDomainError("EMPTY_RECIPIENTS", "Broadcast needs at least one recipient group")
	}

	b := &BroadcastSchedule{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Message:    message,
		GroupIDs:   groupIDs,
		Spec:       spec,
		Active:     true,
	}
	if err := b.Reschedule(time.Now()); err != nil {
		return nil, err
	}
	return b, nil
}

// IsDue reports whether the schedule should run at now.
func (b *BroadcastSchedule) IsDue(now time.Time) bool {
	return b.Active && b.NextRunAt != nil && !b.NextRunAt.After(now)
}

// Reschedule recomputes NextRunAt after now. An exhausted one-off schedule is
// deactivated instead.
func (b *BroadcastSchedule) Reschedule(now time.Time) error {
	next, ok, err := b.Spec.NextRunAfter(now)
	if err != nil {
		return err
	}
	if !ok {
		b.Active = false
		b.NextRunAt = nil
		return nil
	}
	b.NextRunAt = &next
	return nil
}

// CompleteRun records the outcome of an execution and advances the state
// machine: LastRunAt moves to now, and the next run is derived from the spec.
func (b *BroadcastSchedule) CompleteRun(now time.Time, runErr error) error {
	run := now
	b.LastRunAt = &run
	if runErr != nil {
		b.LastStatus = RunStatusFailed
		b.LastError = runErr.Error()
	} else {
		b.LastStatus = RunStatusSuccess
		b.LastError = ""
	}
	b.Touch()

	if b.Spec.Type == TypeOnce {
		b.Active = false
		b.NextRunAt = nil
		return nil
	}
	return b.Reschedule(now)
}

// Deactivate turns the schedule off without touching its run history.
func (b *BroadcastSchedule) Deactivate() {
	b.Active = false
	b.NextRunAt = nil
	b.Touch()
}

// Activate turns the schedule back on and recomputes eligibility.
func (b *BroadcastSchedule) Activate(now time.Time) error {
	b.Active = true
	b.Touch()
	return b.Reschedule(now)
}
