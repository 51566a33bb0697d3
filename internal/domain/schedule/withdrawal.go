package schedule

import (
	"time"

	"github.com/remitdesk/backend/internal/domain/shared"
)

// WithdrawalSchedule is a recurring or one-off full-balance withdrawal from an
// exchange sub-account. Besides the eligibility state machine it preserves the
// raw partner response of the last attempt for operator inspection.
type WithdrawalSchedule struct {
	shared.BaseEntity
	SubaccountNumber string
	SubaccountName   string
	Spec             Spec
	Active           bool
	LastRunAt        *time.Time
	NextRunAt        *time.Time
	LastStatus       RunStatus
	LastError        string
	LastResponse     []byte // raw partner payload, JSON
}

// NewWithdrawalSchedule creates an active withdrawal schedule with its first
// eligible run precomputed from now.
func NewWithdrawalSchedule(subaccountNumber, subaccountName string, spec Spec) (*WithdrawalSchedule, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if subaccountNumber == "" {
		return nil, shared.NewDomainError("EMPTY_SUBACCOUNT", "Withdrawal schedule needs a sub-account number")
	}

	w := &WithdrawalSchedule{
		BaseEntity:       shared.NewBaseEntity(),
		SubaccountNumber: subaccountNumber,
		SubaccountName:   subaccountName,
		Spec:             spec,
		Active:           true,
	}
	if err := w.Reschedule(time.Now()); err != nil {
		return nil, err
	}
	return w, nil
}

// IsDue reports whether the schedule should run at now.
func (w *WithdrawalSchedule) IsDue(now time.Time) bool {
	return w.Active && w.NextRunAt != nil && !w.NextRunAt.After(now)
}

// Reschedule recomputes NextRunAt after now, deactivating exhausted one-offs.
func (w *WithdrawalSchedule) Reschedule(now time.Time) error {
	next, ok, err := w.Spec.NextRunAfter(now)
	if err != nil {
		return err
	}
	if !ok {
		w.Active = false
		w.NextRunAt = nil
		return nil
	}
	w.NextRunAt = &next
	return nil
}

// CompleteRun records an execution outcome and advances the state machine.
func (w *WithdrawalSchedule) CompleteRun(now time.Time, status RunStatus, runErr error, response []byte) error {
	run := now
	w.LastRunAt = &run
	w.LastStatus = status
	w.LastResponse = response
	if runErr != nil {
		w.LastError = runErr.Error()
	} else {
		w.LastError = ""
	}
	w.Touch()

	if w.Spec.Type == TypeOnce {
		w.Active = false
		w.NextRunAt = nil
		return nil
	}
	return w.Reschedule(now)
}

// Deactivate turns the schedule off without touching its run history.
func (w *WithdrawalSchedule) Deactivate() {
	w.Active = false
	w.NextRunAt = nil
	w.Touch()
}

// Activate turns the schedule back on and recomputes eligibility.
func (w *WithdrawalSchedule) Activate(now time.Time) error {
	w.Active = true
	w.Touch()
	return w.Reschedule(now)
}
