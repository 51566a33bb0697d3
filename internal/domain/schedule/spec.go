package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/remitdesk/backend/internal/domain/shared"
)

// Type discriminates how often a schedule fires.
type Type string

const (
	TypeOnce   Type = "ONCE"
	TypeDaily  Type = "DAILY"
	TypeWeekly Type = "WEEKLY"
)

// IsValid checks if the type is a known schedule type
func (t Type) IsValid() bool {
	switch t {
	case TypeOnce, TypeDaily, TypeWeekly:
		return true
	}
	return false
}

// DefaultTimezone is applied when a schedule carries no explicit zone.
const DefaultTimezone = "America/Sao_Paulo"

// Spec describes when a schedule is due. Times are wall-clock in the
// schedule's own timezone; eligibility is derived once into NextRunAt rather
// than re-checked against the clock every tick.
type Spec struct {
	Type       Type
	Timezone   string
	AtTime     string // "HH:MM" in the schedule's timezone
	Date       string // "2006-01-02", ONCE only
	DaysOfWeek []time.Weekday
}

// Validate checks the spec for internal consistency.
func (s Spec) Validate() error {
	if !s.Type.IsValid() {
		return shared.NewDomainError("INVALID_SCHEDULE_TYPE", fmt.Sprintf("Unknown schedule type %q", s.Type))
	}
	if _, _, err := s.timeOfDay(); err != nil {
		return err
	}
	if _, err := s.location(); err != nil {
		return shared.NewDomainError("INVALID_TIMEZONE", fmt.Sprintf("Unknown timezone %q", s.Timezone))
	}
	switch s.Type {
	case TypeOnce:
		if _, err := time.Parse("2006-01-02", s.Date); err != nil {
			return shared.NewDomainError("INVALID_SCHEDULE_DATE", fmt.Sprintf("Invalid date %q for one-off schedule", s.Date))
		}
	case TypeWeekly:
		if len(s.DaysOfWeek) == 0 {
			return shared.NewDomainError("INVALID_SCHEDULE_DAYS", "Weekly schedule needs at least one day of week")
		}
		for _, d := range s.DaysOfWeek {
			if d < time.Sunday || d > time.Saturday {
				return shared.NewDomainError("INVALID_SCHEDULE_DAYS", fmt.Sprintf("Day of week %d out of range", d))
			}
		}
	}
	return nil
}

func (s Spec) location() (*time.Location, error) {
	tz := s.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	return time.LoadLocation(tz)
}

func (s Spec) timeOfDay() (hour, minute int, err error) {
	parts := strings.SplitN(s.AtTime, ":", 2)
	if len(parts) != 2 {
		return 0, 0, shared.NewDomainError("INVALID_SCHEDULE_TIME", fmt.Sprintf("Invalid time %q, expected HH:MM", s.AtTime))
	}
	hour, herr := strconv.Atoi(parts[0])
	minute, merr := strconv.Atoi(parts[1])
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, shared.NewDomainError("INVALID_SCHEDULE_TIME", fmt.Sprintf("Invalid time %q, expected HH:MM", s.AtTime))
	}
	return hour, minute, nil
}

func (s Spec) runsOn(d time.Weekday) bool {
	for _, day := range s.DaysOfWeek {
		if day == d {
			return true
		}
	}
	return false
}

// NextRunAfter computes the first instant strictly after t at which the
// schedule is due. For exhausted one-off schedules (date already passed) it
// returns the zero time and false.
func (s Spec) NextRunAfter(t time.Time) (time.Time, bool, error) {
	loc, err := s.location()
	if err != nil {
		return time.Time{}, false, err
	}
	hour, minute, err := s.timeOfDay()
	if err != nil {
		return time.Time{}, false, err
	}

	local := t.In(loc)

	switch s.Type {
	case TypeOnce:
		date, perr := time.ParseInLocation("2006-01-02", s.Date, loc)
		if perr != nil {
			return time.Time{}, false, shared.NewDomainError("INVALID_SCHEDULE_DATE", fmt.Sprintf("Invalid date %q for one-off schedule", s.Date))
		}
		run := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
		if !run.After(t) {
			return time.Time{}, false, nil
		}
		return run, true, nil

	case TypeDaily:
		run := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		if !run.After(t) {
			run = run.AddDate(0, 0, 1)
		}
		return run, true, nil

	case TypeWeekly:
		run := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		for i := 0; i < 8; i++ {
			if run.After(t) && s.runsOn(run.Weekday()) {
				return run, true, nil
			}
			run = run.AddDate(0, 0, 1)
		}
		return time.Time{}, false, shared.NewDomainError("INVALID_SCHEDULE_DAYS", "Weekly schedule has no runnable day")
	}

	return time.Time{}, false, shared.NewDomainError("INVALID_SCHEDULE_TYPE", fmt.Sprintf("Unknown schedule type %q", s.Type))
}
