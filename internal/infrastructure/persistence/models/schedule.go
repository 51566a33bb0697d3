package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/remitdesk/backend/internal/domain/schedule"
)

// BroadcastScheduleModel is the persistence model for broadcast schedules
type BroadcastScheduleModel struct {
	BaseModel
	Name       string         `gorm:"size:255;not null"`
	Message    string         `gorm:"type:text;not null"`
	GroupIDs   pq.StringArray `gorm:"type:text[];not null"`
	Type       string         `gorm:"size:16;not null"`
	Timezone   string         `gorm:"size:64"`
	AtTime     string         `gorm:"size:5;not null"`
	Date       string         `gorm:"size:10"`
	DaysOfWeek pq.Int64Array  `gorm:"type:smallint[]"`
	Active     bool           `gorm:"not null;default:true;index:idx_broadcast_due,priority:1"`
	LastRunAt  *time.Time
	NextRunAt  *time.Time `gorm:"index:idx_broadcast_due,priority:2"`
	LastStatus string     `gorm:"size:16"`
	LastError  string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BroadcastScheduleModel) TableName() string {
	return "broadcast_schedules"
}

// ToDomain converts the persistence model to a domain broadcast schedule
func (m *BroadcastScheduleModel) ToDomain() *schedule.BroadcastSchedule {
	return &schedule.BroadcastSchedule{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Message:    m.Message,
		GroupIDs:   m.GroupIDs,
		Spec:       specFromColumns(m.Type, m.Timezone, m.AtTime, m.Date, m.DaysOfWeek),
		Active:     m.Active,
		LastRunAt:  m.LastRunAt,
		NextRunAt:  m.NextRunAt,
		LastStatus: schedule.RunStatus(m.LastStatus),
		LastError:  m.LastError,
	}
}

// BroadcastScheduleModelFromDomain converts a domain broadcast schedule to the persistence model
func BroadcastScheduleModelFromDomain(s *schedule.BroadcastSchedule) *BroadcastScheduleModel {
	m := &BroadcastScheduleModel{
		Name:       s.Name,
		Message:    s.Message,
		GroupIDs:   s.GroupIDs,
		Type:       string(s.Spec.Type),
		Timezone:   s.Spec.Timezone,
		AtTime:     s.Spec.AtTime,
		Date:       s.Spec.Date,
		DaysOfWeek: weekdaysToColumns(s.Spec.DaysOfWeek),
		Active:     s.Active,
		LastRunAt:  s.LastRunAt,
		NextRunAt:  s.NextRunAt,
		LastStatus: string(s.LastStatus),
		LastError:  s.LastError,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// WithdrawalScheduleModel is the persistence model for withdrawal schedules
type WithdrawalScheduleModel struct {
	BaseModel
	SubaccountNumber string        `gorm:"size:64;not null;index"`
	SubaccountName   string        `gorm:"size:255"`
	Type             string        `gorm:"size:16;not null"`
	Timezone         string        `gorm:"size:64"`
	AtTime           string        `gorm:"size:5;not null"`
	Date             string        `gorm:"size:10"`
	DaysOfWeek       pq.Int64Array `gorm:"type:smallint[]"`
	Active           bool          `gorm:"not null;default:true;index:idx_withdrawal_due,priority:1"`
	LastRunAt        *time.Time
	NextRunAt        *time.Time `gorm:"index:idx_withdrawal_due,priority:2"`
	LastStatus       string     `gorm:"size:16"`
	LastError        string     `gorm:"type:text"`
	LastResponse     []byte     `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (WithdrawalScheduleModel) TableName() string {
	return "withdrawal_schedules"
}

// ToDomain converts the persistence model to a domain withdrawal schedule
func (m *WithdrawalScheduleModel) ToDomain() *schedule.WithdrawalSchedule {
	return &schedule.WithdrawalSchedule{
		BaseEntity:       m.BaseModel.ToDomain(),
		SubaccountNumber: m.SubaccountNumber,
		SubaccountName:   m.SubaccountName,
		Spec:             specFromColumns(m.Type, m.Timezone, m.AtTime, m.Date, m.DaysOfWeek),
		Active:           m.Active,
		LastRunAt:        m.LastRunAt,
		NextRunAt:        m.NextRunAt,
		LastStatus:       schedule.RunStatus(m.LastStatus),
		LastError:        m.LastError,
		LastResponse:     m.LastResponse,
	}
}

// WithdrawalScheduleModelFromDomain converts a domain withdrawal schedule to the persistence model
func WithdrawalScheduleModelFromDomain(s *schedule.WithdrawalSchedule) *WithdrawalScheduleModel {
	m := &WithdrawalScheduleModel{
		SubaccountNumber: s.SubaccountNumber,
		SubaccountName:   s.SubaccountName,
		Type:             string(s.Spec.Type),
		Timezone:         s.Spec.Timezone,
		AtTime:           s.Spec.AtTime,
		Date:             s.Spec.Date,
		DaysOfWeek:       weekdaysToColumns(s.Spec.DaysOfWeek),
		Active:           s.Active,
		LastRunAt:        s.LastRunAt,
		NextRunAt:        s.NextRunAt,
		LastStatus:       string(s.LastStatus),
		LastError:        s.LastError,
		LastResponse:     s.LastResponse,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

func specFromColumns(specType, timezone, atTime, date string, days pq.Int64Array) schedule.Spec {
	return schedule.Spec{
		Type:       schedule.Type(specType),
		Timezone:   timezone,
		AtTime:     atTime,
		Date:       date,
		DaysOfWeek: weekdaysFromColumns(days),
	}
}

func weekdaysToColumns(days []time.Weekday) pq.Int64Array {
	if len(days) == 0 {
		return nil
	}
	out := make(pq.Int64Array, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func weekdaysFromColumns(days pq.Int64Array) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}
