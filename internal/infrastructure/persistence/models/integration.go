package models

import (
	"time"

	"github.com/remitdesk/backend/internal/domain/integration"
)

// BankTransactionModel is the persistence model for partner statement entries
type BankTransactionModel struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	EndToEndID      string `gorm:"size:128;not null;uniqueIndex"`
	TransactionID   string `gorm:"size:128;index"`
	InclusionDate   time.Time
	TransactionDate time.Time `gorm:"index"`
	Type            string    `gorm:"size:64"`
	Operation       string    `gorm:"size:1;not null"`
	Value           string    `gorm:"size:32;not null;default:''"`
	Title           string    `gorm:"size:255"`
	Description     string    `gorm:"type:text"`
	PayerName       string    `gorm:"size:255"`
	PayerDocument   string    `gorm:"size:32"`
	RawDetails      []byte    `gorm:"type:jsonb"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain bank transaction
func (m *BankTransactionModel) ToDomain() *integration.BankTransaction {
	return &integration.BankTransaction{
		ID:              m.ID,
		EndToEndID:      m.EndToEndID,
		TransactionID:   m.TransactionID,
		InclusionDate:   m.InclusionDate,
		TransactionDate: m.TransactionDate,
		Type:            m.Type,
		Operation:       integration.Operation(m.Operation),
		Value:           m.Value,
		Title:           m.Title,
		Description:     m.Description,
		PayerName:       m.PayerName,
		PayerDocument:   m.PayerDocument,
		RawDetails:      m.RawDetails,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// BankTransactionModelFromDomain converts a domain bank transaction to the persistence model
func BankTransactionModelFromDomain(t *integration.BankTransaction) *BankTransactionModel {
	return &BankTransactionModel{
		ID:              t.ID,
		EndToEndID:      t.EndToEndID,
		TransactionID:   t.TransactionID,
		InclusionDate:   t.InclusionDate,
		TransactionDate: t.TransactionDate,
		Type:            t.Type,
		Operation:       string(t.Operation),
		Value:           t.Value,
		Title:           t.Title,
		Description:     t.Description,
		PayerName:       t.PayerName,
		PayerDocument:   t.PayerDocument,
		RawDetails:      t.RawDetails,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// ExchangeTransactionModel is the persistence model for exchange sub-account movements
type ExchangeTransactionModel struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	ExternalID      string `gorm:"size:128;not null;uniqueIndex"`
	EndToEndID      string `gorm:"size:128;index"`
	Subaccount      string `gorm:"size:100;index"`
	Operation       string `gorm:"size:1;not null"`
	Value           string `gorm:"size:32;not null;default:''"`
	Description     string `gorm:"type:text"`
	TransactionDate time.Time `gorm:"index"`
	RawDetails      []byte    `gorm:"type:jsonb"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExchangeTransactionModel) TableName() string {
	return "exchange_transactions"
}

// ToDomain converts the persistence model to a domain exchange transaction
func (m *ExchangeTransactionModel) ToDomain() *integration.ExchangeTransaction {
	return &integration.ExchangeTransaction{
		ID:              m.ID,
		ExternalID:      m.ExternalID,
		EndToEndID:      m.EndToEndID,
		Subaccount:      m.Subaccount,
		Operation:       integration.Operation(m.Operation),
		Value:           m.Value,
		Description:     m.Description,
		TransactionDate: m.TransactionDate,
		RawDetails:      m.RawDetails,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ExchangeTransactionModelFromDomain converts a domain exchange transaction to the persistence model
func ExchangeTransactionModelFromDomain(t *integration.ExchangeTransaction) *ExchangeTransactionModel {
	return &ExchangeTransactionModel{
		ID:              t.ID,
		ExternalID:      t.ExternalID,
		EndToEndID:      t.EndToEndID,
		Subaccount:      t.Subaccount,
		Operation:       string(t.Operation),
		Value:           t.Value,
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
		RawDetails:      t.RawDetails,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// SyncCursorModel is the persistence model for per-source sync state
type SyncCursorModel struct {
	Source       string    `gorm:"size:32;primaryKey"`
	LastSyncedAt time.Time
	LastStatus   string `gorm:"size:16"`
	LastError    string `gorm:"type:text"`
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (SyncCursorModel) TableName() string {
	return "sync_cursors"
}

// ToDomain converts the persistence model to a domain sync cursor
func (m *SyncCursorModel) ToDomain() *integration.SyncCursor {
	return &integration.SyncCursor{
		Source:       m.Source,
		LastSyncedAt: m.LastSyncedAt,
		LastStatus:   m.LastStatus,
		LastError:    m.LastError,
		UpdatedAt:    m.UpdatedAt,
	}
}

// SyncCursorModelFromDomain converts a domain sync cursor to the persistence model
func SyncCursorModelFromDomain(c *integration.SyncCursor) *SyncCursorModel {
	return &SyncCursorModel{
		Source:       c.Source,
		LastSyncedAt: c.LastSyncedAt,
		LastStatus:   c.LastStatus,
		LastError:    c.LastError,
		UpdatedAt:    c.UpdatedAt,
	}
}
