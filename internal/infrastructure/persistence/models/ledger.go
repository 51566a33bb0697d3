package models

import (
	"time"

	"github.com/remitdesk/backend/internal/domain/ledger"
)

// InvoiceModel is the persistence model for ledger invoices.
// Amount columns store formatted strings; ordering for balance work is
// always (received_at, id).
type InvoiceModel struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	TransactionID string `gorm:"size:128;uniqueIndex"`
	SenderName    string `gorm:"size:255"`
	RecipientName string `gorm:"size:255"`
	PixKey        string `gorm:"size:255"`
	Amount        string `gorm:"size:32;not null;default:''"`
	Credit        string `gorm:"size:32;not null;default:''"`
	Balance       string `gorm:"size:32;not null;default:''"`
	Notes         string `gorm:"type:text"`
	SourceGroup   string `gorm:"size:128"`
	IsManual      bool   `gorm:"not null;default:false"`
	IsDeleted     bool   `gorm:"not null;default:false;index"`
	ReceivedAt    time.Time `gorm:"not null;index:idx_invoices_received_at_id,priority:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain invoice
func (m *InvoiceModel) ToDomain() *ledger.Invoice {
	return &ledger.Invoice{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		SenderName:    m.SenderName,
		RecipientName: m.RecipientName,
		PixKey:        m.PixKey,
		Amount:        m.Amount,
		Credit:        m.Credit,
		Balance:       m.Balance,
		Notes:         m.Notes,
		SourceGroup:   m.SourceGroup,
		IsManual:      m.IsManual,
		IsDeleted:     m.IsDeleted,
		ReceivedAt:    m.ReceivedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// InvoiceModelFromDomain converts a domain invoice to the persistence model
func InvoiceModelFromDomain(i *ledger.Invoice) *InvoiceModel {
	return &InvoiceModel{
		ID:            i.ID,
		TransactionID: i.TransactionID,
		SenderName:    i.SenderName,
		RecipientName: i.RecipientName,
		PixKey:        i.PixKey,
		Amount:        i.Amount,
		Credit:        i.Credit,
		Balance:       i.Balance,
		Notes:         i.Notes,
		SourceGroup:   i.SourceGroup,
		IsManual:      i.IsManual,
		IsDeleted:     i.IsDeleted,
		ReceivedAt:    i.ReceivedAt,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
