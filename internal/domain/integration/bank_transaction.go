package integration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/remitdesk/backend/internal/domain/ledger"
)

// Operation is the direction of a partner bank transaction.
type Operation string

const (
	OperationCredit Operation = "C"
	OperationDebit  Operation = "D"
)

// BankTransaction mirrors one statement entry pulled from the banking partner.
// EndToEndID is the natural key; repeated syncs over a trailing window upsert
// by it, so late amendments from the partner overwrite earlier pulls.
type BankTransaction struct {
	ID              uint64
	EndToEndID      string
	TransactionID   string
	InclusionDate   time.Time
	TransactionDate time.Time
	Type            string
	Operation       Operation
	Value           string // canonical formatted amount string
	Title           string
	Description     string
	PayerName       string
	PayerDocument   string
	RawDetails      []byte // partner payload, JSON
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsCredit reports whether money came in.
func (t *BankTransaction) IsCredit() bool {
	return t.Operation == OperationCredit
}

// AmountValue returns the parsed transaction amount.
func (t *BankTransaction) AmountValue() decimal.Decimal {
	return ledger.ParseAmount(t.Value)
}
