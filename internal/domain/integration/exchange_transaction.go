package integration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/remitdesk/backend/internal/domain/ledger"
)

// ExchangeTransaction mirrors one sub-account movement pulled from the
// exchange. ExternalID is the provider's transaction id and the natural key;
// trailing-window re-pulls upsert by it.
type ExchangeTransaction struct {
	ID              uint64
	ExternalID      string
	EndToEndID      string
	Subaccount      string
	Operation       Operation
	Value           string // canonical formatted amount string
	Description     string
	TransactionDate time.Time
	RawDetails      []byte // provider payload, JSON
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsCredit reports whether money came in.
func (t *ExchangeTransaction) IsCredit() bool {
	return t.Operation == OperationCredit
}

// AmountValue returns the parsed transaction amount.
func (t *ExchangeTransaction) AmountValue() decimal.Decimal {
	return ledger.ParseAmount(t.Value)
}
