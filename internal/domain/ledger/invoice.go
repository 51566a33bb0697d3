package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is one financial event on the ledger: an incoming client payment or
// a manual adjustment. Amounts are persisted as formatted strings (a storage
// constraint inherited from the admin frontend); Balance is derived and is
// rewritten only by the Recalculator.
type Invoice struct {
	ID            uint64
	TransactionID string
	SenderName    string
	RecipientName string
	PixKey        string
	Amount        string // debit side, canonical formatted string
	Credit        string // credit side, canonical formatted string
	Balance       string // running balance after this record, derived
	Notes         string
	SourceGroup   string
	IsManual      bool
	IsDeleted     bool
	ReceivedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DebitValue returns the parsed debit amount.
func (i *Invoice) DebitValue() decimal.Decimal {
	return ParseAmount(i.Amount)
}

// CreditValue returns the parsed credit amount.
func (i *Invoice) CreditValue() decimal.Decimal {
	return ParseAmount(i.Credit)
}

// Delta returns the signed contribution of this record to the running balance.
func (i *Invoice) Delta() decimal.Decimal {
	return i.DebitValue().Sub(i.CreditValue())
}

// Normalize canonicalizes the stored amount strings. Blank amounts become
// "0.00" so downstream exports never see an empty cell.
func (i *Invoice) Normalize() {
	if i.Amount == "" {
		i.Amount = FormatAmount(decimal.Zero)
	} else {
		i.Amount = FormatAmount(ParseAmount(i.Amount))
	}
	if i.Credit != "" {
		i.Credit = FormatAmount(ParseAmount(i.Credit))
	}
}

// InvoiceFilter holds list query options for invoices.
type InvoiceFilter struct {
	Page           int
	PageSize       int
	Search         string
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool
	ManualOnly     bool
	SortAsc        bool
}
