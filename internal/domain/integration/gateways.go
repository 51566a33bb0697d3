package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BankGateway pulls statement entries from the banking partner.
type BankGateway interface {
	FetchTransactions(ctx context.Context, from, to time.Time) ([]*BankTransaction, error)
}

// WithdrawalOutcome reports one full-balance sweep requested at the exchange.
type WithdrawalOutcome struct {
	Subaccount string
	Amount     string
	Status     string
	Raw        []byte
}

// ExchangeGateway drives the exchange sub-account API.
type ExchangeGateway interface {
	WithdrawFullBalance(ctx context.Context, subaccountNumber string) (*WithdrawalOutcome, error)
}

// ExchangeSubaccount is one sub-account visible to the exchange API key.
type ExchangeSubaccount struct {
	Number  string
	Name    string
	Balance string
}

// ExchangeStatementGateway pulls sub-account movements from the exchange.
type ExchangeStatementGateway interface {
	FetchTransactions(ctx context.Context, from, to time.Time) ([]*ExchangeTransaction, error)
	ListSubaccounts(ctx context.Context) ([]*ExchangeSubaccount, error)
}

// TransferCheck is the verified on-chain state of one USDT transaction.
type TransferCheck struct {
	TxID      string
	Confirmed bool
	Recipient string
	Amount    decimal.Decimal
	Reason    string
}

// USDTVerifier confirms TRC20 transfers against the chain.
type USDTVerifier interface {
	ConfirmTransfer(ctx context.Context, txID, expectedRecipient string, expectedAmount decimal.Decimal) (*TransferCheck, error)
}
