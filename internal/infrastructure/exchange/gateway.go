package exchange

import (
	"context"
	"encoding/json"
	"time"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/ledger"
)

// Gateway adapts Client to the domain's ExchangeGateway port
type Gateway struct {
	client *Client
}

// NewGateway wraps an exchange client
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) WithdrawFullBalance(ctx context.Context, subaccountNumber string) (*integration.WithdrawalOutcome, error) {
	result, err := g.client.WithdrawFullBalance(ctx, subaccountNumber)
	if err != nil {
		return nil, err
	}
	return &integration.WithdrawalOutcome{
		Subaccount: result.Subaccount,
		Amount:     result.Amount,
		Status:     result.Status,
		Raw:        result.Raw,
	}, nil
}

// FetchTransactions pulls sub-account movements in [from, to] and maps every
// entry onto the domain shape, preserving the raw provider payload
func (g *Gateway) FetchTransactions(ctx context.Context, from, to time.Time) ([]*integration.ExchangeTransaction, error) {
	entries, err := g.client.ListTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txs := make([]*integration.ExchangeTransaction, 0, len(entries))
	for _, entry := range entries {
		txDate, err := time.Parse(time.RFC3339, entry.CreatedAt)
		if err != nil {
			// Entries without a parseable date keep the pull time so the
			// trailing window still re-fetches them
			txDate = now
		}

		op := integration.OperationCredit
		if entry.Type == "DEBIT" {
			op = integration.OperationDebit
		}

		raw, _ := json.Marshal(entry)

		txs = append(txs, &integration.ExchangeTransaction{
			ExternalID:      entry.ID,
			EndToEndID:      entry.EndToEndID,
			Subaccount:      entry.Subaccount,
			Operation:       op,
			Value:           ledger.FormatAmount(ledger.ParseAmount(entry.Amount)),
			Description:     entry.Description,
			TransactionDate: txDate,
			RawDetails:      raw,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return txs, nil
}

// ListSubaccounts returns every sub-account visible to the configured key
func (g *Gateway) ListSubaccounts(ctx context.Context) ([]*integration.ExchangeSubaccount, error) {
	subs, err := g.client.ListSubaccounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*integration.ExchangeSubaccount, 0, len(subs))
	for _, sub := range subs {
		out = append(out, &integration.ExchangeSubaccount{
			Number:  sub.Number,
			Name:    sub.Name,
			Balance: sub.Balance,
		})
	}
	return out, nil
}

var (
	_ integration.ExchangeGateway          = (*Gateway)(nil)
	_ integration.ExchangeStatementGateway = (*Gateway)(nil)
)
