package bank

import (
	"context"
	"encoding/json"
	"time"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/ledger"
)

// FetchTransactions pulls the statement for [from, to] and maps every entry
// onto the domain shape, preserving the raw partner payload
func (c *Client) FetchTransactions(ctx context.Context, from, to time.Time) ([]*integration.BankTransaction, error) {
	entries, err := c.FetchStatement(ctx, from, to)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txs := make([]*integration.BankTransaction, 0, len(entries))
	for _, entry := range entries {
		txDate, err := time.Parse("2006-01-02", entry.TransactionDate)
		if err != nil {
			// Entries without a parseable date keep the pull time so the
			// trailing window still re-fetches them
			txDate = now
		}

		raw, _ := json.Marshal(entry)

		txs = append(txs, &integration.BankTransaction{
			EndToEndID:      entry.EndToEndID,
			TransactionDate: txDate,
			InclusionDate:   now,
			Operation:       integration.Operation(entry.Operation),
			Value:           ledger.FormatAmount(ledger.ParseAmount(entry.Value)),
			Description:     entry.Description,
			PayerName:       entry.PayerName,
			PayerDocument:   entry.PayerDocument,
			RawDetails:      raw,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return txs, nil
}

var _ integration.BankGateway = (*Client)(nil)
