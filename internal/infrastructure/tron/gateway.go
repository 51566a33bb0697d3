package tron

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/remitdesk/backend/internal/domain/integration"
)

// Gateway adapts Client to the domain's USDTVerifier port
type Gateway struct {
	client *Client
}

// NewGateway wraps a TronGrid client
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) ConfirmTransfer(ctx context.Context, txID, expectedRecipient string, expectedAmount decimal.Decimal) (*integration.TransferCheck, error) {
	conf, err := g.client.ConfirmTransfer(ctx, txID, expectedRecipient, expectedAmount)
	if err != nil {
		return nil, err
	}
	return &integration.TransferCheck{
		TxID:      conf.TxID,
		Confirmed: conf.Confirmed,
		Recipient: conf.Recipient,
		Amount:    conf.Amount,
		Reason:    conf.Reason,
	}, nil
}

var _ integration.USDTVerifier = (*Gateway)(nil)
