package tron

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	transactionInfoPath = "/wallet/gettransactioninfobyid"

	// keccak256("Transfer(address,address,uint256)")
	transferTopic = "ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

	// TRC20 token amounts are integers in the smallest unit; USDT has 6 decimals
	usdtDecimals = 6
)

// Config holds TronGrid watcher settings
type Config struct {
	BaseURL         string
	APIKey          string
	ContractAddress string // hex form with 41 prefix
	Timeout         time.Duration
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("tron: base URL is required")
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("tron: contract address is required")
	}
	return nil
}

// TransferConfirmation is the verified on-chain result for one transaction
type TransferConfirmation struct {
	TxID      string
	Confirmed bool
	Recipient string // hex address with 41 prefix
	Amount    decimal.Decimal
	Reason    string
}

type transactionInfo struct {
	ID      string `json:"id"`
	Receipt struct {
		Result string `json:"result"`
	} `json:"receipt"`
	Logs []txLog `json:"log"`
}

type txLog struct {
	Address string   `json:"address"` // hex without 41 prefix
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Client verifies TRC20 USDT transfers against TronGrid.
// A transfer is confirmed only when the transaction succeeded, a Transfer
// event was emitted by the configured token contract, and the recipient
// and amount match what the caller expected.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a TronGrid client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// ConfirmTransfer checks that txID is a successful USDT transfer of
// expectedAmount to expectedRecipient (hex address with 41 prefix).
// Mismatches are reported in the confirmation, not as errors; errors are
// reserved for transport and parse failures.
func (c *Client) ConfirmTransfer(ctx context.Context, txID, expectedRecipient string, expectedAmount decimal.Decimal) (*TransferConfirmation, error) {
	if txID == "" {
		return nil, fmt.Errorf("tron: transaction id is required")
	}

	info, err := c.fetchTransactionInfo(ctx, txID)
	if err != nil {
		return nil, err
	}

	conf := &TransferConfirmation{TxID: txID}

	if info.ID == "" {
		conf.Reason = "transaction not found"
		return conf, nil
	}
	if info.Receipt.Result != "SUCCESS" {
		conf.Reason = fmt.Sprintf("transaction not successful: %s", info.Receipt.Result)
		return conf, nil
	}

	transfer := c.findTransferLog(info.Logs)
	if transfer == nil {
		conf.Reason = "no token transfer event from expected contract"
		return conf, nil
	}

	recipient, amount, err := decodeTransfer(transfer)
	if err != nil {
		return nil, fmt.Errorf("tron: failed to decode transfer event: %w", err)
	}
	conf.Recipient = recipient
	conf.Amount = amount

	if !strings.EqualFold(recipient, expectedRecipient) {
		conf.Reason = "recipient does not match"
		return conf, nil
	}
	if !amount.Equal(expectedAmount) {
		conf.Reason = fmt.Sprintf("amount mismatch: got %s, expected %s",
			amount.String(), expectedAmount.String())
		return conf, nil
	}

	conf.Confirmed = true

	c.logger.Info("usdt transfer confirmed",
		zap.String("tx_id", txID),
		zap.String("recipient", recipient),
		zap.String("amount", amount.String()))

	return conf, nil
}

func (c *Client) fetchTransactionInfo(ctx context.Context, txID string) (*transactionInfo, error) {
	payload, _ := json.Marshal(map[string]string{"value": txID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+transactionInfoPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tron: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tron: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tron: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tron: request returned status %d: %s", resp.StatusCode, string(body))
	}

	var info transactionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("tron: failed to parse response: %w", err)
	}
	return &info, nil
}

// findTransferLog returns the Transfer event emitted by the configured
// token contract, or nil when none is present
func (c *Client) findTransferLog(logs []txLog) *txLog {
	// log addresses come without the 41 network prefix
	contract := strings.ToLower(strings.TrimPrefix(c.config.ContractAddress, "41"))

	for i := range logs {
		log := &logs[i]
		if !strings.EqualFold(log.Address, contract) {
			continue
		}
		if len(log.Topics) < 3 {
			continue
		}
		if strings.EqualFold(log.Topics[0], transferTopic) {
			return log
		}
	}
	return nil
}

// decodeTransfer extracts the recipient address and USDT amount from a
// Transfer event log
func decodeTransfer(log *txLog) (string, decimal.Decimal, error) {
	// topics[2] is the to-address left-padded to 32 bytes
	toTopic := log.Topics[2]
	if len(toTopic) != 64 {
		return "", decimal.Zero, fmt.Errorf("unexpected topic length %d", len(toTopic))
	}
	recipient := "41" + strings.ToLower(toTopic[24:])

	raw, ok := new(big.Int).SetString(strings.TrimPrefix(log.Data, "0x"), 16)
	if !ok {
		return "", decimal.Zero, fmt.Errorf("invalid amount data %q", log.Data)
	}
	amount := decimal.NewFromBigInt(raw, -usdtDecimals)

	return recipient, amount, nil
}
