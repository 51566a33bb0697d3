package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/infrastructure/cache"
)

const (
	loginPath        = "/api/v1/auth/login"
	subaccountsPath  = "/api/v1/subaccounts"
	transactionsPath = "/api/v1/transactions"
	withdrawPath     = "/api/v1/subaccounts/%s/withdraw"

	tokenCacheKey = "exchange"

	// sessions last an hour server-side; refresh well before that
	sessionLifetime = 50 * time.Minute
)

// Config holds exchange API settings
type Config struct {
	BaseURL  string
	APIKey   string
	APIToken string
	Timeout  time.Duration
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("exchange: base URL is required")
	}
	if c.APIKey == "" || c.APIToken == "" {
		return fmt.Errorf("exchange: API credentials are required")
	}
	return nil
}

// Subaccount is one managed sub-account on the exchange
type Subaccount struct {
	Number  string `json:"number"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// Transaction is one movement on a sub-account
type Transaction struct {
	ID          string `json:"id"`
	EndToEndID  string `json:"endToEndId"`
	Subaccount  string `json:"subaccount"`
	Type        string `json:"type"` // CREDIT or DEBIT
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// WithdrawResult reports the outcome of a full-balance withdrawal
type WithdrawResult struct {
	Subaccount string `json:"subaccount"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
	Raw        []byte `json:"-"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type apiError struct {
	Message string `json:"message"`
}

// Client talks to the exchange sub-account API.
// A session token from the login endpoint is cached until shortly before
// it would expire.
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     cache.TokenCache
	logger     *zap.Logger
}

// NewClient creates an exchange API client
func NewClient(config *Config, tokens cache.TokenCache, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}, nil
}

// ListSubaccounts returns all sub-accounts visible to the API key
func (c *Client) ListSubaccounts(ctx context.Context) ([]Subaccount, error) {
	body, err := c.doRequest(ctx, http.MethodGet, subaccountsPath, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Subaccounts []Subaccount `json:"subaccounts"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("exchange: failed to parse subaccounts response: %w", err)
	}
	return result.Subaccounts, nil
}

// ListTransactions returns movements across all sub-accounts in [from, to]
func (c *Client) ListTransactions(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))

	body, err := c.doRequest(ctx, http.MethodGet, transactionsPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("exchange: failed to parse transactions response: %w", err)
	}
	return result.Transactions, nil
}

// WithdrawFullBalance sweeps the entire available balance of a sub-account
// to its registered destination. The provider rejects the call when the
// balance is zero; that case is returned as a SKIPPED result, not an error.
func (c *Client) WithdrawFullBalance(ctx context.Context, subaccountNumber string) (*WithdrawResult, error) {
	if subaccountNumber == "" {
		return nil, fmt.Errorf("exchange: subaccount number is required")
	}

	payload, _ := json.Marshal(map[string]string{"mode": "full"})
	path := fmt.Sprintf(withdrawPath, url.PathEscape(subaccountNumber))

	body, err := c.doRequest(ctx, http.MethodPost, path, payload)
	if isInsufficientBalance(err) {
		c.logger.Info("withdrawal skipped, no balance to sweep",
			zap.String("subaccount", subaccountNumber))
		return &WithdrawResult{Subaccount: subaccountNumber, Status: "SKIPPED"}, nil
	}
	if err != nil {
		return nil, err
	}

	var result WithdrawResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("exchange: failed to parse withdraw response: %w", err)
	}
	result.Raw = body

	c.logger.Info("full balance withdrawal requested",
		zap.String("subaccount", subaccountNumber),
		zap.String("amount", result.Amount),
		zap.String("status", result.Status))

	return &result, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	token, err := c.sessionToken(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("exchange: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("exchange: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.tokens.Invalidate(ctx, tokenCacheKey)
		return nil, fmt.Errorf("exchange: request unauthorized")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("exchange: request failed with status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("exchange: request failed with status %d", resp.StatusCode)
	}

	return body, nil
}

// isInsufficientBalance recognizes the provider's rejection of a sweep over
// an empty sub-account
func isInsufficientBalance(err error) bool {
	return err != nil && strings.Contains(err.Error(), "insufficient balance")
}

// sessionToken returns a cached session token or logs in for a fresh one
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	if token, ok, err := c.tokens.Get(ctx, tokenCacheKey); err != nil {
		return "", fmt.Errorf("exchange: token cache read failed: %w", err)
	} else if ok {
		return token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"apiKey":   c.config.APIKey,
		"apiToken": c.config.APIToken,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("exchange: failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange: login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("exchange: failed to read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("exchange: login returned status %d: %s", resp.StatusCode, string(body))
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("exchange: failed to parse login response: %w", err)
	}
	if lr.Token == "" {
		return "", fmt.Errorf("exchange: login response missing token")
	}

	if err := c.tokens.Set(ctx, tokenCacheKey, lr.Token, time.Now().Add(sessionLifetime)); err != nil {
		c.logger.Warn("failed to cache exchange token", zap.Error(err))
	}

	return lr.Token, nil
}
