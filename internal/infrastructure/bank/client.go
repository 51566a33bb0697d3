package bank

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/infrastructure/cache"
)

const (
	statementPath = "/banking/v2/extrato"

	tokenCacheKey = "bank"

	// statement pages are capped by the provider; larger requests are truncated
	maxPageSize = 1000
)

// Config holds banking-partner API settings
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	Account      string
	CertFile     string
	KeyFile      string
	Timeout      time.Duration
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("bank: base URL is required")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("bank: token URL is required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("bank: client credentials are required")
	}
	return nil
}

// StatementEntry is one movement row from the partner statement API
type StatementEntry struct {
	EndToEndID      string `json:"idEndToEnd"`
	TransactionDate string `json:"dataMovimento"`
	Operation       string `json:"tipoOperacao"` // C or D
	Value           string `json:"valor"`
	Description     string `json:"descricao"`
	PayerName       string `json:"nomePagador"`
	PayerDocument   string `json:"documentoPagador"`
	PayeeName       string `json:"nomeRecebedor"`
}

type statementPage struct {
	TotalPages   int              `json:"totalPaginas"`
	TotalEntries int              `json:"totalElementos"`
	Entries      []StatementEntry `json:"transacoes"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Client talks to the banking partner statement API.
// Access tokens come from the OAuth2 client-credentials flow and are
// cached with their expiry so concurrent fetches share one token.
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     cache.TokenCache
	logger     *zap.Logger
}

// NewClient creates a bank API client
func NewClient(config *Config, tokens cache.TokenCache, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport
	if config.CertFile != "" && config.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(config.CertFile, config.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("bank: failed to load client certificate: %w", err)
		}
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		}
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		tokens: tokens,
		logger: logger,
	}, nil
}

// FetchStatement returns every statement entry in [from, to], walking all pages
func (c *Client) FetchStatement(ctx context.Context, from, to time.Time) ([]StatementEntry, error) {
	var all []StatementEntry

	page := 0
	for {
		result, err := c.fetchPage(ctx, from, to, page)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Entries...)

		page++
		if page >= result.TotalPages || len(result.Entries) == 0 {
			break
		}
	}

	c.logger.Debug("fetched bank statement",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("entries", len(all)))

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, from, to time.Time, page int) (*statementPage, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("dataInicio", from.Format("2006-01-02"))
	q.Set("dataFim", to.Format("2006-01-02"))
	q.Set("pagina", strconv.Itoa(page))
	q.Set("tamanhoPagina", strconv.Itoa(maxPageSize))
	if c.config.Account != "" {
		q.Set("contaCorrente", c.config.Account)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.BaseURL+statementPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bank: failed to build statement request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bank: statement request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bank: failed to read statement response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked server-side, drop it so the next call re-authenticates
		_ = c.tokens.Invalidate(ctx, tokenCacheKey)
		return nil, fmt.Errorf("bank: statement request unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bank: statement request returned status %d: %s", resp.StatusCode, string(body))
	}

	var result statementPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("bank: failed to parse statement response: %w", err)
	}
	return &result, nil
}

// accessToken returns a cached token or requests a fresh one
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if token, ok, err := c.tokens.Get(ctx, tokenCacheKey); err != nil {
		return "", fmt.Errorf("bank: token cache read failed: %w", err)
	} else if ok {
		return token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	if c.config.Scope != "" {
		form.Set("scope", c.config.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("bank: failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bank: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("bank: failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bank: token request returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("bank: failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("bank: token response missing access_token")
	}

	expiresAt := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if err := c.tokens.Set(ctx, tokenCacheKey, tr.AccessToken, expiresAt); err != nil {
		c.logger.Warn("failed to cache bank token", zap.Error(err))
	}

	return tr.AccessToken, nil
}

// AmountValue parses the entry value using the ledger amount rules
func (e *StatementEntry) AmountValue() string {
	return ledger.FormatAmount(ledger.ParseAmount(e.Value))
}
