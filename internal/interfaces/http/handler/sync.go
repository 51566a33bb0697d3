package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/remitdesk/backend/internal/application/integration"
	"github.com/remitdesk/backend/internal/domain/integration"
)

// SyncHandler handles partner sync API endpoints
type SyncHandler struct {
	BaseHandler
	syncService     *integrationapp.BankSyncService
	exchangeService *integrationapp.ExchangeSyncService
	usdtService     *integrationapp.USDTService
	transactions    integration.BankTransactionRepository
	exchangeTxs     integration.ExchangeTransactionRepository
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	syncService *integrationapp.BankSyncService,
	exchangeService *integrationapp.ExchangeSyncService,
	usdtService *integrationapp.USDTService,
	transactions integration.BankTransactionRepository,
	exchangeTxs integration.ExchangeTransactionRepository,
) *SyncHandler {
	return &SyncHandler{
		syncService:     syncService,
		exchangeService: exchangeService,
		usdtService:     usdtService,
		transactions:    transactions,
		exchangeTxs:     exchangeTxs,
	}
}

// SyncResultResponse represents the outcome of one sync pass
type SyncResultResponse struct {
	WindowFrom time.Time `json:"window_from"`
	WindowTo   time.Time `json:"window_to"`
	Fetched    int       `json:"fetched"`
	Created    int       `json:"created"`
	Refreshed  int       `json:"refreshed"`
	Ingested   int       `json:"ingested"`
}

// SyncStatusResponse represents the persisted sync cursor of a source
type SyncStatusResponse struct {
	Source       string     `json:"source"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	LastStatus   string     `json:"last_status,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// BankTransactionResponse represents a partner statement entry
type BankTransactionResponse struct {
	ID              uint64          `json:"id"`
	EndToEndID      string          `json:"end_to_end_id"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	Type            string          `json:"type,omitempty"`
	Operation       string          `json:"operation"`
	Value           string          `json:"value"`
	Description     string          `json:"description,omitempty"`
	PayerName       string          `json:"payer_name,omitempty"`
	PayerDocument   string          `json:"payer_document,omitempty"`
	RawDetails      json.RawMessage `json:"raw_details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ExchangeTransactionResponse represents an exchange sub-account movement
type ExchangeTransactionResponse struct {
	ID              uint64          `json:"id"`
	ExternalID      string          `json:"external_id"`
	EndToEndID      string          `json:"end_to_end_id,omitempty"`
	Subaccount      string          `json:"subaccount,omitempty"`
	Operation       string          `json:"operation"`
	Value           string          `json:"value"`
	Description     string          `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	RawDetails      json.RawMessage `json:"raw_details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ExchangeSubaccountResponse represents one exchange sub-account
type ExchangeSubaccountResponse struct {
	Number  string `json:"number"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// ConfirmUSDTRequest represents an operator-reported USDT settlement to verify
type ConfirmUSDTRequest struct {
	TxID      string `json:"tx_id" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// TransferCheckResponse represents the result of a USDT transfer verification
type TransferCheckResponse struct {
	TxID      string `json:"tx_id"`
	Confirmed bool   `json:"confirmed"`
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func toBankTransactionResponse(t *integration.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		ID:              t.ID,
		EndToEndID:      t.EndToEndID,
		TransactionID:   t.TransactionID,
		TransactionDate: t.TransactionDate,
		Type:            t.Type,
		Operation:       string(t.Operation),
		Value:           t.Value,
		Description:     t.Description,
		PayerName:       t.PayerName,
		PayerDocument:   t.PayerDocument,
		RawDetails:      json.RawMessage(t.RawDetails),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toExchangeTransactionResponse(t *integration.ExchangeTransaction) ExchangeTransactionResponse {
	return ExchangeTransactionResponse{
		ID:              t.ID,
		ExternalID:      t.ExternalID,
		EndToEndID:      t.EndToEndID,
		Subaccount:      t.Subaccount,
		Operation:       string(t.Operation),
		Value:           t.Value,
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
		RawDetails:      json.RawMessage(t.RawDetails),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toSyncStatusResponse(cursor *integration.SyncCursor) SyncStatusResponse {
	resp := SyncStatusResponse{
		Source:     cursor.Source,
		LastStatus: cursor.LastStatus,
		LastError:  cursor.LastError,
	}
	if !cursor.LastSyncedAt.IsZero() {
		at := cursor.LastSyncedAt
		resp.LastSyncedAt = &at
	}
	return resp
}

// RegisterRoutes registers sync routes on the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/bank", h.TriggerBankSync)
		sync.GET("/bank/status", h.BankSyncStatus)
		sync.GET("/bank/transactions", h.RecentTransactions)
		sync.POST("/exchange", h.TriggerExchangeSync)
		sync.GET("/exchange/status", h.ExchangeSyncStatus)
		sync.GET("/exchange/transactions", h.RecentExchangeTransactions)
		sync.GET("/exchange/subaccounts", h.ExchangeSubaccounts)
		sync.POST("/usdt/confirm", h.ConfirmUSDT)
		sync.GET("/usdt/status", h.USDTStatus)
	}
}

// TriggerBankSync runs one bank statement sync pass immediately.
func (h *SyncHandler) TriggerBankSync(c *gin.Context) {
	result, err := h.syncService.Sync(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SyncResultResponse{
		WindowFrom: result.WindowFrom,
		WindowTo:   result.WindowTo,
		Fetched:    result.Fetched,
		Created:    result.Created,
		Refreshed:  result.Refreshed,
		Ingested:   result.Ingested,
	})
}

// BankSyncStatus returns the persisted cursor of the bank sync source.
func (h *SyncHandler) BankSyncStatus(c *gin.Context) {
	cursor, err := h.syncService.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSyncStatusResponse(cursor))
}

// recentLimit parses the ?limit query, defaulting to 50. Writes the error
// response itself when the value is out of range.
func (h *SyncHandler) recentLimit(c *gin.Context) (int, bool) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			h.BadRequest(c, "limit must be between 1 and 500")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

// RecentTransactions returns the latest pulled statement entries.
func (h *SyncHandler) RecentTransactions(c *gin.Context) {
	limit, ok := h.recentLimit(c)
	if !ok {
		return
	}

	txs, err := h.transactions.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]BankTransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toBankTransactionResponse(t))
	}
	h.Success(c, out)
}

// TriggerExchangeSync runs one exchange sub-account sync pass immediately.
func (h *SyncHandler) TriggerExchangeSync(c *gin.Context) {
	result, err := h.exchangeService.Sync(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SyncResultResponse{
		WindowFrom: result.WindowFrom,
		WindowTo:   result.WindowTo,
		Fetched:    result.Fetched,
		Created:    result.Created,
		Refreshed:  result.Refreshed,
	})
}

// ExchangeSyncStatus returns the persisted cursor of the exchange sync source.
func (h *SyncHandler) ExchangeSyncStatus(c *gin.Context) {
	cursor, err := h.exchangeService.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSyncStatusResponse(cursor))
}

// RecentExchangeTransactions returns the latest pulled sub-account movements.
func (h *SyncHandler) RecentExchangeTransactions(c *gin.Context) {
	limit, ok := h.recentLimit(c)
	if !ok {
		return
	}

	txs, err := h.exchangeTxs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ExchangeTransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toExchangeTransactionResponse(t))
	}
	h.Success(c, out)
}

// ExchangeSubaccounts lists the exchange sub-accounts and their balances.
func (h *SyncHandler) ExchangeSubaccounts(c *gin.Context) {
	subs, err := h.exchangeService.Subaccounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ExchangeSubaccountResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, ExchangeSubaccountResponse{
			Number:  sub.Number,
			Name:    sub.Name,
			Balance: sub.Balance,
		})
	}
	h.Success(c, out)
}

// USDTStatus returns the persisted cursor of the usdt verification source.
func (h *SyncHandler) USDTStatus(c *gin.Context) {
	cursor, err := h.usdtService.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSyncStatusResponse(cursor))
}

// ConfirmUSDT verifies an operator-reported USDT settlement on chain.
func (h *SyncHandler) ConfirmUSDT(c *gin.Context) {
	var req ConfirmUSDTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	check, err := h.usdtService.Confirm(c.Request.Context(), integrationapp.ConfirmUSDTRequest{
		TxID:      req.TxID,
		Recipient: req.Recipient,
		Amount:    req.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := TransferCheckResponse{
		TxID:      check.TxID,
		Confirmed: check.Confirmed,
		Recipient: check.Recipient,
		Reason:    check.Reason,
	}
	if !check.Amount.IsZero() {
		resp.Amount = check.Amount.String()
	}
	h.Success(c, resp)
}
