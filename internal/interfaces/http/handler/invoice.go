package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	ledgerapp "github.com/remitdesk/backend/internal/application/ledger"
	"github.com/remitdesk/backend/internal/domain/ledger"
)

// InvoiceHandler handles ledger invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *ledgerapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *ledgerapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// CreateInvoiceRequest represents a request to create a ledger record
type CreateInvoiceRequest struct {
	TransactionID string     `json:"transaction_id" binding:"max=100"`
	SenderName    string     `json:"sender_name" binding:"max=200"`
	RecipientName string     `json:"recipient_name" binding:"max=200"`
	PixKey        string     `json:"pix_key" binding:"max=200"`
	Amount        string     `json:"amount" binding:"max=32"`
	Credit        string     `json:"credit" binding:"max=32"`
	Notes         string     `json:"notes"`
	SourceGroup   string     `json:"source_group" binding:"max=100"`
	ReceivedAt    *time.Time `json:"received_at"`
}

// UpdateInvoiceRequest represents a partial update of a ledger record
type UpdateInvoiceRequest struct {
	SenderName    *string    `json:"sender_name" binding:"omitempty,max=200"`
	RecipientName *string    `json:"recipient_name" binding:"omitempty,max=200"`
	PixKey        *string    `json:"pix_key" binding:"omitempty,max=200"`
	Amount        *string    `json:"amount" binding:"omitempty,max=32"`
	Credit        *string    `json:"credit" binding:"omitempty,max=32"`
	Notes         *string    `json:"notes"`
	ReceivedAt    *time.Time `json:"received_at"`
}

// ListInvoicesRequest represents invoice list query parameters
type ListInvoicesRequest struct {
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	Search         string `form:"search"`
	DateFrom       string `form:"date_from"`
	DateTo         string `form:"date_to"`
	IncludeDeleted bool   `form:"include_deleted"`
	ManualOnly     bool   `form:"manual_only"`
	Sort           string `form:"sort" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents a ledger record in API responses
type InvoiceResponse struct {
	ID            uint64     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	SenderName    string     `json:"sender_name"`
	RecipientName string     `json:"recipient_name"`
	PixKey        string     `json:"pix_key"`
	Amount        string     `json:"amount"`
	Credit        string     `json:"credit"`
	Balance       string     `json:"balance"`
	Notes         string     `json:"notes"`
	SourceGroup   string     `json:"source_group"`
	IsManual      bool       `json:"is_manual"`
	IsDeleted     bool       `json:"is_deleted"`
	ReceivedAt    time.Time  `json:"received_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toInvoiceResponse(inv *ledger.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		TransactionID: inv.TransactionID,
		SenderName:    inv.SenderName,
		RecipientName: inv.RecipientName,
		PixKey:        inv.PixKey,
		Amount:        inv.Amount,
		Credit:        inv.Credit,
		Balance:       inv.Balance,
		Notes:         inv.Notes,
		SourceGroup:   inv.SourceGroup,
		IsManual:      inv.IsManual,
		IsDeleted:     inv.IsDeleted,
		ReceivedAt:    inv.ReceivedAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func toInvoiceResponses(invoices []*ledger.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	return out
}

// RegisterRoutes registers invoice routes on the API group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.PUT("/:id", h.Update)
		invoices.DELETE("/:id", h.Delete)
		invoices.POST("/recalculate", h.Recalculate)
	}
}

// Create records a manual ledger entry and rebuilds the running balance.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), ledgerapp.CreateInvoiceRequest{
		TransactionID: req.TransactionID,
		SenderName:    req.SenderName,
		RecipientName: req.RecipientName,
		PixKey:        req.PixKey,
		Amount:        req.Amount,
		Credit:        req.Credit,
		Notes:         req.Notes,
		SourceGroup:   req.SourceGroup,
		IsManual:      true,
		ReceivedAt:    req.ReceivedAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInvoiceResponse(invoice))
}

// Get returns a single ledger record by id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// List returns ledger records matching the query filters.
func (h *InvoiceHandler) List(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	filter := ledger.InvoiceFilter{
		Page:           req.Page,
		PageSize:       req.PageSize,
		Search:         req.Search,
		IncludeDeleted: req.IncludeDeleted,
		ManualOnly:     req.ManualOnly,
		SortAsc:        req.Sort == "asc",
	}

	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			h.BadRequest(c, "date_from must be YYYY-MM-DD")
			return
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			h.BadRequest(c, "date_to must be YYYY-MM-DD")
			return
		}
		// Inclusive upper bound covering the whole day.
		end := to.AddDate(0, 0, 1)
		filter.DateTo = &end
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(invoices), total, req.Page, req.PageSize)
}

// Update edits a ledger record and rebuilds the balance from the earlier of
// the old and new timestamps.
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), id, ledgerapp.UpdateInvoiceRequest{
		SenderName:    req.SenderName,
		RecipientName: req.RecipientName,
		PixKey:        req.PixKey,
		Amount:        req.Amount,
		Credit:        req.Credit,
		Notes:         req.Notes,
		ReceivedAt:    req.ReceivedAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// Delete soft-deletes a ledger record; ?hard=true removes the row entirely.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	var err error
	if c.Query("hard") == "true" {
		err = h.invoiceService.Delete(c.Request.Context(), id)
	} else {
		err = h.invoiceService.SoftDelete(c.Request.Context(), id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Recalculate rebuilds every running balance from the earliest record.
func (h *InvoiceHandler) Recalculate(c *gin.Context) {
	if err := h.invoiceService.Recalculate(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"recalculated": true})
}

func (h *InvoiceHandler) invoiceID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.BadRequest(c, "Invalid invoice ID")
		return 0, false
	}
	return id, true
}
