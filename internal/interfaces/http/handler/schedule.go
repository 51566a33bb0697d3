package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	scheduleapp "github.com/remitdesk/backend/internal/application/schedule"
	"github.com/remitdesk/backend/internal/domain/schedule"
)

// CreateBroadcastScheduleRequest represents a request to create a broadcast schedule
type CreateBroadcastScheduleRequest struct {
	Name       string   `json:"name" binding:"required,max=200"`
	Message    string   `json:"message" binding:"required"`
	GroupIDs   []string `json:"group_ids" binding:"required,min=1"`
	Type       string   `json:"type" binding:"required,oneof=ONCE DAILY WEEKLY"`
	Timezone   string   `json:"timezone" binding:"omitempty,timezone"`
	AtTime     string   `json:"at_time" binding:"required"`
	Date       string   `json:"date"`
	DaysOfWeek []int    `json:"days_of_week" binding:"omitempty,dive,min=0,max=6"`
}

// CreateWithdrawalScheduleRequest represents a request to create a withdrawal schedule
type CreateWithdrawalScheduleRequest struct {
	SubaccountNumber string `json:"subaccount_number" binding:"required,max=100"`
	SubaccountName   string `json:"subaccount_name" binding:"max=200"`
	Type             string `json:"type" binding:"required,oneof=ONCE DAILY WEEKLY"`
	Timezone         string `json:"timezone" binding:"omitempty,timezone"`
	AtTime           string `json:"at_time" binding:"required"`
	Date             string `json:"date"`
	DaysOfWeek       []int  `json:"days_of_week" binding:"omitempty,dive,min=0,max=6"`
}

// SetActiveRequest toggles a schedule on or off
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ScheduleSpecResponse represents the recurrence part of a schedule
type ScheduleSpecResponse struct {
	Type       string `json:"type"`
	Timezone   string `json:"timezone"`
	AtTime     string `json:"at_time"`
	Date       string `json:"date,omitempty"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
}

// BroadcastScheduleResponse represents a broadcast schedule in API responses
type BroadcastScheduleResponse struct {
	ID         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	Message    string               `json:"message"`
	GroupIDs   []string             `json:"group_ids"`
	Spec       ScheduleSpecResponse `json:"spec"`
	Active     bool                 `json:"active"`
	LastRunAt  *time.Time           `json:"last_run_at"`
	NextRunAt  *time.Time           `json:"next_run_at"`
	LastStatus string               `json:"last_status,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// WithdrawalScheduleResponse represents a withdrawal schedule in API responses
type WithdrawalScheduleResponse struct {
	ID               uuid.UUID            `json:"id"`
	SubaccountNumber string               `json:"subaccount_number"`
	SubaccountName   string               `json:"subaccount_name"`
	Spec             ScheduleSpecResponse `json:"spec"`
	Active           bool                 `json:"active"`
	LastRunAt        *time.Time           `json:"last_run_at"`
	NextRunAt        *time.Time           `json:"next_run_at"`
	LastStatus       string               `json:"last_status,omitempty"`
	LastError        string               `json:"last_error,omitempty"`
	LastResponse     json.RawMessage      `json:"last_response,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func toSpecResponse(s schedule.Spec) ScheduleSpecResponse {
	resp := ScheduleSpecResponse{
		Type:     string(s.Type),
		Timezone: s.Timezone,
		AtTime:   s.AtTime,
		Date:     s.Date,
	}
	for _, d := range s.DaysOfWeek {
		resp.DaysOfWeek = append(resp.DaysOfWeek, int(d))
	}
	return resp
}

func toBroadcastResponse(b *schedule.BroadcastSchedule) BroadcastScheduleResponse {
	return BroadcastScheduleResponse{
		ID:         b.ID,
		Name:       b.Name,
		Message:    b.Message,
		GroupIDs:   b.GroupIDs,
		Spec:       toSpecResponse(b.Spec),
		Active:     b.Active,
		LastRunAt:  b.LastRunAt,
		NextRunAt:  b.NextRunAt,
		LastStatus: string(b.LastStatus),
		LastError:  b.LastError,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toWithdrawalResponse(w *schedule.WithdrawalSchedule) WithdrawalScheduleResponse {
	return WithdrawalScheduleResponse{
		ID:               w.ID,
		SubaccountNumber: w.SubaccountNumber,
		SubaccountName:   w.SubaccountName,
		Spec:             toSpecResponse(w.Spec),
		Active:           w.Active,
		LastRunAt:        w.LastRunAt,
		NextRunAt:        w.NextRunAt,
		LastStatus:       string(w.LastStatus),
		LastError:        w.LastError,
		LastResponse:     json.RawMessage(w.LastResponse),
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func weekdays(days []int) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

// BroadcastScheduleHandler handles broadcast schedule API endpoints
type BroadcastScheduleHandler struct {
	BaseHandler
	service *scheduleapp.BroadcastService
}

// NewBroadcastScheduleHandler creates a new BroadcastScheduleHandler
func NewBroadcastScheduleHandler(service *scheduleapp.BroadcastService) *BroadcastScheduleHandler {
	return &BroadcastScheduleHandler{service: service}
}

// RegisterRoutes registers broadcast schedule routes on the API group
func (h *BroadcastScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	broadcasts := rg.Group("/schedules/broadcasts")
	{
		broadcasts.POST("", h.Create)
		broadcasts.GET("", h.List)
		broadcasts.GET("/:id", h.Get)
		broadcasts.PUT("/:id/active", h.SetActive)
		broadcasts.DELETE("/:id", h.Delete)
	}
}

// Create registers a new broadcast schedule.
func (h *BroadcastScheduleHandler) Create(c *gin.Context) {
	var req CreateBroadcastScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), scheduleapp.CreateBroadcastRequest{
		Name:       req.Name,
		Message:    req.Message,
		GroupIDs:   req.GroupIDs,
		Type:       req.Type,
		Timezone:   req.Timezone,
		AtTime:     req.AtTime,
		Date:       req.Date,
		DaysOfWeek: weekdays(req.DaysOfWeek),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toBroadcastResponse(created))
}

// List returns broadcast schedules, optionally only active ones.
func (h *BroadcastScheduleHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	schedules, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]BroadcastScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toBroadcastResponse(s))
	}
	h.Success(c, out)
}

// Get returns a broadcast schedule by id.
func (h *BroadcastScheduleHandler) Get(c *gin.Context) {
	id, ok := scheduleID(&h.BaseHandler, c)
	if !ok {
		return
	}

	s, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toBroadcastResponse(s))
}

// SetActive toggles a broadcast schedule. Reactivating recomputes the next
// run from the current time.
func (h *BroadcastScheduleHandler) SetActive(c *gin.Context) {
	id, ok := scheduleID(&h.BaseHandler, c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	s, err := h.service.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toBroadcastResponse(s))
}

// Delete removes a broadcast schedule.
func (h *BroadcastScheduleHandler) Delete(c *gin.Context) {
	id, ok := scheduleID(&h.BaseHandler, c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// WithdrawalScheduleHandler handles withdrawal schedule API endpoints
type WithdrawalScheduleHandler struct {
	BaseHandler
	service *scheduleapp.WithdrawalService
}

// NewWithdrawalScheduleHandler creates a new WithdrawalScheduleHandler
func NewWithdrawalScheduleHandler(service *scheduleapp.WithdrawalService) *WithdrawalScheduleHandler {
	return &WithdrawalScheduleHandler{service: service}
}

// RegisterRoutes registers withdrawal schedule routes on the API group
func (h *WithdrawalScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	withdrawals := rg.Group("/schedules/withdrawals")
	{
		withdrawals.POST("", h.Create)
		withdrawals.GET("", h.List)
		withdrawals.GET("/:id", h.Get)
		withdrawals.PUT("/:id/active", h.SetActive)
		withdrawals.DELETE("/:id", h.Delete)
	}
}

// Create registers a new scheduled full-balance withdrawal.
func (h *WithdrawalScheduleHandler) Create(c *gin.Context) {
	var req CreateWithdrawalScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), scheduleapp.CreateWithdrawalRequest{
		SubaccountNumber: req.SubaccountNumber,
		SubaccountName:   req.SubaccountName,
		Type:             req.Type,
		Timezone:         req.Timezone,
		AtTime:           req.AtTime,
		Date:             req.Date,
		DaysOfWeek:       weekdays(req.DaysOfWeek),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toWithdrawalResponse(created))
}

// List returns withdrawal schedules, optionally only active ones.
func (h *WithdrawalScheduleHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	schedules, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]WithdrawalScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toWithdrawalResponse(s))
	}
	h.Success(c, out)
}

// Get returns a withdrawal schedule by id.
func (h *WithdrawalScheduleHandler) Get(c *gin.Context) {
	id, ok := scheduleID(&h.BaseHandler, c)
	if !ok {
		return
	}

	s, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toWithdrawalResponse(s))
}

// SetActive toggles a withdrawal schedule.
func (h *WithdrawalScheduleHandler) SetActive(c *gin.Context) {
	id, ok := scheduleID(&h.BaseHandler, c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	s, err := h.service.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toWithdrawalResponse(s))
}

// Delete removes a withdrawal schedule.
func (h *WithdrawalScheduleHandler) Delete(c *gin.Context) {
	id, ok := scheduleID(&h.BaseHandler, c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func scheduleID(h *BaseHandler, c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID")
		return uuid.Nil, false
	}
	return id, true
}
