package compensationhandler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"regie/internal/domain/audit"
	"regie/internal/domain/auth"
	"regie/internal/domain/compensation"
	"regie/internal/requestctx"
	"regie/internal/transport/http/api"
	"regie/internal/transport/http/middleware"
	"regie/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, tenantID string, filter compensation.Filter, limit, offset int) ([]compensation.Record, int, error)
	Create(ctx context.Context, tenantID, userID string, input compensation.CreateInput) (compensation.Record, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Audit   AuditRecorder
	Logger  *zap.Logger
}

func NewHandler(service Service, perms middleware.PermissionStore, auditor AuditRecorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Perms: perms, Audit: auditor, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/compensation", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermBudgetRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermBudgetWrite, h.Perms)).Post("/", h.handleCreate)
	})
}

type createRequest struct {
	ProjectID   string          `json:"projectId"`
	ProjectName string          `json:"projectName"`
	ContactID   string          `json:"contactId"`
	ContactName string          `json:"contactName"`
	Role        string          `json:"role"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourlyRate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Notes       string          `json:"notes"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	validator := shared.NewValidator()
	filter := compensation.Filter{
		Search:    strings.TrimSpace(query.Get("search")),
		ProjectID: strings.TrimSpace(query.Get("projectId")),
		ContactID: strings.TrimSpace(query.Get("contactId")),
		Status:    strings.TrimSpace(query.Get("status")),
	}
	validator.Enum("status", filter.Status, compensation.Statuses, "must be one of PENDING, APPROVED, PAID, CANCELLED")
	filter.StartDate = optionalDate(validator, "startDate", query.Get("startDate"))
	filter.EndDate = optionalDate(validator, "endDate", query.Get("endDate"))
	filter.MinAmount = optionalAmount(validator, "minAmount", query.Get("minAmount"))
	filter.MaxAmount = optionalAmount(validator, "maxAmount", query.Get("maxAmount"))
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	records, total, err := h.Service.List(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		requestctx.Logger(r.Context(), h.Logger).Error("list compensation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "compensation_list_failed", "failed to list compensation records", middleware.GetRequestID(r.Context()))
		return
	}
	if records == nil {
		records = []compensation.Record{}
	}
	api.SuccessWithMeta(w, records, api.Meta{Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		switch {
		case shared.IsBodyTooLarge(err):
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
		case errors.Is(err, shared.ErrEmptyBody):
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body is required", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid json payload", middleware.GetRequestID(r.Context()))
		}
		return
	}

	validator := shared.NewValidator()
	validator.Required("projectId", payload.ProjectID, "is required")
	validator.Required("contactId", payload.ContactID, "is required")
	validator.Required("role", payload.Role, "is required")
	validator.Enum("status", payload.Status, compensation.Statuses, "must be one of PENDING, APPROVED, PAID, CANCELLED")
	validator.NonNegative("hours", payload.Hours)
	validator.NonNegative("hourlyRate", payload.HourlyRate)
	validator.NonNegative("totalAmount", payload.TotalAmount)
	startDate, _ := validator.Date("startDate", payload.StartDate)
	endDate, _ := validator.Date("endDate", payload.EndDate)
	validator.DateOrder("startDate", startDate, "endDate", endDate)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	record, err := h.Service.Create(r.Context(), user.TenantID, user.UserID, compensation.CreateInput{
		ProjectID:   payload.ProjectID,
		ProjectName: payload.ProjectName,
		ContactID:   payload.ContactID,
		ContactName: payload.ContactName,
		Role:        payload.Role,
		Hours:       payload.Hours,
		HourlyRate:  payload.HourlyRate,
		TotalAmount: payload.TotalAmount,
		Currency:    payload.Currency,
		Status:      payload.Status,
		StartDate:   startDate,
		EndDate:     endDate,
		Notes:       payload.Notes,
	})
	if err != nil {
		requestctx.Logger(r.Context(), h.Logger).Error("create compensation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "compensation_create_failed", "failed to create compensation record", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, audit.ActionCompensationAdd, "compensation_record", record.ID,
			middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, record); err != nil {
			requestctx.Logger(r.Context(), h.Logger).Warn("audit record failed", zap.Error(err))
		}
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func optionalDate(v *shared.Validator, field, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	parsed, _ := v.Date(field, raw)
	return parsed
}

func optionalAmount(v *shared.Validator, field, raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		v.Add(field, "must be a number")
		return nil
	}
	return &amount
}
