package chargeshandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"regie/internal/domain/audit"
	"regie/internal/domain/auth"
	"regie/internal/domain/charges"
	"regie/internal/requestctx"
	"regie/internal/transport/http/api"
	"regie/internal/transport/http/middleware"
	"regie/internal/transport/http/shared"
)

const entityType = "social_charges"

type Service interface {
	Preview(ctx context.Context, tenantID, projectID, period string) (charges.Result, error)
	Save(ctx context.Context, tenantID, userID string, input charges.SaveInput) (charges.Record, error)
	List(ctx context.Context, tenantID string, filter charges.Filter, limit, offset int) ([]charges.Record, int, error)
	Get(ctx context.Context, tenantID, id string) (charges.Record, error)
	Duplicate(ctx context.Context, tenantID, userID, id string) (charges.Record, error)
	Delete(ctx context.Context, tenantID string, ids []string) (int, error)
	Stats(ctx context.Context, tenantID string, filter charges.Filter) (charges.Stats, error)
	ExportCSV(ctx context.Context, tenantID string, ids []string, w io.Writer) error
	RenderPDF(ctx context.Context, tenantID, id string, w io.Writer) error
}

type AuditRecorder interface {
	Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

type IdempotencyStore interface {
	Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) ([]byte, bool, error)
	Reserve(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (bool, error)
	Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response []byte) error
	Release(ctx context.Context, tenantID, userID, endpoint, key string) error
}

type Handler struct {
	Service     Service
	Perms       middleware.PermissionStore
	Audit       AuditRecorder
	Idempotency IdempotencyStore
	Logger      *zap.Logger
}

func NewHandler(service Service, perms middleware.PermissionStore, auditor AuditRecorder, idem IdempotencyStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Perms: perms, Audit: auditor, Idempotency: idem, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermBudgetRead, h.Perms)
	write := middleware.RequirePermission(auth.PermBudgetWrite, h.Perms)

	r.Route("/charges", func(r chi.Router) {
		r.With(read).Post("/calculate", h.handleCalculate)
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleSave)
		r.With(read).Get("/stats", h.handleStats)
		r.With(read).Post("/export", h.handleExport)
		r.With(write).Post("/bulk-delete", h.handleBulkDelete)
		r.With(read).Get("/{id}", h.handleGet)
		r.With(read).Get("/{id}/pdf", h.handlePDF)
		r.With(write).Post("/{id}/duplicate", h.handleDuplicate)
	})
}

type calculateRequest struct {
	ProjectID string `json:"projectId"`
	Period    string `json:"period"`
}

type saveRequest struct {
	ProjectID string         `json:"projectId"`
	Period    string         `json:"period"`
	Metadata  map[string]any `json:"metadata"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload calculateRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		h.failDecode(w, r, err)
		return
	}
	if rejectCalculation(w, r, payload.ProjectID, payload.Period) {
		return
	}

	result, err := h.Service.Preview(r.Context(), user.TenantID, payload.ProjectID, payload.Period)
	if err != nil {
		h.failService(w, r, err, "charges_calculate_failed", "failed to calculate social charges")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	body, err := shared.ReadBody(r)
	if err != nil {
		h.failDecode(w, r, err)
		return
	}
	var payload saveRequest
	if err := shared.DecodeJSONBytes(body, &payload); err != nil {
		h.failDecode(w, r, err)
		return
	}
	if rejectCalculation(w, r, payload.ProjectID, payload.Period) {
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash(body)
	reserved := false
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.TenantID, user.UserID, "charges.save", idempotencyKey, requestHash)
		switch {
		case errors.Is(err, middleware.ErrIdempotencyConflict):
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", middleware.GetRequestID(r.Context()))
			return
		case errors.Is(err, middleware.ErrIdempotencyInProgress):
			api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is still in progress", middleware.GetRequestID(r.Context()))
			return
		case err != nil:
			requestctx.Logger(r.Context(), h.Logger).Warn("idempotency check failed", zap.Error(err))
		case found:
			api.Created(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		default:
			claimed, err := h.Idempotency.Reserve(r.Context(), user.TenantID, user.UserID, "charges.save", idempotencyKey, requestHash)
			if err != nil {
				requestctx.Logger(r.Context(), h.Logger).Warn("idempotency reserve failed", zap.Error(err))
				break
			}
			if !claimed {
				api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is still in progress", middleware.GetRequestID(r.Context()))
				return
			}
			reserved = true
		}
	}

	record, err := h.Service.Save(r.Context(), user.TenantID, user.UserID, charges.SaveInput{
		ProjectID: payload.ProjectID,
		Period:    payload.Period,
		Metadata:  payload.Metadata,
	})
	if err != nil {
		if reserved {
			if err := h.Idempotency.Release(r.Context(), user.TenantID, user.UserID, "charges.save", idempotencyKey); err != nil {
				requestctx.Logger(r.Context(), h.Logger).Warn("idempotency release failed", zap.Error(err))
			}
		}
		h.failService(w, r, err, "charges_save_failed", "failed to save social charges")
		return
	}

	h.audit(r, user, audit.ActionChargesSave, record.ID, record)
	if reserved {
		if response, err := json.Marshal(record); err == nil {
			if err := h.Idempotency.Save(r.Context(), user.TenantID, user.UserID, "charges.save", idempotencyKey, requestHash, response); err != nil {
				requestctx.Logger(r.Context(), h.Logger).Warn("idempotency save failed", zap.Error(err))
			}
		}
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	records, total, err := h.Service.List(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		h.failService(w, r, err, "charges_list_failed", "failed to list social charges")
		return
	}
	if records == nil {
		records = []charges.Record{}
	}
	api.SuccessWithMeta(w, records, api.Meta{Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), user.TenantID, filter)
	if err != nil {
		h.failService(w, r, err, "charges_stats_failed", "failed to compute social charges stats")
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.failService(w, r, err, "charges_get_failed", "failed to load social charges")
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	if err := h.Service.RenderPDF(r.Context(), user.TenantID, id, &buf); err != nil {
		h.failService(w, r, err, "charges_pdf_failed", "failed to render social charges statement")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=social-charges-%s.pdf", id))
	if _, err := buf.WriteTo(w); err != nil {
		requestctx.Logger(r.Context(), h.Logger).Warn("write pdf failed", zap.Error(err))
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload idsRequest
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		h.failDecode(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Service.ExportCSV(r.Context(), user.TenantID, payload.IDs, &buf); err != nil {
		h.failService(w, r, err, "charges_export_failed", "failed to export social charges")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=social-charges.csv")
	if _, err := buf.WriteTo(w); err != nil {
		requestctx.Logger(r.Context(), h.Logger).Warn("write csv failed", zap.Error(err))
	}
}

func (h *Handler) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.Service.Duplicate(r.Context(), user.TenantID, user.UserID, id)
	if err != nil {
		h.failService(w, r, err, "charges_duplicate_failed", "failed to duplicate social charges")
		return
	}
	h.audit(r, user, audit.ActionChargesDuplicate, record.ID, map[string]any{"duplicatedFrom": id})
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload idsRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		h.failDecode(w, r, err)
		return
	}
	validator := shared.NewValidator()
	if len(payload.IDs) == 0 {
		validator.Add("ids", "must contain at least one id")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	deleted, err := h.Service.Delete(r.Context(), user.TenantID, payload.IDs)
	if err != nil {
		h.failService(w, r, err, "charges_delete_failed", "failed to delete social charges")
		return
	}
	h.audit(r, user, audit.ActionChargesDelete, strings.Join(payload.IDs, ","), map[string]any{"ids": payload.IDs, "deleted": deleted})
	api.Success(w, map[string]int{"deleted": deleted}, middleware.GetRequestID(r.Context()))
}

func rejectCalculation(w http.ResponseWriter, r *http.Request, projectID, period string) bool {
	validator := shared.NewValidator()
	validator.Required("projectId", projectID, "is required")
	validator.Required("period", period, "is required")
	validator.Period("period", period)
	return validator.Reject(w, middleware.GetRequestID(r.Context()))
}

func parseFilter(w http.ResponseWriter, r *http.Request) (charges.Filter, bool) {
	query := r.URL.Query()
	filter := charges.Filter{
		ProjectID: strings.TrimSpace(query.Get("projectId")),
		Period:    strings.TrimSpace(query.Get("period")),
	}
	validator := shared.NewValidator()
	validator.Period("period", filter.Period)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return charges.Filter{}, false
	}
	return filter, true
}

func (h *Handler) failDecode(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case shared.IsBodyTooLarge(err):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
	case errors.Is(err, shared.ErrEmptyBody):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body is required", requestID)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid json payload", requestID)
	}
}

func (h *Handler) failService(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, charges.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "social charges calculation not found", requestID)
	case errors.Is(err, charges.ErrMissingInput):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{
			{Field: "projectId", Reason: "project and period are required"},
		})
	default:
		requestctx.Logger(r.Context(), h.Logger).Error(message, zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

// audit never fails the request.
func (h *Handler) audit(r *http.Request, user auth.UserContext, action, entityID string, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, entityType, entityID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, after); err != nil {
		requestctx.Logger(r.Context(), h.Logger).Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}
