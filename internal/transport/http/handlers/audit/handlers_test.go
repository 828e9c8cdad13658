package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regie/internal/domain/audit"
	"regie/internal/domain/auth"
	"regie/internal/transport/http/middleware"
)

type fakeLister struct {
	events []audit.Event
	filter audit.Filter
}

func (f *fakeLister) Count(context.Context, string, audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeLister) List(_ context.Context, _ string, filter audit.Filter, _ bool, _, _ int) ([]audit.Event, error) {
	f.filter = filter
	return f.events, nil
}

func serve(lister *fakeLister, role, path string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Route("/api/v1", NewHandler(lister, auth.StaticPermissions{}, nil).RegisterRoutes)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: role}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuditRequiresAdmin(t *testing.T) {
	rec := serve(&fakeLister{}, auth.RoleProducer, "/api/v1/audit/events")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAuditEvents(t *testing.T) {
	lister := &fakeLister{events: []audit.Event{{ID: "e1", Action: audit.ActionChargesSave}}}
	rec := serve(lister, auth.RoleAdmin, "/api/v1/audit/events?entityType=social_charges&entityId=c1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"charges.save"`)
	assert.Equal(t, "social_charges", lister.filter.EntityType)
	assert.Equal(t, "c1", lister.filter.EntityID)
}

func TestExportAuditEvents(t *testing.T) {
	lister := &fakeLister{events: []audit.Event{{
		ID:        "e1",
		Action:    audit.ActionChargesDelete,
		CreatedAt: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}}}
	rec := serve(lister, auth.RoleAdmin, "/api/v1/audit/events/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "e1,,charges.delete,,,,,2024-03-01T12:00:00Z", lines[1])
}
