package compensationhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regie/internal/domain/auth"
	"regie/internal/domain/compensation"
	"regie/internal/transport/http/middleware"
)

type memoryStore struct {
	records    []compensation.Record
	lastFilter compensation.Filter
}

func (m *memoryStore) Count(context.Context, string, compensation.Filter) (int, error) {
	return len(m.records), nil
}

func (m *memoryStore) List(_ context.Context, _ string, filter compensation.Filter, _, _ int) ([]compensation.Record, error) {
	m.lastFilter = filter
	return m.records, nil
}

func (m *memoryStore) ListForProject(context.Context, string, string) ([]compensation.Record, error) {
	return m.records, nil
}

func (m *memoryStore) Create(_ context.Context, _ string, record compensation.Record) (compensation.Record, error) {
	record.ID = "rec-1"
	m.records = append(m.records, record)
	return record, nil
}

func newRouter(store *memoryStore) http.Handler {
	handler := NewHandler(compensation.NewService(store), auth.StaticPermissions{}, nil, nil)
	router := chi.NewRouter()
	router.Route("/api/v1", handler.RegisterRoutes)
	return router
}

func send(router http.Handler, role, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: role}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCompensationDefaults(t *testing.T) {
	store := &memoryStore{}
	rec := send(newRouter(store), auth.RoleAccountant, http.MethodPost, "/api/v1/compensation", `{
		"projectId": "proj1",
		"projectName": "Festival",
		"contactId": "c1",
		"contactName": "Ana",
		"role": "Lighting",
		"hours": 10,
		"hourlyRate": "25.50",
		"startDate": "2024-01-05",
		"endDate": "2024-01-06"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, store.records, 1)
	created := store.records[0]
	assert.Equal(t, "255", created.TotalAmount.String())
	assert.Equal(t, compensation.DefaultCurrency, created.Currency)
	assert.Equal(t, compensation.StatusPending, created.Status)
	assert.Equal(t, "u1", created.CreatedBy)
}

func TestCreateCompensationValidation(t *testing.T) {
	store := &memoryStore{}
	rec := send(newRouter(store), auth.RoleAccountant, http.MethodPost, "/api/v1/compensation", `{
		"projectId": "proj1",
		"role": "Lighting",
		"hours": -1,
		"status": "LOST",
		"startDate": "2024-02-05",
		"endDate": "2024-01-06"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Details struct {
				Fields []struct {
					Field string `json:"field"`
				} `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fields := map[string]bool{}
	for _, issue := range body.Error.Details.Fields {
		fields[issue.Field] = true
	}
	for _, want := range []string{"contactId", "hours", "status", "startDate", "endDate"} {
		assert.True(t, fields[want], "expected issue on %s", want)
	}
	assert.Empty(t, store.records)
}

func TestCreateCompensationRequiresWrite(t *testing.T) {
	rec := send(newRouter(&memoryStore{}), auth.RoleViewer, http.MethodPost, "/api/v1/compensation", `{}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListCompensationFilters(t *testing.T) {
	store := &memoryStore{}
	router := newRouter(store)

	rec := send(router, auth.RoleViewer, http.MethodGet, "/api/v1/compensation?projectId=proj1&status=paid&minAmount=100&startDate=2024-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"data":[]`)
	assert.Equal(t, "proj1", store.lastFilter.ProjectID)
	require.NotNil(t, store.lastFilter.MinAmount)
	assert.Equal(t, "100", store.lastFilter.MinAmount.String())
	assert.Nil(t, store.lastFilter.MaxAmount)
	assert.False(t, store.lastFilter.StartDate.IsZero())

	rec = send(router, auth.RoleViewer, http.MethodGet, "/api/v1/compensation?maxAmount=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
