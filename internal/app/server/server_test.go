package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regie/internal/domain/auth"
	"regie/internal/domain/charges"
	"regie/internal/domain/compensation"
	"regie/internal/platform/config"
	"regie/internal/platform/metrics"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type emptySource struct{}

func (emptySource) ListForProject(context.Context, string, string) ([]compensation.Record, error) {
	return nil, nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:          "router-secret",
		Environment:        "test",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 100,
	}
}

func newTestRouter(db Pinger, collector *metrics.Collector) http.Handler {
	return NewRouter(Deps{
		Config:       testConfig(),
		Metrics:      collector,
		DB:           db,
		Charges:      charges.NewService(nil, emptySource{}),
		Compensation: compensation.NewService(nil),
	})
}

func TestHealthAndReadiness(t *testing.T) {
	router := newTestRouter(pinger{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newTestRouter(pinger{err: errors.New("down")}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.New()
	router := newTestRouter(pinger{}, collector)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "regie_http_requests_total")

	rec = httptest.NewRecorder()
	newTestRouter(pinger{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	router := newTestRouter(pinger{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/charges", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCalculateThroughRouter(t *testing.T) {
	router := newTestRouter(pinger{}, nil)
	token, err := auth.GenerateToken("router-secret", auth.Claims{UserID: "u1", TenantID: "t1", RoleName: auth.RoleViewer}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/charges/calculate", strings.NewReader(`{"projectId":"p1","period":"2024-01"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"totalGross":"0"`)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestBodyLimitThroughRouter(t *testing.T) {
	router := newTestRouter(pinger{}, nil)
	token, err := auth.GenerateToken("router-secret", auth.Claims{UserID: "u1", TenantID: "t1", RoleName: auth.RoleViewer}, time.Hour)
	require.NoError(t, err)

	body := `{"projectId":"` + strings.Repeat("x", 8192) + `","period":"2024-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/charges/calculate", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
