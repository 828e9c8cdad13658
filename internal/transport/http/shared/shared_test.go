package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("projectId", " ", "is required")
	v.Period("period", "2024-13")
	v.Enum("status", "unknown", []string{"PENDING", "PAID"}, "must be a known status")
	v.NonNegative("hours", decimal.NewFromInt(-1))
	v.Period("other", "")

	issues := v.Issues()
	require.Len(t, issues, 4)
	assert.Equal(t, "hours", issues[0].Field)
	assert.Equal(t, "period", issues[1].Field)
	assert.Equal(t, "projectId", issues[2].Field)
	assert.Equal(t, "status", issues[3].Field)
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start, ok := v.Date("startDate", "2024-02-10")
	require.True(t, ok)
	end, ok := v.Date("endDate", "2024-02-01")
	require.True(t, ok)
	v.DateOrder("startDate", start, "endDate", end)
	assert.Len(t, v.Issues(), 2)

	_, ok = v.Date("other", "10/02/2024")
	assert.False(t, ok)
}

func TestValidatorReject(t *testing.T) {
	v := NewValidator()
	rec := httptest.NewRecorder()
	assert.False(t, v.Reject(rec, "req"))

	v.Required("period", "", "is required")
	assert.True(t, v.Reject(rec, "req"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=900&offset=20", nil)
	page := ParsePagination(req, 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 20}, page)

	req = httptest.NewRequest(http.MethodGet, "/?limit=-4&offset=x", nil)
	assert.Equal(t, Pagination{Limit: 50, Offset: 0}, ParsePagination(req, 50, 200))
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		ProjectID string `json:"projectId"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"projectId":"p1"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "p1", dst.ProjectID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unexpected":1}`))
	assert.Error(t, DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &dst), ErrEmptyBody)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
