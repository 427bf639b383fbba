package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                { return s.name }
func (s stubChecker) Check(context.Context) error { return s.err }

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3")

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_ReadinessAllUp(t *testing.T) {
	h := NewHealthHandler("dev",
		stubChecker{name: "postgres"},
		stubChecker{name: "redis"},
	)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "up", resp.Components["postgres"].Status)
	assert.Equal(t, "up", resp.Components["redis"].Status)
}

func TestHealthHandler_ReadinessDependencyDown(t *testing.T) {
	h := NewHealthHandler("dev",
		stubChecker{name: "postgres"},
		stubChecker{name: "redis", err: stderrors.New("connection refused")},
	)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "down", resp.Components["redis"].Status)
	assert.Contains(t, resp.Components["redis"].Error, "connection refused")
}
