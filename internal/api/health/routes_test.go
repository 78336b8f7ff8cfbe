package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qianmo517/reader/internal/api/health"
)

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func ready(context.Context) error { return nil }

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	rr, body := serve(t, health.Router(health.ReadinessFunc(ready)), "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		check      health.ReadinessFunc
		wantStatus int
		wantKey    string
	}{
		{name: "ready", check: ready, wantStatus: http.StatusOK, wantKey: "status"},
		{
			name: "registry not loaded",
			check: func(context.Context) error {
				return errors.New("book source registry not loaded")
			},
			wantStatus: http.StatusServiceUnavailable,
			wantKey:    "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr, body := serve(t, health.Router(tt.check), "/readiness")
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, body, tt.wantKey)
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	rr, body := serve(t, health.Router(health.ReadinessFunc(ready)), "/version")
	assert.Equal(t, http.StatusOK, rr.Code)
	for _, key := range []string{"version", "commit", "build_date", "go_version", "platform"} {
		assert.Contains(t, body, key)
	}
}
