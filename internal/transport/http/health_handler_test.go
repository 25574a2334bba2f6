package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	"github.com/DerekChan65535/pygrays-api/internal/services"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts"
)

func newTestHealthHandler(cfg *config.Config) *HealthHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewHealthHandler(services.NewHealthService(cfg, logger), logger)
}

func TestHealthHandler_Endpoints(t *testing.T) {
	handler := newTestHealthHandler(config.Default())

	tests := []struct {
		name           string
		endpoint       string
		handlerFunc    http.HandlerFunc
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:           "health check endpoint",
			endpoint:       config.HealthEndpoint,
			handlerFunc:    handler.HealthCheck,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				assert.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ok", response["status"])
				assert.Contains(t, response, "timestamp")
				assert.Equal(t, contracts.Version, response["version"])
			},
		},
		{
			name:           "readiness check endpoint",
			endpoint:       config.HealthEndpoint + "/ready",
			handlerFunc:    handler.ReadinessCheck,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				assert.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ready", response["status"])
				assert.Contains(t, response, "services")
			},
		},
		{
			name:           "liveness check endpoint",
			endpoint:       config.HealthEndpoint + "/live",
			handlerFunc:    handler.LivenessCheck,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				assert.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "alive", response["status"])
				assert.Contains(t, response, "runtime")
			},
		},
		{
			name:           "version endpoint",
			endpoint:       config.VersionEndpoint,
			handlerFunc:    handler.Version,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				assert.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, contracts.Version, response["version"])
				assert.Contains(t, response, "go_version")
				assert.Contains(t, response, "os")
				assert.Contains(t, response, "arch")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.endpoint, nil)
			rec := httptest.NewRecorder()

			tt.handlerFunc(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, rec.Body.Bytes())
			}
		})
	}
}

func TestHealthHandler_ReadinessNotReady(t *testing.T) {
	cfg := config.Default()
	cfg.Processing.BankAccounts = nil
	handler := newTestHealthHandler(cfg)

	req := httptest.NewRequest("GET", config.HealthEndpoint+"/ready", nil)
	rec := httptest.NewRecorder()

	handler.ReadinessCheck(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "not_ready", response["status"])
}
