package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)
}

func TestErrorToProblem(t *testing.T) {
	h := testHandler()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "wrapped context cancellation",
			err:        fmt.Errorf("reading upload: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api error passes through status",
			err:        MissingParameterError("csv_file"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("request rejected: %w", ErrPayloadTooLarge),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "unsupported media api error",
			err:        UnsupportedMediaError("excel_file", "x.pdf", []string{".xls", ".xlsx"}),
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedFile,
		},
		{
			name:       "report failed api error",
			err:        ErrReportFailed,
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeReportFailed,
		},
		{
			name:       "not found by message",
			err:        errors.New("sheet not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "oversized body by message",
			err:        errors.New("http: request body too large"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "unknown error is internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/bank-statement/process", nil)

			problem := h.ErrorToProblem(tt.err, r)

			require.NotNil(t, problem)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/bank-statement/process", problem.Instance)
		})
	}
}

func TestHandleError(t *testing.T) {
	h := testHandler()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/payment-extract/process", nil)

	h.HandleError(w, r, UnsupportedMediaError("excel_file", "report.csv", []string{".xls", ".xlsx"}))

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, TypeUnsupportedFile, decoded["type"])
	assert.Contains(t, decoded["detail"], "report.csv")
	assert.Contains(t, decoded, "trace_id")
}

func TestHandleErrorNilIsNoop(t *testing.T) {
	h := testHandler()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/health", nil)

	h.HandleError(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestHandlePanic(t *testing.T) {
	h := testHandler()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/inventory/uploadfiles", nil)

	h.HandlePanic(w, r, "something broke")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, TypeInternal, decoded["type"])
	// Stack details stay out of the payload unless enabled.
	assert.NotContains(t, decoded, "stack")
}

func TestHandlePanicIncludesStackWhenEnabled(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), true)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/inventory/uploadfiles", nil)

	h.HandlePanic(w, r, "something broke")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Contains(t, decoded, "stack")
	assert.Equal(t, "something broke", decoded["panic"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := testHandler()

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/nope", nil)

		h.NotFound(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
		assert.Equal(t, TypeNotFound, decoded["type"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("DELETE", "/api/aging-reports/process", nil)

		h.MethodNotAllowed(w, r)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
		assert.Contains(t, decoded["detail"], "DELETE")
	})
}
