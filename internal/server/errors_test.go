package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"missing config", fmt.Errorf("erp client: %w", config.ErrMissingConfig), http.StatusInternalServerError, "configuration_error"},
		{"transient", &erp.TransientError{Op: "search_read", Err: errors.New("connection reset")}, http.StatusServiceUnavailable, erp.KindTransient},
		{"retries exhausted", fmt.Errorf("read: %w", erp.ErrRetriesExhausted), http.StatusServiceUnavailable, erp.KindTransient},
		{"remote", &erp.RemoteError{Code: 200, Message: "Odoo Server Error"}, http.StatusBadGateway, erp.KindRemote},
		{"http status", &erp.HTTPStatusError{StatusCode: 404}, http.StatusBadGateway, erp.KindHTTP},
		{"run in progress", ratelimit.ErrRunInProgress, http.StatusConflict, "run_in_progress"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, payload.Type)
		})
	}
}

func TestMapErrorRemoteDiagnostic(t *testing.T) {
	err := &erp.RemoteError{
		Code:    200,
		Message: "Odoo Server Error",
		Debug:   "ValueError: Invalid field 'x_lote' on model 'product.template'\nTraceback...",
	}

	_, payload := mapError(fmt.Errorf("read templates: %w", err))

	assert.Equal(t, "Odoo Server Error: ValueError: Invalid field 'x_lote' on model 'product.template'", payload.Diagnostic)
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(newValidationError("lot", "required", "lot is required"))

	assert.Equal(t, "Bad Request", errType)
	assert.Equal(t, "required", code)
}
