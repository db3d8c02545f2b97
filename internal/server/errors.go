package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	"github.com/smallbiznis/cuadra/internal/auth/password"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/export"
	"github.com/smallbiznis/cuadra/internal/ratelimit"
	salesdomain "github.com/smallbiznis/cuadra/internal/sales/domain"
	"github.com/smallbiznis/cuadra/internal/session"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type       string            `json:"type"`
	Message    string            `json:"message"`
	Diagnostic string            `json:"diagnostic,omitempty"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate_limited")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrReportNotCached  = errors.New("report_not_computed")
	ErrInvalidExportFmt = errors.New("invalid_format")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, password.ErrInvalidPassword),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many attempts, try again later",
		}
	case errors.Is(err, ratelimit.ErrRunInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "run_in_progress",
			Message: "a computation for this report is already running",
		}
	case errors.Is(err, ErrReportNotCached):
		return http.StatusConflict, errorPayload{
			Type:    "report_not_computed",
			Message: "run the report before exporting it",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, config.ErrMissingConfig):
		return http.StatusInternalServerError, errorPayload{
			Type:    "configuration_error",
			Message: "the ERP connection is not configured",
		}
	case errors.Is(err, context.Canceled):
		return 499, errorPayload{
			Type:    "canceled",
			Message: "request canceled",
		}
	}

	switch erp.Kind(err) {
	case erp.KindTransient:
		return http.StatusServiceUnavailable, errorPayload{
			Type:    erp.KindTransient,
			Message: "the ERP is unreachable, try again",
		}
	case erp.KindRemote:
		return http.StatusBadGateway, errorPayload{
			Type:       erp.KindRemote,
			Message:    "the ERP rejected the request",
			Diagnostic: remoteDiagnostic(err),
		}
	case erp.KindAuthentication:
		return http.StatusBadGateway, errorPayload{
			Type:    erp.KindAuthentication,
			Message: "the ERP refused the configured credentials",
		}
	case erp.KindHTTP:
		return http.StatusBadGateway, errorPayload{
			Type:    erp.KindHTTP,
			Message: "the ERP answered with an unexpected status",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog feeds the request logger with the mapped type and code.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return http.StatusText(status), code
}

func remoteDiagnostic(err error) string {
	var remote *erp.RemoteError
	if !errors.As(err, &remote) {
		return ""
	}
	if detail := strings.TrimSpace(remote.Debug); detail != "" {
		if idx := strings.IndexByte(detail, '\n'); idx > 0 {
			detail = detail[:idx]
		}
		return remote.Message + ": " + detail
	}
	return remote.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidExportFmt),
		errors.Is(err, catalogdomain.ErrInvalidDepartureMonth),
		errors.Is(err, salesdomain.ErrInvalidDate),
		errors.Is(err, salesdomain.ErrInvalidDateRange),
		errors.Is(err, auditdomain.ErrInvalidPage),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, export.ErrUnknownTable):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInvalidExportFmt):
		return ErrInvalidExportFmt.Error()
	case errors.Is(err, catalogdomain.ErrInvalidDepartureMonth):
		return catalogdomain.ErrInvalidDepartureMonth.Error()
	case errors.Is(err, salesdomain.ErrInvalidDate):
		return salesdomain.ErrInvalidDate.Error()
	case errors.Is(err, salesdomain.ErrInvalidDateRange):
		return salesdomain.ErrInvalidDateRange.Error()
	case errors.Is(err, auditdomain.ErrInvalidPage):
		return auditdomain.ErrInvalidPage.Error()
	case errors.Is(err, auditdomain.ErrInvalidPageToken):
		return auditdomain.ErrInvalidPageToken.Error()
	case errors.Is(err, export.ErrUnknownTable):
		return "invalid_table"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_date_range":
		return "from must not be after to"
	default:
		return "invalid value"
	}
}
