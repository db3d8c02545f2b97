package erp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

var (
	ErrAuthentication   = errors.New("erp_authentication_failed")
	ErrRetriesExhausted = errors.New("erp_retries_exhausted")
	ErrSessionExpired   = errors.New("erp_session_expired")
)

// TransientError is a transport failure worth retrying.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("erp %s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RemoteError is an application-level error reported by the ERP.
type RemoteError struct {
	Code      int
	Message   string
	Exception string
	Detail    string
	Debug     string
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString("erp remote error")
	if e.Code != 0 {
		fmt.Fprintf(&b, " %d", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Exception != "" {
		b.WriteString(" (")
		b.WriteString(e.Exception)
		b.WriteString(")")
	}
	if e.Detail != "" && e.Detail != e.Message {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrSessionExpired:
		return e.Code == 100 || strings.Contains(e.Exception, "SessionExpired")
	case ErrAuthentication:
		return strings.Contains(e.Exception, "AccessDenied")
	}
	return false
}

// HTTPStatusError is a non-2xx response that is not retried.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("erp http status %d", e.StatusCode)
	}
	return fmt.Sprintf("erp http status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRemote reports whether err carries an ERP-side diagnostic.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return true
	}
	return false
}

// classifyTransport wraps network level failures as transient. Context
// cancellation by the caller is returned unchanged.
func classifyTransport(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return &TransientError{Op: op, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransientError{Op: op, Err: err}
	}
	return err
}

// Error kinds reported to clients and stored with failed runs.
const (
	KindTransient      = "erp_unavailable"
	KindRemote         = "erp_error"
	KindAuthentication = "erp_authentication"
	KindHTTP           = "erp_http_error"
	KindInternal       = "internal_error"
)

// Kind classifies err by the ERP taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrRetriesExhausted), IsTransient(err):
		return KindTransient
	case IsRemote(err):
		return KindRemote
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return KindHTTP
	}
	return KindInternal
}
