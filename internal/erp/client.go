package erp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/observability/logger"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"github.com/smallbiznis/cuadra/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultPort = "8069"

	pathVersion      = "/web/webclient/version_info"
	pathAuthenticate = "/web/session/authenticate"
	pathCallKW       = "/web/dataset/call_kw"
)

// Reader is the read-only surface the reporting components depend on.
type Reader interface {
	SearchRead(ctx context.Context, model string, domain Domain, fields []string, out any, opts ...ReadOption) error
	FieldsGet(ctx context.Context, model string) (Fields, error)
}

type readOptions struct {
	limit int
	order string
}

type ReadOption func(*readOptions)

func WithLimit(n int) ReadOption {
	return func(o *readOptions) { o.limit = n }
}

func WithOrder(order string) ReadOption {
	return func(o *readOptions) { o.order = order }
}

// VersionInfo is the unauthenticated server banner.
type VersionInfo struct {
	ServerVersion string `json:"server_version"`
	ServerSerie   string `json:"server_serie"`
}

// Client speaks JSON-RPC to an Odoo server with cookie session auth.
type Client struct {
	baseURL     string
	database    string
	username    string
	password    string
	lang        string
	maxAttempts uint
	httpClient  *http.Client
	newBackOff  func() backoff.BackOff

	log     *zap.Logger
	metrics *metrics.ERPMetrics
	tracer  trace.Tracer

	mu  sync.Mutex
	uid int64
	seq atomic.Int64
}

type Option func(*Client)

// WithHTTPClient replaces the transport; the client must carry a cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackOff overrides the retry schedule.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = fn }
}

func NewClient(cfg config.ERPConfig, log *zap.Logger, m *metrics.ERPMetrics, opts ...Option) (*Client, error) {
	base, err := NormalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-hosted ERP with self-signed cert
	}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	lang := strings.TrimSpace(cfg.Lang)
	if lang == "" {
		lang = "es_ES"
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		baseURL:     base,
		database:    cfg.Database,
		username:    cfg.Username,
		password:    cfg.Password,
		lang:        lang,
		maxAttempts: uint(attempts),
		httpClient:  &http.Client{Jar: jar, Timeout: timeout, Transport: transport},
		newBackOff:  defaultBackOff,
		log:         log.Named("erp.client"),
		metrics:     m,
		tracer:      otel.Tracer("cuadra/erp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 4 * time.Second
	b.Multiplier = 2
	return b
}

// NormalizeURL adds the default ERP port when none is given.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: ODOO_URL", config.ErrMissingConfig)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid ERP url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid ERP url %q", raw)
	}
	if u.Port() == "" {
		u.Host = u.Host + ":" + defaultPort
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Version reads the server banner without authenticating.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	var info VersionInfo
	err := c.invoke(ctx, "web", "version_info", pathVersion, map[string]any{}, &info, false)
	return info, err
}

// Authenticate opens a session. It is called lazily by every read.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	var resp struct {
		UID json.RawMessage `json:"uid"`
	}
	params := map[string]any{
		"db":       c.database,
		"login":    c.username,
		"password": c.password,
	}
	err := c.invoke(ctx, "res.users", "authenticate", pathAuthenticate, params, &resp, false)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return err
	}
	var uid int64
	if isEmpty(resp.UID) || json.Unmarshal(resp.UID, &uid) != nil || uid == 0 {
		return fmt.Errorf("%w: credentials rejected for %s", ErrAuthentication, c.username)
	}
	c.uid = uid
	c.log.Info("erp session opened", zap.String("db", c.database), zap.Int64("uid", uid))
	return nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return nil
	}
	return c.authenticateLocked(ctx)
}

func (c *Client) dropSession() {
	c.mu.Lock()
	c.uid = 0
	c.mu.Unlock()
}

// SearchRead decodes matching records into out, a pointer to a slice.
func (c *Client) SearchRead(ctx context.Context, model string, domain Domain, fields []string, out any, opts ...ReadOption) error {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	if domain == nil {
		domain = Domain{}
	}
	kwargs := map[string]any{
		"domain":  domain,
		"fields":  fields,
		"context": map[string]any{"lang": c.lang},
	}
	if o.limit > 0 {
		kwargs["limit"] = o.limit
	}
	if o.order != "" {
		kwargs["order"] = o.order
	}
	return c.callKW(ctx, model, "search_read", kwargs, out)
}

// FieldsGet describes the fields of model.
func (c *Client) FieldsGet(ctx context.Context, model string) (Fields, error) {
	var fields Fields
	kwargs := map[string]any{
		"attributes": []string{"type", "string", "relation"},
		"context":    map[string]any{"lang": c.lang},
	}
	if err := c.callKW(ctx, model, "fields_get", kwargs, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (c *Client) callKW(ctx context.Context, model, method string, kwargs map[string]any, out any) error {
	params := map[string]any{
		"model":  model,
		"method": method,
		"args":   []any{},
		"kwargs": kwargs,
	}
	return c.invoke(ctx, model, method, pathCallKW+"/"+model+"/"+method, params, out, true)
}

// invoke runs one logical call: session check, retries on transient
// failures, a single re-authentication when the session expired.
func (c *Client) invoke(ctx context.Context, model, method, path string, params, out any, authenticated bool) error {
	ctx, span := c.tracer.Start(ctx, "erp "+model+"."+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("erp.model", model),
		attribute.String("erp.method", method),
	)...)

	log := logger.WithContext(ctx, c.log).With(zap.String("model", model), zap.String("method", method))
	start := time.Now()
	attempts := 0
	reauthed := false

	operation := func() (json.RawMessage, error) {
		attempts++
		if authenticated {
			if err := c.ensureSession(ctx); err != nil {
				return nil, permanentUnlessTransient(err)
			}
		}
		raw, err := c.post(ctx, path, params)
		if authenticated && !reauthed && errors.Is(err, ErrSessionExpired) {
			reauthed = true
			log.Info("erp session expired, re-authenticating")
			c.dropSession()
			if err := c.ensureSession(ctx); err != nil {
				return nil, permanentUnlessTransient(err)
			}
			raw, err = c.post(ctx, path, params)
		}
		if err != nil {
			return nil, permanentUnlessTransient(err)
		}
		return raw, nil
	}

	raw, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.metrics.IncRetry(method)
			log.Warn("erp call failed, retrying",
				zap.Int("attempt", attempts),
				zap.Duration("backoff", next),
				zap.Error(err),
			)
		}),
	)
	err = unwrapPermanent(err)
	span.SetAttributes(attribute.Int("erp.attempts", attempts))

	if err != nil {
		outcome := outcomeOf(err)
		c.metrics.ObserveCall(model, method, outcome, time.Since(start))
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, outcome)

		switch {
		case IsTransient(err):
			log.Error("erp call exhausted retries", zap.Int("attempts", attempts), zap.Error(err))
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
		case IsRemote(err):
			var re *RemoteError
			errors.As(err, &re)
			log.Error("erp remote error",
				zap.Int("code", re.Code),
				zap.String("exception", re.Exception),
				zap.String("detail", re.Detail),
			)
		}
		return err
	}

	c.metrics.ObserveCall(model, method, metrics.OutcomeOK, time.Since(start))
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s.%s result: %w", model, method, err)
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Debug   string `json:"debug"`
	} `json:"data"`
}

// post performs a single HTTP round trip and classifies its failure.
func (c *Client) post(ctx context.Context, path string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  params,
		ID:      c.seq.Add(1),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(payload), 200)}
		if transientStatus(resp.StatusCode) {
			return nil, &TransientError{Op: path, Err: statusErr}
		}
		return nil, statusErr
	}

	var decoded rpcResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode rpc envelope: %w", err)
	}
	if decoded.Error != nil {
		return nil, &RemoteError{
			Code:      decoded.Error.Code,
			Message:   decoded.Error.Message,
			Exception: decoded.Error.Data.Name,
			Detail:    decoded.Error.Data.Message,
			Debug:     decoded.Error.Data.Debug,
		}
	}
	return decoded.Result, nil
}

func permanentUnlessTransient(err error) error {
	if IsTransient(err) {
		return err
	}
	return backoff.Permanent(err)
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}

func outcomeOf(err error) string {
	var statusErr *HTTPStatusError
	switch {
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	case IsTransient(err):
		return metrics.OutcomeTransient
	case errors.Is(err, ErrAuthentication):
		return metrics.OutcomeAuth
	case IsRemote(err):
		return metrics.OutcomeRemote
	case errors.As(err, &statusErr):
		return metrics.OutcomeHTTP
	default:
		return "error"
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ Reader = (*Client)(nil)
