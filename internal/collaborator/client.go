package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/observability"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// TokenProvider returns the session token to send as a bearer credential.
type TokenProvider func(ctx context.Context) (string, error)

// UnauthorizedHandler runs when a request comes back 401, unless the caller
// opted out with WithoutAuthRedirect.
type UnauthorizedHandler func(ctx context.Context)

// Options configures a Client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	TokenProvider  TokenProvider
	OnUnauthorized UnauthorizedHandler
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// Client talks to the remote collaborator API. Network failures and 5xx
// responses are retried with exponential backoff; everything else passes through.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokenProvider  TokenProvider
	onUnauthorized UnauthorizedHandler
	maxRetries     int
	baseDelay      time.Duration
	maxDelay       time.Duration
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// NewClient builds a client, filling defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 3 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient:     httpClient,
		tokenProvider:  opts.TokenProvider,
		onUnauthorized: opts.OnUnauthorized,
		maxRetries:     maxRetries,
		baseDelay:      baseDelay,
		maxDelay:       maxDelay,
		logger:         logger,
		metrics:        opts.Metrics,
	}
}

// ForSession returns a copy bound to one session's token and 401 handler.
// The underlying http.Client is shared.
func (c *Client) ForSession(tokens TokenProvider, onUnauthorized UnauthorizedHandler) *Client {
	clone := *c
	clone.tokenProvider = tokens
	clone.onUnauthorized = onUnauthorized
	return &clone
}

type ctxKey int

const suppressAuthRedirectKey ctxKey = iota

// WithoutAuthRedirect marks ctx so a 401 does not invoke the unauthorized handler.
func WithoutAuthRedirect(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressAuthRedirectKey, true)
}

func authRedirectSuppressed(ctx context.Context) bool {
	v, _ := ctx.Value(suppressAuthRedirectKey).(bool)
	return v
}

// Request describes one logical collaborator call.
type Request struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      any
}

// Do issues the request and decodes the response's data into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	raw, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := DecodeData(raw, out); err != nil {
		c.metrics.RecordCollaboratorCall(req.Operation, "decode_error")
		return apperrors.NewTransportError(fmt.Sprintf("%s: malformed response", req.Operation), err)
	}
	return nil
}

// DoRaw issues the request and returns the raw response body.
func (c *Client) DoRaw(ctx context.Context, req Request) ([]byte, error) {
	if c == nil {
		return nil, errors.New("collaborator client is nil")
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		c.metrics.RecordCollaboratorCall(req.Operation, "unauthorized")
		c.unauthorized(ctx)
		return nil, apperrors.NewUnauthorized("no session token")
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.NewValidationError("unencodable request body", map[string]any{"operation": req.Operation})
		}
	}
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	correlationID := uuid.NewString()
	logger := c.logger.With(
		zap.String("operation", req.Operation),
		zap.String("correlation_id", correlationID),
	)

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("X-Correlation-Id", correlationID)
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() == nil && attempt < c.maxRetries {
				c.metrics.RecordCollaboratorRetry(req.Operation)
				logger.Debug("collaborator request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1)); waitErr != nil {
					return nil, apperrors.NewTransportError(req.Operation+": cancelled", waitErr)
				}
				continue
			}
			c.metrics.RecordCollaboratorCall(req.Operation, "transport_error")
			logger.Warn("collaborator unreachable", zap.Error(err))
			return nil, apperrors.NewTransportError(req.Operation+": collaborator unreachable", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, apperrors.NewTransportError(req.Operation+": read response", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			c.metrics.RecordCollaboratorCall(req.Operation, "ok")
			return respBody, nil
		}
		if resp.StatusCode >= 500 && attempt < c.maxRetries {
			c.metrics.RecordCollaboratorRetry(req.Operation)
			logger.Debug("collaborator 5xx, retrying", zap.Int("attempt", attempt+1), zap.Int("status", resp.StatusCode))
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1)); waitErr != nil {
				return nil, apperrors.NewTransportError(req.Operation+": cancelled", waitErr)
			}
			continue
		}

		c.metrics.RecordCollaboratorCall(req.Operation, fmt.Sprintf("status_%d", resp.StatusCode))
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(ctx)
		}
		return nil, apperrors.FromStatus(resp.StatusCode, errorMessage(respBody))
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokenProvider == nil {
		return "", nil
	}
	token, err := c.tokenProvider(ctx)
	if err != nil {
		return "", apperrors.NewTransportError("read session token", err)
	}
	return strings.TrimSpace(token), nil
}

func (c *Client) unauthorized(ctx context.Context) {
	if c.onUnauthorized == nil || authRedirectSuppressed(ctx) {
		return
	}
	c.onUnauthorized(ctx)
}

func (c *Client) retryDelay(attempt int) time.Duration {
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errorMessage(body []byte) string {
	var parsed map[string]any
	if json.Unmarshal(body, &parsed) == nil {
		for _, key := range []string{"message", "error", "msg"} {
			if msg, ok := parsed[key].(string); ok && strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
