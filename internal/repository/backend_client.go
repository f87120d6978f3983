package repository

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

	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-gateway/pkg/config"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/middleware/requestid"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// FetchObserver receives timing for every backend call. Endpoint is the route template, not the
// concrete path, to keep label cardinality bounded.
type FetchObserver interface {
	ObserveBackendFetch(endpoint string, status int, duration time.Duration)
}

type tokenContextKey struct{}

// WithToken stores the caller's bearer token for forwarding.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the forwarded bearer token, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// BackendClient talks JSON to the school REST backend.
type BackendClient struct {
	baseURL  string
	http     *http.Client
	observer FetchObserver
	logger   *zap.Logger
}

// NewBackendClient constructs a client with the configured base URL and fixed request timeout.
func NewBackendClient(cfg config.BackendConfig, observer FetchObserver, logger *zap.Logger) *BackendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
	}
}

// GetJSON issues a GET and decodes the body into dest.
func (c *BackendClient) GetJSON(ctx context.Context, endpoint, path string, query url.Values, dest interface{}) error {
	body, err := c.do(ctx, http.MethodGet, endpoint, path, query, nil)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return appErrors.Wrap(fmt.Errorf("decode %s: %w", endpoint, err), appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
	}
	return nil
}

// Send issues a mutating request with a JSON payload and decodes the response into dest when set.
func (c *BackendClient) Send(ctx context.Context, method, endpoint, path string, payload, dest interface{}) error {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request payload")
		}
		reader = bytes.NewReader(raw)
	}
	body, err := c.do(ctx, method, endpoint, path, nil, reader)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return appErrors.Wrap(fmt.Errorf("decode %s: %w", endpoint, err), appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
	}
	return nil
}

// getList fetches a collection endpoint. Bodies that are not JSON arrays are treated as empty.
func getList[T any](ctx context.Context, c *BackendClient, endpoint, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.GetJSON(ctx, endpoint, path, query, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		c.logger.Debug("non-array list response treated as empty", zap.String("endpoint", endpoint))
		return []T{}, nil
	}
	items := make([]T, 0)
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, appErrors.Wrap(fmt.Errorf("decode %s: %w", endpoint, err), appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
	}
	return items, nil
}

func (c *BackendClient) do(ctx context.Context, method, endpoint, path string, query url.Values, body io.Reader) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		payload, err := io.ReadAll(resp.Body)
		c.observe(endpoint, resp.StatusCode, time.Since(start))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
		}
		return payload, nil
	}

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	c.observe(endpoint, resp.StatusCode, time.Since(start))
	mapped := statusError(resp.StatusCode, payload)
	c.logger.Info("backend returned error",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("code", mapped.Code),
	)
	return nil, mapped
}

func (c *BackendClient) observe(endpoint string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendFetch(endpoint, status, d)
	}
}

type backendErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func backendMessage(payload []byte) string {
	var body backendErrorBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// statusError maps a backend failure status onto the gateway error taxonomy.
func statusError(status int, payload []byte) *appErrors.Error {
	msg := backendMessage(payload)
	cause := fmt.Errorf("backend status %d", status)
	switch {
	case status == http.StatusForbidden:
		text := appErrors.ErrForbidden.Message
		if msg != "" {
			text += ": " + msg
		}
		return appErrors.Wrap(cause, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, text)
	case status == http.StatusUnauthorized:
		return appErrors.Wrap(cause, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	case status == http.StatusNotFound:
		return appErrors.Wrap(cause, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, firstNonEmpty(msg, appErrors.ErrNotFound.Message))
	case status == http.StatusConflict:
		return appErrors.Wrap(cause, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, firstNonEmpty(msg, appErrors.ErrConflict.Message))
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return appErrors.Wrap(cause, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, firstNonEmpty(msg, appErrors.ErrValidation.Message))
	default:
		return appErrors.Wrap(cause, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsNotFound reports whether err maps to a backend 404.
func IsNotFound(err error) bool {
	return errors.Is(err, appErrors.ErrNotFound)
}
