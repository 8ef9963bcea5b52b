package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/common"
	"github.com/dmitrijs2005/authdesk/internal/logging"
)

const (
	authBasePath  = "/auth"
	oauthBasePath = "/oauth2/authorization/"

	maxMessageLen = 512
)

// HTTPClient talks to the auth service over HTTP/JSON.
type HTTPClient struct {
	serverURL  string
	apiURL     string
	httpClient *http.Client
	logger     logging.Logger
}

var _ Client = (*HTTPClient)(nil)

type options struct {
	base    http.RoundTripper
	timeout time.Duration
	logger  logging.Logger
}

// Option customises NewHTTPClient.
type Option func(*options)

// WithTransport replaces the base round tripper (http.DefaultTransport).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		if rt != nil {
			o.base = rt
		}
	}
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewHTTPClient builds a client for the service at serverURL (scheme and
// host, e.g. "http://localhost:8080"). tokens is consulted on every request.
func NewHTTPClient(serverURL string, tokens TokenSource, opts ...Option) (*HTTPClient, error) {
	o := options{
		base:    http.DefaultTransport,
		timeout: 10 * time.Second,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	trimmed := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", serverURL)
	}

	return &HTTPClient{
		serverURL: trimmed,
		apiURL:    trimmed + authBasePath,
		httpClient: &http.Client{
			Timeout: o.timeout,
			Transport: &bearerTransport{
				base:   otelhttp.NewTransport(o.base),
				tokens: tokens,
			},
		},
		logger: o.logger,
	}, nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/plain")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "auth service unreachable", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c.logger.Debug(ctx, "auth service call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", resp.Request.Header.Get(common.RequestIDHeaderName),
		"duration", time.Since(start),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Message: extractMessage(resp.Body)}
	}
	return resp, nil
}

// do sends a request and decodes a JSON response into v (when v is non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, body, v any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doMessage sends a request whose response is a human-readable message.
func (c *HTTPClient) doMessage(ctx context.Context, method, path string, body any) (string, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return extractMessage(resp.Body), nil
}

// extractMessage accepts a JSON string, a JSON object with "message" or
// "error", or plain text.
func extractMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return truncate(strings.TrimSpace(s))
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return truncate(strings.TrimSpace(payload.Message))
		}
		return truncate(strings.TrimSpace(payload.Error))
	}

	return truncate(strings.TrimSpace(string(data)))
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen]
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/register", req)
}

func (c *HTTPClient) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return models.LoginResponse{}, err
	}
	return resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *HTTPClient) Profile(ctx context.Context) (models.UserProfile, error) {
	var p models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &p); err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	var users []models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id models.UserID) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(string(id)), nil, nil)
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/forgot-password", models.ForgotPasswordRequest{Email: email})
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/reset-password", models.ResetPasswordRequest{Token: token, NewPassword: newPassword})
}

func (c *HTTPClient) OAuthURL(provider string) string {
	return c.serverURL + oauthBasePath + url.PathEscape(provider)
}
