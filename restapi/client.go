// Package restapi adapts the authflow interfaces to the console's remote
// JSON REST API.
//
// One Client implements Authenticator, OTPBackend, PasswordBackend, and
// ApprovalWatcher over the /auth/* endpoints. Server rejections are
// classified into authflow.ErrorCode exactly once, in this package; the
// server's free-text wording never leaks past it.
//
// Usage:
//
//	api, err := restapi.New("https://api.example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := authflow.NewClient(
//	    authflow.Config{BaseURL: api.BaseURL()},
//	    authflow.WithAuthenticator(api),
//	    authflow.WithOTPBackend(api),
//	    authflow.WithPasswordBackend(api),
//	    authflow.WithApprovalWatcher(api),
//	)
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/joho/godotenv"
)

// EnvBaseURL is the environment variable naming the auth API base URL.
const EnvBaseURL = "AUTH_API_BASE_URL"

// Client talks to the remote auth API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// compile-time checks
var (
	_ authflow.Authenticator   = (*Client)(nil)
	_ authflow.OTPBackend      = (*Client)(nil)
	_ authflow.PasswordBackend = (*Client)(nil)
	_ authflow.ApprovalWatcher = (*Client)(nil)
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a REST adapter for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("authflow/restapi: base URL is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// BaseURLFromEnv reads the API base URL from the environment, loading a
// .env file first when one exists.
func BaseURLFromEnv() (string, error) {
	_ = godotenv.Load() // a missing .env file is fine
	base := os.Getenv(EnvBaseURL)
	if base == "" {
		return "", fmt.Errorf("authflow/restapi: %s is not set", EnvBaseURL)
	}
	return base, nil
}

// errorBody is the JSON shape of a rejection response.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// postJSON sends a JSON POST and decodes a 2xx response into out.
// Non-2xx responses and transport failures come back as *authflow.Error.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("authflow/restapi: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("authflow/restapi: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// getJSON sends a GET and decodes a 2xx response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("authflow/restapi: create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures carry no server wording; callers treat
		// them like generic server errors.
		return &authflow.Error{Code: authflow.CodeNetwork, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &authflow.Error{Code: authflow.CodeNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		apiErr := classify(resp.StatusCode, msg)
		c.logger.DebugContext(req.Context(), "auth API rejected request",
			"path", req.URL.Path, "status", resp.StatusCode, "code", string(apiErr.Code))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &authflow.Error{
			Code:    authflow.CodeMalformedResponse,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("decode response: %v", err),
		}
	}
	return nil
}

// classify maps a rejection to a structured code. This is the only place
// that matches on the server's free-text wording; everything downstream
// switches on the code.
func classify(status int, message string) *authflow.Error {
	lower := strings.ToLower(message)
	e := &authflow.Error{Status: status, Message: message}

	switch {
	case status == http.StatusUnauthorized && strings.Contains(lower, "invalid credentials"):
		e.Code = authflow.CodeInvalidCredentials
	case status == http.StatusForbidden && strings.Contains(lower, "verify your account"):
		e.Code = authflow.CodeAccountUnverified
	case status == http.StatusTooManyRequests || strings.Contains(lower, "too many attempts"):
		e.Code = authflow.CodeRateLimited
	case status >= http.StatusInternalServerError:
		e.Code = authflow.CodeServer
	case strings.Contains(lower, "otp") || strings.Contains(lower, "invalid") || strings.Contains(lower, "expired"):
		e.Code = authflow.CodeOTPRejected
	default:
		e.Code = authflow.CodeUnknown
	}
	return e
}
