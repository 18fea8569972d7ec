// Package authflow provides a framework-agnostic Go SDK for the admin
// console authentication handshake.
//
// The SDK defines interfaces for credential submission, OTP verification,
// approval watching, session persistence, and landing-page resolution.
// Concrete implementations are injected via Option functions, making the
// SDK independent of any specific auth server.
//
// Example usage with the REST adapter:
//
//	api, err := restapi.New("https://api.example.com")
//	client, err := authflow.NewClient(
//	    authflow.Config{BaseURL: "https://api.example.com"},
//	    authflow.WithAuthenticator(api),
//	    authflow.WithOTPBackend(api),
//	    authflow.WithSessionStore(store),
//	    authflow.WithResolver(landing.Default()),
//	)
package authflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chimerakang/authflow-go/audit"
	"github.com/chimerakang/authflow-go/metrics"
)

// Client is the main entry point for handshake operations.
// Service implementations are injected via Option functions.
type Client struct {
	config   Config
	logger   *slog.Logger
	auth     Authenticator
	otp      OTPBackend
	password PasswordBackend
	watcher  ApprovalWatcher
	store    SessionStore
	decoder  ClaimsDecoder
	resolver Resolver
	metrics  *metrics.Metrics
	audit    *audit.Logger
}

// Config holds connection and behavior configuration.
type Config struct {
	// BaseURL is the address of the remote auth API.
	BaseURL string

	// ApprovalWindow is how long a pending login attempt is waited on
	// before it is treated as expired. Default: 5 minutes.
	ApprovalWindow time.Duration

	// RevalidateInterval is how often a persisted session is re-checked
	// for expiry. Default: 1 minute.
	RevalidateInterval time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithAuthenticator sets the credential submission implementation.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) { c.auth = a }
}

// WithOTPBackend sets the OTP verification implementation.
func WithOTPBackend(o OTPBackend) Option {
	return func(c *Client) { c.otp = o }
}

// WithPasswordBackend sets the password reset implementation.
func WithPasswordBackend(p PasswordBackend) Option {
	return func(c *Client) { c.password = p }
}

// WithApprovalWatcher sets the login-attempt status implementation.
func WithApprovalWatcher(w ApprovalWatcher) Option {
	return func(c *Client) { c.watcher = w }
}

// WithSessionStore sets the session persistence implementation.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.store = s }
}

// WithClaimsDecoder sets the token payload decoder.
func WithClaimsDecoder(d ClaimsDecoder) Option {
	return func(c *Client) { c.decoder = d }
}

// WithResolver sets the landing-page resolution implementation.
func WithResolver(r Resolver) Option {
	return func(c *Client) { c.resolver = r }
}

// WithMetrics sets the Prometheus metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAuditLogger sets the audit event logger.
func WithAuditLogger(l *audit.Logger) Option {
	return func(c *Client) { c.audit = l }
}

// Default timing for the handshake.
const (
	DefaultApprovalWindow     = 5 * time.Minute
	DefaultRevalidateInterval = 1 * time.Minute
)

// NewClient creates a new handshake client with the given configuration
// and options.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ApprovalWindow == 0 {
		cfg.ApprovalWindow = DefaultApprovalWindow
	}
	if cfg.RevalidateInterval == 0 {
		cfg.RevalidateInterval = DefaultRevalidateInterval
	}

	c := &Client{config: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}

	if c.auth == nil {
		return nil, fmt.Errorf("authflow: an Authenticator is required")
	}
	if c.metrics == nil {
		c.metrics = metrics.New(false)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Auth returns the authenticator.
func (c *Client) Auth() Authenticator { return c.auth }

// OTP returns the OTP backend, or nil if not configured.
func (c *Client) OTP() OTPBackend { return c.otp }

// Password returns the password backend, or nil if not configured.
func (c *Client) Password() PasswordBackend { return c.password }

// Watcher returns the approval watcher, or nil if not configured.
func (c *Client) Watcher() ApprovalWatcher { return c.watcher }

// Store returns the session store, or nil if not configured.
func (c *Client) Store() SessionStore { return c.store }

// Decoder returns the claims decoder, or nil if not configured.
func (c *Client) Decoder() ClaimsDecoder { return c.decoder }

// Resolver returns the landing-page resolver, or nil if not configured.
func (c *Client) Resolver() Resolver { return c.resolver }

// CurrentIdentity returns the identity snapshot of the persisted session,
// clearing the session and returning ErrNoSession when the stored token
// has expired.
func (c *Client) CurrentIdentity(ctx context.Context) (*Identity, error) {
	if c.store == nil {
		return nil, fmt.Errorf("authflow: no session store configured")
	}
	sess, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if c.decoder != nil {
		claims, err := c.decoder.Decode(sess.Token)
		if err != nil {
			// Malformed token payloads are fatal to the session.
			_ = c.store.Clear(ctx)
			return nil, fmt.Errorf("authflow: decode session token: %w", err)
		}
		if claims.Expired(time.Now()) {
			_ = c.store.Clear(ctx)
			return nil, ErrNoSession
		}
	}

	id := sess.Identity
	return &id, nil
}

// Logout clears the persisted session.
func (c *Client) Logout(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("authflow: clear session: %w", err)
	}
	c.logger.InfoContext(ctx, "session cleared on logout")
	c.auditEvent(audit.Event{Action: "session_cleared", Result: "success", Details: "logout"})
	return nil
}

// auditEvent emits an audit event when an audit logger is configured.
func (c *Client) auditEvent(e audit.Event) {
	if c.audit != nil {
		c.audit.Log(e)
	}
}

// Close releases all resources held by the client.
// Any injected implementation that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []interface{}{
		c.auth, c.otp, c.password,
		c.watcher, c.store, c.decoder, c.resolver,
	}
	if c.audit != nil {
		closers = append(closers, c.audit)
	}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
