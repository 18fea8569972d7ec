package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/chimerakang/authflow-go/metrics"
	"golang.org/x/sync/singleflight"
)

// Monitor periodically re-checks the persisted token for expiry and
// clears the store when it lapses. The tick is a best-effort check: a
// token can expire between ticks, so callers that need an authoritative
// answer call Check directly.
type Monitor struct {
	store    authflow.SessionStore
	decoder  authflow.ClaimsDecoder
	interval time.Duration
	logger   *slog.Logger
	onExpire func()
	metrics  *metrics.Metrics

	sf   singleflight.Group
	done chan struct{}
	stop func()
}

// MonitorOption configures the Monitor.
type MonitorOption func(*Monitor)

// WithInterval sets the re-check interval. Default: 1 minute.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// WithOnExpire sets a callback invoked after an expired session has been
// cleared, e.g. to force the console back to the login page.
func WithOnExpire(fn func()) MonitorOption {
	return func(m *Monitor) { m.onExpire = fn }
}

// WithMetrics sets a Prometheus recorder for session expiries.
func WithMetrics(rec *metrics.Metrics) MonitorOption {
	return func(m *Monitor) { m.metrics = rec }
}

// NewMonitor creates a session monitor. Call Start to begin ticking.
func NewMonitor(store authflow.SessionStore, decoder authflow.ClaimsDecoder, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		store:    store,
		decoder:  decoder,
		interval: authflow.DefaultRevalidateInterval,
		logger:   slog.Default(),
		metrics:  metrics.New(false),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start launches the periodic check. It returns immediately; Close stops
// the loop.
func (m *Monitor) Start(ctx context.Context) {
	if m.done != nil {
		return // already running
	}
	ctx, cancel := context.WithCancel(ctx)
	m.stop = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := m.Check(ctx); err != nil && err != authflow.ErrNoSession {
					m.logger.WarnContext(ctx, "session re-check failed", "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Check loads the session and reports whether it is still valid,
// clearing the store when the token has expired or cannot be decoded.
// Concurrent calls are collapsed into one.
func (m *Monitor) Check(ctx context.Context) (bool, error) {
	v, err, _ := m.sf.Do("check", func() (interface{}, error) {
		return m.check(ctx)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (m *Monitor) check(ctx context.Context) (bool, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return false, err
	}

	claims, err := m.decoder.Decode(sess.Token)
	if err != nil {
		// Malformed token payloads are fatal to the session.
		_ = m.store.Clear(ctx)
		m.expired()
		return false, fmt.Errorf("authflow/session: decode persisted token: %w", err)
	}

	if claims.Expired(time.Now()) {
		if cerr := m.store.Clear(ctx); cerr != nil {
			return false, cerr
		}
		m.logger.InfoContext(ctx, "session expired, cleared store",
			"admin_id", claims.AdminID)
		m.expired()
		return false, nil
	}
	return true, nil
}

func (m *Monitor) expired() {
	m.metrics.RecordSessionExpiry()
	if m.onExpire != nil {
		m.onExpire()
	}
}

// Close stops the periodic check and waits for the loop to exit.
func (m *Monitor) Close() error {
	if m.stop == nil {
		return nil
	}
	m.stop()
	<-m.done
	m.stop = nil
	m.done = nil
	return nil
}
