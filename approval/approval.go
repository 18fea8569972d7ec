// Package approval waits out the Super-Admin approval window for a
// pending login attempt.
//
// The admin is approved out-of-band (by email the client never sees), so
// the waiter has three exits: the admin manually proceeds to OTP entry,
// the configured watcher reports the server-side status, or the local
// countdown runs out. The countdown is a hint only — when a watcher is
// configured, expiry is confirmed with the server before the attempt is
// given up.
package approval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/chimerakang/authflow-go/metrics"
)

// Outcome is how a wait ended.
type Outcome int

const (
	// OutcomeProceed — the admin clicked through to OTP entry.
	OutcomeProceed Outcome = iota

	// OutcomeApproved — the watcher reported the attempt approved.
	OutcomeApproved

	// OutcomeExpired — the window ran out (server-confirmed when a
	// watcher is configured).
	OutcomeExpired

	// OutcomeCanceled — the context was canceled.
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProceed:
		return "proceed"
	case OutcomeApproved:
		return "approved"
	case OutcomeExpired:
		return "expired"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Waiter tracks one pending login attempt through its approval window.
type Waiter struct {
	attempt authflow.LoginAttempt
	window  time.Duration
	tick    time.Duration
	poll    time.Duration
	watcher authflow.ApprovalWatcher
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	deadline  time.Time
	proceedCh chan struct{}
	once      sync.Once
}

// Option configures the Waiter.
type Option func(*Waiter)

// WithWindow sets the approval window. Default: 5 minutes.
func WithWindow(d time.Duration) Option {
	return func(w *Waiter) { w.window = d }
}

// WithTick sets the countdown resolution. Default: 1 second.
func WithTick(d time.Duration) Option {
	return func(w *Waiter) { w.tick = d }
}

// WithWatcher sets the server-side status watcher.
func WithWatcher(watcher authflow.ApprovalWatcher) Option {
	return func(w *Waiter) { w.watcher = watcher }
}

// WithPollInterval sets how often the watcher is asked for the attempt
// status. Default: 10 seconds.
func WithPollInterval(d time.Duration) Option {
	return func(w *Waiter) { w.poll = d }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Waiter) { w.logger = l }
}

// WithMetrics sets a Prometheus recorder for wait outcomes.
func WithMetrics(rec *metrics.Metrics) Option {
	return func(w *Waiter) { w.metrics = rec }
}

// New creates a waiter for the given attempt.
func New(attempt authflow.LoginAttempt, opts ...Option) *Waiter {
	w := &Waiter{
		attempt:   attempt,
		window:    authflow.DefaultApprovalWindow,
		tick:      time.Second,
		poll:      10 * time.Second,
		logger:    slog.Default(),
		metrics:   metrics.New(false),
		proceedCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Attempt returns the attempt being waited on.
func (w *Waiter) Attempt() authflow.LoginAttempt { return w.attempt }

// Proceed signals that the admin received a code and wants to enter it.
// Safe to call more than once.
func (w *Waiter) Proceed() {
	w.once.Do(func() { close(w.proceedCh) })
}

// Remaining returns the time left in the window, zero once expired or
// before Wait has started.
func (w *Waiter) Remaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.deadline.IsZero() {
		return 0
	}
	if rem := time.Until(w.deadline); rem > 0 {
		return rem
	}
	return 0
}

// Wait blocks until the wait ends and returns how. The watcher, when
// configured, is polled during the window and consulted once more before
// the expired outcome is returned.
func (w *Waiter) Wait(ctx context.Context) (Outcome, error) {
	outcome, err := w.wait(ctx)
	w.metrics.RecordApprovalOutcome(outcome.String())
	return outcome, err
}

func (w *Waiter) wait(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	w.deadline = time.Now().Add(w.window)
	w.mu.Unlock()

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	var pollC <-chan time.Time
	if w.watcher != nil {
		poller := time.NewTicker(w.poll)
		defer poller.Stop()
		pollC = poller.C
	}

	for {
		select {
		case <-w.proceedCh:
			return OutcomeProceed, nil

		case <-pollC:
			status, err := w.watcher.Status(ctx, w.attempt.ID)
			if err != nil {
				w.logger.WarnContext(ctx, "approval status poll failed",
					"attempt_id", w.attempt.ID, "err", err)
				continue
			}
			switch status {
			case authflow.AttemptApproved:
				return OutcomeApproved, nil
			case authflow.AttemptExpired:
				return OutcomeExpired, nil
			}

		case <-ticker.C:
			if w.Remaining() > 0 {
				continue
			}
			return w.expire(ctx)

		case <-ctx.Done():
			return OutcomeCanceled, ctx.Err()
		}
	}
}

// expire decides the end-of-window outcome. The local countdown alone
// never discards an attempt the server still considers approved.
func (w *Waiter) expire(ctx context.Context) (Outcome, error) {
	if w.watcher == nil {
		return OutcomeExpired, nil
	}

	status, err := w.watcher.Status(ctx, w.attempt.ID)
	if err != nil {
		w.logger.WarnContext(ctx, "could not confirm attempt expiry",
			"attempt_id", w.attempt.ID, "err", err)
		return OutcomeExpired, nil
	}
	if status == authflow.AttemptApproved {
		return OutcomeApproved, nil
	}
	return OutcomeExpired, nil
}
