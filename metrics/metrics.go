// Package metrics provides Prometheus metrics for handshake operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the handshake.
type Metrics struct {
	enabled bool

	// Credential submission metrics
	submissionsTotal *prometheus.CounterVec

	// OTP metrics
	verificationsTotal *prometheus.CounterVec
	resendsTotal       prometheus.Counter

	// Resolution metrics
	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration prometheus.Histogram

	// Session metrics
	sessionExpiriesTotal prometheus.Counter
	approvalOutcomes     *prometheus.CounterVec
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authflow_credential_submissions_total",
		Help: "Total credential submissions",
	}, []string{"flow", "result"})

	m.verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authflow_otp_verifications_total",
		Help: "Total OTP verification attempts",
	}, []string{"purpose", "result"})

	m.resendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authflow_otp_resends_total",
		Help: "Total OTP resend requests",
	})

	m.resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authflow_landing_resolutions_total",
		Help: "Total landing page resolutions",
	}, []string{"result"})

	m.resolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "authflow_landing_resolution_duration_seconds",
		Help:    "Landing page resolution duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	m.sessionExpiriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authflow_session_expiries_total",
		Help: "Total sessions cleared after expiry detection",
	})

	m.approvalOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authflow_approval_outcomes_total",
		Help: "Outcomes of pending-approval waits",
	}, []string{"outcome"})

	return m
}

// RecordSubmission records a credential submission by flow
// (login, register, forgot_password) and result (ok, rejected, error).
func (m *Metrics) RecordSubmission(flow, result string) {
	if !m.enabled {
		return
	}
	m.submissionsTotal.WithLabelValues(flow, result).Inc()
}

// RecordVerification records an OTP verification attempt.
func (m *Metrics) RecordVerification(purpose, result string) {
	if !m.enabled {
		return
	}
	m.verificationsTotal.WithLabelValues(purpose, result).Inc()
}

// RecordResend records an OTP resend request.
func (m *Metrics) RecordResend() {
	if !m.enabled {
		return
	}
	m.resendsTotal.Inc()
}

// RecordResolution records a landing page resolution result
// (resolved, no_allowed_page).
func (m *Metrics) RecordResolution(result string, durationSeconds float64) {
	if !m.enabled {
		return
	}
	m.resolutionsTotal.WithLabelValues(result).Inc()
	m.resolutionDuration.Observe(durationSeconds)
}

// RecordSessionExpiry records a session cleared after expiry detection.
func (m *Metrics) RecordSessionExpiry() {
	if !m.enabled {
		return
	}
	m.sessionExpiriesTotal.Inc()
}

// RecordApprovalOutcome records how a pending-approval wait ended
// (proceed, approved, expired, canceled).
func (m *Metrics) RecordApprovalOutcome(outcome string) {
	if !m.enabled {
		return
	}
	m.approvalOutcomes.WithLabelValues(outcome).Inc()
}
