package authflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chimerakang/authflow-go/audit"
)

// State is a position in the handshake state machine.
type State int

const (
	StateUnauthenticated State = iota
	StatePendingApproval
	StateAwaitingOTP
	StatePasswordResetPending
	StateLandingResolved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StatePendingApproval:
		return "pending_approval"
	case StateAwaitingOTP:
		return "awaiting_otp"
	case StatePasswordResetPending:
		return "password_reset_pending"
	case StateLandingResolved:
		return "landing_resolved"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// OTPCodeLength is the exact number of digits in a one-time passcode.
const OTPCodeLength = 6

// SanitizeOTPCode strips non-digit characters from raw input and
// truncates the result to OTPCodeLength digits. Overlong input is
// truncated, never rejected.
func SanitizeOTPCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == OTPCodeLength {
			break
		}
	}
	return b.String()
}

// failureLabel maps a backend failure to the metrics result label:
// transport and server faults are "error", everything the server
// deliberately turned down is "rejected".
func failureLabel(err error) string {
	switch CodeOf(err) {
	case CodeNetwork, CodeServer:
		return "error"
	default:
		return "rejected"
	}
}

// Flow drives one admin through the authentication handshake:
//
//	Unauthenticated → {PendingApproval | AwaitingOTP} →
//	    {PasswordResetPending | LandingPageResolved | Rejected}
//
// A Flow holds per-handshake context only (admin ID, email, purpose,
// attempt ID); the session token always lives in the client's
// SessionStore. Flow is not safe for concurrent use.
type Flow struct {
	client *Client

	state     State
	purpose   Purpose
	adminID   string
	email     string
	attemptID string
	identity  *Identity
	landing   Page
}

// NewFlow starts a fresh handshake in the Unauthenticated state.
func (c *Client) NewFlow() *Flow {
	return &Flow{client: c, state: StateUnauthenticated}
}

// State returns the current handshake state.
func (f *Flow) State() State { return f.state }

// Purpose returns the OTP purpose the flow is currently bound to.
func (f *Flow) Purpose() Purpose { return f.purpose }

// AdminID returns the admin ID carried through the handshake. Stable
// once issued by the server.
func (f *Flow) AdminID() string { return f.adminID }

// Email returns the email the handshake was started with.
func (f *Flow) Email() string { return f.email }

// AttemptID returns the pending login attempt ID, if any.
func (f *Flow) AttemptID() string { return f.attemptID }

// Identity returns the verified identity, set once the flow reaches
// LandingResolved.
func (f *Flow) Identity() *Identity { return f.identity }

// Landing returns the resolved landing page, valid in LandingResolved.
func (f *Flow) Landing() Page { return f.landing }

// PendingAttempt returns the login attempt the flow is waiting on.
func (f *Flow) PendingAttempt() LoginAttempt {
	return LoginAttempt{
		ID:      f.attemptID,
		AdminID: f.adminID,
		Email:   f.email,
		Status:  AttemptPending,
	}
}

// SubmitLogin validates and submits an email/password pair. Depending on
// the server's answer the flow moves to AwaitingOTP (purpose login) or
// PendingApproval (purpose login_approved).
func (f *Flow) SubmitLogin(ctx context.Context, creds LoginCredentials) (State, error) {
	if f.state != StateUnauthenticated {
		return f.state, fmt.Errorf("authflow: login not allowed in state %s", f.state)
	}
	if err := creds.Validate(); err != nil {
		return f.state, err
	}

	res, err := f.client.auth.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		f.client.metrics.RecordSubmission("login", failureLabel(err))
		f.client.auditEvent(audit.Event{
			Action: "login_submit", Email: creds.Email, Result: "failure", Error: err.Error(),
		})
		return f.state, err
	}
	f.client.metrics.RecordSubmission("login", "ok")
	f.client.auditEvent(audit.Event{
		Action: "login_submit", AdminID: res.AdminID, Email: creds.Email,
		AttemptID: res.AttemptID, Result: "success",
	})

	f.adminID = res.AdminID
	f.email = res.Email
	if f.email == "" {
		f.email = creds.Email
	}
	f.attemptID = res.AttemptID

	if res.Step == StepPendingApproval {
		f.purpose = PurposeLoginApproved
		f.state = StatePendingApproval
	} else {
		f.purpose = PurposeLogin
		f.state = StateAwaitingOTP
	}
	f.client.logger.DebugContext(ctx, "credentials accepted",
		"admin_id", f.adminID, "state", f.state.String())
	return f.state, nil
}

// SubmitRegistration validates and submits a new account. On success the
// flow moves to AwaitingOTP with purpose register.
func (f *Flow) SubmitRegistration(ctx context.Context, reg Registration) (State, error) {
	if f.state != StateUnauthenticated {
		return f.state, fmt.Errorf("authflow: registration not allowed in state %s", f.state)
	}
	if err := reg.Validate(); err != nil {
		return f.state, err
	}

	adminID, err := f.client.auth.Register(ctx, reg.FullName, reg.Email, reg.Password)
	if err != nil {
		f.client.metrics.RecordSubmission("register", failureLabel(err))
		return f.state, err
	}
	f.client.metrics.RecordSubmission("register", "ok")

	f.adminID = adminID
	f.email = reg.Email
	f.purpose = PurposeRegister
	f.state = StateAwaitingOTP
	return f.state, nil
}

// SubmitForgotPassword starts a password reset. On success the flow
// moves to AwaitingOTP with purpose reset_password.
func (f *Flow) SubmitForgotPassword(ctx context.Context, req EmailRequest) (State, error) {
	if f.state != StateUnauthenticated {
		return f.state, fmt.Errorf("authflow: forgot-password not allowed in state %s", f.state)
	}
	if err := req.Validate(); err != nil {
		return f.state, err
	}

	adminID, err := f.client.auth.ForgotPassword(ctx, req.Email)
	if err != nil {
		f.client.metrics.RecordSubmission("forgot_password", failureLabel(err))
		return f.state, err
	}
	f.client.metrics.RecordSubmission("forgot_password", "ok")

	f.adminID = adminID
	f.email = req.Email
	f.purpose = PurposeResetPassword
	f.state = StateAwaitingOTP
	return f.state, nil
}

// ProceedToOTP moves a pending-approval flow to OTP entry. This is the
// admin confirming they received a code after out-of-band approval.
func (f *Flow) ProceedToOTP() (State, error) {
	if f.state != StatePendingApproval {
		return f.state, fmt.Errorf("authflow: cannot proceed to OTP from state %s", f.state)
	}
	f.state = StateAwaitingOTP
	return f.state, nil
}

// ApprovalExpired handles the approval window running out. When an
// ApprovalWatcher is configured the server is asked first: an attempt
// the server still reports as approved keeps the flow alive and moves
// it to OTP entry; only a server-confirmed pending or expired attempt
// (or the absence of a watcher) abandons the handshake.
func (f *Flow) ApprovalExpired(ctx context.Context) (State, error) {
	if f.state != StatePendingApproval {
		return f.state, fmt.Errorf("authflow: no approval pending in state %s", f.state)
	}

	if w := f.client.watcher; w != nil {
		status, err := w.Status(ctx, f.attemptID)
		if err == nil && status == AttemptApproved {
			f.state = StateAwaitingOTP
			return f.state, nil
		}
	}

	f.client.logger.InfoContext(ctx, "approval window expired",
		"attempt_id", f.attemptID)
	f.client.auditEvent(audit.Event{
		Action: "approval_expired", AdminID: f.adminID, Email: f.email,
		AttemptID: f.attemptID, Result: "rejected",
	})
	f.reset()
	return f.state, nil
}

// VerifyOTP sanitizes and submits a one-time passcode. Depending on the
// bound purpose the flow ends at PasswordResetPending, LandingResolved,
// or Rejected (no page matches the permission set).
func (f *Flow) VerifyOTP(ctx context.Context, rawCode string) (State, error) {
	if f.state != StateAwaitingOTP {
		return f.state, fmt.Errorf("authflow: no OTP expected in state %s", f.state)
	}
	if f.client.otp == nil {
		return f.state, fmt.Errorf("authflow: no OTP backend configured")
	}

	code := SanitizeOTPCode(rawCode)
	if len(code) != OTPCodeLength {
		return f.state, ValidationErrors{{Field: "otp", Reason: "must be 6 digits"}}
	}

	var (
		res *VerifyResult
		err error
	)
	if f.purpose == PurposeLoginApproved {
		res, err = f.client.otp.VerifyApprovedLogin(ctx, f.adminID, code, f.attemptID)
	} else {
		res, err = f.client.otp.Verify(ctx, f.adminID, code, f.purpose)
	}
	if err != nil {
		f.client.metrics.RecordVerification(string(f.purpose), failureLabel(err))
		f.client.auditEvent(audit.Event{
			Action: "otp_verify", AdminID: f.adminID, Purpose: string(f.purpose),
			AttemptID: f.attemptID, Result: "failure", Error: err.Error(),
		})
		return f.state, err
	}
	f.client.metrics.RecordVerification(string(f.purpose), "ok")

	if f.purpose == PurposeResetPassword {
		// The token, if any, is discarded: the reset flow carries only
		// the admin ID forward.
		f.state = StatePasswordResetPending
		return f.state, nil
	}

	identity := res.Identity
	if identity == nil {
		if f.client.decoder == nil {
			return f.state, fmt.Errorf("authflow: verify response omitted identity and no decoder is configured")
		}
		claims, derr := f.client.decoder.Decode(res.Token)
		if derr != nil {
			return f.state, fmt.Errorf("authflow: decode session token: %w", derr)
		}
		id := claims.Identity()
		identity = &id
	}

	if f.client.store != nil {
		sess := &Session{Token: res.Token, Identity: *identity, SavedAt: time.Now()}
		if serr := f.client.store.Save(ctx, sess); serr != nil {
			return f.state, fmt.Errorf("authflow: persist session: %w", serr)
		}
	}

	if f.client.resolver == nil {
		return f.state, fmt.Errorf("authflow: no resolver configured")
	}
	start := time.Now()
	page, ok := f.client.resolver.Resolve(identity.Permissions)
	elapsed := time.Since(start).Seconds()
	if !ok {
		if f.client.store != nil {
			_ = f.client.store.Clear(ctx)
		}
		f.client.metrics.RecordResolution("no_allowed_page", elapsed)
		f.client.auditEvent(audit.Event{
			Action: "landing_resolved", AdminID: identity.AdminID, Result: "rejected",
			Details: "no allowed page, session cleared",
		})
		f.identity = nil
		f.state = StateRejected
		return f.state, ErrNoAllowedPage
	}

	f.identity = identity
	f.landing = page
	f.state = StateLandingResolved
	f.client.metrics.RecordResolution("resolved", elapsed)
	f.client.auditEvent(audit.Event{
		Action: "landing_resolved", AdminID: identity.AdminID, Result: "success",
		Details: page.Route,
	})
	f.client.logger.InfoContext(ctx, "handshake complete",
		"admin_id", identity.AdminID, "landing", page.Route)
	return f.state, nil
}

// ResendOTP requests a fresh code for the flow's email and purpose.
// Allowed while waiting for a code or for approval.
func (f *Flow) ResendOTP(ctx context.Context) error {
	if f.state != StateAwaitingOTP && f.state != StatePendingApproval {
		return fmt.Errorf("authflow: cannot resend OTP in state %s", f.state)
	}
	if f.client.otp == nil {
		return fmt.Errorf("authflow: no OTP backend configured")
	}

	adminID, err := f.client.otp.Resend(ctx, f.email, f.purpose, f.attemptID)
	if err != nil {
		return err
	}
	f.client.metrics.RecordResend()
	if adminID != "" {
		f.adminID = adminID
	}
	return nil
}

// ResetPassword completes the reset flow with the new password and
// returns the handshake to Unauthenticated so the admin can log in.
func (f *Flow) ResetPassword(ctx context.Context, newPassword, confirm string) (State, error) {
	if f.state != StatePasswordResetPending {
		return f.state, fmt.Errorf("authflow: no password reset pending in state %s", f.state)
	}
	if f.client.password == nil {
		return f.state, fmt.Errorf("authflow: no password backend configured")
	}

	reset := PasswordReset{AdminID: f.adminID, NewPassword: newPassword, ConfirmPassword: confirm}
	if err := reset.Validate(); err != nil {
		return f.state, err
	}

	if err := f.client.password.Reset(ctx, f.adminID, newPassword); err != nil {
		return f.state, err
	}
	f.reset()
	return f.state, nil
}

// Abandon discards the handshake and returns to Unauthenticated.
func (f *Flow) Abandon() State {
	f.reset()
	return f.state
}

func (f *Flow) reset() {
	f.state = StateUnauthenticated
	f.purpose = ""
	f.adminID = ""
	f.email = ""
	f.attemptID = ""
	f.identity = nil
	f.landing = Page{}
}
