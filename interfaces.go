package authflow

import "context"

// Authenticator submits credentials to the remote auth API.
// Implementations: restapi/ (HTTP), fake/ (testing).
type Authenticator interface {
	// Login submits an email/password pair. The result tells the caller
	// whether the flow continues at OTP entry or waits for approval.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Register creates a new admin account and returns its ID. The
	// server sends a registration OTP as a side effect.
	Register(ctx context.Context, fullName, email, password string) (string, error)

	// ForgotPassword starts a password reset for the given email and
	// returns the admin ID the reset OTP is bound to.
	ForgotPassword(ctx context.Context, email string) (string, error)
}

// OTPBackend verifies and reissues one-time passcodes.
type OTPBackend interface {
	// Verify submits a code for the generic purposes (register, login,
	// reset_password) and returns the session token on success.
	Verify(ctx context.Context, adminID, code string, purpose Purpose) (*VerifyResult, error)

	// VerifyApprovedLogin submits a code for an approved login attempt.
	VerifyApprovedLogin(ctx context.Context, adminID, code, attemptID string) (*VerifyResult, error)

	// Resend requests a fresh code for the same email and purpose.
	// attemptID is only set for login_approved resends.
	Resend(ctx context.Context, email string, purpose Purpose, attemptID string) (string, error)
}

// PasswordBackend completes a password reset after OTP verification.
type PasswordBackend interface {
	// Reset replaces the password for the admin identified during the
	// reset_password OTP step.
	Reset(ctx context.Context, adminID, newPassword string) error
}

// ApprovalWatcher reports the server-side status of a pending login
// attempt, so expiry decisions are not made on a local countdown alone.
type ApprovalWatcher interface {
	// Status returns the current attempt status.
	Status(ctx context.Context, attemptID string) (AttemptStatus, error)
}

// SessionStore is the single owner of the persisted token/identity pair.
// All reads, writes, and deletions of session state go through it.
// Implementations: session/ (file-backed, in-memory).
type SessionStore interface {
	// Load returns the persisted session, or ErrNoSession.
	Load(ctx context.Context) (*Session, error)

	// Save persists the session, overwriting any previous one.
	Save(ctx context.Context, s *Session) error

	// Clear deletes the persisted session. Clearing an empty store is
	// not an error.
	Clear(ctx context.Context) error
}

// ClaimsDecoder extracts the claims carried by a session token payload.
// The client holds a decoded snapshot only; it does not verify the
// signature (the server is the authority on token validity).
type ClaimsDecoder interface {
	Decode(token string) (*Claims, error)
}

// Resolver computes the landing page for an admin's permission set.
// Implementations: landing/ (ordered first-match table).
type Resolver interface {
	// Resolve returns the first page whose requirements the permission
	// set satisfies, and false when no page matches.
	Resolve(permissions []string) (Page, bool)
}
