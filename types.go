package authflow

import "time"

// Purpose discriminates which authentication flow an OTP verification
// belongs to. The server issues and checks codes per purpose.
type Purpose string

const (
	PurposeRegister      Purpose = "register"
	PurposeLogin         Purpose = "login"
	PurposeLoginApproved Purpose = "login_approved"
	PurposeResetPassword Purpose = "reset_password"
)

// Identity is the decoded snapshot of an authenticated admin. The client
// never constructs one from scratch; it either receives it in the verify
// response or decodes it from the session token payload.
type Identity struct {
	AdminID     string   `json:"admin_id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name,omitempty"`
	Permissions []string `json:"permissions"`
}

// Claims represents the payload decoded from a session token.
type Claims struct {
	AdminID     string
	Email       string
	FullName    string
	Permissions []string
	ExpiresAt   time.Time
	IssuedAt    time.Time
	Issuer      string
	Extra       map[string]any
}

// Expired reports whether the claims have passed their expiry at the
// given instant. Claims without an exp are treated as expired.
func (c *Claims) Expired(at time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return !at.Before(c.ExpiresAt)
}

// Identity returns the admin identity snapshot carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		AdminID:     c.AdminID,
		Email:       c.Email,
		FullName:    c.FullName,
		Permissions: c.Permissions,
	}
}

// AttemptStatus is the server-side state of a login attempt that requires
// Super-Admin approval.
type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "pending"
	AttemptApproved AttemptStatus = "approved"
	AttemptExpired  AttemptStatus = "expired"
)

// LoginAttempt identifies a credential submission awaiting out-of-band
// approval. The attempt ID stays stable for the whole handshake.
type LoginAttempt struct {
	ID      string
	AdminID string
	Email   string
	Status  AttemptStatus
}

// Step tells the caller where a successful credential submission leads.
type Step int

const (
	// StepAwaitOTP means the server sent a code and the flow moves
	// straight to OTP entry.
	StepAwaitOTP Step = iota

	// StepPendingApproval means a Super-Admin must approve the attempt
	// before the admin can submit a code.
	StepPendingApproval
)

// LoginResult is the outcome of a credential submission.
type LoginResult struct {
	Step              Step
	AdminID           string
	Email             string
	AttemptID         string
	ApproversNotified int
	Message           string
}

// VerifyResult is the outcome of a successful OTP verification.
// Identity may be nil when the server omits the admin object; callers
// then decode it from the token payload.
type VerifyResult struct {
	Token    string
	Identity *Identity
}

// Session is the persisted token/identity pair. Exactly one Session
// exists per store; saving overwrites the previous one.
type Session struct {
	Token    string    `json:"token"`
	Identity Identity  `json:"identity"`
	SavedAt  time.Time `json:"saved_at"`
}

// Page pairs a console route with the permission set required to view it.
type Page struct {
	Route    string
	Required []string
}
