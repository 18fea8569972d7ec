// Package fake provides an in-memory auth backend for testing.
//
// It implements Authenticator, OTPBackend, PasswordBackend, and
// ApprovalWatcher without network calls: admins are seeded via options,
// codes are issued deterministically, and session tokens are real
// HS256-signed JWTs so claim decoding behaves like production.
package fake

import (
	"context"
	"strings"
	"sync"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultOTP is the code every fake challenge accepts unless an admin
// was seeded with its own.
const DefaultOTP = "123456"

const signingSecret = "fake-signing-secret"

type admin struct {
	id               string
	email            string
	fullName         string
	password         string
	permissions      []string
	verified         bool
	approvalRequired bool
}

type attempt struct {
	id      string
	adminID string
	email   string
	status  authflow.AttemptStatus
}

// Backend is the in-memory fake.
type Backend struct {
	mu       sync.Mutex
	admins   map[string]*admin  // adminID → admin
	byEmail  map[string]string  // email → adminID
	codes    map[string]string  // adminID+"/"+purpose → issued code
	attempts map[string]*attempt
	otp      string
	tokenTTL time.Duration
}

// compile-time checks
var (
	_ authflow.Authenticator   = (*Backend)(nil)
	_ authflow.OTPBackend      = (*Backend)(nil)
	_ authflow.PasswordBackend = (*Backend)(nil)
	_ authflow.ApprovalWatcher = (*Backend)(nil)
)

// Option configures the fake backend.
type Option func(*Backend)

// WithAdmin seeds a verified admin.
func WithAdmin(id, email, fullName, passwd string, permissions ...string) Option {
	return func(b *Backend) {
		b.admins[id] = &admin{
			id:          id,
			email:       email,
			fullName:    fullName,
			password:    passwd,
			permissions: permissions,
			verified:    true,
		}
		b.byEmail[email] = id
	}
}

// WithUnverifiedAdmin seeds an admin whose login is rejected until the
// account is verified.
func WithUnverifiedAdmin(id, email, passwd string) Option {
	return func(b *Backend) {
		b.admins[id] = &admin{id: id, email: email, password: passwd}
		b.byEmail[email] = id
	}
}

// WithApprovalRequired marks a seeded admin as needing Super-Admin
// approval on login.
func WithApprovalRequired(adminID string) Option {
	return func(b *Backend) {
		if a, ok := b.admins[adminID]; ok {
			a.approvalRequired = true
		}
	}
}

// WithOTP sets the code accepted for every challenge. Default: DefaultOTP.
func WithOTP(code string) Option {
	return func(b *Backend) { b.otp = code }
}

// WithTokenTTL sets the lifetime of minted tokens. Default: 1 hour.
func WithTokenTTL(d time.Duration) Option {
	return func(b *Backend) { b.tokenTTL = d }
}

// New creates an empty fake backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		admins:   make(map[string]*admin),
		byEmail:  make(map[string]string),
		codes:    make(map[string]string),
		attempts: make(map[string]*attempt),
		otp:      DefaultOTP,
		tokenTTL: time.Hour,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// --- Authenticator ---

// Login checks the seeded credentials. Admins marked approval-required
// get a pending attempt and the server's sentinel message.
func (b *Backend) Login(_ context.Context, email, password string) (*authflow.LoginResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.lookup(email)
	if a == nil || a.password != password {
		return nil, &authflow.Error{
			Code: authflow.CodeInvalidCredentials, Status: 401, Message: "Invalid credentials",
		}
	}
	if !a.verified {
		return nil, &authflow.Error{
			Code: authflow.CodeAccountUnverified, Status: 403, Message: "Please verify your account first",
		}
	}

	if a.approvalRequired {
		at := &attempt{
			id:      uuid.NewString(),
			adminID: a.id,
			email:   a.email,
			status:  authflow.AttemptPending,
		}
		b.attempts[at.id] = at
		b.issue(a.id, authflow.PurposeLoginApproved)
		return &authflow.LoginResult{
			Step:              authflow.StepPendingApproval,
			AdminID:           a.id,
			Email:             a.email,
			AttemptID:         at.id,
			ApproversNotified: 1,
			Message:           "Login pending approval. Check your email.",
		}, nil
	}

	b.issue(a.id, authflow.PurposeLogin)
	return &authflow.LoginResult{
		Step:    authflow.StepAwaitOTP,
		AdminID: a.id,
		Email:   a.email,
		Message: "OTP sent to your email.",
	}, nil
}

// Register creates an unverified admin and issues a registration code.
func (b *Backend) Register(_ context.Context, fullName, email, password string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lookup(email) != nil {
		return "", &authflow.Error{
			Code: authflow.CodeUnknown, Status: 409, Message: "Email already registered",
		}
	}

	a := &admin{
		id:       uuid.NewString(),
		email:    email,
		fullName: fullName,
		password: password,
	}
	b.admins[a.id] = a
	b.byEmail[email] = a.id
	b.issue(a.id, authflow.PurposeRegister)
	return a.id, nil
}

// ForgotPassword issues a reset code for a known email.
func (b *Backend) ForgotPassword(_ context.Context, email string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.lookup(email)
	if a == nil {
		return "", &authflow.Error{
			Code: authflow.CodeUnknown, Status: 404, Message: "No account with that email",
		}
	}
	b.issue(a.id, authflow.PurposeResetPassword)
	return a.id, nil
}

// --- OTPBackend ---

// Verify consumes the issued code for the generic purposes.
func (b *Backend) Verify(_ context.Context, adminID, code string, purpose authflow.Purpose) (*authflow.VerifyResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.consume(adminID, code, purpose)
	if err != nil {
		return nil, err
	}

	if purpose == authflow.PurposeRegister {
		a.verified = true
	}
	if purpose == authflow.PurposeResetPassword {
		// Reset verification identifies the admin; no session is minted.
		return &authflow.VerifyResult{}, nil
	}
	return b.mint(a)
}

// VerifyApprovedLogin consumes the code for an approved attempt.
// Pending or expired attempts reject the code.
func (b *Backend) VerifyApprovedLogin(_ context.Context, adminID, code, attemptID string) (*authflow.VerifyResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	at, ok := b.attempts[attemptID]
	if !ok || at.adminID != adminID || at.status != authflow.AttemptApproved {
		return nil, &authflow.Error{
			Code: authflow.CodeOTPRejected, Status: 401, Message: "Invalid or expired OTP",
		}
	}

	a, err := b.consume(adminID, code, authflow.PurposeLoginApproved)
	if err != nil {
		return nil, err
	}
	return b.mint(a)
}

// Resend reissues the code for the email and purpose.
func (b *Backend) Resend(_ context.Context, email string, purpose authflow.Purpose, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.lookup(email)
	if a == nil {
		return "", &authflow.Error{
			Code: authflow.CodeUnknown, Status: 404, Message: "No account with that email",
		}
	}
	b.issue(a.id, purpose)
	return a.id, nil
}

// --- PasswordBackend ---

// Reset replaces the seeded password.
func (b *Backend) Reset(_ context.Context, adminID, newPassword string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.admins[adminID]
	if !ok {
		return &authflow.Error{
			Code: authflow.CodeUnknown, Status: 404, Message: "Unknown admin",
		}
	}
	a.password = newPassword
	return nil
}

// --- ApprovalWatcher ---

// Status returns the attempt status.
func (b *Backend) Status(_ context.Context, attemptID string) (authflow.AttemptStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	at, ok := b.attempts[attemptID]
	if !ok {
		return "", &authflow.Error{
			Code: authflow.CodeUnknown, Status: 404, Message: "Unknown login attempt",
		}
	}
	return at.status, nil
}

// --- test helpers ---

// ApproveAttempt marks a pending attempt approved, as the Super-Admin
// email action would.
func (b *Backend) ApproveAttempt(attemptID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if at, ok := b.attempts[attemptID]; ok {
		at.status = authflow.AttemptApproved
	}
}

// ExpireAttempt marks an attempt expired server-side.
func (b *Backend) ExpireAttempt(attemptID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if at, ok := b.attempts[attemptID]; ok {
		at.status = authflow.AttemptExpired
	}
}

// IssuedCode returns the code currently issued for the admin and
// purpose, or "".
func (b *Backend) IssuedCode(adminID string, purpose authflow.Purpose) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[codeKey(adminID, purpose)]
}

// --- internals (callers hold b.mu) ---

func (b *Backend) lookup(email string) *admin {
	id, ok := b.byEmail[strings.ToLower(email)]
	if !ok {
		id, ok = b.byEmail[email]
	}
	if !ok {
		return nil
	}
	return b.admins[id]
}

func (b *Backend) issue(adminID string, purpose authflow.Purpose) {
	b.codes[codeKey(adminID, purpose)] = b.otp
}

func (b *Backend) consume(adminID, code string, purpose authflow.Purpose) (*admin, error) {
	key := codeKey(adminID, purpose)
	issued, ok := b.codes[key]
	if !ok || issued != code {
		return nil, &authflow.Error{
			Code: authflow.CodeOTPRejected, Status: 401, Message: "Invalid or expired OTP",
		}
	}
	delete(b.codes, key) // one verify call consumes the challenge

	a, ok := b.admins[adminID]
	if !ok {
		return nil, &authflow.Error{
			Code: authflow.CodeUnknown, Status: 404, Message: "Unknown admin",
		}
	}
	return a, nil
}

func (b *Backend) mint(a *admin) (*authflow.VerifyResult, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         a.id,
		"admin_id":    a.id,
		"email":       a.email,
		"full_name":   a.fullName,
		"permissions": a.permissions,
		"iss":         "fake",
		"iat":         now.Unix(),
		"exp":         now.Add(b.tokenTTL).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		return nil, err
	}

	return &authflow.VerifyResult{
		Token: tok,
		Identity: &authflow.Identity{
			AdminID:     a.id,
			Email:       a.email,
			FullName:    a.fullName,
			Permissions: a.permissions,
		},
	}, nil
}

func codeKey(adminID string, purpose authflow.Purpose) string {
	return adminID + "/" + string(purpose)
}
