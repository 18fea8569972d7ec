package restapi

import (
	"context"
	"strings"

	authflow "github.com/chimerakang/authflow-go"
)

// pendingApprovalSentinel is the server's wording for a login that needs
// Super-Admin approval. It is matched here, once, and turned into a Step.
const pendingApprovalSentinel = "pending approval"

// Wire shapes for the /auth/* endpoints.

type createRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createResponse struct {
	Message string `json:"message"`
	AdminID string `json:"admin_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message           string `json:"message"`
	AdminID           string `json:"admin_id"`
	AdminEmail        string `json:"admin_email"`
	AttemptID         string `json:"attempt_id,omitempty"`
	ApproversNotified int    `json:"approvers_notified,omitempty"`
}

type verifyRequest struct {
	AdminID string `json:"admin_id"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose"`
}

type verifyApprovedRequest struct {
	AdminID        string `json:"admin_id"`
	OTP            string `json:"otp"`
	LoginAttemptID string `json:"login_attempt_id"`
}

type verifyResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	Admin   *authflow.Identity `json:"admin,omitempty"`
}

type resendRequest struct {
	Email          string `json:"email"`
	Purpose        string `json:"purpose"`
	LoginAttemptID string `json:"login_attempt_id,omitempty"`
}

type resendResponse struct {
	Message string `json:"message"`
	AdminID string `json:"admin_id"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	AdminID     string `json:"admin_id"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type attemptStatusResponse struct {
	Status string `json:"status"`
}

// Login implements authflow.Authenticator.
func (c *Client) Login(ctx context.Context, email, password string) (*authflow.LoginResult, error) {
	var resp loginResponse
	err := c.postJSON(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}

	result := &authflow.LoginResult{
		Step:              authflow.StepAwaitOTP,
		AdminID:           resp.AdminID,
		Email:             resp.AdminEmail,
		AttemptID:         resp.AttemptID,
		ApproversNotified: resp.ApproversNotified,
		Message:           resp.Message,
	}
	if strings.Contains(strings.ToLower(resp.Message), pendingApprovalSentinel) {
		result.Step = authflow.StepPendingApproval
	}
	return result, nil
}

// Register implements authflow.Authenticator.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (string, error) {
	var resp createResponse
	in := createRequest{FullName: fullName, Email: email, Password: password}
	if err := c.postJSON(ctx, "/auth/create", in, &resp); err != nil {
		return "", err
	}
	return resp.AdminID, nil
}

// ForgotPassword implements authflow.Authenticator.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp resendResponse
	if err := c.postJSON(ctx, "/auth/forgot-password", forgotPasswordRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.AdminID, nil
}

// Verify implements authflow.OTPBackend.
func (c *Client) Verify(ctx context.Context, adminID, code string, purpose authflow.Purpose) (*authflow.VerifyResult, error) {
	var resp verifyResponse
	in := verifyRequest{AdminID: adminID, OTP: code, Purpose: string(purpose)}
	if err := c.postJSON(ctx, "/auth/verify", in, &resp); err != nil {
		return nil, err
	}
	return c.verifyResult(resp, purpose)
}

// VerifyApprovedLogin implements authflow.OTPBackend.
func (c *Client) VerifyApprovedLogin(ctx context.Context, adminID, code, attemptID string) (*authflow.VerifyResult, error) {
	var resp verifyResponse
	in := verifyApprovedRequest{AdminID: adminID, OTP: code, LoginAttemptID: attemptID}
	if err := c.postJSON(ctx, "/auth/verify-approved-login", in, &resp); err != nil {
		return nil, err
	}
	return c.verifyResult(resp, authflow.PurposeLoginApproved)
}

// verifyResult enforces that a nominally successful verification carries
// a token. The reset_password purpose is exempt: its flow discards the
// token and only carries the admin ID forward.
func (c *Client) verifyResult(resp verifyResponse, purpose authflow.Purpose) (*authflow.VerifyResult, error) {
	if resp.Token == "" && purpose != authflow.PurposeResetPassword {
		return nil, &authflow.Error{
			Code:    authflow.CodeMalformedResponse,
			Message: "verification succeeded but no token was returned",
		}
	}
	return &authflow.VerifyResult{Token: resp.Token, Identity: resp.Admin}, nil
}

// Resend implements authflow.OTPBackend.
func (c *Client) Resend(ctx context.Context, email string, purpose authflow.Purpose, attemptID string) (string, error) {
	var resp resendResponse
	in := resendRequest{Email: email, Purpose: string(purpose), LoginAttemptID: attemptID}
	if err := c.postJSON(ctx, "/auth/resend-otp", in, &resp); err != nil {
		return "", err
	}
	return resp.AdminID, nil
}

// Reset implements authflow.PasswordBackend.
func (c *Client) Reset(ctx context.Context, adminID, newPassword string) error {
	var resp messageResponse
	in := resetPasswordRequest{AdminID: adminID, NewPassword: newPassword}
	return c.postJSON(ctx, "/auth/reset-password", in, &resp)
}

// Status implements authflow.ApprovalWatcher.
func (c *Client) Status(ctx context.Context, attemptID string) (authflow.AttemptStatus, error) {
	var resp attemptStatusResponse
	if err := c.getJSON(ctx, "/auth/login-attempts/"+attemptID, &resp); err != nil {
		return "", err
	}

	switch authflow.AttemptStatus(resp.Status) {
	case authflow.AttemptPending, authflow.AttemptApproved, authflow.AttemptExpired:
		return authflow.AttemptStatus(resp.Status), nil
	default:
		return "", &authflow.Error{
			Code:    authflow.CodeMalformedResponse,
			Message: "unknown attempt status " + resp.Status,
		}
	}
}
