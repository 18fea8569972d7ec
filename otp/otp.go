// Package otp provides the OTP verification service.
//
// Service wraps an authflow.OTPBackend with the client-side input rules:
// codes are sanitized to digits, truncated to six characters, and
// rejected locally when incomplete, so no malformed code ever reaches
// the network.
package otp

import (
	"context"
	"fmt"

	authflow "github.com/chimerakang/authflow-go"
)

// Service implements authflow.OTPBackend with local input checks on top
// of a configurable backend.
type Service struct {
	backend authflow.OTPBackend
}

// compile-time check
var _ authflow.OTPBackend = (*Service)(nil)

// New creates an OTP service with the given backend.
func New(backend authflow.OTPBackend) *Service {
	return &Service{backend: backend}
}

// Verify sanitizes the code and submits it for the generic purposes.
func (s *Service) Verify(ctx context.Context, adminID, code string, purpose authflow.Purpose) (*authflow.VerifyResult, error) {
	if adminID == "" {
		return nil, fmt.Errorf("authflow/otp: adminID cannot be empty")
	}
	if purpose == authflow.PurposeLoginApproved {
		return nil, fmt.Errorf("authflow/otp: purpose login_approved requires VerifyApprovedLogin")
	}

	clean, err := sanitize(code)
	if err != nil {
		return nil, err
	}

	res, err := s.backend.Verify(ctx, adminID, clean, purpose)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// VerifyApprovedLogin sanitizes the code and submits it for an approved
// login attempt.
func (s *Service) VerifyApprovedLogin(ctx context.Context, adminID, code, attemptID string) (*authflow.VerifyResult, error) {
	if adminID == "" {
		return nil, fmt.Errorf("authflow/otp: adminID cannot be empty")
	}
	if attemptID == "" {
		return nil, fmt.Errorf("authflow/otp: attemptID cannot be empty")
	}

	clean, err := sanitize(code)
	if err != nil {
		return nil, err
	}

	res, err := s.backend.VerifyApprovedLogin(ctx, adminID, clean, attemptID)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Resend requests a fresh code for the same email and purpose.
func (s *Service) Resend(ctx context.Context, email string, purpose authflow.Purpose, attemptID string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("authflow/otp: email cannot be empty")
	}

	adminID, err := s.backend.Resend(ctx, email, purpose, attemptID)
	if err != nil {
		return "", err
	}
	return adminID, nil
}

func sanitize(code string) (string, error) {
	clean := authflow.SanitizeOTPCode(code)
	if len(clean) != authflow.OTPCodeLength {
		return "", authflow.ValidationErrors{{Field: "otp", Reason: "must be 6 digits"}}
	}
	return clean, nil
}
