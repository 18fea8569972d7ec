// Package password completes the reset flow after a reset_password OTP
// has been verified.
package password

import (
	"context"
	"fmt"

	authflow "github.com/chimerakang/authflow-go"
)

// Service implements authflow.PasswordBackend with local input checks on
// top of a configurable backend.
type Service struct {
	backend authflow.PasswordBackend
}

// compile-time check
var _ authflow.PasswordBackend = (*Service)(nil)

// New creates a password service with the given backend.
func New(backend authflow.PasswordBackend) *Service {
	return &Service{backend: backend}
}

// Reset validates and submits the new password for the admin identified
// during the reset OTP step.
func (s *Service) Reset(ctx context.Context, adminID, newPassword string) error {
	if adminID == "" {
		return fmt.Errorf("authflow/password: adminID cannot be empty")
	}
	if len(newPassword) < 8 {
		return authflow.ValidationErrors{{Field: "new_password", Reason: "must be at least 8 characters"}}
	}

	if err := s.backend.Reset(ctx, adminID, newPassword); err != nil {
		return err
	}
	return nil
}
