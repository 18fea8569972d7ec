package authflow

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	apiErr := &Error{Code: CodeRateLimited, Status: 429, Message: "Too many attempts"}
	if CodeOf(apiErr) != CodeRateLimited {
		t.Errorf("CodeOf = %q", CodeOf(apiErr))
	}

	wrapped := fmt.Errorf("submit: %w", apiErr)
	if CodeOf(wrapped) != CodeRateLimited {
		t.Errorf("CodeOf(wrapped) = %q", CodeOf(wrapped))
	}

	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Error("unclassified error should map to CodeUnknown")
	}
	if CodeOf(nil) != CodeUnknown {
		t.Error("nil should map to CodeUnknown")
	}
}

func TestError_Fields(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want []string
	}{
		{CodeInvalidCredentials, []string{"email", "password"}},
		{CodeAccountUnverified, []string{"email"}},
		{CodeOTPRejected, []string{"otp"}},
		{CodeServer, nil},
		{CodeNetwork, nil},
	}
	for _, tt := range tests {
		got := (&Error{Code: tt.code}).Fields()
		if len(got) != len(tt.want) {
			t.Errorf("Fields(%s) = %v, want %v", tt.code, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Fields(%s) = %v, want %v", tt.code, got, tt.want)
			}
		}
	}
}

func TestError_ErrorMessage(t *testing.T) {
	e := &Error{Code: CodeInvalidCredentials, Status: 401, Message: "Invalid credentials"}
	if e.Error() != "authflow: invalid_credentials (401): Invalid credentials" {
		t.Errorf("Error() = %q", e.Error())
	}

	local := &Error{Code: CodeNetwork, Message: "connection refused"}
	if local.Error() != "authflow: network_error: connection refused" {
		t.Errorf("Error() = %q", local.Error())
	}
}

func TestValidationErrors_Fields(t *testing.T) {
	verrs := ValidationErrors{
		{Field: "email", Reason: "must not be empty"},
		{Field: "password", Reason: "must be at least 8 characters"},
	}
	fields := verrs.Fields()
	if len(fields) != 2 || fields[0] != "email" || fields[1] != "password" {
		t.Errorf("Fields = %v", fields)
	}
	if verrs.Error() == "" {
		t.Error("Error() is empty")
	}
}
