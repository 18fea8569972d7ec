package authflow

import (
	"errors"
	"testing"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	return verrs.Fields()
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func TestLoginCredentials_Validate(t *testing.T) {
	ok := LoginCredentials{Email: "ops@example.com", Password: "secret123"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}

	tests := []struct {
		name  string
		creds LoginCredentials
		field string
	}{
		{"empty email", LoginCredentials{Password: "secret123"}, "email"},
		{"bad email", LoginCredentials{Email: "not-an-email", Password: "secret123"}, "email"},
		{"empty password", LoginCredentials{Email: "a@x.com"}, "password"},
		{"short password", LoginCredentials{Email: "a@x.com", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := fieldsOf(t, tt.creds.Validate())
			if !containsField(fields, tt.field) {
				t.Errorf("fields = %v, want %q flagged", fields, tt.field)
			}
		})
	}
}

func TestRegistration_Validate(t *testing.T) {
	ok := Registration{
		FullName: "Ops Admin", Email: "ops@example.com",
		Password: "secret123", ConfirmPassword: "secret123",
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid registration rejected: %v", err)
	}

	mismatch := ok
	mismatch.ConfirmPassword = "different1"
	fields := fieldsOf(t, mismatch.Validate())
	if !containsField(fields, "confirm_password") {
		t.Errorf("fields = %v, want confirm_password flagged", fields)
	}

	noName := ok
	noName.FullName = ""
	fields = fieldsOf(t, noName.Validate())
	if !containsField(fields, "full_name") {
		t.Errorf("fields = %v, want full_name flagged", fields)
	}
}

func TestEmailRequest_Validate(t *testing.T) {
	if err := (EmailRequest{Email: "ops@example.com"}).Validate(); err != nil {
		t.Fatal(err)
	}
	fields := fieldsOf(t, EmailRequest{}.Validate())
	if !containsField(fields, "email") {
		t.Errorf("fields = %v", fields)
	}
}

func TestPasswordReset_Validate(t *testing.T) {
	ok := PasswordReset{AdminID: "42", NewPassword: "newsecret1", ConfirmPassword: "newsecret1"}
	if err := ok.Validate(); err != nil {
		t.Fatal(err)
	}

	short := PasswordReset{AdminID: "42", NewPassword: "short", ConfirmPassword: "short"}
	fields := fieldsOf(t, short.Validate())
	if !containsField(fields, "new_password") {
		t.Errorf("fields = %v, want new_password flagged", fields)
	}
}
