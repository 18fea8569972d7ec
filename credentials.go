package authflow

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all credential shapes. Struct validation is
// purely local; nothing here touches the network.
var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginCredentials is the input to a direct login submission.
type LoginCredentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// Validate checks the credentials locally and returns field-scoped
// ValidationErrors on failure.
func (c LoginCredentials) Validate() error {
	return translate(validate.Struct(c))
}

// Registration is the input to account creation.
type Registration struct {
	FullName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// Validate checks the registration input locally.
func (r Registration) Validate() error {
	return translate(validate.Struct(r))
}

// EmailRequest is the input to a forgot-password submission.
type EmailRequest struct {
	Email string `validate:"required,email"`
}

// Validate checks the email locally.
func (r EmailRequest) Validate() error {
	return translate(validate.Struct(r))
}

// PasswordReset is the input to the final reset step, after the
// reset_password OTP has been verified.
type PasswordReset struct {
	AdminID         string `validate:"required"`
	NewPassword     string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=NewPassword"`
}

// Validate checks the reset input locally.
func (r PasswordReset) Validate() error {
	return translate(validate.Struct(r))
}

// translate converts validator errors into field-scoped ValidationErrors
// using the snake_case field names the console forms use.
func translate(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &ValidationError{
			Field:  fieldName(fe.Field()),
			Reason: reason(fe),
		})
	}
	return out
}

func fieldName(structField string) string {
	switch structField {
	case "FullName":
		return "full_name"
	case "ConfirmPassword":
		return "confirm_password"
	case "NewPassword":
		return "new_password"
	default:
		return strings.ToLower(structField)
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "eqfield":
		return "must match " + fieldName(fe.Param())
	default:
		return "failed " + fe.Tag() + " check"
	}
}
