package authflow

import "context"

type ctxKey string

const (
	ctxKeyAdminID  ctxKey = "authflow_admin_id"
	ctxKeyEmail    ctxKey = "authflow_email"
	ctxKeyIdentity ctxKey = "authflow_identity"
	ctxKeyAttempt  ctxKey = "authflow_attempt_id"
)

// WithAdminID stores the authenticated admin ID in the context.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, ctxKeyAdminID, adminID)
}

// AdminIDFromContext extracts the authenticated admin ID from the context.
func AdminIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyAdminID).(string)
	return v
}

// WithEmail stores the admin email in the context.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKeyEmail, email)
}

// EmailFromContext extracts the admin email from the context.
func EmailFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyEmail).(string)
	return v
}

// WithIdentity stores the full identity snapshot in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext extracts the identity snapshot from the context.
func IdentityFromContext(ctx context.Context) *Identity {
	v, _ := ctx.Value(ctxKeyIdentity).(*Identity)
	return v
}

// WithAttemptID stores the pending login attempt ID in the context.
func WithAttemptID(ctx context.Context, attemptID string) context.Context {
	return context.WithValue(ctx, ctxKeyAttempt, attemptID)
}

// AttemptIDFromContext extracts the pending login attempt ID from the context.
func AttemptIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyAttempt).(string)
	return v
}
