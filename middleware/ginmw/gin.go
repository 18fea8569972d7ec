// Package ginmw provides Gin HTTP middleware for the console handshake.
//
// All middleware functions accept an *authflow.Client and use its
// interfaces (ClaimsDecoder, Resolver) — no direct dependency on any
// specific auth backend. Auth verifies the bearer session token; Gate
// enforces the permission table on page routes.
package ginmw

import (
	"net/http"
	"strings"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/chimerakang/authflow-go/landing"
	"github.com/gin-gonic/gin"
)

// Context keys for storing handshake data in gin.Context.
const (
	KeyAdminID     = "authflow_admin_id"
	KeyEmail       = "authflow_email"
	KeyPermissions = "authflow_permissions"
	KeyClaims      = "authflow_claims"
)

// AuthOption configures Auth middleware behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedPaths map[string]bool
}

// WithExcludedPaths sets paths that skip authentication (e.g. the login
// and health endpoints).
func WithExcludedPaths(paths ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, p := range paths {
			cfg.excludedPaths[p] = true
		}
	}
}

// Auth returns Gin middleware that decodes the bearer session token via
// client.Decoder() and rejects expired sessions. On success it stores
// the identity in the Gin context (retrievable via GetAdminID, GetClaims,
// etc.) and in the request context (retrievable via the authflow context
// helpers). Responds with 401 if the token is missing, malformed, or
// expired.
func Auth(client *authflow.Client, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		if cfg.excludedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		tokenStr := extractBearerToken(c.Request)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		decoder := client.Decoder()
		if decoder == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "claims decoder not configured"})
			return
		}

		claims, err := decoder.Decode(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Expired(time.Now()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		c.Set(KeyClaims, claims)
		c.Set(KeyAdminID, claims.AdminID)
		c.Set(KeyEmail, claims.Email)
		c.Set(KeyPermissions, claims.Permissions)

		// Also populate the request context so handlers that take a
		// plain context.Context can use the framework-agnostic helpers.
		id := claims.Identity()
		ctx := authflow.WithAdminID(c.Request.Context(), claims.AdminID)
		ctx = authflow.WithEmail(ctx, claims.Email)
		ctx = authflow.WithIdentity(ctx, &id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Gate returns Gin middleware that enforces the permission table on the
// request path. Requires Auth middleware to run first (uses permissions
// from context). Responds with 403 when the route's requirement set is
// not satisfied, including routes absent from the table.
func Gate(table *landing.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms := GetPermissions(c)
		if !table.Allowed(c.Request.URL.Path, perms) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "page not permitted"})
			return
		}
		c.Next()
	}
}

// Require returns Gin middleware that checks that the admin holds every
// named permission. Requires Auth middleware to run first.
// Responds with 403 if any permission is missing.
func Require(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := make(map[string]bool)
		for _, p := range GetPermissions(c) {
			held[p] = true
		}
		for _, p := range permissions {
			if !held[p] {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
				return
			}
		}
		c.Next()
	}
}

// RequireAny returns Gin middleware that checks that the admin holds at
// least one of the named permissions.
func RequireAny(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := make(map[string]bool)
		for _, p := range GetPermissions(c) {
			held[p] = true
		}
		for _, p := range permissions {
			if held[p] {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	}
}

// --- Context helpers ---

// GetAdminID returns the authenticated admin ID from the Gin context.
func GetAdminID(c *gin.Context) string {
	v, _ := c.Get(KeyAdminID)
	s, _ := v.(string)
	return s
}

// GetEmail returns the admin's email from the Gin context.
func GetEmail(c *gin.Context) string {
	v, _ := c.Get(KeyEmail)
	s, _ := v.(string)
	return s
}

// GetPermissions returns the admin's permissions from the Gin context.
func GetPermissions(c *gin.Context) []string {
	v, _ := c.Get(KeyPermissions)
	p, _ := v.([]string)
	return p
}

// GetClaims returns the full claims from the Gin context.
func GetClaims(c *gin.Context) *authflow.Claims {
	v, _ := c.Get(KeyClaims)
	cl, _ := v.(*authflow.Claims)
	return cl
}

// --- internal helpers ---

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
