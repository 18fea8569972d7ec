// Package token decodes session token payloads into claims.
//
// The console holds a decoded snapshot of the token only; signature
// verification is the server's job. The decoder therefore parses the
// payload without checking the signature, and callers must treat the
// result as a hint that the server can revoke at any time.
package token

import (
	"fmt"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/golang-jwt/jwt/v5"
)

// Decoder implements authflow.ClaimsDecoder for JWT-shaped tokens.
type Decoder struct {
	parser *jwt.Parser
}

// compile-time check
var _ authflow.ClaimsDecoder = (*Decoder)(nil)

// NewDecoder creates a payload decoder.
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

// Decode extracts the claims from the token payload. A malformed payload
// is a hard error; callers clear the session on it.
func (d *Decoder) Decode(tokenString string) (*authflow.Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("authflow/token: empty token")
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(tokenString, mapClaims); err != nil {
		return nil, fmt.Errorf("authflow/token: %w", err)
	}
	return mapToClaims(mapClaims), nil
}

// mapToClaims converts jwt.MapClaims to authflow.Claims.
func mapToClaims(m jwt.MapClaims) *authflow.Claims {
	c := &authflow.Claims{
		Extra: make(map[string]any),
	}

	if v, ok := m["admin_id"].(string); ok {
		c.AdminID = v
	} else if v, ok := m["sub"].(string); ok {
		c.AdminID = v
	}
	if v, ok := m["email"].(string); ok {
		c.Email = v
	}
	if v, ok := m["full_name"].(string); ok {
		c.FullName = v
	}
	if v, ok := m["iss"].(string); ok {
		c.Issuer = v
	}
	if v, ok := m["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(v), 0)
	}
	if v, ok := m["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(v), 0)
	}
	if perms, ok := m["permissions"].([]interface{}); ok {
		for _, p := range perms {
			if s, ok := p.(string); ok {
				c.Permissions = append(c.Permissions, s)
			}
		}
	}

	// Non-standard claims go to Extra
	standard := map[string]bool{
		"sub": true, "admin_id": true, "email": true, "full_name": true,
		"iss": true, "exp": true, "iat": true, "permissions": true,
		"aud": true, "nbf": true, "jti": true,
	}
	for k, v := range m {
		if !standard[k] {
			c.Extra[k] = v
		}
	}

	return c
}
