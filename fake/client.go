package fake

import (
	authflow "github.com/chimerakang/authflow-go"
	"github.com/chimerakang/authflow-go/landing"
	"github.com/chimerakang/authflow-go/session"
	"github.com/chimerakang/authflow-go/token"
)

// NewClient creates an *authflow.Client with every interface wired to an
// in-memory fake: this backend, a MemStore session, the JWT payload
// decoder, and the default landing table. Use it in unit tests to drive
// whole handshakes without a server.
func NewClient(opts ...Option) (*authflow.Client, *Backend) {
	b := New(opts...)
	c, _ := authflow.NewClient(
		authflow.Config{BaseURL: "fake://localhost"},
		authflow.WithAuthenticator(b),
		authflow.WithOTPBackend(b),
		authflow.WithPasswordBackend(b),
		authflow.WithApprovalWatcher(b),
		authflow.WithSessionStore(session.NewMemStore()),
		authflow.WithClaimsDecoder(token.NewDecoder()),
		authflow.WithResolver(landing.Default()),
	)
	return c, b
}
