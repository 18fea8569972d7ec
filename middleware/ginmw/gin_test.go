package ginmw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/chimerakang/authflow-go/fake"
	"github.com/chimerakang/authflow-go/landing"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mintToken runs a login+verify round trip against the fake backend and
// returns the session token.
func mintToken(t *testing.T, backend *fake.Backend, adminID, email, password string) string {
	t.Helper()

	if _, err := backend.Login(context.Background(), email, password); err != nil {
		t.Fatalf("Login: %v", err)
	}
	res, err := backend.Verify(context.Background(), adminID, fake.DefaultOTP, authflow.PurposeLogin)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return res.Token
}

func newRouter(client *authflow.Client, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Auth(client, WithExcludedPaths("/health")))
	r.Use(extra...)
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin_id": GetAdminID(c)})
	}
	r.GET("/health", handler)
	r.GET("/dashboard", handler)
	r.GET("/invoices", handler)
	r.GET("/unlisted", handler)
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingToken(t *testing.T) {
	client, _ := fake.NewClient(fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123"))
	r := newRouter(client)

	if w := get(r, "/dashboard", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_ExcludedPathSkipsCheck(t *testing.T) {
	client, _ := fake.NewClient(fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123"))
	r := newRouter(client)

	if w := get(r, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	client, backend := fake.NewClient(fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123", "view_dashboard"))
	tok := mintToken(t, backend, "42", "ops@example.com", "secret123")
	r := newRouter(client)

	w := get(r, "/dashboard", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAuth_PopulatesRequestContext(t *testing.T) {
	client, backend := fake.NewClient(fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123", "view_dashboard"))
	tok := mintToken(t, backend, "42", "ops@example.com", "secret123")

	r := gin.New()
	r.Use(Auth(client))
	r.GET("/whoami", func(c *gin.Context) {
		ctx := c.Request.Context()
		id := authflow.IdentityFromContext(ctx)
		if id == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity in request context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"admin_id": authflow.AdminIDFromContext(ctx),
			"email":    authflow.EmailFromContext(ctx),
			"identity": id,
		})
	})

	w := get(r, "/whoami", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		AdminID  string             `json:"admin_id"`
		Email    string             `json:"email"`
		Identity *authflow.Identity `json:"identity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.AdminID != "42" || body.Email != "ops@example.com" {
		t.Errorf("request context values = %+v", body)
	}
	if body.Identity == nil || body.Identity.AdminID != "42" {
		t.Errorf("identity = %+v", body.Identity)
	}
}

func TestAuth_MalformedToken(t *testing.T) {
	client, _ := fake.NewClient(fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123"))
	r := newRouter(client)

	if w := get(r, "/dashboard", "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	client, backend := fake.NewClient(
		fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123"),
		fake.WithTokenTTL(-time.Minute),
	)
	tok := mintToken(t, backend, "42", "ops@example.com", "secret123")
	r := newRouter(client)

	if w := get(r, "/dashboard", tok); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGate(t *testing.T) {
	client, backend := fake.NewClient(fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123", "view_invoices"))
	tok := mintToken(t, backend, "42", "ops@example.com", "secret123")
	r := newRouter(client, Gate(landing.Default()))

	if w := get(r, "/invoices", tok); w.Code != http.StatusOK {
		t.Errorf("permitted route status = %d, want 200", w.Code)
	}
	if w := get(r, "/dashboard", tok); w.Code != http.StatusForbidden {
		t.Errorf("unpermitted route status = %d, want 403", w.Code)
	}
	if w := get(r, "/unlisted", tok); w.Code != http.StatusForbidden {
		t.Errorf("unlisted route status = %d, want 403", w.Code)
	}
}

func TestRequire(t *testing.T) {
	client, backend := fake.NewClient(fake.WithAdmin("42", "ops@example.com", "Ops Admin", "secret123", "view_invoices"))
	tok := mintToken(t, backend, "42", "ops@example.com", "secret123")

	r := gin.New()
	r.Use(Auth(client))
	r.GET("/ok", Require("view_invoices"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/denied", Require("view_invoices", "create_invoices"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/any", RequireAny("create_invoices", "view_invoices"), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := get(r, "/ok", tok); w.Code != http.StatusOK {
		t.Errorf("/ok status = %d, want 200", w.Code)
	}
	if w := get(r, "/denied", tok); w.Code != http.StatusForbidden {
		t.Errorf("/denied status = %d, want 403", w.Code)
	}
	if w := get(r, "/any", tok); w.Code != http.StatusOK {
		t.Errorf("/any status = %d, want 200", w.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer abc", "abc"},
		{"case insensitive scheme", "bearer abc", "abc"},
		{"wrong scheme", "Basic abc", ""},
		{"no token", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := extractBearerToken(req); got != tt.want {
				t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
