package session

import (
	"context"
	"errors"
	"testing"
	"time"

	authflow "github.com/chimerakang/authflow-go"
	"github.com/golang-jwt/jwt/v5"

	"github.com/chimerakang/authflow-go/token"
)

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": "42",
		"exp":      exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestMonitorCheck_ValidSessionKept(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	_ = store.Save(ctx, &authflow.Session{
		Token:    mintToken(t, time.Now().Add(time.Hour)),
		Identity: authflow.Identity{AdminID: "42"},
	})

	m := NewMonitor(store, token.NewDecoder())
	valid, err := m.Check(ctx)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !valid {
		t.Error("expected session to be valid")
	}
	if _, err := store.Load(ctx); err != nil {
		t.Errorf("valid session was cleared: %v", err)
	}
}

func TestMonitorCheck_ExpiredSessionCleared(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	_ = store.Save(ctx, &authflow.Session{
		Token:    mintToken(t, time.Now().Add(-time.Minute)),
		Identity: authflow.Identity{AdminID: "42"},
	})

	expired := false
	m := NewMonitor(store, token.NewDecoder(), WithOnExpire(func() { expired = true }))

	valid, err := m.Check(ctx)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if valid {
		t.Error("expected session to be invalid")
	}
	if !expired {
		t.Error("onExpire callback was not invoked")
	}
	if _, err := store.Load(ctx); !errors.Is(err, authflow.ErrNoSession) {
		t.Errorf("expired session was not cleared: %v", err)
	}
}

func TestMonitorCheck_MalformedTokenCleared(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	_ = store.Save(ctx, &authflow.Session{
		Token:    "garbage",
		Identity: authflow.Identity{AdminID: "42"},
	})

	m := NewMonitor(store, token.NewDecoder())
	if _, err := m.Check(ctx); err == nil {
		t.Fatal("expected error on malformed token")
	}
	if _, err := store.Load(ctx); !errors.Is(err, authflow.ErrNoSession) {
		t.Errorf("malformed session was not cleared: %v", err)
	}
}

func TestMonitorCheck_NoSession(t *testing.T) {
	m := NewMonitor(NewMemStore(), token.NewDecoder())
	if _, err := m.Check(context.Background()); !errors.Is(err, authflow.ErrNoSession) {
		t.Fatalf("Check = %v, want ErrNoSession", err)
	}
}

func TestMonitor_TickClearsExpired(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	_ = store.Save(ctx, &authflow.Session{
		Token:    mintToken(t, time.Now().Add(-time.Minute)),
		Identity: authflow.Identity{AdminID: "42"},
	})

	m := NewMonitor(store, token.NewDecoder(), WithInterval(10*time.Millisecond))
	m.Start(ctx)
	defer m.Close()

	deadline := time.After(time.Second)
	for {
		if _, err := store.Load(ctx); errors.Is(err, authflow.ErrNoSession) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("monitor never cleared the expired session")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestMonitor_CloseStopsLoop(t *testing.T) {
	m := NewMonitor(NewMemStore(), token.NewDecoder(), WithInterval(5*time.Millisecond))
	m.Start(context.Background())

	if err := m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	// Closing an already-stopped monitor is a no-op.
	if err := m.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}
