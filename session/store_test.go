package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	authflow "github.com/chimerakang/authflow-go"
)

func testSession() *authflow.Session {
	return &authflow.Session{
		Token: "header.payload.sig",
		Identity: authflow.Identity{
			AdminID:     "42",
			Email:       "ops@example.com",
			Permissions: []string{"view_invoices"},
		},
		SavedAt: time.Now().Truncate(time.Second),
	}
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, authflow.ErrNoSession) {
		t.Fatalf("Load on empty store = %v, want ErrNoSession", err)
	}

	sess := testSession()
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.Token != sess.Token {
		t.Errorf("Token = %q, want %q", got.Token, sess.Token)
	}
	if got.Identity.AdminID != "42" || got.Identity.Email != "ops@example.com" {
		t.Errorf("Identity = %+v", got.Identity)
	}
	if len(got.Identity.Permissions) != 1 {
		t.Errorf("Permissions = %v", got.Identity.Permissions)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, authflow.ErrNoSession) {
		t.Fatalf("Load after Clear = %v, want ErrNoSession", err)
	}
}

func TestFileStore_ClearEmptyIsNoop(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear on empty store returned error: %v", err)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	ctx := context.Background()

	first := testSession()
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := testSession()
	second.Token = "second.token.value"
	second.Identity.AdminID = "43"
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Token != "second.token.value" || got.Identity.AdminID != "43" {
		t.Errorf("loaded %+v, want the overwriting session", got)
	}
}

func TestFileStore_CorruptFileClearedOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, authflow.ErrNoSession) {
		t.Fatalf("Load of corrupt file = %v, want ErrNoSession", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt session file was not removed")
	}

	// A fresh save works after the cleanup.
	if err := store.Save(ctx, testSession()); err != nil {
		t.Fatalf("Save after cleanup: %v", err)
	}
	if _, err := store.Load(ctx); err != nil {
		t.Errorf("Load after re-save: %v", err)
	}
}

func TestFileStore_RejectsEmptySession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save(context.Background(), &authflow.Session{}); err == nil {
		t.Fatal("expected error saving session without token")
	}
}

func TestFileStore_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	if err := store.Save(context.Background(), testSession()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}
}

func TestMemStore_SaveLoadClear(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, authflow.ErrNoSession) {
		t.Fatalf("Load on empty store = %v, want ErrNoSession", err)
	}

	if err := store.Save(ctx, testSession()); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Identity.AdminID != "42" {
		t.Errorf("AdminID = %q", got.Identity.AdminID)
	}

	// The returned session is a copy; mutating it must not leak back.
	got.Identity.AdminID = "mutated"
	again, _ := store.Load(ctx)
	if again.Identity.AdminID != "42" {
		t.Error("Load returned shared state")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, authflow.ErrNoSession) {
		t.Fatalf("Load after Clear = %v, want ErrNoSession", err)
	}
}
