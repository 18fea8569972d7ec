// Package session owns the persisted token/identity pair.
//
// All session reads, writes, and deletions in the SDK go through a
// single authflow.SessionStore; nothing else touches the persisted
// state. FileStore persists to disk under fixed keys (the console's
// analogue of browser-local storage); MemStore backs tests.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	authflow "github.com/chimerakang/authflow-go"
)

// Fixed keys in the persisted JSON document.
const (
	keyToken    = "auth_token"
	keyIdentity = "auth_identity"
	keySavedAt  = "auth_saved_at"
)

// FileStore persists the session as a JSON file with owner-only
// permissions. Writes are atomic (temp file + rename).
type FileStore struct {
	path string

	mu sync.Mutex
}

// compile-time check
var _ authflow.SessionStore = (*FileStore)(nil)

// NewFileStore creates a store writing to the given path. The parent
// directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// fileDoc is the on-disk shape, keyed with the console's fixed storage keys.
type fileDoc struct {
	Token    string            `json:"auth_token"`
	Identity authflow.Identity `json:"auth_identity"`
	SavedAt  string            `json:"auth_saved_at"`
}

// Load returns the persisted session, or authflow.ErrNoSession.
func (s *FileStore) Load(_ context.Context) (*authflow.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, authflow.ErrNoSession
		}
		return nil, fmt.Errorf("authflow/session: read: %w", err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt file can never become valid again; clear it so
		// callers see a clean logged-out state instead of failing on
		// every load.
		_ = os.Remove(s.path)
		return nil, authflow.ErrNoSession
	}
	if doc.Token == "" {
		return nil, authflow.ErrNoSession
	}

	sess := &authflow.Session{Token: doc.Token, Identity: doc.Identity}
	if doc.SavedAt != "" {
		// saved_at is informational; a bad timestamp does not invalidate
		// the session.
		_ = sess.SavedAt.UnmarshalText([]byte(doc.SavedAt))
	}
	return sess, nil
}

// Save persists the session, overwriting any previous one.
func (s *FileStore) Save(_ context.Context, sess *authflow.Session) error {
	if sess == nil || sess.Token == "" {
		return fmt.Errorf("authflow/session: refusing to save empty session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	savedAt, _ := sess.SavedAt.MarshalText()
	doc := fileDoc{Token: sess.Token, Identity: sess.Identity, SavedAt: string(savedAt)}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("authflow/session: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("authflow/session: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("authflow/session: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("authflow/session: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("authflow/session: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("authflow/session: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("authflow/session: rename: %w", err)
	}
	return nil
}

// Clear deletes the persisted session. Clearing an empty store is a no-op.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("authflow/session: clear: %w", err)
	}
	return nil
}

// MemStore is an in-memory SessionStore for tests and short-lived tools.
type MemStore struct {
	mu   sync.RWMutex
	sess *authflow.Session
}

// compile-time check
var _ authflow.SessionStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns the stored session, or authflow.ErrNoSession.
func (s *MemStore) Load(_ context.Context) (*authflow.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return nil, authflow.ErrNoSession
	}
	cp := *s.sess
	return &cp, nil
}

// Save stores the session, overwriting any previous one.
func (s *MemStore) Save(_ context.Context, sess *authflow.Session) error {
	if sess == nil || sess.Token == "" {
		return fmt.Errorf("authflow/session: refusing to save empty session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	s.sess = &cp
	return nil
}

// Clear removes the stored session.
func (s *MemStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = nil
	return nil
}
