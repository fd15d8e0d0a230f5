// Package session implements the client-side auth core: durable credential
// storage, startup identity resolution, the session state machine and the
// route guard, plus the HTTP client they drive.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"land-registry/internal/auth"
)

// Class is the identity class a credential belongs to. The two classes are
// disjoint: a session never holds both at once.
type Class string

const (
	ClassUser  Class = "user"
	ClassAdmin Class = "admin"
)

// Credential is an opaque bearer token plus the identity snapshot cached at
// verification time. The snapshot is derived, never authored.
type Credential struct {
	Token    string     `json:"token"`
	Identity *auth.User `json:"identity,omitempty"`
}

// TokenStore persists credentials across process restarts in a JSON file,
// one slot per identity class.
type TokenStore struct {
	mu    sync.Mutex
	path  string
	creds map[Class]Credential
}

func NewTokenStore(path string) (*TokenStore, error) {
	ts := &TokenStore{path: path, creds: map[Class]Credential{}}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ts, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &ts.creds); err != nil {
		// A corrupt store is treated as empty; the resolver fails closed.
		ts.creds = map[Class]Credential{}
	}
	return ts, nil
}

func (t *TokenStore) Set(class Class, cred Credential) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.creds[class] = cred
	return t.persist()
}

func (t *TokenStore) Get(class Class) (Credential, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cred, ok := t.creds[class]
	if !ok || cred.Token == "" {
		return Credential{}, false
	}
	return cred, true
}

func (t *TokenStore) Clear(class Class) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.creds[class]; !ok {
		return nil
	}
	delete(t.creds, class)
	return t.persist()
}

func (t *TokenStore) ClearAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.creds = map[Class]Credential{}
	return t.persist()
}

func (t *TokenStore) persist() error {
	b, err := json.MarshalIndent(t.creds, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(t.path, b, 0o600)
}
