package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"land-registry/internal/auth"
	"land-registry/internal/notify"
)

type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateResolvedNone
	StateResolvedUser
	StateResolvedAdmin
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateResolvedNone:
		return "resolved-none"
	case StateResolvedUser:
		return "resolved-user"
	case StateResolvedAdmin:
		return "resolved-admin"
	default:
		return "unknown"
	}
}

var ErrNotAdmin = errors.New("access denied: admin privileges required")

// Session is the process-wide auth state. The current principal is a tagged
// union: state says which class (if any) is active, identity holds its
// snapshot. The two classes can never be cached simultaneously.
type Session struct {
	mu     sync.Mutex
	client *Client
	tokens *TokenStore
	logger *log.Logger

	state         State
	identity      *auth.User
	resolved      bool
	initializedAt time.Time

	now func() time.Time
}

func New(client *Client, tokens *TokenStore, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(log.Writer(), "[session] ", log.LstdFlags)
	}
	return &Session{
		client: client,
		tokens: tokens,
		logger: logger,
		state:  StateUninitialized,
		now:    time.Now,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialized reports whether startup resolution has settled. Until then no
// consumer may treat the identity accessors as authoritative.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state >= StateResolvedNone
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateResolving
}

func (s *Session) User() *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolvedUser {
		return nil
	}
	return s.identity
}

func (s *Session) Admin() *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolvedAdmin {
		return nil
	}
	return s.identity
}

// Token returns the bearer token of the active principal.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateResolvedUser:
		cred, ok := s.tokens.Get(ClassUser)
		return cred.Token, ok
	case StateResolvedAdmin:
		cred, ok := s.tokens.Get(ClassAdmin)
		return cred.Token, ok
	default:
		return "", false
	}
}

// Resolve exchanges stored tokens for verified identities, admin class
// first. Each credential is verified at most once per startup; a failed
// verification (including network errors) invalidates it, so it is never
// retried without a fresh login. Calling Resolve again is a no-op.
func (s *Session) Resolve(ctx context.Context) State {
	s.mu.Lock()
	if s.resolved {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.resolved = true
	s.state = StateResolving
	s.mu.Unlock()

	if cred, ok := s.tokens.Get(ClassAdmin); ok {
		ident, err := s.client.AdminMe(ctx, cred.Token)
		if err == nil {
			// Admin verified: the user slot is cleared so the classes
			// stay mutually exclusive.
			_ = s.tokens.Clear(ClassUser)
			_ = s.tokens.Set(ClassAdmin, Credential{Token: cred.Token, Identity: ident})
			s.settle(StateResolvedAdmin, ident)
			return StateResolvedAdmin
		}
		s.logger.Printf("admin verification failed: %v", err)
		_ = s.tokens.Clear(ClassAdmin)
	}

	if cred, ok := s.tokens.Get(ClassUser); ok {
		ident, err := s.client.Me(ctx, cred.Token)
		if err == nil {
			_ = s.tokens.Set(ClassUser, Credential{Token: cred.Token, Identity: ident})
			s.settle(StateResolvedUser, ident)
			return StateResolvedUser
		}
		s.logger.Printf("user verification failed: %v", err)
		_ = s.tokens.Clear(ClassUser)
	}

	s.settle(StateResolvedNone, nil)
	return StateResolvedNone
}

func (s *Session) settle(state State, ident *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.identity = ident
	s.initializedAt = s.now()
}

// Login authenticates the user class. Any cached admin credential is
// cleared first; on failure the partial user credential is purged too.
func (s *Session) Login(ctx context.Context, email, password string) (*auth.User, error) {
	_ = s.tokens.Clear(ClassAdmin)

	payload, err := s.client.Login(ctx, email, password)
	if err != nil {
		_ = s.tokens.Clear(ClassUser)
		s.setNone()
		return nil, err
	}

	if err := s.tokens.Set(ClassUser, Credential{Token: payload.Token, Identity: payload.User}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.state = StateResolvedUser
	s.identity = payload.User
	s.mu.Unlock()

	// Best-effort security event; a failed notification never fails the
	// login itself.
	ev := notify.Event{
		Type:    "security",
		Title:   "New login detected",
		Message: "A new login to your account was detected.",
	}
	if err := s.client.PostNotification(ctx, payload.Token, ev); err != nil {
		s.logger.Printf("login notification failed: %v", err)
	}

	return payload.User, nil
}

// AdminLogin authenticates the admin class. Even when the endpoint reports
// success, a payload whose role is not admin is treated as failure and the
// credential is purged.
func (s *Session) AdminLogin(ctx context.Context, email, password, adminKey string) (*auth.User, error) {
	_ = s.tokens.Clear(ClassUser)

	payload, err := s.client.AdminLogin(ctx, email, password, adminKey)
	if err != nil {
		_ = s.tokens.Clear(ClassAdmin)
		s.setNone()
		return nil, err
	}
	if payload.User == nil || payload.User.Role != auth.RoleAdmin {
		_ = s.tokens.Clear(ClassAdmin)
		s.setNone()
		return nil, ErrNotAdmin
	}

	if err := s.tokens.Set(ClassAdmin, Credential{Token: payload.Token, Identity: payload.User}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.state = StateResolvedAdmin
	s.identity = payload.User
	s.mu.Unlock()
	return payload.User, nil
}

// Register creates an account with auto-login semantics.
func (s *Session) Register(ctx context.Context, in RegisterInput) (*auth.User, error) {
	payload, err := s.client.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Set(ClassUser, Credential{Token: payload.Token, Identity: payload.User}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.state = StateResolvedUser
	s.identity = payload.User
	s.mu.Unlock()
	return payload.User, nil
}

// Logout clears the user credential. Idempotent.
func (s *Session) Logout() {
	_ = s.tokens.Clear(ClassUser)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateResolvedUser {
		s.state = StateResolvedNone
		s.identity = nil
	}
}

// AdminLogout clears the admin credential. Idempotent.
func (s *Session) AdminLogout() {
	_ = s.tokens.Clear(ClassAdmin)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateResolvedAdmin {
		s.state = StateResolvedNone
		s.identity = nil
	}
}

// UpdateUser submits a multipart profile update and replaces the cached
// identity with the server's copy. There is no optimistic update to roll
// back; failures are surfaced and logged only.
func (s *Session) UpdateUser(ctx context.Context, in ProfileInput) (*auth.User, error) {
	s.mu.Lock()
	if s.state != StateResolvedUser {
		s.mu.Unlock()
		return nil, errors.New("no user session")
	}
	id := s.identity.ID
	s.mu.Unlock()

	cred, ok := s.tokens.Get(ClassUser)
	if !ok {
		return nil, errors.New("no user credential")
	}

	user, err := s.client.UpdateDetails(ctx, cred.Token, id, in)
	if err != nil {
		s.logger.Printf("profile update failed: %v", err)
		return nil, err
	}

	_ = s.tokens.Set(ClassUser, Credential{Token: cred.Token, Identity: user})
	s.mu.Lock()
	s.identity = user
	s.mu.Unlock()
	return user, nil
}

func (s *Session) setNone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.state = StateResolvedNone
}

func (s *Session) initializedSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state < StateResolvedNone {
		return time.Time{}, false
	}
	return s.initializedAt, true
}
