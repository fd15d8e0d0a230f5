package session

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"land-registry/internal/auth"
	"land-registry/internal/land"
	"land-registry/internal/notify"
	"land-registry/internal/server"
	"land-registry/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureNotifier) Publish(_ context.Context, ev notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureNotifier) Enabled() bool { return true }

func (c *captureNotifier) all() []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Event(nil), c.events...)
}

type apiEnv struct {
	ts       *httptest.Server
	users    *auth.MemoryUserStore
	lands    *land.MemoryStore
	notifier *captureNotifier
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	users := auth.NewMemoryUserStore()
	lands := land.NewMemoryStore()
	docs, err := storage.NewDocStore(t.TempDir())
	require.NoError(t, err)

	notifier := &captureNotifier{}
	logger := log.New(io.Discard, "", 0)
	srv, err := server.NewWithStores(server.Config{AdminKey: "test-admin-key"}, users, lands, docs, notifier, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &apiEnv{ts: ts, users: users, lands: lands, notifier: notifier}
}

func (e *apiEnv) seedAdmin(t *testing.T, email, password string) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(auth.DefaultArgon, password)
	require.NoError(t, err)
	admin := &auth.User{Username: "admin", Email: email, PassHash: hash, Role: auth.RoleAdmin}
	require.NoError(t, e.users.Add(admin))
	return admin
}

func newSession(t *testing.T, baseURL string) (*Session, *TokenStore) {
	t.Helper()
	tokens, err := NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	logger := log.New(io.Discard, "", 0)
	return New(NewClient(baseURL), tokens, logger), tokens
}

func TestResolveWithNoTokens(t *testing.T) {
	env := newAPI(t)
	sess, _ := newSession(t, env.ts.URL)

	assert.False(t, sess.Initialized())
	state := sess.Resolve(context.Background())

	assert.Equal(t, StateResolvedNone, state)
	assert.True(t, sess.Initialized())
	assert.Nil(t, sess.User())
	assert.Nil(t, sess.Admin())
}

// When both classes hold tokens and the admin one verifies, the session
// resolves admin and the user credential is dropped.
func TestResolveAdminTakesPriority(t *testing.T) {
	env := newAPI(t)
	admin := env.seedAdmin(t, "admin@example.com", "AdminPass123")

	boot, tokens := newSession(t, env.ts.URL)
	_, err := boot.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "Password123",
	})
	require.NoError(t, err)
	userCred, ok := tokens.Get(ClassUser)
	require.True(t, ok)

	_, err = boot.AdminLogin(context.Background(), "admin@example.com", "AdminPass123", "test-admin-key")
	require.NoError(t, err)
	adminCred, ok := tokens.Get(ClassAdmin)
	require.True(t, ok)

	// Fresh startup with both tokens present.
	fresh, freshTokens := newSession(t, env.ts.URL)
	require.NoError(t, freshTokens.Set(ClassUser, userCred))
	require.NoError(t, freshTokens.Set(ClassAdmin, adminCred))

	state := fresh.Resolve(context.Background())
	assert.Equal(t, StateResolvedAdmin, state)
	require.NotNil(t, fresh.Admin())
	assert.Equal(t, admin.ID, fresh.Admin().ID)
	assert.Nil(t, fresh.User())

	_, userStill := freshTokens.Get(ClassUser)
	assert.False(t, userStill, "user credential must be cleared when admin verifies")
}

func TestResolveInvalidAdminFallsBackToUser(t *testing.T) {
	env := newAPI(t)

	boot, tokens := newSession(t, env.ts.URL)
	user, err := boot.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "Password123",
	})
	require.NoError(t, err)
	userCred, _ := tokens.Get(ClassUser)

	fresh, freshTokens := newSession(t, env.ts.URL)
	require.NoError(t, freshTokens.Set(ClassUser, userCred))
	require.NoError(t, freshTokens.Set(ClassAdmin, Credential{Token: "garbage-token"}))

	state := fresh.Resolve(context.Background())
	assert.Equal(t, StateResolvedUser, state)
	require.NotNil(t, fresh.User())
	assert.Equal(t, user.ID, fresh.User().ID)

	_, adminStill := freshTokens.Get(ClassAdmin)
	assert.False(t, adminStill, "failed admin credential must be invalidated")
}

// Network failure during verification is treated like an invalid
// credential: fail closed, clear state.
func TestResolveFailsClosedOnServerError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close() // every call now fails at the transport

	tokens, err := NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, tokens.Set(ClassUser, Credential{Token: "tok-user"}))
	require.NoError(t, tokens.Set(ClassAdmin, Credential{Token: "tok-admin"}))

	sess := New(NewClient(ts.URL), tokens, log.New(io.Discard, "", 0))
	state := sess.Resolve(context.Background())

	assert.Equal(t, StateResolvedNone, state)
	_, userStill := tokens.Get(ClassUser)
	_, adminStill := tokens.Get(ClassAdmin)
	assert.False(t, userStill)
	assert.False(t, adminStill)
}

func TestResolveRunsOncePerStartup(t *testing.T) {
	var calls int
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid token"})
	}))
	t.Cleanup(ts.Close)

	tokens, err := NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, tokens.Set(ClassUser, Credential{Token: "tok-user"}))

	sess := New(NewClient(ts.URL), tokens, log.New(io.Discard, "", 0))
	sess.Resolve(context.Background())
	sess.Resolve(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "a credential is verified at most once per startup")
}

// A 200 from the admin-login endpoint whose payload role is not admin must
// be treated as failure with nothing cached.
func TestAdminLoginRejectsRoleLie(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/admin/login" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "lying-token",
			"user":  map[string]any{"id": "u1", "username": "mallory", "role": "user"},
		})
	}))
	t.Cleanup(ts.Close)

	tokens, err := NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	sess := New(NewClient(ts.URL), tokens, log.New(io.Discard, "", 0))

	_, err = sess.AdminLogin(context.Background(), "mallory@example.com", "pw", "key")
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Nil(t, sess.Admin())

	_, cached := tokens.Get(ClassAdmin)
	assert.False(t, cached, "no admin credential may survive a role mismatch")
}

func TestLoginClearsAdminCredential(t *testing.T) {
	env := newAPI(t)
	env.seedAdmin(t, "admin@example.com", "AdminPass123")

	sess, tokens := newSession(t, env.ts.URL)
	_, err := sess.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "Password123",
	})
	require.NoError(t, err)

	_, err = sess.AdminLogin(context.Background(), "admin@example.com", "AdminPass123", "test-admin-key")
	require.NoError(t, err)
	_, hasAdmin := tokens.Get(ClassAdmin)
	require.True(t, hasAdmin)

	_, err = sess.Login(context.Background(), "alice@example.com", "Password123")
	require.NoError(t, err)

	assert.NotNil(t, sess.User())
	assert.Nil(t, sess.Admin())
	_, hasAdmin = tokens.Get(ClassAdmin)
	assert.False(t, hasAdmin, "login must clear the admin credential first")
}

func TestLoginFailureClearsUserCredential(t *testing.T) {
	env := newAPI(t)
	sess, tokens := newSession(t, env.ts.URL)

	_, err := sess.Login(context.Background(), "nobody@example.com", "Whatever123")
	require.Error(t, err)

	_, cached := tokens.Get(ClassUser)
	assert.False(t, cached)
	assert.Nil(t, sess.User())
}

func TestLoginEmitsNotification(t *testing.T) {
	env := newAPI(t)
	sess, _ := newSession(t, env.ts.URL)

	user, err := sess.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "Password123",
	})
	require.NoError(t, err)
	sess.Logout()

	_, err = sess.Login(context.Background(), "alice@example.com", "Password123")
	require.NoError(t, err)

	events := env.notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, user.ID, events[0].UserID, "event is attributed to the authenticated caller")
	assert.Equal(t, "security", events[0].Type)
	assert.Equal(t, "New login detected", events[0].Title)
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newAPI(t)
	sess, tokens := newSession(t, env.ts.URL)

	_, err := sess.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "Password123",
	})
	require.NoError(t, err)

	sess.Logout()
	sess.Logout()

	assert.Nil(t, sess.User())
	_, cached := tokens.Get(ClassUser)
	assert.False(t, cached)
	assert.Equal(t, StateResolvedNone, sess.State())
}

func TestUpdateUserReplacesIdentity(t *testing.T) {
	env := newAPI(t)
	sess, tokens := newSession(t, env.ts.URL)

	_, err := sess.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "Password123",
	})
	require.NoError(t, err)

	updated, err := sess.UpdateUser(context.Background(), ProfileInput{
		Username:    "alice",
		Email:       "alice@example.com",
		PhoneNumber: "+1555000111",
		Profession:  "surveyor",
	})
	require.NoError(t, err)
	assert.Equal(t, "+1555000111", updated.PhoneNumber)
	assert.Equal(t, "+1555000111", sess.User().PhoneNumber)

	cred, ok := tokens.Get(ClassUser)
	require.True(t, ok)
	assert.Equal(t, "+1555000111", cred.Identity.PhoneNumber)
}

// The end-to-end scenario: register, auto-login, submit a land record with
// two documents, get back a pending record owned by the registering user.
func TestRegisterThenSubmitLand(t *testing.T) {
	env := newAPI(t)
	sess, _ := newSession(t, env.ts.URL)
	ctx := context.Background()

	user, err := sess.Register(ctx, RegisterInput{
		Username: "farmer", Email: "farmer@example.com", Password: "Password123",
	})
	require.NoError(t, err)

	token, ok := sess.Token()
	require.True(t, ok)

	client := NewClient(env.ts.URL)
	rec, err := client.RegisterLand(ctx, token, LandInput{
		Title:            "Farm Plot A",
		Type:             "agricultural",
		Area:             120,
		Location:         "North District",
		Price:            5000,
		ClaimType:        "ownership",
		ExistingRecordID: "REC-1",
		Documents: []Document{
			{Name: "deed.pdf", Data: []byte("%PDF-1.4 deed")},
			{Name: "survey.pdf", Data: []byte("%PDF-1.4 survey")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, land.StatusPending, rec.Status)
	assert.Equal(t, user.ID, rec.OwnerID)
	assert.Len(t, rec.Documents, 2)
	assert.Equal(t, land.TypeAgricultural, rec.Type)
}

func TestRegisterLandReportsMissingFields(t *testing.T) {
	client := NewClient("http://unused.invalid")
	_, err := client.RegisterLand(context.Background(), "tok", LandInput{
		Title: "Farm Plot A",
		Type:  "agricultural",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
	assert.Contains(t, err.Error(), "area")
	assert.Contains(t, err.Error(), "documents")
}
