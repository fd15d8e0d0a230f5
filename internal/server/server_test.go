package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"land-registry/internal/auth"
	"land-registry/internal/land"
	"land-registry/internal/notify"
	"land-registry/internal/storage"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv   *Server
	users *auth.MemoryUserStore
	lands *land.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := auth.NewMemoryUserStore()
	lands := land.NewMemoryStore()
	docs, err := storage.NewDocStore(t.TempDir())
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	srv, err := NewWithStores(Config{AdminKey: "test-admin-key"}, users, lands, docs, notify.New("", logger), logger)
	require.NoError(t, err)
	return &testEnv{srv: srv, users: users, lands: lands}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, path, token, bytes.NewReader(b), "application/json")
}

// registerUser signs up a fresh account and returns its token and identity.
func (e *testEnv) registerUser(t *testing.T, username, email string) (string, *auth.User) {
	t.Helper()
	rec := e.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "Password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string     `json:"token"`
		User  *auth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	return resp.Token, resp.User
}

// seedAdmin inserts an admin account directly into the store.
func (e *testEnv) seedAdmin(t *testing.T, email, password string) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(auth.DefaultArgon, password)
	require.NoError(t, err)
	admin := &auth.User{Username: "admin", Email: email, PassHash: hash, Role: auth.RoleAdmin}
	require.NoError(t, e.users.Add(admin))
	return admin
}

type landFormOpts struct {
	fields    map[string]string
	documents []string
}

func defaultLandFields() map[string]string {
	return map[string]string{
		"landTitle":        "Farm Plot A",
		"landType":         "agricultural",
		"area":             "120",
		"location":         "North District",
		"description":      "Two hectares of farmland",
		"price":            "5000",
		"claimType":        "ownership",
		"existingRecordId": "REC-1",
	}
}

func buildLandForm(t *testing.T, opts landFormOpts) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range opts.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range opts.documents {
		fw, err := mw.CreateFormFile("documents", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 fake document"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}
