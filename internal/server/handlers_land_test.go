package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"land-registry/internal/land"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLandRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	body, ct := buildLandForm(t, landFormOpts{fields: defaultLandFields(), documents: []string{"deed.pdf"}})
	rec := env.do(t, http.MethodPost, "/api/land/register", "", body, ct)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, env.lands.Count())
}

func TestRegisterLandNegativeAreaRejected(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	fields := defaultLandFields()
	fields["area"] = "-5"
	body, ct := buildLandForm(t, landFormOpts{fields: fields, documents: []string{"deed.pdf"}})
	rec := env.do(t, http.MethodPost, "/api/land/register", token, body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Area must be greater than 0")
	assert.Equal(t, 0, env.lands.Count(), "no record may be created on validation failure")
}

func TestRegisterLandNonNumericAreaRejected(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	fields := defaultLandFields()
	fields["area"] = "huge"
	body, ct := buildLandForm(t, landFormOpts{fields: fields, documents: []string{"deed.pdf"}})
	rec := env.do(t, http.MethodPost, "/api/land/register", token, body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Area must be a number")
}

func TestRegisterLandRequiresDocuments(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	body, ct := buildLandForm(t, landFormOpts{fields: defaultLandFields()})
	rec := env.do(t, http.MethodPost, "/api/land/register", token, body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "At least one document is required")
}

func TestRegisterLandRejectsTooManyDocuments(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	docs := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f.pdf"}
	body, ct := buildLandForm(t, landFormOpts{fields: defaultLandFields(), documents: docs})
	rec := env.do(t, http.MethodPost, "/api/land/register", token, body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.lands.Count())
}

// Owner and status always come from the session, never from the payload.
func TestRegisterLandForcesOwnerAndStatus(t *testing.T) {
	env := newTestEnv(t)
	token, user := env.registerUser(t, "alice", "alice@example.com")

	fields := defaultLandFields()
	fields["owner"] = "someone-else"
	fields["status"] = "verified"
	body, ct := buildLandForm(t, landFormOpts{fields: fields, documents: []string{"deed.pdf"}})
	rec := env.do(t, http.MethodPost, "/api/land/register", token, body, ct)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool        `json:"success"`
		Data    land.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, user.ID, resp.Data.OwnerID)
	assert.Equal(t, land.StatusPending, resp.Data.Status)
	assert.Equal(t, land.TypeAgricultural, resp.Data.Type)
	assert.Len(t, resp.Data.Documents, 1)
	assert.NotEmpty(t, resp.Data.ID)
}

func TestListLandsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	aliceTok, _ := env.registerUser(t, "alice", "alice@example.com")
	bobTok, _ := env.registerUser(t, "bob", "bob@example.com")

	body, ct := buildLandForm(t, landFormOpts{fields: defaultLandFields(), documents: []string{"deed.pdf"}})
	rec := env.do(t, http.MethodPost, "/api/land/register", aliceTok, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)

	var list struct {
		Count int           `json:"count"`
		Data  []land.Record `json:"data"`
	}

	rec = env.do(t, http.MethodGet, "/api/land/", aliceTok, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = env.do(t, http.MethodGet, "/api/land/", bobTok, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
}

func TestListLandsFilters(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	body, ct := buildLandForm(t, landFormOpts{fields: defaultLandFields(), documents: []string{"deed.pdf"}})
	rec := env.do(t, http.MethodPost, "/api/land/register", token, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)

	var list struct {
		Count int `json:"count"`
	}
	rec = env.do(t, http.MethodGet, "/api/land/?landType=agricultural&status=pending", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = env.do(t, http.MethodGet, "/api/land/?landType=residential", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)

	rec = env.do(t, http.MethodGet, "/api/land/?landType=swamp", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Cross-owner reads are indistinguishable from missing records.
func TestGetLandByIDCrossOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	aliceTok, _ := env.registerUser(t, "alice", "alice@example.com")
	bobTok, _ := env.registerUser(t, "bob", "bob@example.com")

	body, ct := buildLandForm(t, landFormOpts{fields: defaultLandFields(), documents: []string{"deed.pdf"}})
	rec := env.do(t, http.MethodPost, "/api/land/register", aliceTok, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data land.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.do(t, http.MethodGet, "/api/land/"+created.Data.ID, bobTok, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), created.Data.Title)

	rec = env.do(t, http.MethodGet, "/api/land/"+created.Data.ID, aliceTok, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
