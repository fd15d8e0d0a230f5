package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"land-registry/internal/auth"
	"land-registry/internal/storage"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username required")
		return
	}
	if req.Email == "" || !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "valid email required")
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, "weak password: "+err.Error())
		return
	}

	if _, err := s.users.FindByEmail(req.Email); err == nil {
		writeError(w, http.StatusConflict, "email already exists")
		return
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash password failed")
		return
	}

	// Role is always user here; elevated accounts are seeded, never
	// self-registered.
	user := &auth.User{
		Username: req.Username,
		Email:    req.Email,
		PassHash: hash,
		Role:     auth.RoleUser,
	}
	if err := s.users.Add(user); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	tok, _, err := s.signer.IssueToken(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	writeJSONStatus(w, http.StatusCreated, authResp{Token: tok, User: user, Redirect: s.roleHomes[user.Role]})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rlLoginIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}
	if !s.rlLoginID.allow(email) {
		tooMany(w, 60)
		return
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	ok, err := auth.VerifyPassword(req.Password, user.PassHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tok, _, err := s.signer.IssueToken(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	writeJSON(w, authResp{Token: tok, User: user, Redirect: s.roleHomes[user.Role]})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rlAdminIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}

	var req adminLoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	if s.cfg.AdminKey == "" || req.AdminKey != s.cfg.AdminKey {
		writeError(w, http.StatusUnauthorized, "invalid admin key")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := s.users.FindByEmail(email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	ok, err := auth.VerifyPassword(req.Password, user.PassHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.Role != auth.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin privileges required")
		return
	}

	tok, _, err := s.signer.IssueToken(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	writeJSON(w, authResp{Token: tok, User: user, Redirect: s.roleHomes[user.Role]})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	user, err := s.users.FindByID(claims.Sub)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	writeJSON(w, user)
}

// handleAdminMe is the identity-check endpoint for the admin credential
// class. A non-admin token is rejected, which is what invalidates a stale
// admin credential on the client.
func (s *Server) handleAdminMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if claims.Role != auth.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin privileges required")
		return
	}
	user, err := s.users.FindByID(claims.Sub)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	writeJSON(w, user)
}

func (s *Server) handleUploadDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/auth/uploadDetails/")
	if id == "" || id == "/" {
		writeError(w, http.StatusBadRequest, "user id required")
		return
	}
	if id != claims.Sub {
		writeError(w, http.StatusForbidden, "cannot update another user's profile")
		return
	}

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	upd := auth.ProfileUpdate{
		Username:     strings.TrimSpace(r.FormValue("username")),
		Email:        strings.TrimSpace(r.FormValue("email")),
		PhoneNumber:  strings.TrimSpace(r.FormValue("phoneNumber")),
		GithubURL:    strings.TrimSpace(r.FormValue("githubUrl")),
		FacebookURL:  strings.TrimSpace(r.FormValue("facebookUrl")),
		InstagramURL: strings.TrimSpace(r.FormValue("instagramUrl")),
		Description:  strings.TrimSpace(r.FormValue("description")),
		Profession:   strings.TrimSpace(r.FormValue("profession")),
	}
	if upd.Email != "" && !isValidEmail(upd.Email) {
		writeError(w, http.StatusBadRequest, "valid email required")
		return
	}

	if files := r.MultipartForm.File["profileImage"]; len(files) > 0 {
		path, err := s.docs.SaveProfileImage(files[0])
		if err != nil {
			if errors.Is(err, storage.ErrInvalidImageType) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.logger.Printf("profile image save failed: %v", err)
			writeError(w, http.StatusInternalServerError, "could not store profile image")
			return
		}
		upd.ProfileImage = path
	}

	user, err := s.users.UpdateDetails(id, upd)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Printf("update details failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not update profile")
		return
	}

	writeJSON(w, userResp{Success: true, User: user})
}
