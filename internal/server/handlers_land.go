package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"land-registry/internal/auth"
	"land-registry/internal/land"
)

const maxDocuments = 5

func (s *Server) handleRegisterLand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	area, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("area")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Area must be a number")
		return
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Price must be a number")
		return
	}

	sub := land.Submission{
		Title:            strings.TrimSpace(r.FormValue("landTitle")),
		Type:             strings.TrimSpace(r.FormValue("landType")),
		ClaimType:        strings.TrimSpace(r.FormValue("claimType")),
		ExistingRecordID: strings.TrimSpace(r.FormValue("existingRecordId")),
		Area:             area,
		Price:            price,
		Location:         strings.TrimSpace(r.FormValue("location")),
		Description:      strings.TrimSpace(r.FormValue("description")),
	}
	if err := land.ValidateSubmission(sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	files := r.MultipartForm.File["documents"]
	if len(files) > maxDocuments {
		writeError(w, http.StatusBadRequest, "A maximum of 5 documents is allowed")
		return
	}
	documents := make([]string, 0, len(files))
	for _, fh := range files {
		path, err := s.docs.SaveDocument(fh)
		if err != nil {
			s.logger.Printf("document save failed: %v", err)
			writeError(w, http.StatusInternalServerError, "could not store document")
			return
		}
		documents = append(documents, path)
	}
	if len(documents) == 0 {
		writeError(w, http.StatusBadRequest, "At least one document is required")
		return
	}

	landType, _ := land.ParseType(sub.Type)
	claimType, _ := land.ParseClaimType(sub.ClaimType)

	// Owner and status come from the authenticated session only; anything
	// the client sent for them is ignored.
	rec := &land.Record{
		Title:            sub.Title,
		Type:             landType,
		Area:             sub.Area,
		Location:         sub.Location,
		Description:      sub.Description,
		Price:            sub.Price,
		ClaimType:        claimType,
		ExistingRecordID: sub.ExistingRecordID,
		Documents:        documents,
		OwnerID:          claims.Sub,
		Status:           land.StatusPending,
	}
	if err := s.lands.Insert(rec); err != nil {
		var verr *land.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		s.logger.Printf("land insert failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Error registering land")
		return
	}

	writeJSONStatus(w, http.StatusCreated, landResp{
		Success: true,
		Message: "Land registered successfully",
		Data:    rec,
	})
}

// handleLand serves both the owner-scoped listing (/api/land/) and a single
// record by id (/api/land/{id}).
func (s *Server) handleLand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/land/")
	if id == "" || id == "/" {
		s.listLands(w, r, claims.Sub)
		return
	}
	s.getLandByID(w, id, claims.Sub)
}

func (s *Server) listLands(w http.ResponseWriter, r *http.Request, ownerID string) {
	var q land.Query
	if v := r.URL.Query().Get("landType"); v != "" {
		t, ok := land.ParseType(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid land type")
			return
		}
		q.Type = t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st, ok := land.ParseStatus(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		q.Status = st
	}

	recs, err := s.lands.FindByOwner(ownerID, q)
	if err != nil {
		s.logger.Printf("land list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Error fetching lands")
		return
	}

	writeJSON(w, landListResp{Success: true, Count: len(recs), Data: recs})
}

func (s *Server) getLandByID(w http.ResponseWriter, id, ownerID string) {
	rec, err := s.lands.FindByIDAndOwner(id, ownerID)
	if err != nil {
		if errors.Is(err, land.ErrRecordNotFound) {
			// Cross-owner reads land here too: not-found, never forbidden.
			writeError(w, http.StatusNotFound, "Land not found or access denied")
			return
		}
		s.logger.Printf("land get failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Error fetching land")
		return
	}
	writeJSON(w, landResp{Success: true, Data: rec})
}
