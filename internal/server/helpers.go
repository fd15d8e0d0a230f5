package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSONStatus(w, code, errorResp{Success: false, Message: msg})
}

var (
	reUpper = regexp.MustCompile(`[A-Z]`)
	reLower = regexp.MustCompile(`[a-z]`)
	reDigit = regexp.MustCompile(`[0-9]`)
	reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func validatePassword(pw string) error {
	switch {
	case len(pw) < 8:
		return errors.New("password must be at least 8 characters")
	case strings.Contains(pw, " "):
		return errors.New("password must not contain spaces")
	case !reUpper.MatchString(pw):
		return errors.New("password must include an uppercase letter")
	case !reLower.MatchString(pw):
		return errors.New("password must include a lowercase letter")
	case !reDigit.MatchString(pw):
		return errors.New("password must include a digit")
	default:
		return nil
	}
}

func isValidEmail(email string) bool {
	return reEmail.MatchString(email)
}
