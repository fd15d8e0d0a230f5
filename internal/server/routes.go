package server

import "net/http"

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("/api/auth/me", s.handleMe)
	s.mux.HandleFunc("/api/admin/me", s.handleAdminMe)
	s.mux.HandleFunc("/api/auth/uploadDetails/", s.handleUploadDetails)

	s.mux.HandleFunc("/api/land/register", s.handleRegisterLand)
	s.mux.HandleFunc("/api/land/", s.handleLand)

	s.mux.HandleFunc("/api/notifications", s.handleNotifications)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
