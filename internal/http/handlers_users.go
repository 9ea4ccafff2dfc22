package http

import (
	"net/http"

	"homeportal/internal/middleware/auth"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		auth.WriteUnauthorized(w, auth.ErrNotAuthenticated)
		return
	}
	OK(user).Write(w)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context())
	if err != nil {
		writeError(w, r, err, "User")
		return
	}
	OK(nonNil(users)).Write(w)
}

// handleLogout expires the session cookie. It succeeds with or without one.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w)
	NoContent().Write(w)
}
