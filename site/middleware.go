package site

import (
	"log"
	"net/http"

	"inkwell/auth"
	"inkwell/session"
)

// RequireCapability rejects with 403 any requester that is anonymous or whose
// roles do not grant c. It runs before the wrapped handler does anything.
func (s *Server) RequireCapability(c auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := session.CurrentUser(r.Context())
			if !s.can(user, c) {
				if user == nil {
					log.Printf("forbidden %s %s: anonymous", r.Method, r.URL.Path)
				} else {
					log.Printf("forbidden %s %s: user %d lacks %s", r.Method, r.URL.Path, user.ID, c)
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
