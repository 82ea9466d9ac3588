package httpapi

import (
	"errors"
	"net/http"
	"strings"

	appAuth "github.com/execution-hub/commission-bot/internal/application/auth"
)

func (s *Server) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.authSvc.Authenticate(r.Context(), extractKey(r))
		switch {
		case errors.Is(err, appAuth.ErrDisabled):
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		case err != nil:
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractKey accepts a bearer header, or a key query parameter for
// EventSource clients that cannot set headers.
func extractKey(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return r.URL.Query().Get("key")
}
