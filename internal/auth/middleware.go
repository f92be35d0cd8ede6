package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const ViewerIDKey contextKey = "viewerID"

// RequireViewer accepts a bearer token (or a token query parameter, for
// websocket upgrades) and checks that it is scoped to the {id} route var.
func (s *Service) RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization"})
			return
		}

		viewerID, err := s.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		if id := mux.Vars(r)["id"]; id != "" && id != viewerID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "token not valid for this viewer"})
			return
		}

		ctx := context.WithValue(r.Context(), ViewerIDKey, viewerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// the token query parameter when no header is set.
func TokenFromRequest(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t, true
	}
	return "", false
}

func ViewerIDFromContext(ctx context.Context) string {
	viewerID, _ := ctx.Value(ViewerIDKey).(string)
	return viewerID
}
