package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/bluehawana/totoyai/internal/auth"
)

type contextKey string

const claimsKey contextKey = "device_claims"

// requireDevice validates the bearer token and stashes the device claims in
// the request context. Anything wrong with the token maps to one generic 401.
func (s *Server) requireDevice(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired token")
			return
		}

		claims, err := s.auth.Verify(token)
		if err != nil || claims.Kind != auth.TokenAccess {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// deviceClaims returns the validated claims placed by requireDevice.
func deviceClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
