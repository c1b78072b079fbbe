package middleware

import (
	"net/http"

	"github.com/go-rental-kyc/internal/domain"
)

// RequireRole returns middleware that allows access only to users whose
// stored roles include one of allowedRoles. It runs after an auth middleware
// and catches roles revoked since the token was issued.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range allowedRoles {
				if domain.HasRole(u.Roles, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "forbidden")
		})
	}
}
