package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-rental-kyc/internal/application/auth"
	"github.com/go-rental-kyc/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

type verifyFunc func(ctx context.Context, raw string) (*domain.User, error)

// Auth returns middleware that requires a bearer token carrying role.
func Auth(svc auth.Service, role string) func(http.Handler) http.Handler {
	return authenticate(func(ctx context.Context, raw string) (*domain.User, error) {
		return svc.Verify(ctx, raw, role)
	})
}

// PreVerify returns middleware that accepts any valid bearer token,
// regardless of role or onboarding progress.
func PreVerify(svc auth.Service) func(http.Handler) http.Handler {
	return authenticate(svc.PreVerify)
}

// RefreshAuth returns middleware that only admits fully verified users.
func RefreshAuth(svc auth.Service) func(http.Handler) http.Handler {
	return authenticate(svc.VerifyForRefresh)
}

func authenticate(verify verifyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			u, err := verify(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
			case errors.Is(err, domain.ErrAuthorization):
				writeJSONError(w, http.StatusForbidden, "forbidden")
			case errors.Is(err, domain.ErrAuthentication):
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			default:
				slog.Error("authentication lookup failed", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		})
	}
}

// UserFromContext returns the user resolved by the auth middleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

// WithUser stores u in ctx the same way the auth middleware does.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
