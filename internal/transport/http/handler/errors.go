package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-rental-kyc/internal/domain"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrAuthentication, http.StatusUnauthorized},
	{domain.ErrAuthorization, http.StatusForbidden},
	{domain.ErrAccessibility, http.StatusConflict},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrRateLimited, http.StatusTooManyRequests},
}

// httpError maps a service error to its status code. Unclassified errors
// are logged and answered with a generic 500.
func httpError(w http.ResponseWriter, err error) {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			writeError(w, s.status, publicMessage(err))
			return
		}
	}
	slog.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// publicMessage drops the trailing sentinel text from a wrapped error.
func publicMessage(err error) string {
	msg := err.Error()
	for _, s := range statusBySentinel {
		if trimmed := strings.TrimSuffix(msg, ": "+s.err.Error()); trimmed != msg {
			return trimmed
		}
	}
	return msg
}
