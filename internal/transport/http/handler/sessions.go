package handler

import (
	"net/http"

	"github.com/go-rental-kyc/internal/application/account"
	"github.com/go-rental-kyc/internal/transport/http/middleware"
)

// SessionHandler issues bearer tokens.
type SessionHandler struct {
	svc account.Service
}

func NewSessionHandler(svc account.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}
	u, bearer, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, User: u, Message: nextStep(u)})
}

// Refresh issues a new token to a user admitted by the refresh auth middleware.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	bearer, err := h.svc.Refresh(r.Context(), u)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer})
}
