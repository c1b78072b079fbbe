package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-kyc/internal/application/account"
	"github.com/go-rental-kyc/internal/transport/http/middleware"
)

// UserHandler serves the signed-in user's profile and admin role changes.
type UserHandler struct {
	svc account.Service
}

func NewUserHandler(svc account.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope(u, ""))
}

func (h *UserHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.RevokeRole(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "role"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope(u, "role revoked"))
}
