package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-kyc/internal/application/account"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/transport/http/middleware"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// AccountHandler handles sign-up and role membership endpoints.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) RegisterRenter(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, domain.RoleRenter)
}

func (h *AccountHandler) RegisterHost(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, domain.RoleHost)
}

func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request, role string) {
	var req domain.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, bearer, err := h.svc.Register(r.Context(), req, role)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Bearer: bearer, User: u, Message: nextStep(u)})
}

func (h *AccountHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}
	u, bearer, err := h.svc.GrantRole(r.Context(), req.Email, req.Password, chi.URLParam(r, "role"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, User: u, Message: "role granted"})
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), u, req.CurrentPassword, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
}
