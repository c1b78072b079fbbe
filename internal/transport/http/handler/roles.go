package handler

import (
	"net/http"

	"github.com/go-rental-kyc/internal/domain"
)

// RolesEnvelope lists the roles a client can sign up or upgrade to.
type RolesEnvelope struct {
	Roles []string `json:"roles"`
}

// ListRoles is public so sign-up clients can render the role picker.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RolesEnvelope{Roles: domain.SignupRoles()})
}
