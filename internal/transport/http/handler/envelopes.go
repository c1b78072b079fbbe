package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AuthEnvelope wraps sign-up, login and refresh responses.
type AuthEnvelope struct {
	Bearer  string       `json:"Bearer,omitempty"`
	User    *domain.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// UserEnvelope wraps a user together with the KYC step it has to take next.
type UserEnvelope struct {
	User     *domain.User `json:"user"`
	NextStep string       `json:"next_step,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// DataEnvelope wraps an arbitrary payload.
type DataEnvelope struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

// decodeBody parses the JSON body into v and runs its validate tags. It
// writes the error response itself and reports whether the handler may go on.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, publicMessage(err))
		return false
	}
	return true
}

// nextStep tells the client which KYC step to complete next.
func nextStep(u *domain.User) string {
	if u == nil || u.VerificationLevel == domain.LevelBillingInfo {
		return ""
	}
	return fmt.Sprintf("verify %s to proceed", u.VerificationLevel.Next())
}

func userEnvelope(u *domain.User, msg string) UserEnvelope {
	return UserEnvelope{User: u, NextStep: nextStep(u), Message: msg}
}
