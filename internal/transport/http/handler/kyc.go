package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-kyc/internal/application/kyc"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/transport/http/middleware"
)

const maxSelfieBytes = 5 << 20

type emailVerifier interface {
	Resend(ctx context.Context, u *domain.User, next string) (*domain.Verification, error)
	Confirm(ctx context.Context, code, reference string, externalExpiry int64) (*domain.User, error)
}

type phoneVerifier interface {
	Send(ctx context.Context, u *domain.User, req domain.PhoneRequest) (*kyc.PhoneChallenge, error)
	Verify(ctx context.Context, u *domain.User, code, reference string, req domain.PhoneRequest) (*domain.User, error)
}

type profileUpdater interface {
	UploadSelfie(ctx context.Context, u *domain.User, filename string, r io.Reader) (*domain.User, error)
	SelfieURL(ctx context.Context, u *domain.User) (string, error)
	SaveDetails(ctx context.Context, u *domain.User, req domain.UserDetailsRequest) (*domain.User, error)
	SaveBillingInfo(ctx context.Context, u *domain.User, b domain.BillingInfo) (*domain.User, error)
}

type otpRequest struct {
	OTP       string `json:"otp" validate:"required,len=6,numeric"`
	Reference string `json:"reference" validate:"required"`
	domain.PhoneRequest
}

// KYCHandler drives the verification pipeline endpoints.
type KYCHandler struct {
	email   emailVerifier
	phone   phoneVerifier
	profile profileUpdater
}

func NewKYCHandler(email emailVerifier, phone phoneVerifier, profile profileUpdater) *KYCHandler {
	return &KYCHandler{email: email, phone: phone, profile: profile}
}

// VerifyEmail redeems the link sent by mail. It needs no bearer token.
func (h *KYCHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var expires int64
	if raw := r.URL.Query().Get("expires"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expires parameter")
			return
		}
		expires = v
	}
	u, err := h.email.Confirm(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "guid"), expires)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope(u, "email verified"))
}

func (h *KYCHandler) ResendEmail(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Next string `json:"next"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if _, err := h.email.Resend(r.Context(), u, body.Next); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification email sent"})
}

func (h *KYCHandler) SendPhoneOTP(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.PhoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ch, err := h.phone.Send(r.Context(), u, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: ch, Message: "verification code sent"})
}

func (h *KYCHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req otpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := h.phone.Verify(r.Context(), u, req.OTP, req.Reference, req.PhoneRequest)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope(updated, "phone verified"))
}

func (h *KYCHandler) UploadSelfie(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSelfieBytes)
	if err := r.ParseMultipartForm(maxSelfieBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("selfie")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing selfie field")
		return
	}
	defer f.Close()

	updated, err := h.profile.UploadSelfie(r.Context(), u, header.Filename, f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope(updated, "selfie received"))
}

func (h *KYCHandler) SelfieURL(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	link, err := h.profile.SelfieURL(r.Context(), u)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: map[string]string{"url": link}})
}

func (h *KYCHandler) SaveDetails(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UserDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.profile.SaveDetails(r.Context(), u, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope(updated, "details saved"))
}

func (h *KYCHandler) SaveBillingInfo(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.BillingInfo
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := h.profile.SaveBillingInfo(r.Context(), u, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope(updated, "billing information saved"))
}
