package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-kyc/internal/application/kyc"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) Register(ctx context.Context, req domain.CreateUserRequest, role string) (*domain.User, string, error) {
	args := m.Called(ctx, req, role)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}

func (m *mockAccountSvc) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	args := m.Called(ctx, email, password)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}

func (m *mockAccountSvc) GrantRole(ctx context.Context, email, password, role string) (*domain.User, string, error) {
	args := m.Called(ctx, email, password, role)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}

func (m *mockAccountSvc) RevokeRole(ctx context.Context, userID, role string) (*domain.User, error) {
	args := m.Called(ctx, userID, role)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountSvc) Refresh(ctx context.Context, u *domain.User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *mockAccountSvc) ChangePassword(ctx context.Context, u *domain.User, currentPassword, newPassword string) error {
	return m.Called(ctx, u, currentPassword, newPassword).Error(0)
}

type mockEmail struct{ mock.Mock }

func (m *mockEmail) Resend(ctx context.Context, u *domain.User, next string) (*domain.Verification, error) {
	args := m.Called(ctx, u, next)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmail) Confirm(ctx context.Context, code, reference string, externalExpiry int64) (*domain.User, error) {
	args := m.Called(ctx, code, reference, externalExpiry)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPhone struct{ mock.Mock }

func (m *mockPhone) Send(ctx context.Context, u *domain.User, req domain.PhoneRequest) (*kyc.PhoneChallenge, error) {
	args := m.Called(ctx, u, req)
	if c, _ := args.Get(0).(*kyc.PhoneChallenge); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPhone) Verify(ctx context.Context, u *domain.User, code, reference string, req domain.PhoneRequest) (*domain.User, error) {
	args := m.Called(ctx, u, code, reference, req)
	if out, _ := args.Get(0).(*domain.User); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockProfile struct{ mock.Mock }

func (m *mockProfile) UploadSelfie(ctx context.Context, u *domain.User, filename string, r io.Reader) (*domain.User, error) {
	args := m.Called(ctx, u, filename, r)
	if out, _ := args.Get(0).(*domain.User); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfile) SelfieURL(ctx context.Context, u *domain.User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *mockProfile) SaveDetails(ctx context.Context, u *domain.User, req domain.UserDetailsRequest) (*domain.User, error) {
	args := m.Called(ctx, u, req)
	if out, _ := args.Get(0).(*domain.User); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfile) SaveBillingInfo(ctx context.Context, u *domain.User, b domain.BillingInfo) (*domain.User, error) {
	args := m.Called(ctx, u, b)
	if out, _ := args.Get(0).(*domain.User); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func jsonReq(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(b))
}

// asUser places u in the request context the way the auth middleware does.
func asUser(r *http.Request, u *domain.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), u))
}

// withParams injects chi URL params, given as key/value pairs.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}
