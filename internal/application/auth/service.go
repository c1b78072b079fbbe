package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rental-kyc/internal/domain"
	jwtinfra "github.com/go-rental-kyc/internal/infrastructure/jwt"
)

// Service resolves bearer tokens to users.
type Service interface {
	// Verify authenticates raw and requires role when it is non-empty.
	Verify(ctx context.Context, raw, role string) (*domain.User, error)
	// PreVerify authenticates raw without a role requirement. Used by the
	// KYC routes, which run before a user has completed onboarding.
	PreVerify(ctx context.Context, raw string) (*domain.User, error)
	// VerifyForRefresh is PreVerify for users that finished every KYC step.
	VerifyForRefresh(ctx context.Context, raw string) (*domain.User, error)
}

type userLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type tokenVerifier interface {
	Verify(raw string) (*jwtinfra.Claims, error)
}

type service struct {
	users  userLookup
	tokens tokenVerifier
}

func NewService(users userLookup, tokens tokenVerifier) Service {
	return &service{users: users, tokens: tokens}
}

func (s *service) Verify(ctx context.Context, raw, role string) (*domain.User, error) {
	if raw == "" {
		return nil, fmt.Errorf("missing bearer token: %w", domain.ErrAuthentication)
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	if role != "" && !domain.HasRole(claims.Roles, role) {
		return nil, fmt.Errorf("role %q required: %w", role, domain.ErrAuthorization)
	}
	u, err := s.users.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid token: %w", domain.ErrAuthentication)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) PreVerify(ctx context.Context, raw string) (*domain.User, error) {
	return s.Verify(ctx, raw, "")
}

func (s *service) VerifyForRefresh(ctx context.Context, raw string) (*domain.User, error) {
	u, err := s.PreVerify(ctx, raw)
	if err != nil {
		return nil, err
	}
	if u.VerificationLevel != domain.LevelBillingInfo {
		return nil, fmt.Errorf("verification incomplete: %w", domain.ErrAuthorization)
	}
	return u, nil
}
