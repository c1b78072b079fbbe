package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rental-kyc/internal/domain"
	jwtinfra "github.com/go-rental-kyc/internal/infrastructure/jwt"
	"github.com/go-rental-kyc/internal/pkg/id"
	"github.com/go-rental-kyc/internal/pkg/secure"
	"golang.org/x/crypto/bcrypt"
)

const fieldPasswordHash = "password_hash"

// Service manages sign-up, sign-in and role membership.
type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest, role string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	GrantRole(ctx context.Context, email, password, role string) (*domain.User, string, error)
	RevokeRole(ctx context.Context, userID, role string) (*domain.User, error)
	Refresh(ctx context.Context, u *domain.User) (string, error)
	ChangePassword(ctx context.Context, u *domain.User, currentPassword, newPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) (*domain.User, error)
	AddRole(ctx context.Context, userID, role string) (*domain.User, error)
	RemoveRole(ctx context.Context, userID, role string) (*domain.User, error)
}

type tokenIssuer interface {
	Issue(subject string, roles []string) (string, *jwtinfra.Claims, error)
}

type emailInitiator interface {
	Initiate(ctx context.Context, u *domain.User, next string) (*domain.Verification, error)
}

type service struct {
	repo   userStore
	tokens tokenIssuer
	email  emailInitiator
}

type ServiceDeps struct {
	UserRepo  userStore
	Tokens    tokenIssuer
	EmailFlow emailInitiator
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo, tokens: deps.Tokens, email: deps.EmailFlow}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest, role string) (*domain.User, string, error) {
	if !domain.SignupRole(role) {
		return nil, "", fmt.Errorf("cannot sign up as %q: %w", role, domain.ErrValidation)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", registeredError(existing, role)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, "", err
	}

	salt, err := secure.GenerateSalt()
	if err != nil {
		return nil, "", err
	}
	hash, err := hashPassword(req.Password, salt)
	if err != nil {
		return nil, "", err
	}
	first, last := splitName(req.FullName)
	now := time.Now().UTC()
	u := &domain.User{
		UserID:            id.New(),
		Email:             email,
		FirstName:         first,
		LastName:          last,
		Salt:              salt,
		PasswordHash:      hash,
		Roles:             []string{role},
		VerificationLevel: domain.LevelNone,
		Enable:            1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, "", fmt.Errorf("email already registered: %w", domain.ErrAccessibility)
		}
		return nil, "", err
	}

	if _, err := s.email.Initiate(ctx, u, req.Next); err != nil {
		slog.Warn("verification email not sent at sign-up", "user_id", u.UserID, "err", err)
	}

	bearer, _, err := s.tokens.Issue(u.UserID, u.Roles)
	if err != nil {
		return nil, "", err
	}
	return u, bearer, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	bearer, _, err := s.tokens.Issue(u.UserID, u.Roles)
	if err != nil {
		return nil, "", err
	}
	return u, bearer, nil
}

// GrantRole lets an existing account take on a second marketplace role,
// e.g. a renter becoming a host. The caller re-authenticates with the password.
func (s *service) GrantRole(ctx context.Context, email, password, role string) (*domain.User, string, error) {
	if !domain.SignupRole(role) {
		return nil, "", fmt.Errorf("role %q cannot be self-granted: %w", role, domain.ErrValidation)
	}
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if domain.HasRole(u.Roles, role) {
		return nil, "", fmt.Errorf("account already has the %s role: %w", role, domain.ErrValidation)
	}
	updated, err := s.repo.AddRole(ctx, u.UserID, role)
	if err != nil {
		return nil, "", err
	}
	bearer, _, err := s.tokens.Issue(updated.UserID, updated.Roles)
	if err != nil {
		return nil, "", err
	}
	return updated, bearer, nil
}

func (s *service) RevokeRole(ctx context.Context, userID, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrValidation)
	}
	return s.repo.RemoveRole(ctx, userID, role)
}

func (s *service) Refresh(_ context.Context, u *domain.User) (string, error) {
	bearer, _, err := s.tokens.Issue(u.UserID, u.Roles)
	return bearer, err
}

func (s *service) ChangePassword(ctx context.Context, u *domain.User, currentPassword, newPassword string) error {
	if !passwordMatches(u, currentPassword) {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrAuthentication)
	}
	hash, err := hashPassword(newPassword, u.Salt)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: hash})
	return err
}

func (s *service) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", domain.ErrAuthentication)
		}
		return nil, err
	}
	if !passwordMatches(u, password) {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrAuthentication)
	}
	return u, nil
}

// hashPassword peppers the password with the account salt before bcrypt.
func hashPassword(password, salt string) (string, error) {
	digest, err := secure.Hash(password, salt)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(digest), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(u *domain.User, password string) bool {
	digest, err := secure.Hash(password, u.Salt)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(digest)) == nil
}

func registeredError(existing *domain.User, role string) error {
	switch {
	case role == domain.RoleRenter && domain.HasRole(existing.Roles, domain.RoleHost) && !domain.HasRole(existing.Roles, domain.RoleRenter):
		return fmt.Errorf("email is registered as a host; sign in to add the renter role: %w", domain.ErrAccessibility)
	case role == domain.RoleHost && domain.HasRole(existing.Roles, domain.RoleRenter) && !domain.HasRole(existing.Roles, domain.RoleHost):
		return fmt.Errorf("email is registered as a renter; sign in to add the host role: %w", domain.ErrAccessibility)
	}
	return fmt.Errorf("email already registered: %w", domain.ErrAccessibility)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
