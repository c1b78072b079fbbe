package http

import (
	"context"
	"io"
	"time"

	"github.com/go-rental-kyc/internal/domain"
	jwtinfra "github.com/go-rental-kyc/internal/infrastructure/jwt"
	"github.com/go-rental-kyc/internal/infrastructure/smtp"
	"github.com/go-rental-kyc/internal/infrastructure/sns"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByVerificationID(ctx context.Context, verificationID string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) ([]domain.User, error)
	PhoneClaimed(ctx context.Context, e164, excludeUserID string) (bool, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) (*domain.User, error)
	AddRole(ctx context.Context, userID, role string) (*domain.User, error)
	RemoveRole(ctx context.Context, userID, role string) (*domain.User, error)
}

// VerificationRepository is the minimal interface the router requires from a verification store.
type VerificationRepository interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, verificationID string) (*domain.Verification, error)
	GetByReference(ctx context.Context, reference string) (*domain.Verification, error)
	Update(ctx context.Context, verificationID string, updates map[string]interface{}) (*domain.Verification, error)
	MarkConsumed(ctx context.Context, verificationID string, kind domain.ChallengeKind, hash string, at int64) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	VerificationRepo VerificationRepository
	Documents        ObjectStore
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
	// Stop ends the rate limiter cleanup goroutines.
	Stop <-chan struct{}
}
