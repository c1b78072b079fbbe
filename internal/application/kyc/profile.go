package kyc

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rental-kyc/internal/domain"
	s3infra "github.com/go-rental-kyc/internal/infrastructure/s3"
	"github.com/go-rental-kyc/internal/pkg/id"
	"github.com/go-rental-kyc/internal/pkg/secure"
	"github.com/go-rental-kyc/internal/pkg/validate"
)

const selfieURLTTL = 15 * time.Minute

type documentStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ProfileFlow collects the documents and details that follow phone verification.
type ProfileFlow struct {
	users userStore
	docs  documentStore
}

func NewProfileFlow(users userStore, docs documentStore) *ProfileFlow {
	return &ProfileFlow{users: users, docs: docs}
}

// UploadSelfie stores a JPEG or PNG liveness image and queues it for review.
func (f *ProfileFlow) UploadSelfie(ctx context.Context, u *domain.User, filename string, r io.Reader) (*domain.User, error) {
	if err := requireLevel(u, domain.LevelPhone); err != nil {
		return nil, err
	}
	contentType, ext, ok := s3infra.ImageContentType(filename)
	if !ok {
		return nil, fmt.Errorf("selfie must be a jpeg or png image: %w", domain.ErrValidation)
	}
	key := fmt.Sprintf("kyc/%s/selfie-%s%s", u.UserID, id.New(), ext)
	if _, err := f.docs.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	return f.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldSelfieKey:            key,
		fieldVerificationLevel:    domain.MaxLevel(u.VerificationLevel, domain.LevelSelfie),
		fieldVerificationProgress: domain.StatusInReview,
	})
}

// SelfieURL returns a short-lived link to the user's stored selfie.
func (f *ProfileFlow) SelfieURL(ctx context.Context, u *domain.User) (string, error) {
	if u.SelfieKey == "" {
		return "", fmt.Errorf("no selfie on file: %w", domain.ErrNotFound)
	}
	return f.docs.PresignedURL(ctx, u.SelfieKey, selfieURLTTL)
}

// SaveDetails records driver's license details. The license number is kept
// only as a salted digest.
func (f *ProfileFlow) SaveDetails(ctx context.Context, u *domain.User, req domain.UserDetailsRequest) (*domain.User, error) {
	if err := requireLevel(u, domain.LevelSelfie); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, fmt.Errorf("at least one detail is required: %w", domain.ErrValidation)
	}

	updates := map[string]interface{}{}
	setIf := func(field, value string) {
		if value != "" {
			updates[field] = value
		}
	}
	setIf(fieldFirstName, req.FirstName)
	setIf(fieldLastName, req.LastName)
	setIf(fieldDateOfBirth, req.DateOfBirth)
	setIf(fieldLicenseExpiry, req.LicenseExpiry)
	setIf(fieldCountry, req.Country)
	setIf(fieldState, req.State)
	if req.LicenseNumber != "" {
		hash, err := secure.Hash(req.LicenseNumber, u.Salt)
		if err != nil {
			return nil, err
		}
		updates[fieldDriversLicenseHash] = hash
	}
	updates[fieldVerificationLevel] = domain.MaxLevel(u.VerificationLevel, domain.LevelLicense)
	updates[fieldVerificationProgress] = domain.StatusInReview
	return f.users.Update(ctx, u.UserID, updates)
}

// SaveBillingInfo completes the pipeline.
func (f *ProfileFlow) SaveBillingInfo(ctx context.Context, u *domain.User, b domain.BillingInfo) (*domain.User, error) {
	if err := requireLevel(u, domain.LevelLicense); err != nil {
		return nil, err
	}
	if err := validate.Struct(b); err != nil {
		return nil, err
	}
	return f.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldBillingInfo:          b,
		fieldVerificationLevel:    domain.MaxLevel(u.VerificationLevel, domain.LevelBillingInfo),
		fieldVerificationProgress: domain.StatusCompleted,
	})
}
