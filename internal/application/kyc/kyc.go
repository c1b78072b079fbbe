// Package kyc runs the onboarding pipeline: email link, phone OTP, selfie,
// license details and billing address. Each step requires the previous one.
package kyc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rental-kyc/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldVerificationID       = "verification_id"
	fieldVerificationLevel    = "verification_level"
	fieldVerificationProgress = "verification_progress"
	fieldCountryCode          = "country_code"
	fieldInternationalPhone   = "international_phone"
	fieldPhone                = "phone"
	fieldSelfieKey            = "selfie_key"
	fieldFirstName            = "first_name"
	fieldLastName             = "last_name"
	fieldDriversLicenseHash   = "drivers_license_hash"
	fieldDateOfBirth          = "date_of_birth"
	fieldLicenseExpiry        = "license_expiry"
	fieldCountry              = "country"
	fieldState                = "state"
	fieldBillingInfo          = "billing_info"
)

const codeLength = 6

type userStore interface {
	GetByVerificationID(ctx context.Context, verificationID string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) ([]domain.User, error)
	PhoneClaimed(ctx context.Context, e164, excludeUserID string) (bool, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) (*domain.User, error)
}

// requireLevel fails with the step the user should complete next.
func requireLevel(u *domain.User, required domain.VerificationLevel) error {
	if u.VerificationLevel.AtLeast(required) {
		return nil
	}
	return fmt.Errorf("verify %s to proceed: %w", u.VerificationLevel.Next(), domain.ErrAuthentication)
}

type clock func() time.Time
