package kyc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-rental-kyc/internal/application/ledger"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/infrastructure/sns"
	"github.com/go-rental-kyc/internal/pkg/phone"
	"github.com/go-rental-kyc/internal/pkg/token"
)

// PhoneChallenge is what the client needs to submit the OTP it received.
type PhoneChallenge struct {
	Phone     string `json:"phone"`
	Reference string `json:"reference"`
	Expiry    int64  `json:"expiry"`
}

// PhoneFlow proves control of a phone number with an SMS one-time code.
type PhoneFlow struct {
	users  userStore
	ledger *ledger.Ledger
	sms    sns.SMSSender
}

func NewPhoneFlow(users userStore, l *ledger.Ledger, sms sns.SMSSender) *PhoneFlow {
	return &PhoneFlow{users: users, ledger: l, sms: sms}
}

// Send texts a fresh code to the normalized number. The code is recorded
// only after the provider has accepted the message.
func (f *PhoneFlow) Send(ctx context.Context, u *domain.User, req domain.PhoneRequest) (*PhoneChallenge, error) {
	if err := requireLevel(u, domain.LevelEmail); err != nil {
		return nil, err
	}
	n, err := phone.Normalize(req.InternationalPhone, req.CountryCode)
	if err != nil {
		return nil, err
	}
	claimed, err := f.users.PhoneClaimed(ctx, n.E164, u.UserID)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, fmt.Errorf("phone number belongs to another account: %w", domain.ErrAccessibility)
	}
	if u.VerificationID == "" {
		return nil, fmt.Errorf("verify %s to proceed: %w", domain.LevelEmail, domain.ErrAuthentication)
	}

	code, err := token.NumericCode(codeLength)
	if err != nil {
		return nil, err
	}
	d, err := f.sms.SendSMS(ctx, n.E164, fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code))
	if err != nil || !d.Delivered() {
		slog.Warn("otp delivery failed", "user_id", u.UserID, "status", d.StatusCode, "err", err)
		return nil, fmt.Errorf("could not deliver verification code: %w", domain.ErrAuthentication)
	}

	v, err := f.ledger.BeginOTP(ctx, u.VerificationID, code, u.Salt)
	if err != nil {
		return nil, err
	}
	return &PhoneChallenge{Phone: n.E164, Reference: v.Reference, Expiry: v.OTP.ExpiresAt}, nil
}

// Verify redeems code for reference and records the number on the user.
func (f *PhoneFlow) Verify(ctx context.Context, u *domain.User, code, reference string, req domain.PhoneRequest) (*domain.User, error) {
	n, err := phone.Normalize(req.InternationalPhone, req.CountryCode)
	if err != nil {
		return nil, err
	}
	holders, err := f.users.FindByPhone(ctx, n.E164)
	if err != nil {
		return nil, err
	}
	for _, h := range holders {
		if h.VerificationLevel.AtLeast(domain.LevelPhone) {
			return nil, fmt.Errorf("phone number already verified: %w", domain.ErrAccessibility)
		}
	}

	v, err := f.ledger.ByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid verification code: %w", domain.ErrAuthentication)
		}
		return nil, err
	}
	if v.UserID != u.UserID {
		return nil, fmt.Errorf("invalid verification code: %w", domain.ErrAuthentication)
	}
	if err := f.ledger.Redeem(ctx, v, domain.ChallengeOTP, code, u.Salt); err != nil {
		if errors.Is(err, ledger.ErrChallengeFailed) {
			return nil, fmt.Errorf("invalid verification code: %w", domain.ErrAuthentication)
		}
		return nil, err
	}

	return f.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldCountryCode:        n.CountryCode,
		fieldInternationalPhone: n.InternationalPhone,
		fieldPhone:              n.E164,
		fieldVerificationLevel:  domain.MaxLevel(u.VerificationLevel, domain.LevelPhone),
	})
}
