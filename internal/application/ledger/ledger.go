// Package ledger records KYC verification attempts: hashed challenges, their
// deadlines and the status of the surrounding entry.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/pkg/id"
	"github.com/go-rental-kyc/internal/pkg/secure"
	"github.com/go-rental-kyc/internal/pkg/token"
)

const (
	EntryTTL     = 12 * 24 * time.Hour
	ChallengeTTL = 10 * time.Minute
)

// ErrChallengeFailed is returned for a wrong, expired or already used
// challenge. The cases are deliberately indistinguishable to callers.
var ErrChallengeFailed = errors.New("challenge failed")

type entryStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, verificationID string) (*domain.Verification, error)
	GetByReference(ctx context.Context, reference string) (*domain.Verification, error)
	Update(ctx context.Context, verificationID string, updates map[string]interface{}) (*domain.Verification, error)
	MarkConsumed(ctx context.Context, verificationID string, kind domain.ChallengeKind, hash string, at int64) error
}

type Ledger struct {
	repo entryStore
	now  func() time.Time
}

func New(repo entryStore) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// BeginEmail opens a new entry for userID holding only the digest of the
// email link token.
func (l *Ledger) BeginEmail(ctx context.Context, userID, plaintext, salt string) (*domain.Verification, error) {
	hash, err := secure.Hash(plaintext, salt)
	if err != nil {
		return nil, err
	}
	now := l.now().UTC()
	v := &domain.Verification{
		VerificationID: id.New(),
		Reference:      token.NewReference(),
		UserID:         userID,
		TokenHash:      hash,
		TokenExpiresAt: now.Add(ChallengeTTL).Unix(),
		Status:         domain.StatusInitiated,
		ExpiresAt:      now.Add(EntryTTL).Unix(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.repo.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("put verification: %w", err)
	}
	return v, nil
}

// BeginOTP replaces the OTP challenge of an existing entry and rotates its
// reference so earlier codes can no longer be addressed.
func (l *Ledger) BeginOTP(ctx context.Context, verificationID, plaintext, salt string) (*domain.Verification, error) {
	hash, err := secure.Hash(plaintext, salt)
	if err != nil {
		return nil, err
	}
	v, err := l.repo.Update(ctx, verificationID, map[string]interface{}{
		"otp": domain.OTPChallenge{
			CodeHash:  hash,
			ExpiresAt: l.now().Add(ChallengeTTL).Unix(),
		},
		"reference": token.NewReference(),
		"status":    domain.StatusInitiated,
	})
	if err != nil {
		return nil, fmt.Errorf("begin otp: %w", err)
	}
	return v, nil
}

// Confirm checks supplied against the challenge. It succeeds only when the
// digest matches and the deadline has not been reached.
func (l *Ledger) Confirm(ch domain.Challenge, supplied, salt string) error {
	ok, err := secure.Matches(supplied, salt, ch.Hash)
	if err != nil {
		return err
	}
	if !ok || l.now().Unix() >= ch.ExpiresAt {
		return ErrChallengeFailed
	}
	return nil
}

// Consume marks the challenge of kind as used. A second consume of the same
// challenge, or one whose digest was rotated meanwhile, fails.
func (l *Ledger) Consume(ctx context.Context, v *domain.Verification, kind domain.ChallengeKind) error {
	ch, consumed := v.Challenge(kind)
	if consumed || ch.Hash == "" {
		return ErrChallengeFailed
	}
	err := l.repo.MarkConsumed(ctx, v.VerificationID, kind, ch.Hash, l.now().Unix())
	if errors.Is(err, domain.ErrConflict) {
		return ErrChallengeFailed
	}
	return err
}

// Redeem confirms supplied against the challenge of kind and consumes it.
func (l *Ledger) Redeem(ctx context.Context, v *domain.Verification, kind domain.ChallengeKind, supplied, salt string) error {
	ch, consumed := v.Challenge(kind)
	if consumed {
		return ErrChallengeFailed
	}
	if err := l.Confirm(ch, supplied, salt); err != nil {
		return err
	}
	return l.Consume(ctx, v, kind)
}

// Expired reports whether the entry itself has outlived its retention window.
func (l *Ledger) Expired(v *domain.Verification) bool {
	return v.ExpiresAt <= l.now().Unix()
}

func (l *Ledger) Get(ctx context.Context, verificationID string) (*domain.Verification, error) {
	return l.repo.Get(ctx, verificationID)
}

func (l *Ledger) ByReference(ctx context.Context, reference string) (*domain.Verification, error) {
	return l.repo.GetByReference(ctx, reference)
}

func (l *Ledger) MarkStatus(ctx context.Context, verificationID string, status domain.VerificationStatus) (*domain.Verification, error) {
	return l.repo.Update(ctx, verificationID, map[string]interface{}{"status": status})
}
