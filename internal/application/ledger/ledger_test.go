package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/pkg/secure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEntryStore struct{ mock.Mock }

func (m *mockEntryStore) Put(ctx context.Context, v *domain.Verification) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockEntryStore) Get(ctx context.Context, verificationID string) (*domain.Verification, error) {
	args := m.Called(ctx, verificationID)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEntryStore) GetByReference(ctx context.Context, reference string) (*domain.Verification, error) {
	args := m.Called(ctx, reference)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEntryStore) Update(ctx context.Context, verificationID string, updates map[string]interface{}) (*domain.Verification, error) {
	args := m.Called(ctx, verificationID, updates)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEntryStore) MarkConsumed(ctx context.Context, verificationID string, kind domain.ChallengeKind, hash string, at int64) error {
	return m.Called(ctx, verificationID, kind, hash, at).Error(0)
}

const salt = "user-salt"

var epoch = time.Unix(1_700_000_000, 0)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newLedger() (*Ledger, *mockEntryStore, *fakeClock) {
	store := &mockEntryStore{}
	clock := &fakeClock{t: epoch}
	return New(store).WithClock(clock.Now), store, clock
}

func TestBeginEmail_StoresOnlyDigest(t *testing.T) {
	l, store, _ := newLedger()
	store.On("Put", mock.Anything, mock.AnythingOfType("*domain.Verification")).Return(nil)

	v, err := l.BeginEmail(context.Background(), "u1", "123456", salt)
	require.NoError(t, err)

	want, _ := secure.Hash("123456", salt)
	assert.Equal(t, want, v.TokenHash)
	assert.NotContains(t, v.TokenHash, "123456")
	assert.Equal(t, domain.StatusInitiated, v.Status)
	assert.Equal(t, epoch.Add(10*time.Minute).Unix(), v.TokenExpiresAt)
	assert.Equal(t, epoch.Add(12*24*time.Hour).Unix(), v.ExpiresAt)
	assert.Len(t, v.Reference, 36)
	store.AssertExpectations(t)
}

func TestBeginEmail_MissingSalt(t *testing.T) {
	l, _, _ := newLedger()
	_, err := l.BeginEmail(context.Background(), "u1", "123456", "")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestBeginOTP_ResetsChallengeAndRotatesReference(t *testing.T) {
	l, store, _ := newLedger()
	var captured map[string]interface{}
	store.On("Update", mock.Anything, "v1", mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).(map[string]interface{}) }).
		Return(&domain.Verification{VerificationID: "v1"}, nil)

	_, err := l.BeginOTP(context.Background(), "v1", "654321", salt)
	require.NoError(t, err)

	otp := captured["otp"].(domain.OTPChallenge)
	want, _ := secure.Hash("654321", salt)
	assert.Equal(t, want, otp.CodeHash)
	assert.Equal(t, epoch.Add(600*time.Second).Unix(), otp.ExpiresAt)
	assert.Zero(t, otp.ConsumedAt)
	assert.Len(t, captured["reference"], 36)
	assert.Equal(t, domain.StatusInitiated, captured["status"])
}

func TestConfirm(t *testing.T) {
	l, _, clock := newLedger()
	hash, _ := secure.Hash("123456", salt)
	ch := domain.Challenge{Hash: hash, ExpiresAt: epoch.Add(ChallengeTTL).Unix()}

	assert.NoError(t, l.Confirm(ch, "123456", salt))
	assert.ErrorIs(t, l.Confirm(ch, "000000", salt), ErrChallengeFailed)
	assert.ErrorIs(t, l.Confirm(ch, "", salt), ErrChallengeFailed)

	clock.t = epoch.Add(ChallengeTTL)
	assert.ErrorIs(t, l.Confirm(ch, "123456", salt), ErrChallengeFailed)
}

func TestRedeem_SingleUse(t *testing.T) {
	l, store, _ := newLedger()
	hash, _ := secure.Hash("123456", salt)
	v := &domain.Verification{
		VerificationID: "v1",
		OTP:            &domain.OTPChallenge{CodeHash: hash, ExpiresAt: epoch.Add(time.Minute).Unix()},
	}
	store.On("MarkConsumed", mock.Anything, "v1", domain.ChallengeOTP, hash, epoch.Unix()).Return(nil).Once()
	require.NoError(t, l.Redeem(context.Background(), v, domain.ChallengeOTP, "123456", salt))

	// the stored entry now carries consumed_at
	v.OTP.ConsumedAt = epoch.Unix()
	assert.ErrorIs(t, l.Redeem(context.Background(), v, domain.ChallengeOTP, "123456", salt), ErrChallengeFailed)
	store.AssertExpectations(t)
}

func TestConsume_LostRace(t *testing.T) {
	l, store, _ := newLedger()
	v := &domain.Verification{VerificationID: "v1", TokenHash: "h", TokenExpiresAt: epoch.Add(time.Minute).Unix()}
	store.On("MarkConsumed", mock.Anything, "v1", domain.ChallengeEmailToken, "h", epoch.Unix()).
		Return(domain.ErrConflict)

	assert.ErrorIs(t, l.Consume(context.Background(), v, domain.ChallengeEmailToken), ErrChallengeFailed)
}

func TestExpired(t *testing.T) {
	l, _, _ := newLedger()
	assert.True(t, l.Expired(&domain.Verification{ExpiresAt: epoch.Unix()}))
	assert.False(t, l.Expired(&domain.Verification{ExpiresAt: epoch.Unix() + 1}))
}
