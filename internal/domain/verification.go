package domain

import "time"

// Verification is one ledger entry of the KYC pipeline. It is created when
// the email step starts and then updated in place for later sub-steps; rows
// are never deleted. Only HMAC digests of challenges are stored.
type Verification struct {
	VerificationID  string             `json:"id" dynamodbav:"verification_id"`
	Reference       string             `json:"reference" dynamodbav:"reference"`
	UserID          string             `json:"user_id" dynamodbav:"user_id"`
	TokenHash       string             `json:"-" dynamodbav:"token_hash,omitempty"`
	TokenExpiresAt  int64              `json:"-" dynamodbav:"token_expires_at,omitempty"`
	TokenConsumedAt int64              `json:"-" dynamodbav:"token_consumed_at,omitempty"`
	OTP             *OTPChallenge      `json:"-" dynamodbav:"otp,omitempty"`
	Status          VerificationStatus `json:"status" dynamodbav:"status"`
	ExpiresAt       int64              `json:"expiry" dynamodbav:"expires_at"` // Unix seconds
	CreatedAt       time.Time          `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time          `json:"updated" dynamodbav:"updated_at"`
}

type OTPChallenge struct {
	CodeHash   string `dynamodbav:"code_hash"`
	ExpiresAt  int64  `dynamodbav:"expires_at"`
	ConsumedAt int64  `dynamodbav:"consumed_at,omitempty"`
}

// Challenge is the hashed secret and deadline a supplied plaintext is checked against.
type Challenge struct {
	Hash      string
	ExpiresAt int64
}

// ChallengeKind selects which sub-challenge of a ledger entry is addressed.
type ChallengeKind string

const (
	ChallengeEmailToken ChallengeKind = "token"
	ChallengeOTP        ChallengeKind = "otp"
)

// Challenge returns the sub-challenge of kind, and whether it has already been consumed.
func (v *Verification) Challenge(kind ChallengeKind) (Challenge, bool) {
	switch kind {
	case ChallengeEmailToken:
		return Challenge{Hash: v.TokenHash, ExpiresAt: v.TokenExpiresAt}, v.TokenConsumedAt != 0
	case ChallengeOTP:
		if v.OTP == nil {
			return Challenge{}, false
		}
		return Challenge{Hash: v.OTP.CodeHash, ExpiresAt: v.OTP.ExpiresAt}, v.OTP.ConsumedAt != 0
	}
	return Challenge{}, false
}
