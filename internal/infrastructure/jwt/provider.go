package jwtinfra

import (
	"fmt"
	"time"

	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/pkg/secure"
	"github.com/go-rental-kyc/internal/pkg/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrExpired is returned for a correctly signed token past its exp.
var ErrExpired = fmt.Errorf("token expired: %w", domain.ErrAuthentication)

// Claims holds the token payload fields.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Provider issues and verifies HS256 bearer tokens signed with the server secret.
type Provider struct {
	secret   string
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewProvider(secret, issuer, audience string, ttl time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty: %w", domain.ErrConfiguration)
	}
	return &Provider{secret: secret, issuer: issuer, audience: audience, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source. Intended for tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

func (p *Provider) Issue(subject string, roles []string) (string, *Claims, error) {
	now := p.now().Truncate(time.Second)
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	raw, err := token.Encode(claims, p.secret)
	if err != nil {
		return "", nil, err
	}
	return raw, claims, nil
}

// Verify decodes raw, checks the signature in constant time and rejects
// tokens whose exp is not strictly in the future. Every failure wraps
// domain.ErrAuthentication.
func (p *Provider) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	dec, err := token.Decode(raw, claims)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrAuthentication)
	}
	if alg, _ := dec.Header["alg"].(string); alg != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %w", domain.ErrAuthentication)
	}

	expected, err := secure.Sign(dec.SigningInput, p.secret)
	if err != nil {
		return nil, err
	}
	if !secure.Equal(string(expected), string(dec.Signature)) {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrAuthentication)
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(p.now()) {
		return nil, ErrExpired
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrAuthentication)
	}
	return claims, nil
}

