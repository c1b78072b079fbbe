// Package token encodes and decodes the three-segment bearer token
// (header.payload.signature, each base64url without padding) and generates
// the random codes and references used by verification challenges.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-rental-kyc/internal/pkg/secure"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMalformed is returned by Decode when the token cannot be split, decoded
// or parsed. It is distinct from a signature or expiry failure.
var ErrMalformed = errors.New("malformed token")

// Decoded is a parsed but unverified token.
type Decoded struct {
	Header       map[string]interface{}
	Claims       jwt.Claims
	SigningInput string // header_b64 + "." + payload_b64
	Signature    []byte
}

var parser = jwt.NewParser()

// Encode serializes claims under the fixed {"alg":"HS256","typ":"JWT"} header
// and signs header_b64.payload_b64 with key.
func Encode(claims jwt.Claims, key string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signingInput, err := t.SigningString()
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	sig, err := secure.Sign(signingInput, key)
	if err != nil {
		return "", err
	}
	return signingInput + "." + t.EncodeSegment(sig), nil
}

// Decode splits raw into its three segments and parses header and payload
// into claims. The signature is returned as raw bytes and is not checked.
func Decode(raw string, claims jwt.Claims) (*Decoded, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, fmt.Errorf("expected 3 segments: %w", ErrMalformed)
	}
	t, parts, err := parser.ParseUnverified(raw, claims)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformed)
	}
	sig, err := parser.DecodeSegment(parts[2])
	if err != nil || len(sig) == 0 {
		return nil, fmt.Errorf("signature segment: %w", ErrMalformed)
	}
	return &Decoded{
		Header:       t.Header,
		Claims:       t.Claims,
		SigningInput: parts[0] + "." + parts[1],
		Signature:    sig,
	}, nil
}

// NumericCode returns n uniformly random decimal digits, e.g. a 6-digit OTP.
func NumericCode(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b[i] = byte('0' + d.Int64())
	}
	return string(b), nil
}

// NewReference returns an unguessable external identifier (UUIDv4).
func NewReference() string {
	return uuid.NewString()
}
