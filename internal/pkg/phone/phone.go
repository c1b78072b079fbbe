// Package phone normalizes user-supplied numbers to E.164.
package phone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-rental-kyc/internal/domain"
	"github.com/nyaruka/phonenumbers"
)

const minNationalLength = 10

var (
	e164Pattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	nonDigits   = regexp.MustCompile(`\D`)
)

// Number is a validated phone number.
type Number struct {
	CountryCode        string // as stored on the user, always with a leading "+"
	InternationalPhone string // national significant number, digits only
	E164               string
}

// Normalize strips formatting from international and combines it with
// countryCode into an E.164 number. Returned fields are canonical, so a
// national trunk prefix does not survive into InternationalPhone. Malformed input is a validation error and
// is never coerced.
func Normalize(international, countryCode string) (Number, error) {
	international = strings.TrimSpace(international)
	countryCode = strings.TrimSpace(countryCode)
	if international == "" || countryCode == "" {
		return Number{}, fmt.Errorf("international_phone and country_code are required: %w", domain.ErrValidation)
	}
	digits := nonDigits.ReplaceAllString(international, "")
	if len(digits) < minNationalLength {
		return Number{}, fmt.Errorf("invalid phone format: %w", domain.ErrValidation)
	}
	ccDigits := nonDigits.ReplaceAllString(countryCode, "")
	if ccDigits == "" {
		return Number{}, fmt.Errorf("invalid country code: %w", domain.ErrValidation)
	}

	e164 := "+" + ccDigits + digits
	if !e164Pattern.MatchString(e164) {
		return Number{}, fmt.Errorf("invalid phone format: %w", domain.ErrValidation)
	}

	parsed, err := phonenumbers.Parse(e164, "")
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return Number{}, fmt.Errorf("invalid phone format: %w", domain.ErrValidation)
	}
	return Number{
		CountryCode:        "+" + strconv.Itoa(int(parsed.GetCountryCode())),
		InternationalPhone: phonenumbers.GetNationalSignificantNumber(parsed),
		E164:               phonenumbers.Format(parsed, phonenumbers.E164),
	}, nil
}
