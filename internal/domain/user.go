package domain

import "time"

type User struct {
	UserID               string             `json:"id" dynamodbav:"user_id"`
	Email                string             `json:"email" dynamodbav:"email"`
	FirstName            string             `json:"first_name" dynamodbav:"first_name"`
	LastName             string             `json:"last_name" dynamodbav:"last_name"`
	Salt                 string             `json:"-" dynamodbav:"salt"`
	PasswordHash         string             `json:"-" dynamodbav:"password_hash"`
	Roles                []string           `json:"roles" dynamodbav:"roles,stringset,omitempty"`
	VerificationLevel    VerificationLevel  `json:"verification_level" dynamodbav:"verification_level"`
	VerificationProgress VerificationStatus `json:"verification_progress" dynamodbav:"verification_progress"`
	VerificationID       string             `json:"-" dynamodbav:"verification_id,omitempty"`
	CountryCode          string             `json:"country_code,omitempty" dynamodbav:"country_code,omitempty"`
	InternationalPhone   string             `json:"international_phone,omitempty" dynamodbav:"international_phone,omitempty"`
	Phone                string             `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	DriversLicenseHash   string             `json:"-" dynamodbav:"drivers_license_hash,omitempty"`
	DateOfBirth          string             `json:"date_of_birth,omitempty" dynamodbav:"date_of_birth,omitempty"`
	LicenseExpiry        string             `json:"license_expiry,omitempty" dynamodbav:"license_expiry,omitempty"`
	Country              string             `json:"country,omitempty" dynamodbav:"country,omitempty"`
	State                string             `json:"state,omitempty" dynamodbav:"state,omitempty"`
	SelfieKey            string             `json:"-" dynamodbav:"selfie_key,omitempty"`
	BillingInfo          *BillingInfo       `json:"billing_info,omitempty" dynamodbav:"billing_info,omitempty"`
	Enable               int                `json:"enable" dynamodbav:"enable"`
	CreatedAt            time.Time          `json:"created" dynamodbav:"created_at"`
	UpdatedAt            time.Time          `json:"updated" dynamodbav:"updated_at"`
}

type BillingInfo struct {
	StreetAddress string `json:"street_address" dynamodbav:"street_address" validate:"required"`
	City          string `json:"city" dynamodbav:"city" validate:"required"`
	Region        string `json:"region" dynamodbav:"region" validate:"required"`
	ZipCode       string `json:"zip_code" dynamodbav:"zip_code" validate:"required"`
	Country       string `json:"country" dynamodbav:"country" validate:"required"`
}

// CreateUserRequest is the pre-signup payload for both renters and hosts.
type CreateUserRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Next     string `json:"next"` // redirect target embedded in the verification link
}

// PhoneRequest carries the number a user wants to verify.
type PhoneRequest struct {
	InternationalPhone string `json:"international_phone" validate:"required"`
	CountryCode        string `json:"country_code" validate:"required"`
}

// UserDetailsRequest carries the license step of the pipeline.
type UserDetailsRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	LicenseNumber string `json:"license_number"`
	DateOfBirth   string `json:"date_of_birth"`
	LicenseExpiry string `json:"license_expiry"`
	Country       string `json:"country"`
	State         string `json:"state"`
}

// Empty reports whether none of the detail fields were supplied.
func (r UserDetailsRequest) Empty() bool {
	return r.FirstName == "" && r.LastName == "" && r.LicenseNumber == "" &&
		r.DateOfBirth == "" && r.LicenseExpiry == "" && r.Country == "" && r.State == ""
}
