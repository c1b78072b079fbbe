package dynamo

// DynamoDB attribute and index names used across the repos.
const (
	fieldUserID             = "user_id"
	fieldEmail              = "email"
	fieldRoles              = "roles"
	fieldPhone              = "phone"
	fieldCountryCode        = "country_code"
	fieldInternationalPhone = "international_phone"
	fieldVerificationID     = "verification_id"
	fieldUpdatedAt          = "updated_at"
	fieldReference          = "reference"
	fieldStatus             = "status"
	fieldOTP                = "otp"
	fieldTokenConsumedAt    = "token_consumed_at"

	indexEmail          = "email-index"
	indexVerificationID = "verification_id-index"
	indexPhone          = "phone-index"
	indexReference      = "reference-index"
)
