package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-rental-kyc/internal/domain"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	SNSRegion      string
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	SecretKey      string // HMAC key for tokens and challenge hashes
	TokenIssuer    string
	TokenAudience  string
	TokenTTL       time.Duration
	HomeURL        string // base of the email verification link
	KYCRate        RateWindow
	OTPRate        RateWindow
	AllowedOrigins []string // CORS allowed origins
	TrustProxy     bool     // take the client IP from X-Forwarded-For / X-Real-Ip
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users             string
	UserVerifications string
}

// RateWindow configures a fixed-window limiter.
type RateWindow struct {
	Window      time.Duration
	MaxRequests int
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:             getEnv("DYNAMO_TABLE_USERS", "users"),
			UserVerifications: getEnv("DYNAMO_TABLE_USER_VERIFICATIONS", "user_verifications"),
		},
		S3BucketName:  getEnv("S3_BUCKET_NAME", "rental-kyc-documents"),
		SNSRegion:     getEnv("SNS_REGION", "us-east-1"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SecretKey:     getEnv("SECRET_KEY", ""),
		TokenIssuer:   getEnv("TOKEN_ISSUER", "rental-kyc"),
		TokenAudience: getEnv("TOKEN_AUDIENCE", "rental-kyc-clients"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_SECONDS", 600)) * time.Second,
		HomeURL:       strings.TrimRight(getEnv("HOME_URL", "http://localhost:3000"), "/"),
		KYCRate: RateWindow{
			Window:      time.Duration(getEnvInt("KYC_RATE_WINDOW_MINUTES", 5)) * time.Minute,
			MaxRequests: getEnvInt("KYC_RATE_MAX_REQUESTS", 30),
		},
		OTPRate: RateWindow{
			Window:      time.Duration(getEnvInt("OTP_RATE_WINDOW_MINUTES", 3)) * time.Minute,
			MaxRequests: getEnvInt("OTP_RATE_MAX_REQUESTS", 5),
		},
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is not set: %w", domain.ErrConfiguration)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_SECONDS must be positive: %w", domain.ErrConfiguration)
	}
	if c.KYCRate.MaxRequests <= 0 || c.OTPRate.MaxRequests <= 0 {
		return fmt.Errorf("rate limit max requests must be positive: %w", domain.ErrConfiguration)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
