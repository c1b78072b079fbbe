package config

import (
	"errors"
	"testing"
	"time"

	"github.com/go-rental-kyc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("KYC_RATE_WINDOW_MINUTES", "")
	t.Setenv("HOME_URL", "https://rent.example.com/")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.KYCRate.Window)
	assert.Equal(t, 30, cfg.KYCRate.MaxRequests)
	assert.Equal(t, 3*time.Minute, cfg.OTPRate.Window)
	assert.Equal(t, 5, cfg.OTPRate.MaxRequests)
	assert.Equal(t, 600*time.Second, cfg.TokenTTL)
	assert.Equal(t, "https://rent.example.com", cfg.HomeURL)
}

func TestLoad_IntFallbackOnGarbage(t *testing.T) {
	t.Setenv("OTP_RATE_MAX_REQUESTS", "lots")
	assert.Equal(t, 5, Load().OTPRate.MaxRequests)
}

func TestValidate_RequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	err := Load().Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	t.Setenv("SECRET_KEY", "s3cr3t")
	assert.NoError(t, Load().Validate())
}

func TestLoad_TrustProxy(t *testing.T) {
	t.Setenv("TRUST_PROXY", "")
	assert.False(t, Load().TrustProxy)

	t.Setenv("TRUST_PROXY", "true")
	assert.True(t, Load().TrustProxy)

	t.Setenv("TRUST_PROXY", "maybe")
	assert.False(t, Load().TrustProxy)
}
