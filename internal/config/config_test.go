package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "INR", cfg.Gateway.Currency)
	assert.Equal(t, "https://api.razorpay.com", cfg.Gateway.BaseURL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "1", cfg.PriceTolerance.String())
	assert.Equal(t, 20, cfg.RateLimit)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: "postgres", JWTSecret: "secret"}
	assert.Error(t, cfg.Validate())

	cfg.DatabaseURL = "postgres://localhost/storefront"
	assert.NoError(t, cfg.Validate())

	cfg.RateLimit = -1
	assert.Error(t, cfg.Validate())
	cfg.RateLimit = 0

	cfg.StoreDriver = "mongo"
	assert.Error(t, cfg.Validate())
}
