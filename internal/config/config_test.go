package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sales_test")
	t.Setenv("PAYMENT_TERMS_DAYS", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30, cfg.PaymentTermsDays)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRejectsBadPaymentTerms(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sales_test")

	t.Setenv("PAYMENT_TERMS_DAYS", "thirty")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PAYMENT_TERMS_DAYS", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "PAYMENT_TERMS_DAYS")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitList(" https://a.example, ,https://b.example "))
	assert.Nil(t, splitList(""))
}

func TestRequireJWTSecret(t *testing.T) {
	cfg := &Config{JWTSecret: "short"}
	assert.Error(t, cfg.RequireJWTSecret())
	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.RequireJWTSecret())
}
