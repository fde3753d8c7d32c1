package config

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factory = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WLD_APP_ID", "app_staging_123")
	t.Setenv("TOKEN_FACTORY_ADDRESS", factory)
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, time.Hour, cfg.NonceTTL)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 120*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, SIWEModeLenient, cfg.SIWEMode)
	assert.Equal(t, "tute", cfg.JWTIssuer)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SIWE_MODE", "strict")
	t.Setenv("SIWE_ALLOWED_DOMAINS", "tute.app")
	t.Setenv("ACCESS_TOKEN_TTL", "1m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, SIWEModeStrict, cfg.SIWEMode)
	assert.Equal(t, []string{"tute.app"}, cfg.SIWEAllowedDomains)
	assert.Equal(t, time.Minute, cfg.AccessTTL)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad mode", map[string]string{"SIWE_MODE": "loose"}, "SIWE_MODE"},
		{"bad app id", map[string]string{"WLD_APP_ID": "staging_123"}, "WLD_APP_ID"},
		{"bad factory", map[string]string{"TOKEN_FACTORY_ADDRESS": "0x12"}, "TOKEN_FACTORY_ADDRESS"},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"access outlives refresh", map[string]string{"ACCESS_TOKEN_TTL": "200h"}, "ACCESS_TOKEN_TTL"},
		{"bad duration", map[string]string{"NONCE_TTL": "soon"}, "NonceTTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRequiresAppID(t *testing.T) {
	t.Setenv("TOKEN_FACTORY_ADDRESS", factory)
	t.Setenv("WLD_APP_ID", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestSigningKey(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		key, err := (&Config{}).SigningKey()
		require.NoError(t, err)
		assert.Nil(t, key)
	})

	t.Run("pem with escaped newlines", func(t *testing.T) {
		want, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalECPrivateKey(want)
		require.NoError(t, err)
		block := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

		key, err := (&Config{JWTPrivateKey: strings.ReplaceAll(block, "\n", `\n`)}).SigningKey()
		require.NoError(t, err)
		assert.True(t, want.Equal(key))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := (&Config{JWTPrivateKey: "not a key"}).SigningKey()
		assert.Error(t, err)
	})
}
