// Package config maps the environment onto the server settings.
package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	SIWEModeStrict  = "strict"
	SIWEModeLenient = "lenient"
)

// Config holds all runtime configuration of the tute server.
type Config struct {
	// Server settings
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":9000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"     envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Session tokens. An empty key makes the server generate one at start,
	// which invalidates all sessions on restart.
	JWTPrivateKey string        `env:"JWT_PRIVATE_KEY"`
	JWTIssuer     string        `env:"JWT_ISSUER"        envDefault:"tute"`
	NonceTTL      time.Duration `env:"NONCE_TTL"         envDefault:"1h"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"5m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"120h"`

	// Sign-in message checks
	SIWEMode           string   `env:"SIWE_MODE"            envDefault:"lenient"`
	SIWEAllowedDomains []string `env:"SIWE_ALLOWED_DOMAINS" envSeparator:","`

	// World ID
	AppID        string        `env:"WLD_APP_ID,required"`
	WorldIDURL   string        `env:"WLD_API_URL"       envDefault:"https://developer.worldcoin.org"`
	UsernamesURL string        `env:"WLD_USERNAMES_URL" envDefault:"https://usernames.worldcoin.org"`
	HTTPTimeout  time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"10s"`
	HTTPRetries  int           `env:"HTTP_CLIENT_RETRIES" envDefault:"2"`

	// World Chain
	RPCURL             string `env:"RPC_URL"               envDefault:"https://worldchain-mainnet.g.alchemy.com/public"`
	FactoryAddress     string `env:"TOKEN_FACTORY_ADDRESS,required"`
	TokenReadParallels int    `env:"TOKEN_READ_PARALLELS"  envDefault:"8"`
}

// Load reads .env if present, then parses and validates the environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may be set by the runtime
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the env tags cannot express
func (c *Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.SIWEMode != SIWEModeStrict && c.SIWEMode != SIWEModeLenient {
		errs = append(errs, fmt.Errorf("SIWE_MODE: must be %q or %q, got %q", SIWEModeStrict, SIWEModeLenient, c.SIWEMode))
	}
	if !strings.HasPrefix(c.AppID, "app_") {
		errs = append(errs, fmt.Errorf("WLD_APP_ID: must start with app_, got %q", c.AppID))
	}
	if !common.IsHexAddress(c.FactoryAddress) {
		errs = append(errs, fmt.Errorf("TOKEN_FACTORY_ADDRESS: not an address: %q", c.FactoryAddress))
	}
	if c.NonceTTL <= 0 || c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token and nonce TTLs must be positive"))
	}
	if c.AccessTTL > c.RefreshTTL {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must not exceed REFRESH_TOKEN_TTL"))
	}
	if c.HTTPRetries < 0 {
		errs = append(errs, errors.New("HTTP_CLIENT_RETRIES must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Level returns the parsed log level
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// SigningKey parses JWT_PRIVATE_KEY. It returns nil when no key is set.
func (c *Config) SigningKey() (*ecdsa.PrivateKey, error) {
	if strings.TrimSpace(c.JWTPrivateKey) == "" {
		return nil, nil
	}

	pem := strings.ReplaceAll(c.JWTPrivateKey, `\n`, "\n")
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("config: JWT_PRIVATE_KEY: %w", err)
	}
	return key, nil
}
