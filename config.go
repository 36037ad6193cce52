package identity

import (
	"os"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Environment keys read once at startup. A missing required key is a
// startup error, never a runtime one.
const (
	EnvIssuer            = "IDENTITY_ISSUER"
	EnvSigningSecret     = "IDENTITY_SECRET"
	EnvSessionTTL        = "IDENTITY_SESSION_TTL_SECONDS"
	EnvPasswordChangeTTL = "IDENTITY_PASSWORD_CHANGE_TTL_SECONDS"
	EnvRecoveryTokenTTL  = "IDENTITY_RECOVERY_TTL_SECONDS"
	EnvDatabaseDSN       = "IDENTITY_DATABASE_DSN"
	EnvHTTPAddr          = "IDENTITY_HTTP_ADDR"
)

// DefaultHTTPAddr is used when EnvHTTPAddr is unset.
const DefaultHTTPAddr = ":8080"

// Config is the immutable process configuration. Loaded once, then
// passed by reference into the components that need it.
type Config struct {
	Issuer            string
	SigningSecret     string
	SessionTTL        time.Duration
	PasswordChangeTTL time.Duration
	RecoveryTokenTTL  time.Duration
	DatabaseDSN       string
	HTTPAddr          string
}

// Public returns a copy safe to log: the signing secret is redacted.
func (c Config) Public() map[string]any {
	return map[string]any{
		"issuer":                      c.Issuer,
		"signing_secret":              "[redacted]",
		"session_ttl_seconds":         int(c.SessionTTL.Seconds()),
		"password_change_ttl_seconds": int(c.PasswordChangeTTL.Seconds()),
		"recovery_ttl_seconds":        int(c.RecoveryTokenTTL.Seconds()),
		"database_dsn":                c.DatabaseDSN,
		"http_addr":                   c.HTTPAddr,
	}
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr: DefaultHTTPAddr,
	}

	var err error
	if cfg.Issuer, err = requireEnv(EnvIssuer); err != nil {
		return nil, err
	}
	if cfg.SigningSecret, err = requireEnv(EnvSigningSecret); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = requireEnvSeconds(EnvSessionTTL); err != nil {
		return nil, err
	}
	if cfg.PasswordChangeTTL, err = requireEnvSeconds(EnvPasswordChangeTTL); err != nil {
		return nil, err
	}
	if cfg.RecoveryTokenTTL, err = requireEnvSeconds(EnvRecoveryTokenTTL); err != nil {
		return nil, err
	}
	if cfg.DatabaseDSN, err = requireEnv(EnvDatabaseDSN); err != nil {
		return nil, err
	}

	if addr := os.Getenv(EnvHTTPAddr); addr != "" {
		cfg.HTTPAddr = addr
	}

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", goerrors.New("required configuration key is not set", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"key": key})
	}
	return value, nil
}

func requireEnvSeconds(key string) (time.Duration, error) {
	raw, err := requireEnv(key)
	if err != nil {
		return 0, err
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return 0, goerrors.New("configuration key must be a positive integer of seconds", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"key": key, "value": raw})
	}
	return time.Duration(seconds) * time.Second, nil
}
