package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is assembled once at process start and passed by reference into
// every component. Engines treat it as immutable after Build.
type Config struct {
	// Service is the product name used as TOTP issuer and email sender
	// identity.
	Service      string
	Token        TokenConfig
	Password     PasswordConfig
	TOTP         TOTPConfig
	Verification VerificationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// TokenConfig carries the two independent signing secrets and lifetimes.
// Missing secrets are a fatal startup condition, never a runtime error.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// PasswordConfig tunes hashing. Zero Cost selects bcrypt's default.
type PasswordConfig struct {
	Cost int
}

// TOTPConfig tunes multi-factor enrollment and validation.
type TOTPConfig struct {
	Digits           int
	Period           int
	Skew             int
	BackupCodeCount  int
	BackupCodeLength int
}

// VerificationConfig tunes the one-time reset/verify codes.
type VerificationConfig struct {
	CodeTTL         time.Duration
	CodeGroups      int
	CodeGroupLength int
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking operations when the
	// buffer is saturated. Dropped counts remain observable.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the standard lifetimes: 10 minute access
// tokens, 7 day refresh tokens, 5 minute verification codes,
// RFC-default TOTP.
// Secrets must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Service: "authcore",
		Token: TokenConfig{
			AccessTTL:  10 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		TOTP: TOTPConfig{
			Digits:           6,
			Period:           30,
			Skew:             1,
			BackupCodeCount:  10,
			BackupCodeLength: 8,
		},
		Verification: VerificationConfig{
			CodeTTL:         5 * time.Minute,
			CodeGroups:      3,
			CodeGroupLength: 4,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.Token.AccessSecret) == 0 {
		return errors.New("access token secret is required")
	}
	if len(cfg.Token.RefreshSecret) == 0 {
		return errors.New("refresh token secret is required")
	}
	if string(cfg.Token.AccessSecret) == string(cfg.Token.RefreshSecret) {
		return errors.New("access and refresh secrets must be independent")
	}
	if cfg.Token.AccessTTL <= 0 || cfg.Token.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if cfg.Verification.CodeTTL <= 0 {
		return errors.New("verification code lifetime must be positive")
	}
	return nil
}

type envConfig struct {
	Service       string        `env:"AUTHCORE_SERVICE" envDefault:"authcore"`
	AccessSecret  string        `env:"AUTHCORE_ACCESS_TOKEN_SECRET,required"`
	RefreshSecret string        `env:"AUTHCORE_REFRESH_TOKEN_SECRET,required"`
	AccessTTL     time.Duration `env:"AUTHCORE_ACCESS_TTL" envDefault:"10m"`
	RefreshTTL    time.Duration `env:"AUTHCORE_REFRESH_TTL" envDefault:"168h"`
	CodeTTL       time.Duration `env:"AUTHCORE_CODE_TTL" envDefault:"5m"`
	BcryptCost    int           `env:"AUTHCORE_BCRYPT_COST" envDefault:"0"`
	AuditEnabled  bool          `env:"AUTHCORE_AUDIT_ENABLED" envDefault:"false"`
}

// ConfigFromEnv builds a Config from environment variables on top of
// [DefaultConfig]. It fails when either signing secret is absent, making
// secret misconfiguration a startup error rather than a runtime one.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Service = ec.Service
	cfg.Token.AccessSecret = []byte(ec.AccessSecret)
	cfg.Token.RefreshSecret = []byte(ec.RefreshSecret)
	cfg.Token.AccessTTL = ec.AccessTTL
	cfg.Token.RefreshTTL = ec.RefreshTTL
	cfg.Token.Issuer = ec.Service
	cfg.Verification.CodeTTL = ec.CodeTTL
	cfg.Password.Cost = ec.BcryptCost
	cfg.Audit.Enabled = ec.AuditEnabled

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
