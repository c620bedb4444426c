package totp

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// backup codes avoid uppercase so users never fight case sensitivity
const backupAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Config tunes secret generation and code validation. Zero values take
// the RFC 6238 defaults used by every major authenticator app.
type Config struct {
	// Issuer is the service name shown in authenticator apps.
	Issuer string
	// Digits per code. Default 6.
	Digits int
	// Period is the time-step length in seconds. Default 30.
	Period int
	// Skew is how many adjacent time steps are accepted, covering clock
	// drift and entry delay. Default 1 (one step either side).
	Skew int
	// BackupCodeCount is the size of the set issued at enrollment.
	// Default 10.
	BackupCodeCount int
	// BackupCodeLength is per-code length in characters. Default 8.
	BackupCodeLength int
}

// Manager produces enrollment material and validates codes. Safe for
// concurrent use.
type Manager struct {
	config Config
}

// NewManager fills defaults and returns a Manager.
func NewManager(cfg Config) *Manager {
	if cfg.Issuer == "" {
		cfg.Issuer = "authcore"
	}
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	if cfg.Skew == 0 {
		cfg.Skew = 1
	}
	if cfg.BackupCodeCount == 0 {
		cfg.BackupCodeCount = 10
	}
	if cfg.BackupCodeLength == 0 {
		cfg.BackupCodeLength = 8
	}
	return &Manager{config: cfg}
}

// GenerateSecret mints a fresh base32 secret for account and the
// otpauth:// URL that provisions it (issuer = service name, subject =
// the account's email).
func (m *Manager) GenerateSecret(account string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.config.Issuer,
		AccountName: account,
		Period:      uint(m.config.Period),
		Digits:      otp.Digits(m.config.Digits),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// VerifyCode reports whether code is valid for secret at now, accepting
// the configured number of adjacent time steps. Malformed codes simply
// fail; they are never an error.
func (m *Manager) VerifyCode(secret, code string, now time.Time) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, now, totp.ValidateOpts{
		Period:    uint(m.config.Period),
		Skew:      uint(m.config.Skew),
		Digits:    otp.Digits(m.config.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateBackupCodes returns a fresh fixed-size set of single-use codes.
func (m *Manager) GenerateBackupCodes() ([]string, error) {
	codes := make([]string, m.config.BackupCodeCount)
	for i := range codes {
		code, err := randomCode(m.config.BackupCodeLength)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// MatchBackupCode returns the index of code within codes, or -1. Each
// candidate is compared in constant time.
func MatchBackupCode(codes []string, code string) int {
	trimmed := strings.TrimSpace(strings.ToLower(code))
	found := -1
	for i, candidate := range codes {
		if len(candidate) == len(trimmed) &&
			subtle.ConstantTimeCompare([]byte(candidate), []byte(trimmed)) == 1 && found < 0 {
			found = i
		}
	}
	return found
}

func randomCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(backupAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(backupAlphabet[n.Int64()])
	}
	return b.String(), nil
}
