package totp

import (
	"strings"
	"testing"
	"time"

	ptotp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	m := NewManager(Config{Issuer: "example-app"})

	secret, url, err := m.GenerateSecret("user@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.True(t, strings.HasPrefix(url, "otpauth://totp/"), "url = %q", url)
	assert.Contains(t, url, "example-app")
	assert.Contains(t, url, "user@example.com")

	// every enrollment mints a distinct secret
	second, _, err := m.GenerateSecret("user@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, secret, second)
}

func TestVerifyCodeWindow(t *testing.T) {
	m := NewManager(Config{})
	secret, _, err := m.GenerateSecret("user@example.com")
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	code, err := ptotp.GenerateCode(secret, now)
	require.NoError(t, err)

	assert.True(t, m.VerifyCode(secret, code, now), "current code rejected")
	assert.True(t, m.VerifyCode(secret, "  "+code+" ", now), "surrounding whitespace rejected")
	assert.True(t, m.VerifyCode(secret, code, now.Add(30*time.Second)), "one step late rejected")
	assert.True(t, m.VerifyCode(secret, code, now.Add(-30*time.Second)), "one step early rejected")
	assert.False(t, m.VerifyCode(secret, code, now.Add(90*time.Second)), "three steps late accepted")
	assert.False(t, m.VerifyCode(secret, "000000", now) && m.VerifyCode(secret, "999999", now), "both fixed codes accepted")
	assert.False(t, m.VerifyCode(secret, "not-a-code", now), "malformed code accepted")
	assert.False(t, m.VerifyCode("not-base32!", code, now), "malformed secret accepted")
}

func TestGenerateBackupCodes(t *testing.T) {
	m := NewManager(Config{BackupCodeCount: 12, BackupCodeLength: 10})

	codes, err := m.GenerateBackupCodes()
	require.NoError(t, err)
	require.Len(t, codes, 12)

	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		assert.Len(t, code, 10)
		for _, r := range code {
			assert.Contains(t, backupAlphabet, string(r))
		}
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %q", code)
		seen[code] = struct{}{}
	}
}

func TestMatchBackupCode(t *testing.T) {
	codes := []string{"aaaa1111", "bbbb2222", "cccc3333"}

	assert.Equal(t, 1, MatchBackupCode(codes, "bbbb2222"))
	assert.Equal(t, 1, MatchBackupCode(codes, "BBBB2222"), "case folding")
	assert.Equal(t, 2, MatchBackupCode(codes, " cccc3333 "), "whitespace trimming")
	assert.Equal(t, -1, MatchBackupCode(codes, "dddd4444"))
	assert.Equal(t, -1, MatchBackupCode(codes, "aaaa111"), "prefix must not match")
	assert.Equal(t, -1, MatchBackupCode(nil, "aaaa1111"))
}

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(Config{})
	assert.Equal(t, 6, m.config.Digits)
	assert.Equal(t, 30, m.config.Period)
	assert.Equal(t, 1, m.config.Skew)
	assert.Equal(t, 10, m.config.BackupCodeCount)
	assert.Equal(t, 8, m.config.BackupCodeLength)
}
