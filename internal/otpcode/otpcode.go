// Package otpcode generates the human-typeable one-time verification
// codes used for password reset and email verification. The format is
// chosen for low transcription error, not entropy: codes are short-lived
// and effectively rate limited by their expiry.
package otpcode

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strings"
)

const (
	// alphabet is lowercase alphanumeric so codes survive any email
	// client's casing and read aloud unambiguously enough.
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultGroups and DefaultGroupLength yield codes like
	// "k3xv-9qa2-7mfh".
	DefaultGroups      = 3
	DefaultGroupLength = 4
)

// New returns a fresh code of the given shape, hyphen-joined. Zero or
// negative arguments select the defaults.
func New(groups, groupLength int) (string, error) {
	if groups <= 0 {
		groups = DefaultGroups
	}
	if groupLength <= 0 {
		groupLength = DefaultGroupLength
	}

	parts := make([]string, groups)
	max := big.NewInt(int64(len(alphabet)))
	for g := range parts {
		var b strings.Builder
		b.Grow(groupLength)
		for i := 0; i < groupLength; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			b.WriteByte(alphabet[n.Int64()])
		}
		parts[g] = b.String()
	}
	return strings.Join(parts, "-"), nil
}

// Equal compares a supplied code against the stored one in constant
// time, tolerating surrounding whitespace and casing from the user.
func Equal(stored, supplied string) bool {
	normalized := strings.ToLower(strings.TrimSpace(supplied))
	return len(stored) == len(normalized) &&
		subtle.ConstantTimeCompare([]byte(stored), []byte(normalized)) == 1
}
