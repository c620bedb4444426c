package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrPolicy is wrapped by every strength rejection. Match with errors.Is
// and surface the full message to the user.
var ErrPolicy = errors.New("password policy violation")

const (
	// MinLength is the minimum accepted password length in bytes.
	MinLength = 8

	// Symbols is the fixed set a password must draw at least one
	// character from.
	Symbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?~` + "`"

	defaultCost = bcrypt.DefaultCost
)

// Config holds hashing parameters. The zero value selects bcrypt's
// default cost (10), which keeps hashing within interactive latency.
type Config struct {
	Cost int
}

// Hasher hashes and verifies passwords. Safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher validates cfg and returns a Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = defaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the salted one-way hash of password. The salt is embedded
// in the encoded output.
func (h *Hasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Matches reports whether password corresponds to encodedHash. A
// malformed stored hash counts as a mismatch, not an error: the caller
// always treats it as bad credentials.
func (h *Hasher) Matches(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

// ValidateStrength checks password against the policy: at least one
// lowercase letter, one uppercase letter, one digit, one symbol from
// [Symbols], and at least [MinLength] bytes. The returned error wraps
// [ErrPolicy] and names the first unmet requirement.
func ValidateStrength(password string) error {
	if len(password) < MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPolicy, MinLength)
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(Symbols, r):
			symbol = true
		}
	}
	switch {
	case !lower:
		return fmt.Errorf("%w: must contain a lowercase letter", ErrPolicy)
	case !upper:
		return fmt.Errorf("%w: must contain an uppercase letter", ErrPolicy)
	case !digit:
		return fmt.Errorf("%w: must contain a digit", ErrPolicy)
	case !symbol:
		return fmt.Errorf("%w: must contain a symbol", ErrPolicy)
	}
	return nil
}
