package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects which secret and lifetime a token is bound to.
type Kind string

const (
	// Access tokens prove identity for a single short request window.
	Access Kind = "access"
	// Refresh tokens are only accepted when minting new access tokens.
	Refresh Kind = "refresh"
)

// ErrInvalid is returned for every verification failure: bad signature,
// malformed input, wrong kind's secret, or expiry. Verification never
// panics on untrusted input.
var ErrInvalid = errors.New("invalid token")

// Payload is the exact claim set embedded in every token. IssuedAt is
// epoch seconds and is compared against the record's revocation floor.
type Payload struct {
	Email    string
	UserID   string
	IssuedAt int64
}

type claims struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Config carries the independent secrets and lifetimes for both kinds.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string

	// TimeFunc overrides the clock used for expiry validation. Nil means
	// time.Now.
	TimeFunc func() time.Time
}

// Codec issues and verifies tokens. Pure computation; safe for
// concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a Codec. Both secrets are required
// and must differ, so a refresh token can never verify as access.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("both token secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must be independent")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	return &Codec{config: cfg}, nil
}

// Issue signs a token of the given kind for payload, issued at now and
// expiring after the kind's configured lifetime.
func (c *Codec) Issue(kind Kind, payload Payload, now time.Time) (string, error) {
	secret, ttl, err := c.kindParams(kind)
	if err != nil {
		return "", err
	}

	issued := now
	if payload.IssuedAt != 0 {
		issued = time.Unix(payload.IssuedAt, 0)
	}

	cl := claims{
		Email:  payload.Email,
		UserID: payload.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    c.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(secret)
}

// Verify parses and validates a token of the given kind and returns its
// payload. Every failure mode collapses to [ErrInvalid]; the underlying
// cause is attached for server-side logging only.
func (c *Codec) Verify(kind Kind, tokenStr string) (Payload, error) {
	secret, _, err := c.kindParams(kind)
	if err != nil {
		return Payload{}, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.TimeFunc != nil {
		options = append(options, jwt.WithTimeFunc(c.config.TimeFunc))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || cl.IssuedAt == nil {
		return Payload{}, ErrInvalid
	}

	return Payload{
		Email:    cl.Email,
		UserID:   cl.UserID,
		IssuedAt: cl.IssuedAt.Unix(),
	}, nil
}

func (c *Codec) kindParams(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case Access:
		return c.config.AccessSecret, c.config.AccessTTL, nil
	case Refresh:
		return c.config.RefreshSecret, c.config.RefreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
