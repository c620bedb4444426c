// Package token signs and verifies the engine's compact, self-contained
// access and refresh tokens. The two kinds use independent symmetric
// secrets and expirations; verification of one kind never accepts tokens
// of the other.
package token
