// Package token encodes and decodes session tokens.
//
// Tokens use the JWT compact layout, header.payload.trailer, but the trailer
// is only a placeholder: it is derived from the first two segments and a
// constant, so anyone can reproduce it. Nothing here provides integrity.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atenas/admin-console/internal/core/domain"
)

const (
	// Lifetime is the fixed validity window of every token.
	Lifetime = 24 * time.Hour

	// Algorithm is the tag written to every header.
	Algorithm = "HS256"

	trailerSuffix = ".secret"
)

// placeholderMethod produces the format-only trailer. It is deliberately not
// registered with jwt.RegisterSigningMethod so the real HS256 stays intact.
type placeholderMethod struct{}

func (placeholderMethod) Alg() string { return Algorithm }

func (placeholderMethod) Sign(signingString string, _ any) ([]byte, error) {
	return []byte(signingString + trailerSuffix), nil
}

func (placeholderMethod) Verify(signingString string, sig []byte, _ any) error {
	if string(sig) != signingString+trailerSuffix {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

// Codec issues and decodes tokens.
type Codec struct {
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec returns a Codec reading time from clock; nil means time.Now.
func NewCodec(clock func() time.Time) *Codec {
	if clock == nil {
		clock = time.Now
	}
	return &Codec{now: clock, parser: jwt.NewParser()}
}

// Issue builds a token for user, valid for Lifetime from now. The error is
// only non-nil if JSON encoding fails, which no user value can cause.
func (c *Codec) Issue(user domain.User) (string, error) {
	iat := jwt.NewNumericDate(c.now())
	claims := &Claims{
		Subject:   user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  iat,
		ExpiresAt: jwt.NewNumericDate(iat.Add(Lifetime)),
	}

	signed, err := jwt.NewWithClaims(placeholderMethod{}, claims).SignedString(nil)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Decode reverses Issue. It does not look at the trailer and does not check
// expiry; see IsExpired.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	tkn, _, err := c.parser.ParseUnverified(raw, claims)
	if err != nil {
		return nil, &domain.DecodeError{Reason: "malformed", Err: fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)}
	}
	if alg, _ := tkn.Header["alg"].(string); alg != Algorithm {
		return nil, &domain.DecodeError{Reason: "unexpected algorithm " + alg, Err: domain.ErrTokenMalformed}
	}
	if name := claims.missing(); name != "" {
		return nil, &domain.DecodeError{Reason: "missing claim " + name, Err: domain.ErrTokenMalformed}
	}
	return claims, nil
}

// IsExpired reports whether claims are past their expiry at now.
func IsExpired(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// CheckExpiry returns a *domain.DecodeError wrapping domain.ErrTokenExpired
// when claims are past their expiry at now.
func CheckExpiry(claims *Claims, now time.Time) error {
	if !IsExpired(claims, now) {
		return nil
	}
	return &domain.DecodeError{Reason: "expired", Err: domain.ErrTokenExpired}
}
