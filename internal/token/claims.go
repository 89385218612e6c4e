package token

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atenas/admin-console/internal/core/domain"
)

// Claims is the payload of a session token.
type Claims struct {
	Subject   int64            `json:"sub"`
	Email     string           `json:"email"`
	Role      domain.Role      `json:"role"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

var _ jwt.Claims = (*Claims)(nil)

func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c *Claims) GetIssuer() (string, error)                   { return "", nil }
func (c *Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

func (c *Claims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Subject, 10), nil
}

// missing names the first required claim that is absent, or "" when all are
// present.
func (c *Claims) missing() string {
	switch {
	case c.Subject == 0:
		return "sub"
	case c.Email == "":
		return "email"
	case c.Role == "":
		return "role"
	case c.IssuedAt == nil:
		return "iat"
	case c.ExpiresAt == nil:
		return "exp"
	}
	return ""
}
