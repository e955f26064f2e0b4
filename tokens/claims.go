package tokens

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a verified token. Times are in UTC.
type Claims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// wireClaims is the JSON payload carried inside the token.
type wireClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (c *wireClaims) toClaims() *Claims {
	claims := &Claims{
		Subject: c.Subject,
		Roles:   slices.Clone(c.Roles),
	}
	if claims.Roles == nil {
		claims.Roles = []string{}
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return claims
}
