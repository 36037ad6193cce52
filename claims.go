package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is a signed, time-bounded assertion of a user's identity. The
// subject is a user id; the issuer is fixed per process. Timestamps are
// integer Unix seconds so signature inputs stay byte-stable.
type Claims struct {
	jwt.RegisteredClaims
}

// Subject returns the subject claim, the user id the claim asserts.
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiry instant, or the zero time when unset.
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance instant, or the zero time when unset.
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
