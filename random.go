package identity

import (
	"crypto/rand"

	"github.com/goliatone/go-errors"
)

const hexAlphabet = "1234567890abcdef"

const (
	// SecurityStampLength is the length of the random salt stored next to
	// a password hash.
	SecurityStampLength = 8
	// RecoveryTokenLength is the length of a one-time recovery token.
	RecoveryTokenLength = 40
)

// RandomHex returns n characters drawn from the hexadecimal alphabet.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("hex string length must be positive", errors.CategoryBadInput)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read random bytes")
	}

	for i, b := range buf {
		buf[i] = hexAlphabet[int(b)%len(hexAlphabet)]
	}
	return string(buf), nil
}

// NewSecurityStamp returns a fresh password salt.
func NewSecurityStamp() (string, error) {
	return RandomHex(SecurityStampLength)
}

// NewRecoveryToken returns a fresh one-time recovery token.
func NewRecoveryToken() (string, error) {
	return RandomHex(RecoveryTokenLength)
}
