package identity_test

import (
	"strings"
	"testing"

	"github.com/mich2000/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("produces an encoded argon2id hash", func(t *testing.T) {
		hash, err := identity.HashPassword("hunter2", "a1b2c3d4")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("same password and stamp are deterministic", func(t *testing.T) {
		first, err := identity.HashPassword("hunter2", "a1b2c3d4")
		require.NoError(t, err)

		second, err := identity.HashPassword("hunter2", "a1b2c3d4")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("different stamps produce different hashes", func(t *testing.T) {
		first, err := identity.HashPassword("hunter2", "a1b2c3d4")
		require.NoError(t, err)

		second, err := identity.HashPassword("hunter2", "ffffffff")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("empty password is refused", func(t *testing.T) {
		_, err := identity.HashPassword("", "a1b2c3d4")
		assert.ErrorIs(t, err, identity.ErrPasswordIsEmpty)
	})

	t.Run("empty stamp is refused", func(t *testing.T) {
		_, err := identity.HashPassword("hunter2", "")
		assert.ErrorIs(t, err, identity.ErrPasswordCannotBeMade)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := identity.HashPassword("hunter2", "a1b2c3d4")
	require.NoError(t, err)

	t.Run("matching password verifies", func(t *testing.T) {
		ok, err := identity.VerifyPassword(hash, "hunter2")

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password does not verify", func(t *testing.T) {
		ok, err := identity.VerifyPassword(hash, "hunter3")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty password never matches and is not an error", func(t *testing.T) {
		ok, err := identity.VerifyPassword(hash, "")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unparseable hash is a crypto fault, not a mismatch", func(t *testing.T) {
		cases := []struct {
			name string
			hash string
		}{
			{"empty", ""},
			{"garbage", "not-a-hash"},
			{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
			{"missing sections", "$argon2id$v=19$m=65536,t=1,p=4"},
			{"bad params", "$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA"},
			{"bad base64 salt", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				ok, err := identity.VerifyPassword(tc.hash, "hunter2")

				assert.ErrorIs(t, err, identity.ErrHashIsInvalid)
				assert.False(t, ok)
			})
		}
	})
}

func TestRandomHex(t *testing.T) {
	t.Run("security stamp has the fixed length and alphabet", func(t *testing.T) {
		stamp, err := identity.NewSecurityStamp()

		require.NoError(t, err)
		assert.Len(t, stamp, identity.SecurityStampLength)
		for _, r := range stamp {
			assert.Contains(t, "0123456789abcdef", string(r))
		}
	})

	t.Run("recovery token has the fixed length", func(t *testing.T) {
		token, err := identity.NewRecoveryToken()

		require.NoError(t, err)
		assert.Len(t, token, identity.RecoveryTokenLength)
	})

	t.Run("consecutive draws differ", func(t *testing.T) {
		first, err := identity.NewRecoveryToken()
		require.NoError(t, err)

		second, err := identity.NewRecoveryToken()
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}
