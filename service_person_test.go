package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/mich2000/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type personFixture struct {
	store    *identity.UserStore
	tokens   *identity.TokenService
	recovery *identity.RecoveryTokenCache
	persons  *identity.PersonService
}

func newPersonFixture(t *testing.T) *personFixture {
	t.Helper()

	store := newTestStore(t)
	tokens := newTestTokenService()
	recovery := identity.NewRecoveryTokenCache(time.Hour)

	return &personFixture{
		store:    store,
		tokens:   tokens,
		recovery: recovery,
		persons:  identity.NewPersonService(store, tokens, recovery, nil),
	}
}

func (f *personFixture) register(t *testing.T, email, password string) (*identity.User, string) {
	t.Helper()
	ctx := context.Background()

	user, err := f.persons.Register(ctx, email, "", password, password)
	require.NoError(t, err)

	token, err := f.persons.CheckCredentials(ctx, email, password)
	require.NoError(t, err)
	return user, token
}

func TestPersonServiceRegister(t *testing.T) {
	ctx := context.Background()
	f := newPersonFixture(t)

	t.Run("registers and logs in", func(t *testing.T) {
		user, err := f.persons.Register(ctx, "person@example.com", "person", "hunter2", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "person@example.com", user.Email)
		assert.Equal(t, "person", user.UserName)

		token, err := f.persons.CheckCredentials(ctx, "person@example.com", "hunter2")
		require.NoError(t, err)

		resolved, err := f.persons.ResolveToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		_, err := f.persons.Register(ctx, "other@example.com", "", "hunter2", "different")
		assert.ErrorIs(t, err, identity.ErrPasswordConfirmMismatch)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.persons.Register(ctx, "person@example.com", "", "hunter2", "hunter2")
		assert.ErrorIs(t, err, identity.ErrEmailIsAlreadyTaken)
	})
}

func TestPersonServiceCheckCredentials(t *testing.T) {
	ctx := context.Background()
	f := newPersonFixture(t)
	f.register(t, "person@example.com", "hunter2")

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.persons.CheckCredentials(ctx, "ghost@example.com", "hunter2")
		assert.ErrorIs(t, err, identity.ErrUserIsNotPresent)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.persons.CheckCredentials(ctx, "person@example.com", "wrong")
		assert.ErrorIs(t, err, identity.ErrPasswordIsNotCorrect)
	})
}

func TestPersonServiceUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newPersonFixture(t)
	user, token := f.register(t, "person@example.com", "hunter2")

	t.Run("applies set fields", func(t *testing.T) {
		email := "renamed@example.com"
		name := "renamed"

		updated, err := f.persons.UpdateProfile(ctx, token, identity.ProfileUpdate{
			Email:    &email,
			UserName: &name,
		})
		require.NoError(t, err)
		assert.Equal(t, email, updated.Email)
		assert.Equal(t, name, updated.UserName)

		stored, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, email, stored.Email)
	})

	t.Run("a taken email is skipped, not an error", func(t *testing.T) {
		f.register(t, "taken@example.com", "hunter2")

		taken := "taken@example.com"
		updated, err := f.persons.UpdateProfile(ctx, token, identity.ProfileUpdate{Email: &taken})
		require.NoError(t, err)
		assert.Equal(t, "renamed@example.com", updated.Email)
	})

	t.Run("nil fields stay untouched", func(t *testing.T) {
		updated, err := f.persons.UpdateProfile(ctx, token, identity.ProfileUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "renamed@example.com", updated.Email)
		assert.Equal(t, "renamed", updated.UserName)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := f.persons.UpdateProfile(ctx, "garbage", identity.ProfileUpdate{})
		assert.ErrorIs(t, err, identity.ErrTokenIsInvalid)
	})
}

func TestPersonServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newPersonFixture(t)
	user, token := f.register(t, "person@example.com", "hunter2")

	outstanding, err := f.recovery.Request(user.ID)
	require.NoError(t, err)

	t.Run("rotates credential and revokes recovery tokens", func(t *testing.T) {
		before, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)

		require.NoError(t, f.persons.ChangePassword(ctx, token, "correct horse", "correct horse"))

		after, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, before.SecurityStamp, after.SecurityStamp)

		ok, err := after.CheckPassword("correct horse")
		require.NoError(t, err)
		assert.True(t, ok)

		assert.False(t, f.recovery.IsValid(outstanding))
	})

	t.Run("empty password", func(t *testing.T) {
		err := f.persons.ChangePassword(ctx, token, "", "")
		assert.ErrorIs(t, err, identity.ErrPasswordIsEmpty)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		err := f.persons.ChangePassword(ctx, token, "new", "other")
		assert.ErrorIs(t, err, identity.ErrPasswordConfirmMismatch)
	})
}

func TestPersonServiceFlags(t *testing.T) {
	ctx := context.Background()
	f := newPersonFixture(t)
	user, token := f.register(t, "person@example.com", "hunter2")

	t.Run("add persists", func(t *testing.T) {
		updated, err := f.persons.AddFlag(ctx, token, "editor")
		require.NoError(t, err)
		assert.True(t, updated.HasFlag("editor"))

		stored, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, stored.HasFlag("editor"))
	})

	t.Run("adding a present flag is a no-op", func(t *testing.T) {
		updated, err := f.persons.AddFlag(ctx, token, "editor")
		require.NoError(t, err)
		assert.Equal(t, []string{"editor"}, updated.FlagList())
	})

	t.Run("remove persists", func(t *testing.T) {
		updated, err := f.persons.RemoveFlag(ctx, token, "editor")
		require.NoError(t, err)
		assert.False(t, updated.HasFlag("editor"))

		stored, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, stored.HasFlag("editor"))
	})
}

func TestPersonServiceDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("password proves intent", func(t *testing.T) {
		f := newPersonFixture(t)
		user, token := f.register(t, "person@example.com", "hunter2")

		require.NoError(t, f.persons.DeleteAccount(ctx, token, "hunter2", false))

		stored, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("explicit confirmation proves intent", func(t *testing.T) {
		f := newPersonFixture(t)
		user, token := f.register(t, "person@example.com", "hunter2")

		require.NoError(t, f.persons.DeleteAccount(ctx, token, "", true))

		stored, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("neither password nor confirmation fails", func(t *testing.T) {
		f := newPersonFixture(t)
		user, token := f.register(t, "person@example.com", "hunter2")

		err := f.persons.DeleteAccount(ctx, token, "wrong", false)
		assert.ErrorIs(t, err, identity.ErrUserDeleteFailed)

		stored, err := f.store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored)
	})

	t.Run("outstanding recovery tokens are revoked", func(t *testing.T) {
		f := newPersonFixture(t)
		user, token := f.register(t, "person@example.com", "hunter2")

		outstanding, err := f.recovery.Request(user.ID)
		require.NoError(t, err)

		require.NoError(t, f.persons.DeleteAccount(ctx, token, "hunter2", false))
		assert.False(t, f.recovery.IsValid(outstanding))
	})
}
