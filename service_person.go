package identity

import (
	"context"
)

// ProfileUpdate carries the optional profile fields an update may touch.
// Nil fields are left alone.
type ProfileUpdate struct {
	Email    *string
	UserName *string
}

// PersonService implements the self-service flows: registration, login,
// profile updates, password changes, and account deletion. Every
// privileged operation authenticates through a signed claim.
type PersonService struct {
	store    *UserStore
	tokens   *TokenService
	recovery *RecoveryTokenCache
	logger   Logger
}

// NewPersonService wires the user-facing flows. The recovery cache may
// be nil when the deployment has no recovery flow.
func NewPersonService(store *UserStore, tokens *TokenService, recovery *RecoveryTokenCache, logger Logger) *PersonService {
	return &PersonService{
		store:    store,
		tokens:   tokens,
		recovery: recovery,
		logger:   ensureLogger(logger),
	}
}

// Register creates a new account from a registration request.
func (s *PersonService) Register(ctx context.Context, email, userName, password, confirm string) (*User, error) {
	if password != confirm {
		s.logger.Warn("a password and its confirmation have to be the same")
		return nil, ErrPasswordConfirmMismatch
	}

	user, err := NewUser(email, userName, password)
	if err != nil {
		return nil, err
	}
	return s.store.Add(ctx, user)
}

// CheckCredentials verifies a login and returns a signed session token
// whose subject is the user's id.
func (s *PersonService) CheckCredentials(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		s.logger.Warn("login attempt for an unknown email")
		return "", ErrUserIsNotPresent
	}

	ok, err := user.CheckPassword(password)
	if err != nil {
		return "", err
	}
	if !ok {
		s.logger.Warn("login attempt with a wrong password, id: %s", user.ID)
		return "", ErrPasswordIsNotCorrect
	}

	return s.tokens.IssueSessionToken(user.ID)
}

// ResolveToken returns the user a token's subject maps to.
func (s *PersonService) ResolveToken(ctx context.Context, token string) (*User, error) {
	return s.tokens.ResolveUser(ctx, token, s.store)
}

// UpdateProfile applies the set fields of the patch to the caller's
// record. A new email that is already taken is skipped, not an error.
func (s *PersonService) UpdateProfile(ctx context.Context, token string, patch ProfileUpdate) (*User, error) {
	user, err := s.tokens.ResolveUser(ctx, token, s.store)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		taken, err := s.store.IsEmailTaken(ctx, *patch.Email)
		if err != nil {
			return nil, err
		}
		if !taken {
			if _, err := user.SetEmail(*patch.Email); err != nil {
				return nil, err
			}
		}
	}
	if patch.UserName != nil {
		user.SetUserName(*patch.UserName)
	}

	if err := s.store.Update(ctx, user.ID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the caller's password. The security stamp is
// regenerated and any outstanding recovery tokens for the user are
// revoked.
func (s *PersonService) ChangePassword(ctx context.Context, token, password, confirm string) error {
	if password == "" {
		return ErrPasswordIsEmpty
	}
	if password != confirm {
		return ErrPasswordConfirmMismatch
	}

	user, err := s.tokens.ResolveUser(ctx, token, s.store)
	if err != nil {
		return err
	}

	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := s.store.Update(ctx, user.ID, user); err != nil {
		return err
	}

	if s.recovery != nil {
		s.recovery.RevokeAllForUser(user.ID)
	}
	return nil
}

// AddFlag attaches a flag to the caller's record. Adding a flag the
// record already carries is a no-op.
func (s *PersonService) AddFlag(ctx context.Context, token, flag string) (*User, error) {
	user, err := s.tokens.ResolveUser(ctx, token, s.store)
	if err != nil {
		return nil, err
	}

	if user.AddFlag(flag) {
		if err := s.store.Update(ctx, user.ID, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// RemoveFlag detaches a flag from the caller's record.
func (s *PersonService) RemoveFlag(ctx context.Context, token, flag string) (*User, error) {
	user, err := s.tokens.ResolveUser(ctx, token, s.store)
	if err != nil {
		return nil, err
	}

	if user.RemoveFlag(flag) {
		if err := s.store.Update(ctx, user.ID, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// DeleteAccount removes the caller's record. The caller proves intent
// with either their password or an explicit confirmation.
func (s *PersonService) DeleteAccount(ctx context.Context, token, password string, confirmed bool) error {
	user, err := s.tokens.ResolveUser(ctx, token, s.store)
	if err != nil {
		return err
	}

	ok, err := user.CheckPassword(password)
	if err != nil {
		return err
	}
	if !ok && !confirmed {
		s.logger.Warn("account deletion refused, id: %s", user.ID)
		return ErrUserDeleteFailed
	}

	if _, err := s.store.Delete(ctx, user.ID); err != nil {
		return err
	}
	if s.recovery != nil {
		s.recovery.RevokeAllForUser(user.ID)
	}

	s.logger.Info("a user has been deleted, id: %s", user.ID)
	return nil
}
