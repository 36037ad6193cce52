package identity

import (
	"context"
)

// AdminService implements the operations reserved to the administrator.
// Every call authenticates a token and requires its subject to be the
// reserved admin id.
type AdminService struct {
	store  *UserStore
	tokens *TokenService
	logger Logger
}

// NewAdminService wires the administrator flows.
func NewAdminService(store *UserStore, tokens *TokenService, logger Logger) *AdminService {
	return &AdminService{
		store:  store,
		tokens: tokens,
		logger: ensureLogger(logger),
	}
}

func (s *AdminService) requireAdmin(token string) error {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return err
	}
	if !s.store.IsAdminID(claims.Subject()) {
		s.logger.Warn("token subject is not the admin id")
		return ErrIDNotEqualToAdmin
	}
	return nil
}

// CreateUser adds a record on behalf of the administrator. An empty id
// lets the store generate one.
func (s *AdminService) CreateUser(ctx context.Context, token, id, email, password, confirm string) (*User, error) {
	if password != confirm {
		return nil, ErrPasswordConfirmMismatch
	}
	if err := s.requireAdmin(token); err != nil {
		return nil, err
	}
	if id == "" {
		return s.store.Create(ctx, email, password)
	}
	return s.store.CreateWithID(ctx, id, email, password)
}

// UpdateUser applies the set fields of the patch to the given record.
func (s *AdminService) UpdateUser(ctx context.Context, token, userID string, patch ProfileUpdate) (*User, error) {
	if err := s.requireAdmin(token); err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserIsNotPresent
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

// UpdateUserPassword resets a user's password on their behalf. The
// security stamp is regenerated like any other password change.
func (s *AdminService) UpdateUserPassword(ctx context.Context, token, userID, password, confirm string) error {
	if err := s.requireAdmin(token); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordIsEmpty
	}
	if password != confirm {
		return ErrPasswordConfirmMismatch
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserIsNotPresent
	}

	if err := user.SetPassword(password); err != nil {
		return err
	}
	return s.store.Update(ctx, user.ID, user)
}

// DeleteUser removes a record by id. Deleting the reserved admin id
// fails regardless of the caller.
func (s *AdminService) DeleteUser(ctx context.Context, token, userID string) (bool, error) {
	if err := s.requireAdmin(token); err != nil {
		return false, err
	}
	return s.store.Delete(ctx, userID)
}

// ListUsers returns every non-admin record.
func (s *AdminService) ListUsers(ctx context.Context, token string) ([]*User, error) {
	if err := s.requireAdmin(token); err != nil {
		return nil, err
	}
	return s.store.ListNonAdmin(ctx)
}

// CountUsers returns the number of non-admin records.
func (s *AdminService) CountUsers(ctx context.Context, token string) (int, error) {
	if err := s.requireAdmin(token); err != nil {
		return 0, err
	}
	return s.store.CountNonAdmin(ctx)
}
