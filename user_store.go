package identity

import (
	"context"
	"encoding/json"

	goerrors "github.com/goliatone/go-errors"
)

// UserStore owns user records over an ordered key-value tree keyed by
// user id. Email uniqueness is enforced with a check-then-act scan; two
// concurrent creates carrying the same email can both pass the scan
// before either write lands. See the store tests for the documented race.
type UserStore struct {
	tree   Tree
	logger Logger
}

// NewUserStore wraps a tree.
func NewUserStore(tree Tree, logger Logger) *UserStore {
	return &UserStore{
		tree:   tree,
		logger: ensureLogger(logger),
	}
}

func encodeUser(user *User) ([]byte, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode user record")
	}
	return data, nil
}

func decodeUser(data []byte) (*User, error) {
	user := &User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode user record")
	}
	return user, nil
}

// Setup creates the administrator record when it is missing. Calling it
// again once the admin exists is a no-op.
func (s *UserStore) Setup(ctx context.Context) error {
	taken, err := s.IsIDTaken(ctx, ReservedID)
	if err != nil {
		return err
	}
	if taken {
		s.logger.Debug("admin is present")
		return nil
	}

	admin, err := NewAdmin()
	if err != nil {
		return ErrUserCannotBeAdded
	}
	if err := s.put(ctx, admin); err != nil {
		return ErrUserCannotBeAdded
	}

	s.logger.Info("admin has been created, id: %s", ReservedID)
	return nil
}

// Create builds and persists a record with a store-generated id.
func (s *UserStore) Create(ctx context.Context, email, password string) (*User, error) {
	return s.CreateWithID(ctx, s.tree.GenerateID(), email, password)
}

// CreateWithID builds and persists a record with a caller-chosen id.
func (s *UserStore) CreateWithID(ctx context.Context, id, email, password string) (*User, error) {
	if id == "" {
		return nil, ErrIDIsEmpty
	}
	if email == "" && password == "" {
		return nil, ErrEmailAndPasswordIsEmpty
	}
	if !IsEmailValid(email) {
		return nil, ErrEmailNotCorrectFormat
	}

	taken, err := s.IsEmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailIsAlreadyTaken
	}

	user, err := NewUserWithID(id, email, "", password)
	if err != nil {
		return nil, err
	}

	return s.Add(ctx, user)
}

// Add persists a pre-built record. The id uniqueness check runs before
// the email uniqueness scan. The reserved id is refused; the admin is
// only ever created through Setup.
func (s *UserStore) Add(ctx context.Context, user *User) (*User, error) {
	if user.Email == "" && user.IsCredentialEmpty() {
		return nil, ErrEmailAndPasswordIsEmpty
	}
	if user.ID == ReservedID {
		return nil, ErrIDEqualsAdmin
	}

	idTaken, err := s.IsIDTaken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if idTaken {
		return nil, ErrIDIsAlreadyTaken
	}

	if !IsEmailValid(user.Email) {
		return nil, ErrEmailNotCorrectFormat
	}
	emailTaken, err := s.IsEmailTaken(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, ErrEmailIsAlreadyTaken
	}

	if err := s.put(ctx, user); err != nil {
		return nil, ErrUserCannotBeAdded
	}

	s.logger.Info("a user has been added, id: %s", user.ID)
	return user, nil
}

// IsEmailTaken reports whether any stored record carries the email.
// This is a linear scan over the whole tree; there is no secondary
// index, which bounds write throughput on large datasets.
func (s *UserStore) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}

	found := false
	err := s.tree.Scan(ctx, func(_ string, value []byte) error {
		user, err := decodeUser(value)
		if err != nil {
			return err
		}
		if user.Email == email {
			found = true
			return errStopScan
		}
		return nil
	})
	if err != nil && err != errStopScan {
		return false, err
	}
	return found, nil
}

// IsIDTaken reports whether a record exists under the id.
func (s *UserStore) IsIDTaken(ctx context.Context, id string) (bool, error) {
	return s.tree.Contains(ctx, id)
}

// FindByEmail returns the record carrying the email, or nil when no
// record does. Absence is represented, not signaled as failure.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var match *User
	err := s.tree.Scan(ctx, func(_ string, value []byte) error {
		user, err := decodeUser(value)
		if err != nil {
			return err
		}
		if user.Email == email {
			match = user
			return errStopScan
		}
		return nil
	})
	if err != nil && err != errStopScan {
		return nil, err
	}
	return match, nil
}

// FindByID returns the record stored under the id, or nil when absent.
func (s *UserStore) FindByID(ctx context.Context, id string) (*User, error) {
	value, ok, err := s.tree.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeUser(value)
}

// Update replaces the stored record under id with the patch's email,
// display name, credential, and flag set. Partial patches must be merged
// with the existing record by the caller first.
func (s *UserStore) Update(ctx context.Context, id string, patch *User) error {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrUserIsNotPresent
	}

	existing.Email = patch.Email
	existing.UserName = patch.UserName
	existing.HashedPassword = patch.HashedPassword
	existing.SecurityStamp = patch.SecurityStamp
	existing.SetFlags(patch.Flags)

	return s.put(ctx, existing)
}

// Delete removes the record under id and reports whether one was
// removed. The reserved admin id can never be deleted.
func (s *UserStore) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrIDIsEmpty
	}
	if id == ReservedID {
		return false, ErrIDEqualsAdmin
	}
	return s.tree.Delete(ctx, id)
}

// CheckPassword verifies the password of the record carrying the email.
func (s *UserStore) CheckPassword(ctx context.Context, email, password string) (bool, error) {
	if password == "" {
		return false, ErrPasswordIsEmpty
	}
	if !IsEmailValid(email) {
		return false, ErrEmailNotCorrectFormat
	}

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserIsNotPresent
	}
	return user.CheckPassword(password)
}

// CountNonAdmin returns the number of records excluding the admin.
func (s *UserStore) CountNonAdmin(ctx context.Context) (int, error) {
	total, err := s.tree.Len(ctx)
	if err != nil {
		return 0, err
	}
	hasAdmin, err := s.IsIDTaken(ctx, ReservedID)
	if err != nil {
		return 0, err
	}
	if hasAdmin {
		total--
	}
	return total, nil
}

// ListNonAdmin returns every record except the admin, in id order.
func (s *UserStore) ListNonAdmin(ctx context.Context) ([]*User, error) {
	var users []*User
	err := s.tree.Scan(ctx, func(key string, value []byte) error {
		if key == ReservedID {
			return nil
		}
		user, err := decodeUser(value)
		if err != nil {
			return err
		}
		users = append(users, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetAdmin returns the administrator record. It fails when Setup never
// ran.
func (s *UserStore) GetAdmin(ctx context.Context) (*User, error) {
	admin, err := s.FindByID(ctx, ReservedID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrAdminNotPresent
	}
	return admin, nil
}

// IsAdminID reports whether the id is the reserved admin id.
func (s *UserStore) IsAdminID(id string) bool {
	return id == ReservedID
}

func (s *UserStore) put(ctx context.Context, user *User) error {
	data, err := encodeUser(user)
	if err != nil {
		return err
	}
	return s.tree.Put(ctx, user.ID, data)
}

// errStopScan terminates a tree scan early once a match is found. Never
// escapes this package.
var errStopScan = goerrors.New("stop scan", goerrors.CategoryInternal)
