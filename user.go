package identity

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// ReservedID is the fixed identifier permanently bound to the single
// administrator record. No other record may ever use it.
const ReservedID = "ADMIN"

// AdminEmail is the bootstrap email of the administrator record.
const AdminEmail = "email.admin@server.com"

// User is a stored identity record. HashedPassword and SecurityStamp are
// either both set or both empty; the empty form only exists transiently
// before a credential is completed.
type User struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	HashedPassword string   `json:"hashed_password"`
	SecurityStamp  string   `json:"security_stamp"`
	UserName       string   `json:"user_name"`
	Flags          []string `json:"flags,omitempty"`
}

// IsEmailValid is the email format predicate used everywhere an address
// enters the system.
func IsEmailValid(email string) bool {
	return validation.Validate(email, validation.Required, is.Email) == nil
}

// NewUser builds a fully credentialed record with a generated id.
func NewUser(email, userName, password string) (*User, error) {
	return NewUserWithID(uuid.New().String(), email, userName, password)
}

// NewUserWithID builds a fully credentialed record with a caller-chosen id.
func NewUserWithID(id, email, userName, password string) (*User, error) {
	if email == "" {
		return nil, ErrEmailIsEmpty
	}
	if password == "" {
		return nil, ErrPasswordIsEmpty
	}
	if !IsEmailValid(email) {
		return nil, ErrEmailNotCorrectFormat
	}

	stamp, err := NewSecurityStamp()
	if err != nil {
		return nil, ErrPasswordCannotBeMade
	}
	hash, err := HashPassword(password, stamp)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:             id,
		Email:          email,
		HashedPassword: hash,
		SecurityStamp:  stamp,
		UserName:       userName,
	}, nil
}

// NewAdmin builds the reserved administrator record. Its initial password
// is the reserved id itself and is expected to be rotated after bootstrap.
func NewAdmin() (*User, error) {
	user, err := NewUserWithID(ReservedID, AdminEmail, "", ReservedID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// IsCredentialEmpty reports whether both the hash and the stamp are empty.
func (u *User) IsCredentialEmpty() bool {
	return u.HashedPassword == "" && u.SecurityStamp == ""
}

// CheckPassword reports whether the given password matches the stored
// hash. Empty passwords never match.
func (u *User) CheckPassword(password string) (bool, error) {
	return VerifyPassword(u.HashedPassword, password)
}

// SetPassword replaces the stored credential. A fresh security stamp is
// generated on every change.
func (u *User) SetPassword(newPassword string) error {
	if newPassword == "" {
		return ErrPasswordIsEmpty
	}

	stamp, err := NewSecurityStamp()
	if err != nil {
		return ErrPasswordCannotBeMade
	}
	hash, err := HashPassword(newPassword, stamp)
	if err != nil {
		return err
	}

	u.SecurityStamp = stamp
	u.HashedPassword = hash
	return nil
}

// SetEmail replaces the email address. It reports whether the value
// actually changed; setting the current address is a no-op.
func (u *User) SetEmail(newEmail string) (bool, error) {
	if newEmail == "" {
		return false, ErrEmailIsEmpty
	}
	if u.Email == newEmail {
		return false, nil
	}
	if !IsEmailValid(newEmail) {
		return false, ErrEmailNotCorrectFormat
	}
	u.Email = newEmail
	return true, nil
}

// SetUserName replaces the display name.
func (u *User) SetUserName(newUserName string) {
	u.UserName = newUserName
}

// HasFlag reports whether the record carries the flag.
func (u *User) HasFlag(flag string) bool {
	i := sort.SearchStrings(u.Flags, flag)
	return i < len(u.Flags) && u.Flags[i] == flag
}

// AddFlag inserts a flag, keeping the set sorted. It reports whether the
// flag was actually added; duplicates collapse.
func (u *User) AddFlag(flag string) bool {
	i := sort.SearchStrings(u.Flags, flag)
	if i < len(u.Flags) && u.Flags[i] == flag {
		return false
	}
	u.Flags = append(u.Flags, "")
	copy(u.Flags[i+1:], u.Flags[i:])
	u.Flags[i] = flag
	return true
}

// RemoveFlag removes a flag. It reports whether the flag was present.
func (u *User) RemoveFlag(flag string) bool {
	i := sort.SearchStrings(u.Flags, flag)
	if i >= len(u.Flags) || u.Flags[i] != flag {
		return false
	}
	u.Flags = append(u.Flags[:i], u.Flags[i+1:]...)
	return true
}

// SetFlags replaces the whole flag set, collapsing duplicates.
func (u *User) SetFlags(flags []string) {
	seen := make(map[string]struct{}, len(flags))
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	u.Flags = out
}

// FlagList returns a copy of the flag set in sorted order.
func (u *User) FlagList() []string {
	out := make([]string, len(u.Flags))
	copy(out, u.Flags)
	return out
}
