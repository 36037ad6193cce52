package identity

import (
	"github.com/goliatone/go-errors"
)

// Stable text codes the HTTP layer renders into failure envelopes.
const (
	TextCodeInvalidCreds   = "INVALID_CREDENTIALS"
	TextCodeTokenExpired   = "TOKEN_EXPIRED"
	TextCodeTokenInvalid   = "TOKEN_INVALID"
	TextCodeEmailTaken     = "EMAIL_TAKEN"
	TextCodeIDTaken        = "ID_TAKEN"
	TextCodeNotAdmin       = "NOT_ADMIN"
	TextCodeUserNotFound   = "USER_NOT_FOUND"
	TextCodeAdminProtected = "ADMIN_PROTECTED"
)

// Validation failures: empty or malformed input.
var (
	ErrEmailNotCorrectFormat = errors.New("email is not in the correct format", errors.CategoryValidation).
					WithTextCode("EMAIL_BAD_FORMAT")
	ErrEmailIsEmpty = errors.New("email cannot be empty", errors.CategoryValidation).
			WithTextCode("EMAIL_EMPTY")
	ErrEmailAndPasswordIsEmpty = errors.New("email and password cannot both be empty", errors.CategoryValidation).
					WithTextCode("EMAIL_AND_PASSWORD_EMPTY")
	ErrPasswordIsEmpty = errors.New("password cannot be empty", errors.CategoryValidation).
				WithTextCode("PASSWORD_EMPTY")
	ErrPasswordConfirmMismatch = errors.New("password and confirmed password are not the same", errors.CategoryValidation).
					WithTextCode("PASSWORD_CONFIRM_MISMATCH")
	ErrIDIsEmpty = errors.New("id cannot be empty", errors.CategoryValidation).
			WithTextCode("ID_EMPTY")
	ErrSubjectOfTokenIsEmpty = errors.New("the subject of a claim cannot be empty", errors.CategoryValidation).
					WithTextCode("SUBJECT_EMPTY")
	ErrTokenIsEmpty = errors.New("token cannot be empty", errors.CategoryValidation).
			WithTextCode("TOKEN_EMPTY")
)

// Conflicts: uniqueness invariants over the record store.
var (
	ErrEmailIsAlreadyTaken = errors.New("user email is already taken", errors.CategoryConflict).
				WithTextCode(TextCodeEmailTaken)
	ErrIDIsAlreadyTaken = errors.New("user id is already taken", errors.CategoryConflict).
				WithTextCode(TextCodeIDTaken)
)

// Not-found outcomes. Store lookups represent absence with a nil record;
// these surface only where a caller asked for something that must exist.
var (
	ErrUserNotFound = errors.New("user cannot be found", errors.CategoryNotFound).
			WithTextCode(TextCodeUserNotFound)
	ErrUserIsNotPresent = errors.New("user is not present", errors.CategoryNotFound).
				WithTextCode(TextCodeUserNotFound)
	ErrAdminNotPresent = errors.New("admin is not present", errors.CategoryNotFound).
				WithTextCode("ADMIN_NOT_PRESENT")
)

// Authentication and authorization failures.
var (
	ErrPasswordIsNotCorrect = errors.New("the credentials provided are invalid", errors.CategoryAuth).
				WithTextCode(TextCodeInvalidCreds)
	ErrUserDeleteFailed = errors.New("password was not correct or deletion was not confirmed", errors.CategoryAuth).
				WithTextCode("DELETE_NOT_CONFIRMED")
	ErrIDEqualsAdmin = errors.New("the given id equals the reserved admin id", errors.CategoryAuthz).
				WithTextCode(TextCodeAdminProtected)
	ErrIDNotEqualToAdmin = errors.New("the given id is not the reserved admin id", errors.CategoryAuthz).
				WithTextCode(TextCodeNotAdmin)
)

// Cryptographic primitive failures. These indicate misconfiguration or
// corrupted stored state, never a plain credential mismatch.
var (
	ErrPasswordCannotBeMade = errors.New("password hash could not be derived", errors.CategoryInternal).
				WithTextCode("PASSWORD_HASH_FAILED")
	ErrHashIsInvalid = errors.New("stored password hash cannot be parsed", errors.CategoryInternal).
				WithTextCode("HASH_INVALID")
)

// Token lifecycle failures. Decode yields exactly one of these per attempt.
var (
	ErrTokenIsInvalid = errors.New("token is invalid", errors.CategoryAuth).
				WithTextCode(TextCodeTokenInvalid)
	ErrIssuerIsInvalid = errors.New("issuer is invalid", errors.CategoryAuth).
				WithTextCode("ISSUER_INVALID")
	ErrSignatureHasExpired = errors.New("signature has expired", errors.CategoryAuth).
				WithTextCode(TextCodeTokenExpired)
	ErrTokenCannotBeMade = errors.New("could not create a token out of a claim", errors.CategoryInternal).
				WithTextCode("TOKEN_SIGN_FAILED")
	ErrRecoveryTokenInvalid = errors.New("recovery token is invalid or expired", errors.CategoryAuth).
				WithTextCode("RECOVERY_TOKEN_INVALID")
)

// Collaborator failures.
var (
	ErrUserCannotBeAdded = errors.New("user cannot be added", errors.CategoryInternal).
				WithTextCode("USER_ADD_FAILED")
	ErrCouldNotSendEmail = errors.New("could not send the email through the mail transport", errors.CategoryOperation).
				WithTextCode("MAIL_SEND_FAILED")
)
