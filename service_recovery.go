package identity

import (
	"context"
	"fmt"
)

// RecoveryService implements the forgot-password flow: mint a one-time
// token, deliver it out of band, and later trade it for a password
// change.
type RecoveryService struct {
	store  *UserStore
	cache  *RecoveryTokenCache
	mailer Mailer
	logger Logger
}

// NewRecoveryService wires the forgot-password flow.
func NewRecoveryService(store *UserStore, cache *RecoveryTokenCache, mailer Mailer, logger Logger) *RecoveryService {
	return &RecoveryService{
		store:  store,
		cache:  cache,
		mailer: mailer,
		logger: ensureLogger(logger),
	}
}

// ForgotPassword mints a recovery token for the account behind the
// email and mails it out. Whether the email maps to an account is not
// revealed to the caller; an unknown address succeeds silently.
func (s *RecoveryService) ForgotPassword(ctx context.Context, email string) error {
	if !IsEmailValid(email) {
		return ErrEmailNotCorrectFormat
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.Info("password recovery requested for an unknown email")
		return nil
	}

	token, err := s.cache.Request(user.ID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"A password change was requested for your account. Use the token below within %s.\n\n%s",
		s.cache.TTL(), token,
	)
	if err := s.mailer.Send(ctx, user.Email, "Password recovery", body); err != nil {
		s.logger.Error("could not send the recovery email: %v", err)
		return ErrCouldNotSendEmail
	}

	s.logger.Info("a recovery token has been issued, id: %s", user.ID)
	return nil
}

// ResetPassword trades a valid recovery token for a password change.
// The token is consumed and every other outstanding token for the same
// user is revoked so older requests cannot replay.
func (s *RecoveryService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if token == "" {
		return ErrTokenIsEmpty
	}
	if password == "" {
		return ErrPasswordIsEmpty
	}
	if password != confirm {
		return ErrPasswordConfirmMismatch
	}

	if !s.cache.IsValid(token) {
		return ErrRecoveryTokenInvalid
	}
	userID, ok := s.cache.ResolveUserID(token)
	if !ok {
		return ErrRecoveryTokenInvalid
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
	if err := s.store.Update(ctx, user.ID, user); err != nil {
		return err
	}

	s.cache.Consume(token)
	s.cache.RevokeAllForUser(user.ID)

	s.logger.Info("a password has been reset through recovery, id: %s", user.ID)
	return nil
}
