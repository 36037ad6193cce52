package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the signed claims used as bearer
// credentials. The signing key and issuer are fixed at construction and
// never rotate at runtime.
type TokenService struct {
	signingKey        []byte
	issuer            string
	sessionTTL        time.Duration
	passwordChangeTTL time.Duration
	logger            Logger
}

// NewTokenService builds a TokenService from the immutable process
// configuration.
func NewTokenService(signingKey []byte, issuer string, sessionTTL, passwordChangeTTL time.Duration, logger Logger) *TokenService {
	return &TokenService{
		signingKey:        signingKey,
		issuer:            issuer,
		sessionTTL:        sessionTTL,
		passwordChangeTTL: passwordChangeTTL,
		logger:            ensureLogger(logger),
	}
}

// Issue mints a claim for the subject with the given lifetime.
func (ts *TokenService) Issue(subject string, ttl time.Duration) (*Claims, error) {
	if subject == "" {
		ts.logger.Warn("the subject of a claim is empty")
		return nil, ErrSubjectOfTokenIsEmpty
	}

	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}, nil
}

// IssueSession mints a claim with the session lifetime.
func (ts *TokenService) IssueSession(subject string) (*Claims, error) {
	return ts.Issue(subject, ts.sessionTTL)
}

// IssuePasswordChange mints a claim with the password-change lifetime.
func (ts *TokenService) IssuePasswordChange(subject string) (*Claims, error) {
	return ts.Issue(subject, ts.passwordChangeTTL)
}

// Sign encodes and signs a claim with the process signing key.
func (ts *TokenService) Sign(claims *Claims) (string, error) {
	if claims == nil {
		return "", ErrTokenCannotBeMade
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Warn("a token could not be made out of a claim: %v", err)
		return "", ErrTokenCannotBeMade
	}
	return signed, nil
}

// IssueSessionToken mints and signs a session claim in one step.
func (ts *TokenService) IssueSessionToken(subject string) (string, error) {
	claims, err := ts.IssueSession(subject)
	if err != nil {
		return "", err
	}
	return ts.Sign(claims)
}

// Decode parses and validates a signed token. Exactly one of the token
// lifecycle errors applies per attempt: empty input, bad signature or
// structure, wrong issuer, or expired signature.
func (ts *TokenService) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenIsEmpty
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithIssuer(ts.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrSignatureHasExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrIssuerIsInvalid
		default:
			return nil, ErrTokenIsInvalid
		}
	}
	if !token.Valid {
		return nil, ErrTokenIsInvalid
	}
	return claims, nil
}

// ResolveUser decodes a token and resolves its subject to a stored user
// record. Decode errors propagate unchanged; a subject with no record
// fails with ErrUserNotFound.
func (ts *TokenService) ResolveUser(ctx context.Context, tokenString string, store *UserStore) (*User, error) {
	claims, err := ts.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := store.FindByID(ctx, claims.Subject())
	if err != nil {
		return nil, err
	}
	if user == nil {
		ts.logger.Warn("the subject of a token is not mapped to a user")
		return nil, ErrUserNotFound
	}
	return user, nil
}
