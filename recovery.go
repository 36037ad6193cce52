package identity

import (
	"context"
	"sync"
	"time"
)

type recoveryEntry struct {
	userID    string
	expiresAt time.Time
}

// RecoveryTokenCache maps one-time recovery tokens to the user they were
// minted for and the instant they expire. One mutex guards the whole
// map; every operation holds it for its full duration and performs no
// I/O under it. Entries live in process memory only, so a restart
// invalidates all outstanding tokens.
type RecoveryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]recoveryEntry
	ttl    time.Duration
	now    func() time.Time
	logger Logger
}

// RecoveryCacheOption customizes a RecoveryTokenCache.
type RecoveryCacheOption func(*RecoveryTokenCache)

// WithRecoveryClock overrides the cache's clock. Used by tests to make
// expiry deterministic.
func WithRecoveryClock(now func() time.Time) RecoveryCacheOption {
	return func(c *RecoveryTokenCache) {
		c.now = now
	}
}

// WithRecoveryLogger sets the cache logger.
func WithRecoveryLogger(logger Logger) RecoveryCacheOption {
	return func(c *RecoveryTokenCache) {
		c.logger = logger
	}
}

// NewRecoveryTokenCache builds a cache whose tokens live for ttl.
func NewRecoveryTokenCache(ttl time.Duration, opts ...RecoveryCacheOption) *RecoveryTokenCache {
	cache := &RecoveryTokenCache{
		tokens: make(map[string]recoveryEntry, 50),
		ttl:    ttl,
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}
	return cache
}

// TTL returns the configured token lifetime.
func (c *RecoveryTokenCache) TTL() time.Duration {
	return c.ttl
}

// Request mints a new token bound to the user id. A user may hold any
// number of outstanding tokens at once.
func (c *RecoveryTokenCache) Request(userID string) (string, error) {
	token, err := NewRecoveryToken()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens[token] = recoveryEntry{
		userID:    userID,
		expiresAt: c.now().Add(c.ttl),
	}
	return token, nil
}

// IsValid reports whether the token exists and has not expired. A token
// found expired is evicted on the spot.
func (c *RecoveryTokenCache) IsValid(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isValidLocked(token)
}

func (c *RecoveryTokenCache) isValidLocked(token string) bool {
	entry, ok := c.tokens[token]
	if !ok {
		return false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.tokens, token)
		return false
	}
	return true
}

// Consume removes a valid token and reports success. Invalid or absent
// tokens leave the cache untouched beyond lazy expiry eviction.
func (c *RecoveryTokenCache) Consume(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isValidLocked(token) {
		return false
	}
	delete(c.tokens, token)
	return true
}

// ResolveUserID returns the user id a token is bound to. It is a pure
// lookup: no expiry check, no mutation. Pair with IsValid for a full
// check.
func (c *RecoveryTokenCache) ResolveUserID(token string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.tokens[token]
	if !ok {
		return "", false
	}
	return entry.userID, true
}

// RevokeAllForUser removes every token bound to the user id regardless
// of expiry and returns how many were removed. Called after a password
// change to prevent replay of older recovery requests.
func (c *RecoveryTokenCache) RevokeAllForUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for token, entry := range c.tokens {
		if entry.userID == userID {
			delete(c.tokens, token)
			removed++
		}
	}
	return removed
}

// SweepExpired removes every entry whose expiry is in the past and
// returns how many were removed. Live entries are never touched.
func (c *RecoveryTokenCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for token, entry := range c.tokens {
		if now.After(entry.expiresAt) {
			delete(c.tokens, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (c *RecoveryTokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}

// Run sweeps the cache on the given interval until the context is done.
// Intended to be started once from the service bootstrap.
func (c *RecoveryTokenCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.SweepExpired(); removed > 0 {
				c.logger.Debug("recovery token sweep removed %d entries", removed)
			}
		}
	}
}
