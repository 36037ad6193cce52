// Package identity provides the credential and token backbone of a small
// identity backend: salted password hashing, a user record store over an
// ordered key/value tree, signed time-bounded session claims, a recovery
// token cache, and per-user flags.
//
// Storage:
//   - User records are JSON blobs keyed by user id in a Tree. The Tree
//     interface is satisfied by an in-memory map (tests) and by a single
//     SQLite table managed through Bun. One id, "ADMIN", is reserved and
//     bootstrapped by UserStore.Setup.
//
// Tokens:
//   - TokenService signs HS256 JWTs with registered claims only. Session
//     and password-change tokens differ only in lifetime. Decode maps
//     library failures onto the package's structured errors so callers
//     can branch on category.
//
// Recovery:
//   - RecoveryTokenCache holds one-time password recovery tokens in
//     memory with lazy expiry on read plus a periodic sweep. Tokens are
//     consumed on use and every outstanding token for a user is revoked
//     when their password changes.
//
// Services:
//   - PersonService, AdminService and RecoveryService compose the pieces
//     into the self-service, administrative and forgot-password flows
//     that HTTPController exposes over fiber.
package identity
