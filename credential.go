package identity

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. The salt is the user's security stamp, generated
// per password change, so it is passed in rather than drawn here.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
)

// HashPassword derives an encoded argon2id hash from a password and its
// security stamp. The stamp must be freshly generated for every password
// change; reusing an old stamp defeats the point of storing one.
func HashPassword(password, stamp string) (string, error) {
	if password == "" {
		return "", ErrPasswordIsEmpty
	}
	if stamp == "" {
		return "", ErrPasswordCannotBeMade
	}

	key := argon2.IDKey([]byte(password), []byte(stamp), argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString([]byte(stamp)),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the encoded hash. An
// empty password never matches and short-circuits before any key
// derivation. A hash that cannot be parsed is a cryptographic fault and
// surfaces as ErrHashIsInvalid rather than a mismatch.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	salt, key, params, err := parseEncodedHash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func parseEncodedHash(encodedHash string) ([]byte, []byte, argonParams, error) {
	var params argonParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, params, ErrHashIsInvalid
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, params, ErrHashIsInvalid
	}

	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, nil, params, ErrHashIsInvalid
		}
		v, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return nil, nil, params, ErrHashIsInvalid
		}
		switch kv[0] {
		case "m":
			params.memory = uint32(v)
		case "t":
			params.time = uint32(v)
		case "p":
			params.threads = uint8(v)
		default:
			return nil, nil, params, ErrHashIsInvalid
		}
	}
	if params.memory == 0 || params.time == 0 || params.threads == 0 {
		return nil, nil, params, ErrHashIsInvalid
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, nil, params, ErrHashIsInvalid
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, params, ErrHashIsInvalid
	}

	return salt, key, params, nil
}
