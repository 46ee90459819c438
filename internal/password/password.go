// Package password hashes and verifies user passwords.
//
// New hashes are argon2id. Verification also understands bcrypt hashes so
// accounts created before the switch keep working until their next login,
// when NeedsRehash tells the caller to upgrade them.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmpty = errors.New("password is required")

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

const argon2Prefix = "$argon2id$"

// Hash creates an argon2id hash of the password encoded as
// $argon2id$v=19$m=65536,t=3,p=4$salt$hash
func Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmpty
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(plaintext),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if a password matches the stored hash
func Verify(encodedHash, plaintext string) bool {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return verifyArgon2(encodedHash, plaintext)
	case isBcrypt(encodedHash):
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(plaintext)) == nil
	default:
		return false
	}
}

// NeedsRehash reports whether the hash was produced by bcrypt or with
// argon2id parameters other than the current ones.
func NeedsRehash(encodedHash string) bool {
	if isBcrypt(encodedHash) {
		return true
	}

	p, _, _, err := decodeArgon2(encodedHash)
	if err != nil {
		return true
	}

	return p.version != argon2.Version ||
		p.memory != argon2Memory ||
		p.time != argon2Time ||
		p.threads != argon2Threads
}

type argon2Params struct {
	version int
	memory  uint32
	time    uint32
	threads uint8
}

func decodeArgon2(encodedHash string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("invalid argon2id hash format")
	}

	if _, err := fmt.Sscanf(parts[2], "v=%d", &p.version); err != nil {
		return p, nil, nil, fmt.Errorf("invalid version: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("invalid parameters: %w", err)
	}
	// argon2.IDKey panics on zero passes or lanes
	if p.time < 1 || p.threads < 1 {
		return p, nil, nil, errors.New("invalid parameters: time and threads must be at least 1")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("invalid salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("invalid hash: %w", err)
	}

	return p, salt, hash, nil
}

func verifyArgon2(encodedHash, plaintext string) bool {
	p, salt, decodedHash, err := decodeArgon2(encodedHash)
	if err != nil || len(decodedHash) == 0 {
		return false
	}

	inputHash := argon2.IDKey(
		[]byte(plaintext),
		salt,
		p.time,
		p.memory,
		p.threads,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}

func isBcrypt(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}
