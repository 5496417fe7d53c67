// Package security hashes and verifies account passwords.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/freshmart/storefront-backend/pkg/config"
)

var ErrInvalidHash = errors.New("invalid password hash")

const argonPrefix = "$argon2id$"

var b64 = base64.RawStdEncoding

// argonParams are the cost settings encoded into every argon2id hash.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

func paramsFor(cfg config.PasswordConfig) argonParams {
	return argonParams{
		memory:  bounded(cfg.ArgonMemoryKB, 8, 1<<19),
		time:    bounded(cfg.ArgonTime, 1, 10),
		threads: uint8(bounded(cfg.ArgonParallelism, 1, 255)),
		saltLen: bounded(cfg.ArgonSaltLen, 8, 64),
		keyLen:  bounded(cfg.ArgonKeyLen, 16, 64),
	}
}

func bounded(v, lo, hi int) uint32 {
	return uint32(min(max(v, lo), hi))
}

// HashPassword returns an encoded argon2id hash:
// $argon2id$v=19$m=<kb>,t=<passes>,p=<threads>$<salt>$<key>
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	p := paramsFor(cfg)
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix, argon2.Version, p.memory, p.time, p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword compares password against an argon2id hash or one of the
// legacy formats accepted by verifyLegacy.
func VerifyPassword(password, encoded string) (bool, error) {
	encoded = strings.TrimSpace(encoded)
	if !strings.HasPrefix(encoded, argonPrefix) {
		return verifyLegacy(password, encoded)
	}
	p, salt, key, err := parseArgon(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(key, got) == 1, nil
}

// NeedsRehash is true for legacy hashes and for argon2id hashes whose cost
// settings differ from cfg.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	encoded = strings.TrimSpace(encoded)
	if !strings.HasPrefix(encoded, argonPrefix) {
		return true
	}
	p, _, _, err := parseArgon(encoded)
	if err != nil {
		return true
	}
	return p != paramsFor(cfg)
}

func parseArgon(encoded string) (argonParams, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	var p argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	p.saltLen = uint32(len(salt))
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}
