package security

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	legacyPBKDF2Iterations = 100000
	legacyPBKDF2KeyLen     = 64
)

// verifyLegacy checks the formats accounts were stored with before argon2id:
// "<salt>$<hex pbkdf2-sha512>" and unsalted hex md5, sha1, sha256 or sha512 digests.
func verifyLegacy(password, stored string) (bool, error) {
	if stored == "" {
		return false, ErrInvalidHash
	}

	if salt, digest, ok := strings.Cut(stored, "$"); ok {
		if salt == "" || digest == "" {
			return false, ErrInvalidHash
		}
		want, err := hex.DecodeString(digest)
		if err != nil {
			return false, ErrInvalidHash
		}
		got := pbkdf2.Key([]byte(password), []byte(salt), legacyPBKDF2Iterations, legacyPBKDF2KeyLen, sha512.New)
		return subtle.ConstantTimeCompare(want, got) == 1, nil
	}

	var fn func() hash.Hash
	switch len(stored) {
	case 32:
		fn = md5.New
	case 40:
		fn = sha1.New
	case 64:
		fn = sha256.New
	case 128:
		fn = sha512.New
	default:
		return false, ErrInvalidHash
	}

	want, err := hex.DecodeString(strings.ToLower(stored))
	if err != nil {
		return false, ErrInvalidHash
	}
	h := fn()
	h.Write([]byte(password))
	return subtle.ConstantTimeCompare(want, h.Sum(nil)) == 1, nil
}
