package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/org/assetvault/internal/fault"
)

// Reuse hashes use argon2id with a random per-hash salt so only hashes are
// ever stored or compared. Encoded form: base64(salt) + "$" + base64(key).
const (
	reuseSaltLen = 16
	reuseTime    = 2
	reuseMemory  = 64 * 1024
	reuseThreads = 4
	reuseKeyLen  = 32
)

// HashForReuse computes a slow salted hash of a password for reuse detection.
func HashForReuse(pw string) (string, error) {
	salt := make([]byte, reuseSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fault.Wrap(fault.Crypto, err, "generating reuse salt")
	}
	key := argon2.IDKey([]byte(pw), salt, reuseTime, reuseMemory, reuseThreads, reuseKeyLen)
	return base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(key), nil
}

// MatchesHash reports whether pw is the password behind an encoded reuse
// hash. Malformed hashes never match.
func MatchesHash(pw, encoded string) bool {
	saltPart, keyPart, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(saltPart)
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(keyPart)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(pw), salt, reuseTime, reuseMemory, reuseThreads, reuseKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// HistoryHashes is the slice of storage the reuse checker needs: encoded
// hashes from retained password history, optionally excluding one secret.
type HistoryHashes interface {
	PasswordHistoryHashes(ctx context.Context, excludeSecretID *int64) ([]string, error)
}

// ReuseChecker detects password reuse across retained history.
type ReuseChecker struct {
	store HistoryHashes
}

// NewReuseChecker creates a ReuseChecker over the given history store.
func NewReuseChecker(store HistoryHashes) *ReuseChecker {
	return &ReuseChecker{store: store}
}

// IsReused reports whether pw matches any retained history hash. Retired
// entries still count until pruned: a password rotated away remains blocked
// for its retention window. excludeSecretID skips the secret being edited.
func (c *ReuseChecker) IsReused(ctx context.Context, pw string, excludeSecretID *int64) (bool, error) {
	hashes, err := c.store.PasswordHistoryHashes(ctx, excludeSecretID)
	if err != nil {
		return false, fault.Persistencef(err, "loading password history")
	}
	for _, h := range hashes {
		if MatchesHash(pw, h) {
			return true, nil
		}
	}
	return false, nil
}
