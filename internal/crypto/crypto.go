// Package crypto implements the vault's authenticated encryption engine.
// Keys are derived from identity seeds, never stored: a principal who can
// compose the right seed can always decrypt their own data. Authorization is
// a separate layer in front of this primitive, never fused with it.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/org/assetvault/internal/fault"
)

// appSalt is the application-wide KDF salt. It is deliberately fixed:
// already-encrypted data depends on it, so changing it (or randomizing it
// per installation) breaks every existing ciphertext.
var appSalt = []byte("assetvault.kdf.salt.v1")

// argon2id parameters for key derivation.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
	keyLen     = 32
)

// Seed composes the deterministic key seed for an entity owned by a
// principal. Same inputs always yield the same seed.
func Seed(entityID, principalID int64, principalName string) string {
	return fmt.Sprintf("%d:%d:%s", entityID, principalID, principalName)
}

// DeriveKey derives a 256-bit key from a seed using argon2id with the fixed
// application salt.
func DeriveKey(seed string) []byte {
	return argon2.IDKey([]byte(seed), appSalt, kdfTime, kdfMemory, kdfThreads, keyLen)
}

// Encrypt seals plaintext under the key derived from seed using AES-256-GCM
// with a fresh random 96-bit nonce. The returned blob is nonce||ciphertext
// (the GCM tag is appended to the ciphertext).
func Encrypt(seed string, plaintext []byte) ([]byte, error) {
	key := DeriveKey(seed)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fault.Wrap(fault.Crypto, err, "creating AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fault.Wrap(fault.Crypto, err, "creating GCM")
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fault.Wrap(fault.Crypto, err, "generating nonce")
	}
	blob := make([]byte, 0, len(nonce)+len(plaintext)+gcm.Overhead())
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. It rejects undersized blobs and
// fails closed on tag mismatch: no partial output is ever returned.
func Decrypt(seed string, blob []byte) ([]byte, error) {
	key := DeriveKey(seed)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fault.Wrap(fault.Crypto, err, "creating AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fault.Wrap(fault.Crypto, err, "creating GCM")
	}
	if len(blob) < gcm.NonceSize()+gcm.Overhead() {
		return nil, fault.Cryptof("encrypted blob too short")
	}
	nonce := blob[:gcm.NonceSize()]
	ciphertext := blob[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fault.Cryptof("decryption failed")
	}
	return plaintext, nil
}
