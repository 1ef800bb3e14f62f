package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// ErrDecryptionFailed covers both a wrong secret and a corrupted blob. The
// two cases are deliberately indistinguishable.
var ErrDecryptionFailed = errors.New("decryption failed")

// Blob layout: hex(salt[16] || nonce[12] || ciphertext). The offsets are a
// binary contract with previously persisted vaults and must not change.
const (
	saltSize         = 16
	nonceSize        = 12
	keySize          = 32
	pbkdf2Iterations = 100000
)

// Encrypt derives an AES-256 key from secret with PBKDF2-SHA256 and seals
// plaintext with AES-GCM. Salt and nonce are freshly random on every call, so
// encrypting the same plaintext twice yields different blobs.
func Encrypt(plaintext []byte, secret string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesgcm, err := newCipher(secret, salt)
	if err != nil {
		return "", err
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return hex.EncodeToString(blob), nil
}

// Decrypt splits a blob produced by Encrypt back into salt/nonce/ciphertext,
// re-derives the key and opens the ciphertext. Every failure mode maps to
// ErrDecryptionFailed.
func Decrypt(blob string, secret string) ([]byte, error) {
	data, err := hex.DecodeString(blob)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(data) < saltSize+nonceSize+1 {
		return nil, ErrDecryptionFailed
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	aesgcm, err := newCipher(secret, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newCipher(secret string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(secret), salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
