// Package cipher is the reference endpoint-side transform for room traffic.
// The relay itself never encrypts or decrypts: sending endpoints call
// Encrypt with the room secret distributed in meta notifications, receiving
// endpoints call Decrypt. System announcements bypass the transform and
// travel as plaintext.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidCiphertext is returned when a ciphertext cannot be decoded or
// fails authentication (wrong secret or tampered payload).
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Encrypt seals plaintext under the room secret with AES-256-GCM. The key
// is derived from the secret by SHA-256, the random nonce is prepended, and
// the result is base64-encoded for the text-based wire format.
func Encrypt(plaintext, secret string) (string, error) {
	aead, err := newAEAD(secret)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt is the inverse of Encrypt for the same secret.
func Decrypt(ciphertext, secret string) (string, error) {
	aead, err := newAEAD(secret)
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(sealed) < aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, payload := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, payload, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}

func newAEAD(secret string) (stdcipher.AEAD, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build aead: %w", err)
	}
	return aead, nil
}
