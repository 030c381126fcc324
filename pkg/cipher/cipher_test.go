package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{"short message", "hello"},
		{"empty message", ""},
		{"unicode", "héllo wörld 日本語"},
		{"json payload", `{"body":"nested","n":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := Encrypt(tt.plaintext, "room-secret")
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, ciphertext)

			plaintext, err := Decrypt(ciphertext, "room-secret")
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	first, err := Encrypt("same message", "secret")
	require.NoError(t, err)
	second, err := Encrypt("same message", "secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "a fresh nonce must randomize every sealing")
}

func TestDecrypt_WrongSecret(t *testing.T) {
	ciphertext, err := Encrypt("hello", "right-secret")
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "wrong-secret")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecrypt_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty", ""},
		{"shorter than a nonce", "YWJj"},
		{"valid base64 garbage", "aGVsbG8gd29ybGQgdGhpcyBpcyBub3QgYSBzZWFsZWQgcGF5bG9hZA=="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.input, "secret")
			assert.ErrorIs(t, err, ErrInvalidCiphertext)
		})
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	ciphertext, err := Encrypt("hello", "secret")
	require.NoError(t, err)

	// Flip a character of the encoded payload.
	tampered := []byte(ciphertext)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = Decrypt(string(tampered), "secret")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
