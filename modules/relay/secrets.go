package relay

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
)

// secretBytes is the raw length of a generated room secret.
const secretBytes = 32

// SecretManager issues one symmetric key per room. A key is generated when
// the first member joins and discarded when the room empties, so a later
// incarnation of the same room id never shares ciphertext with the previous
// one. Setting a static secret pins a single process-wide value instead,
// matching the original deployment shape.
type SecretManager struct {
	mu      sync.Mutex
	static  string
	secrets map[string]string // roomID -> secret
}

// NewSecretManager creates a secret manager. An empty static secret enables
// per-room key generation.
func NewSecretManager(staticSecret string) *SecretManager {
	return &SecretManager{
		static:  staticSecret,
		secrets: make(map[string]string),
	}
}

// Secret returns the secret for a room, generating one on first use.
func (s *SecretManager) Secret(roomID string) (string, error) {
	if s.static != "" {
		return s.static, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if secret, ok := s.secrets[roomID]; ok {
		return secret, nil
	}

	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate room secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)
	s.secrets[roomID] = secret
	return secret, nil
}

// Drop discards the secret for a room. Called when the room empties.
func (s *SecretManager) Drop(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, roomID)
}
