package session

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrSealedData is returned when sealed data is truncated or fails
// authentication.
var ErrSealedData = errors.New("sealed data is corrupt or was sealed with another key")

// Sealer encrypts session records at rest with XChaCha20-Poly1305. The key
// is derived from the configured session secret.
type Sealer struct {
	key []byte
}

// NewSealer derives a sealing key from secret.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}
	// Domain-separate from the token signing key, which uses the raw secret.
	sum := sha256.Sum256([]byte("sharegate/session-seal:" + secret))
	return &Sealer{key: sum[:]}, nil
}

// Seal encrypts plaintext. The output is nonce || ciphertext. additional
// binds the ciphertext to a context such as the session id.
func (s *Sealer) Seal(plaintext, additional []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	out := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(out, out, plaintext, additional), nil
}

// Open decrypts data produced by Seal with the same additional data.
func (s *Sealer) Open(data, additional []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealedData
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, ErrSealedData
	}
	return plain, nil
}
