// Package secrets seals credential secrets before they are written to storage
// and opens them again when they are read back.
package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length of a sealing key in bytes
const KeySize = chacha20poly1305.KeySize

var (
	// ErrInvalidKey is returned when a key has the wrong length
	ErrInvalidKey = errors.New("sealing key must be 32 bytes")

	// ErrMalformedCiphertext is returned when sealed data is too short or fails authentication
	ErrMalformedCiphertext = errors.New("sealed value is malformed or was not sealed with this key")
)

// Sealer encrypts and authenticates small secret values.
// Implementations are safe for concurrent use.
type Sealer interface {
	// Seal returns nonce||ciphertext for plaintext
	Seal(plaintext []byte) ([]byte, error)

	// Open reverses Seal
	Open(sealed []byte) ([]byte, error)

	// KeyID identifies the key, stored alongside sealed rows
	KeyID() string
}

type xchachaSealer struct {
	aead  cipher.AEAD
	keyID string
}

// NewSealer creates an XChaCha20-Poly1305 sealer from a 32 byte key.
func NewSealer(key []byte, keyID string) (Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &xchachaSealer{aead: aead, keyID: keyID}, nil
}

// NewRandomKey returns a fresh random key.
func NewRandomKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

func (s *xchachaSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *xchachaSealer) Open(sealed []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return nil, ErrMalformedCiphertext
	}

	plaintext, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, ErrMalformedCiphertext
	}
	return plaintext, nil
}

func (s *xchachaSealer) KeyID() string {
	return s.keyID
}
