// Package seal encrypts the persisted token pair so a copied database file
// does not leak a live session.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrSealedDataInvalid is returned when the ciphertext is malformed or was
// produced with a different secret.
var ErrSealedDataInvalid = errors.New("seal: sealed data invalid")

const keySize = 32

// Sealer seals and opens small payloads with a key derived from the
// configured vault secret.
type Sealer struct {
	aead cipher.AEAD
}

// New derives the sealing key from the secret and prepares the cipher.
func New(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, fmt.Errorf("seal: secret is required")
	}

	key := make([]byte, keySize)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte("cuentas-claras-panel-vault"))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("seal: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("seal: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("seal: init gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts the payload. The nonce is prepended to the ciphertext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	if s == nil || s.aead == nil {
		return nil, fmt.Errorf("seal: sealer not initialized")
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seal: generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if s == nil || s.aead == nil {
		return nil, fmt.Errorf("seal: sealer not initialized")
	}
	if len(sealed) < s.aead.NonceSize() {
		return nil, ErrSealedDataInvalid
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrSealedDataInvalid
	}
	return plaintext, nil
}
