// Package crypto seals vault payloads with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeyLength is the AES-256 key size in bytes.
const KeyLength = 32

var (
	ErrInvalidKey        = errors.New("invalid key length: must be 32 bytes for AES-256")
	ErrMalformedCipher   = errors.New("malformed sealed value")
	ErrAuthenticationTag = errors.New("sealed value failed authentication")
)

// Sealer encrypts and decrypts opaque blobs with one key.
type Sealer struct {
	aead cipher.AEAD
	key  []byte
	rand io.Reader
}

// NewSealer builds a Sealer from a raw 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead, key: append([]byte(nil), key...), rand: rand.Reader}, nil
}

// DeriveKey returns HMAC-SHA256(key, label), a subkey for purposes other than
// sealing. Different labels give independent subkeys.
func (s *Sealer) DeriveKey(label string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(label))
	return mac.Sum(nil)
}

// NewSealerFromBase64 decodes a base64 key, as stored in ENCRYPTION_KEY.
func NewSealerFromBase64(encoded string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	return NewSealer(key)
}

// Seal encrypts plaintext and binds it to additionalData, typically the vault id.
// The result is base64(nonce || ciphertext).
func (s *Sealer) Seal(plaintext, additionalData []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, additionalData)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. additionalData must match the value used when sealing.
func (s *Sealer) Open(sealed string, additionalData []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCipher, err)
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize+s.aead.Overhead() {
		return nil, ErrMalformedCipher
	}
	plaintext, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], additionalData)
	if err != nil {
		return nil, ErrAuthenticationTag
	}
	return plaintext, nil
}
