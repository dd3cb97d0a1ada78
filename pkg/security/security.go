// Package security implements the OSDP Security Service (C7): resolving
// which secure-channel key a device session should use, generating random
// per-device keys, and encrypting keys at rest with a server-held
// key-encryption-key derived via HKDF.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/osdp"
)

// ErrKeyRequired is returned by GetSecurityKey when mode is Secure but no
// key has been stored for the reader.
var ErrKeyRequired = errors.New("security: secure mode requires a stored key")

// KeyLength is the OSDP secure-channel key size in bytes.
const KeyLength = 16

// Service resolves and generates OSDP secure-channel keys.
type Service struct{}

// NewService returns a ready-to-use security service. It carries no state:
// every operation is a pure function of its arguments.
func NewService() *Service { return &Service{} }

// GetSecurityKey returns the key that should be used to register a device
// given its configured mode and, for Secure mode, its stored key.
func (s *Service) GetSecurityKey(mode model.SecurityMode, stored []byte) ([16]byte, error) {
	switch mode {
	case model.SecurityClearText:
		return [16]byte{}, nil
	case model.SecurityInstall:
		return osdp.DefaultInstallationKey, nil
	case model.SecuritySecure:
		if len(stored) != KeyLength {
			return [16]byte{}, ErrKeyRequired
		}
		var key [16]byte
		copy(key[:], stored)
		return key, nil
	default:
		return [16]byte{}, fmt.Errorf("security: unknown mode %q", mode)
	}
}

// GenerateRandomKey returns 16 cryptographically random bytes for a newly
// installed secure channel.
func (s *Service) GenerateRandomKey() ([16]byte, error) {
	var key [16]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("security: generate random key: %w", err)
	}
	return key, nil
}

// GetDefaultInstallationKey returns the well-known base key used in Install
// mode before a random per-device key has been installed.
func (s *Service) GetDefaultInstallationKey() [16]byte {
	return osdp.DefaultInstallationKey
}

// KeyCipher encrypts secure-channel keys at rest with AES-256-GCM, keyed by
// a key-encryption-key derived from a master secret via HKDF-SHA256. This
// is the implementation's choice of "protection" for the key-at-rest
// requirement in the reader data model; the master secret is read from the
// environment variable the security configuration names, never hardcoded.
type KeyCipher struct {
	aead cipher.AEAD
}

// NewKeyCipher derives a 32-byte AES-256 key from masterSecret via HKDF and
// constructs the AEAD used to seal/open stored secure-channel keys.
func NewKeyCipher(masterSecret []byte) (*KeyCipher, error) {
	if len(masterSecret) == 0 {
		return nil, errors.New("security: master secret must not be empty")
	}

	kek := make([]byte, 32)
	kdf := hkdf.New(sha256.New, masterSecret, nil, []byte("osdpgw-reader-key-encryption"))
	if _, err := io.ReadFull(kdf, kek); err != nil {
		return nil, fmt.Errorf("security: derive key-encryption-key: %w", err)
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("security: new AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: new GCM AEAD: %w", err)
	}

	return &KeyCipher{aead: aead}, nil
}

// Seal encrypts a 16-byte secure-channel key for storage. The returned blob
// is nonce || ciphertext || tag.
func (c *KeyCipher) Seal(key [16]byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("security: generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, key[:], nil), nil
}

// Open decrypts a blob produced by Seal back into a 16-byte key.
func (c *KeyCipher) Open(blob []byte) ([16]byte, error) {
	var key [16]byte
	nonceSize := c.aead.NonceSize()
	if len(blob) < nonceSize {
		return key, errors.New("security: stored key blob too short")
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return key, fmt.Errorf("security: decrypt stored key: %w", err)
	}
	if len(plain) != KeyLength {
		return key, errors.New("security: decrypted key has wrong length")
	}
	copy(key[:], plain)
	return key, nil
}
