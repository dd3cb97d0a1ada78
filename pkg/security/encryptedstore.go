package security

import (
	"context"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// EncryptedStore wraps a store.Repository, sealing a reader's secure-channel
// key with a KeyCipher before it reaches the backend and opening it again
// on the way out. This is the gateway's choice of "protection" for the
// at-rest requirement in the reader data model; callers that
// don't configure a master secret use the backend's raw-bytes storage
// instead by never constructing one of these.
type EncryptedStore struct {
	store.Repository
	cipher *KeyCipher
}

// NewEncryptedStore wraps repo so every SecurityKey read or written passes
// through cipher.
func NewEncryptedStore(repo store.Repository, cipher *KeyCipher) *EncryptedStore {
	return &EncryptedStore{Repository: repo, cipher: cipher}
}

// SaveReader seals r.SecurityKey before delegating, then restores the
// caller's in-memory copy to its plaintext form.
func (s *EncryptedStore) SaveReader(ctx context.Context, r *model.Reader) error {
	plain := r.SecurityKey
	if len(plain) == KeyLength {
		var key [16]byte
		copy(key[:], plain)
		sealed, err := s.cipher.Seal(key)
		if err != nil {
			return err
		}
		r.SecurityKey = sealed
	}
	err := s.Repository.SaveReader(ctx, r)
	r.SecurityKey = plain
	return err
}

// LoadReader opens the stored key, if any, back into plaintext before
// returning.
func (s *EncryptedStore) LoadReader(ctx context.Context, id string) (*model.Reader, error) {
	r, err := s.Repository.LoadReader(ctx, id)
	if err != nil {
		return nil, err
	}
	s.openKey(r)
	return r, nil
}

// LoadReaders opens every stored key back into plaintext before returning.
func (s *EncryptedStore) LoadReaders(ctx context.Context) ([]*model.Reader, error) {
	readers, err := s.Repository.LoadReaders(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range readers {
		s.openKey(r)
	}
	return readers, nil
}

// UpdateSecurity seals key before delegating to the backend.
func (s *EncryptedStore) UpdateSecurity(ctx context.Context, readerID string, mode model.SecurityMode, key []byte) error {
	if len(key) != KeyLength {
		return s.Repository.UpdateSecurity(ctx, readerID, mode, key)
	}
	var k [16]byte
	copy(k[:], key)
	sealed, err := s.cipher.Seal(k)
	if err != nil {
		return err
	}
	return s.Repository.UpdateSecurity(ctx, readerID, mode, sealed)
}

func (s *EncryptedStore) openKey(r *model.Reader) {
	if len(r.SecurityKey) == 0 {
		return
	}
	key, err := s.cipher.Open(r.SecurityKey)
	if err != nil {
		logger.Warn("security: failed to decrypt stored reader key, treating as absent", logger.ReaderID(r.ID), logger.Err(err))
		r.SecurityKey = nil
		return
	}
	r.SecurityKey = key[:]
}

var _ store.Repository = (*EncryptedStore)(nil)
