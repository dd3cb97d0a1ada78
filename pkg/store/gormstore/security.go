package gormstore

import (
	"context"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// UpdateSecurity atomically switches a reader to mode with key, called after
// a successful secure-channel installation or explicit key rotation.
func (s *GORMStore) UpdateSecurity(ctx context.Context, readerID string, mode model.SecurityMode, key []byte) error {
	result := s.db.WithContext(ctx).
		Model(&model.Reader{}).
		Where("id = ?", readerID).
		Updates(map[string]any{
			"security_mode": mode,
			"security_key":  key,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrReaderNotFound
	}
	return nil
}
