package gormstore

import (
	"context"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// SaveReader creates or replaces a reader by ID.
func (s *GORMStore) SaveReader(ctx context.Context, r *model.Reader) error {
	return upsert(s.db, ctx, r, store.ErrDuplicateReader)
}

// LoadReaders returns every configured reader.
func (s *GORMStore) LoadReaders(ctx context.Context) ([]*model.Reader, error) {
	return listAll[model.Reader](s.db, ctx)
}

// LoadReader returns a single reader by ID.
func (s *GORMStore) LoadReader(ctx context.Context, id string) (*model.Reader, error) {
	return getByField[model.Reader](s.db, ctx, "id", id, store.ErrReaderNotFound)
}

// DeleteReader removes a reader and its plugin mappings.
func (s *GORMStore) DeleteReader(ctx context.Context, id string) error {
	if err := deleteByField[model.Reader](s.db, ctx, "id", id, store.ErrReaderNotFound); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("reader_id = ?", id).Delete(&model.PluginMapping{}).Error
}
