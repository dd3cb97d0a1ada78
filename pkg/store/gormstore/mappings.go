package gormstore

import (
	"context"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// ListMappingsForReader returns every plugin mapped to readerID, ordered by
// ExecutionOrder.
func (s *GORMStore) ListMappingsForReader(ctx context.Context, readerID string) ([]*model.PluginMapping, error) {
	results := []*model.PluginMapping{}
	err := s.db.WithContext(ctx).
		Where("reader_id = ?", readerID).
		Order("execution_order asc").
		Find(&results).Error
	return results, err
}

// ListReadersForPlugin returns every reader mapping that references pluginID.
func (s *GORMStore) ListReadersForPlugin(ctx context.Context, pluginID string) ([]*model.PluginMapping, error) {
	return listByField[model.PluginMapping](s.db, ctx, "plugin_id", pluginID)
}

// SetMapping creates or replaces a reader/plugin mapping. A duplicate
// execution order on the same reader is rejected.
func (s *GORMStore) SetMapping(ctx context.Context, m *model.PluginMapping) error {
	var conflict model.PluginMapping
	err := s.db.WithContext(ctx).
		Where("reader_id = ? AND plugin_id <> ? AND execution_order = ?", m.ReaderID, m.PluginID, m.ExecutionOrder).
		First(&conflict).Error
	if err == nil {
		return store.ErrDuplicateOrder
	}
	return s.db.WithContext(ctx).Save(m).Error
}

// DeleteMapping removes the mapping between a reader and a plugin.
func (s *GORMStore) DeleteMapping(ctx context.Context, readerID, pluginID string) error {
	result := s.db.WithContext(ctx).
		Where("reader_id = ? AND plugin_id = ?", readerID, pluginID).
		Delete(&model.PluginMapping{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrMappingNotFound
	}
	return nil
}

// CopyMappings duplicates every mapping from one reader onto another,
// used when cloning a reader's plugin configuration.
func (s *GORMStore) CopyMappings(ctx context.Context, fromReaderID, toReaderID string) error {
	mappings, err := s.ListMappingsForReader(ctx, fromReaderID)
	if err != nil {
		return err
	}
	for _, m := range mappings {
		clone := &model.PluginMapping{
			ReaderID:       toReaderID,
			PluginID:       m.PluginID,
			ExecutionOrder: m.ExecutionOrder,
			Enabled:        m.Enabled,
		}
		if err := s.db.WithContext(ctx).Save(clone).Error; err != nil {
			return err
		}
	}
	return nil
}
