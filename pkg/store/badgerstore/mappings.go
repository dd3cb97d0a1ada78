package badgerstore

import (
	"context"
	"encoding/json"
	"sort"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

func mappingKey(readerID, pluginID string) []byte {
	return []byte(mappingPrefix + readerID + ":" + pluginID)
}

func (s *Store) ListMappingsForReader(_ context.Context, readerID string) ([]*model.PluginMapping, error) {
	out := []*model.PluginMapping{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(mappingPrefix + readerID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m model.PluginMapping
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &m) }); err != nil {
				return err
			}
			out = append(out, &m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutionOrder < out[j].ExecutionOrder })
	return out, err
}

func (s *Store) ListReadersForPlugin(_ context.Context, pluginID string) ([]*model.PluginMapping, error) {
	out := []*model.PluginMapping{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(mappingPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m model.PluginMapping
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &m) }); err != nil {
				return err
			}
			if m.PluginID == pluginID {
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) SetMapping(_ context.Context, m *model.PluginMapping) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(mappingPrefix + m.ReaderID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var existing model.PluginMapping
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &existing) }); err != nil {
				return err
			}
			if existing.PluginID != m.PluginID && existing.ExecutionOrder == m.ExecutionOrder {
				return store.ErrDuplicateOrder
			}
		}
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return txn.Set(mappingKey(m.ReaderID, m.PluginID), data)
	})
}

func (s *Store) DeleteMapping(_ context.Context, readerID, pluginID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(mappingKey(readerID, pluginID)); err == badger.ErrKeyNotFound {
			return store.ErrMappingNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(mappingKey(readerID, pluginID))
	})
}

func (s *Store) CopyMappings(ctx context.Context, fromReaderID, toReaderID string) error {
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
		if err := s.SetMapping(ctx, clone); err != nil {
			return err
		}
	}
	return nil
}
