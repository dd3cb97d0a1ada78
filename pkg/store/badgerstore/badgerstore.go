// Package badgerstore implements store.Repository over an embedded
// dgraph-io/badger/v4 key-value database, as an alternate single-binary
// backend alongside gormstore for deployments that do not want an external
// SQL dependency.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

const (
	readerPrefix   = "reader:"
	mappingPrefix  = "mapping:"
	feedbackKey    = "feedback"
	cardEventPfx   = "event:card:"
	pinEventPfx    = "event:pin:"
)

// Store implements store.Repository backed by a single Badger database.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a Badger database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Healthcheck(_ context.Context) error {
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

func readerKey(id string) []byte { return []byte(readerPrefix + id) }

func (s *Store) SaveReader(_ context.Context, r *model.Reader) error {
	return s.db.Update(func(txn *badger.Txn) error {
		// Enforce unique name the same way a SQL unique index would.
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(readerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var existing model.Reader
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &existing) }); err != nil {
				return err
			}
			if existing.Name == r.Name && existing.ID != r.ID {
				return store.ErrDuplicateReader
			}
		}
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return txn.Set(readerKey(r.ID), data)
	})
}

func (s *Store) LoadReaders(_ context.Context) ([]*model.Reader, error) {
	out := []*model.Reader{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(readerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r model.Reader
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &r) }); err != nil {
				return err
			}
			out = append(out, &r)
		}
		return nil
	})
	return out, err
}

func (s *Store) LoadReader(_ context.Context, id string) (*model.Reader, error) {
	var r model.Reader
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(readerKey(id))
		if err == badger.ErrKeyNotFound {
			return store.ErrReaderNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &r) })
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) DeleteReader(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(readerKey(id)); err == badger.ErrKeyNotFound {
			return store.ErrReaderNotFound
		} else if err != nil {
			return err
		}
		if err := txn.Delete(readerKey(id)); err != nil {
			return err
		}
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(mappingPrefix + id + ":")
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
