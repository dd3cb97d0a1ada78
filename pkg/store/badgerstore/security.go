package badgerstore

import (
	"context"
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

func (s *Store) UpdateSecurity(_ context.Context, readerID string, mode model.SecurityMode, key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(readerKey(readerID))
		if err == badger.ErrKeyNotFound {
			return store.ErrReaderNotFound
		}
		if err != nil {
			return err
		}
		var r model.Reader
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &r) }); err != nil {
			return err
		}
		r.SecurityMode = mode
		r.SecurityKey = key
		data, err := json.Marshal(&r)
		if err != nil {
			return err
		}
		return txn.Set(readerKey(readerID), data)
	})
}
