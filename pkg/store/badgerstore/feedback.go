package badgerstore

import (
	"context"
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/osdpgw/gateway/pkg/model"
)

func (s *Store) SaveFeedback(_ context.Context, cfg model.FeedbackConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(feedbackKey), data)
	})
}

func (s *Store) LoadFeedback(_ context.Context) (model.FeedbackConfig, error) {
	var cfg model.FeedbackConfig
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(feedbackKey))
		if err == badger.ErrKeyNotFound {
			cfg = model.FeedbackConfig{
				Success: model.DefaultSuccessFeedback(),
				Failure: model.DefaultFailureFeedback(),
			}
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &cfg) })
	})
	return cfg, err
}
