package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/osdpgw/gateway/pkg/model"
)

type eventEnvelope[E any] struct {
	Event   E                     `json:"event"`
	Outcome model.PipelineOutcome `json:"outcome"`
}

// nextEventKey appends a monotonically increasing sequence number so events
// are stored in insertion order under the given prefix. Append-only storage
// needs no richer key than that.
func (s *Store) nextEventKey(prefix string) ([]byte, error) {
	seq, err := s.db.GetSequence([]byte(prefix+"seq"), 100)
	if err != nil {
		return nil, err
	}
	defer seq.Release()
	n, err := seq.Next()
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%s%020d", prefix, n)), nil
}

func (s *Store) AppendCardEvent(_ context.Context, e model.CardReadEvent, outcome model.PipelineOutcome) error {
	key, err := s.nextEventKey(cardEventPfx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(eventEnvelope[model.CardReadEvent]{Event: e, Outcome: outcome})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error { return txn.Set(key, data) })
}

func (s *Store) AppendPinEvent(_ context.Context, e model.PinReadEvent, outcome model.PipelineOutcome) error {
	key, err := s.nextEventKey(pinEventPfx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(eventEnvelope[model.PinReadEvent]{Event: e, Outcome: outcome})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error { return txn.Set(key, data) })
}
