// Package memstore is an in-memory store.Repository implementation used by
// unit tests across the gateway.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// ErrClosed is returned by Healthcheck after Close.
var ErrClosed = errors.New("memstore: closed")

type mappingKey struct {
	readerID string
	pluginID string
}

// Store is a goroutine-safe in-memory Repository.
type Store struct {
	mu         sync.RWMutex
	readers    map[string]*model.Reader
	mappings   map[mappingKey]*model.PluginMapping
	feedback   *model.FeedbackConfig
	cardEvents []cardRow
	pinEvents  []pinRow
	closed     bool
}

type cardRow struct {
	event   model.CardReadEvent
	outcome model.PipelineOutcome
}

type pinRow struct {
	event   model.PinReadEvent
	outcome model.PipelineOutcome
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		readers:  make(map[string]*model.Reader),
		mappings: make(map[mappingKey]*model.PluginMapping),
	}
}

func (s *Store) SaveReader(_ context.Context, r *model.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.readers {
		if existing.Name == r.Name && id != r.ID {
			return store.ErrDuplicateReader
		}
	}
	cp := *r
	s.readers[r.ID] = &cp
	return nil
}

func (s *Store) LoadReaders(_ context.Context) ([]*model.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Reader, 0, len(s.readers))
	for _, r := range s.readers {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) LoadReader(_ context.Context, id string) (*model.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readers[id]
	if !ok {
		return nil, store.ErrReaderNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) DeleteReader(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.readers[id]; !ok {
		return store.ErrReaderNotFound
	}
	delete(s.readers, id)
	for k := range s.mappings {
		if k.readerID == id {
			delete(s.mappings, k)
		}
	}
	return nil
}

func (s *Store) ListMappingsForReader(_ context.Context, readerID string) ([]*model.PluginMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.PluginMapping{}
	for k, m := range s.mappings {
		if k.readerID == readerID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutionOrder < out[j].ExecutionOrder })
	return out, nil
}

func (s *Store) ListReadersForPlugin(_ context.Context, pluginID string) ([]*model.PluginMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.PluginMapping{}
	for k, m := range s.mappings {
		if k.pluginID == pluginID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) SetMapping(_ context.Context, m *model.PluginMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, existing := range s.mappings {
		if k.readerID == m.ReaderID && k.pluginID != m.PluginID && existing.ExecutionOrder == m.ExecutionOrder {
			return store.ErrDuplicateOrder
		}
	}
	cp := *m
	s.mappings[mappingKey{m.ReaderID, m.PluginID}] = &cp
	return nil
}

func (s *Store) DeleteMapping(_ context.Context, readerID, pluginID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := mappingKey{readerID, pluginID}
	if _, ok := s.mappings[k]; !ok {
		return store.ErrMappingNotFound
	}
	delete(s.mappings, k)
	return nil
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

func (s *Store) SaveFeedback(_ context.Context, cfg model.FeedbackConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cfg
	s.feedback = &cp
	return nil
}

func (s *Store) LoadFeedback(_ context.Context) (model.FeedbackConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.feedback == nil {
		return model.FeedbackConfig{
			Success: model.DefaultSuccessFeedback(),
			Failure: model.DefaultFailureFeedback(),
		}, nil
	}
	return *s.feedback, nil
}

func (s *Store) AppendCardEvent(_ context.Context, e model.CardReadEvent, outcome model.PipelineOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardEvents = append(s.cardEvents, cardRow{event: e, outcome: outcome})
	return nil
}

func (s *Store) AppendPinEvent(_ context.Context, e model.PinReadEvent, outcome model.PipelineOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinEvents = append(s.pinEvents, pinRow{event: e, outcome: outcome})
	return nil
}

// CardEvents returns every card event appended so far, for test assertions.
func (s *Store) CardEvents() []model.CardReadEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CardReadEvent, len(s.cardEvents))
	for i, r := range s.cardEvents {
		out[i] = r.event
	}
	return out
}

// PinEvents returns every PIN event appended so far, for test assertions.
func (s *Store) PinEvents() []model.PinReadEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PinReadEvent, len(s.pinEvents))
	for i, r := range s.pinEvents {
		out[i] = r.event
	}
	return out
}

func (s *Store) UpdateSecurity(_ context.Context, readerID string, mode model.SecurityMode, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.readers[readerID]
	if !ok {
		return store.ErrReaderNotFound
	}
	r.SecurityMode = mode
	r.SecurityKey = key
	return nil
}

func (s *Store) Healthcheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
