package configsvc

import (
	"context"
	"fmt"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// FeedbackConfigService owns the singleton Success/Failure/Idle-state
// feedback records, falling back to the built-in
// defaults when none has been saved yet.
type FeedbackConfigService struct {
	store store.FeedbackStore
}

// NewFeedbackConfigService constructs a FeedbackConfigService.
func NewFeedbackConfigService(s store.FeedbackStore) *FeedbackConfigService {
	return &FeedbackConfigService{store: s}
}

// Get returns the current feedback configuration, or the built-in defaults
// if none has been saved.
func (s *FeedbackConfigService) Get(ctx context.Context) (model.FeedbackConfig, error) {
	cfg, err := s.store.LoadFeedback(ctx)
	if err != nil {
		return model.FeedbackConfig{}, fmt.Errorf("configsvc: load feedback: %w", err)
	}
	if cfg.Success == (model.ReaderFeedback{}) {
		cfg.Success = model.DefaultSuccessFeedback()
	}
	if cfg.Failure == (model.ReaderFeedback{}) {
		cfg.Failure = model.DefaultFailureFeedback()
	}
	return cfg, nil
}

// Set persists a new feedback configuration.
func (s *FeedbackConfigService) Set(ctx context.Context, cfg model.FeedbackConfig) error {
	if err := s.store.SaveFeedback(ctx, cfg); err != nil {
		return fmt.Errorf("configsvc: save feedback: %w", err)
	}
	return nil
}
