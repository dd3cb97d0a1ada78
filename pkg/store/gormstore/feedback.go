package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/osdpgw/gateway/pkg/model"
)

// feedbackSingletonID is the fixed primary key of the one feedback row.
const feedbackSingletonID = 1

// SaveFeedback replaces the singleton feedback configuration.
func (s *GORMStore) SaveFeedback(ctx context.Context, cfg model.FeedbackConfig) error {
	cfg.ID = feedbackSingletonID
	return s.db.WithContext(ctx).Save(&cfg).Error
}

// LoadFeedback returns the feedback configuration, or the built-in defaults
// if none has been saved yet.
func (s *GORMStore) LoadFeedback(ctx context.Context) (model.FeedbackConfig, error) {
	var cfg model.FeedbackConfig
	err := s.db.WithContext(ctx).Where("id = ?", feedbackSingletonID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.FeedbackConfig{
			ID:      feedbackSingletonID,
			Success: model.DefaultSuccessFeedback(),
			Failure: model.DefaultFailureFeedback(),
		}, nil
	}
	if err != nil {
		return model.FeedbackConfig{}, err
	}
	return cfg, nil
}
