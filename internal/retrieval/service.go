// Package retrieval serves random prompts for the channel a player is in.
package retrieval

import (
	"context"

	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"go.uber.org/zap"
)

// Store picks a random prompt with an exact safety tag.
type Store interface {
	Random(ctx context.Context, category enum.Category, nsfw bool) (*types.Prompt, error)
}

// Context describes where a prompt is requested.
type Context struct {
	// NSFWChannel is true when the channel is age-restricted.
	NSFWChannel bool
}

// Service serves prompts whose safety tag always equals the request context's.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a new retrieval service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.Named("retrieval"),
	}
}

// Serve returns a random prompt of the category suited to the request context.
func (s *Service) Serve(ctx context.Context, category enum.Category, reqCtx Context) (*types.Prompt, error) {
	prompt, err := s.store.Random(ctx, category, reqCtx.NSFWChannel)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Served prompt",
		zap.Int64("id", prompt.ID),
		zap.String("category", category.String()),
		zap.Bool("nsfw", prompt.NSFW))

	return prompt, nil
}
