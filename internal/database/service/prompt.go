package service

import (
	"context"
	"errors"
	"time"

	"github.com/robalyx/todbot/internal/database/models"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"go.uber.org/zap"
)

// PromptService handles content store business logic.
type PromptService struct {
	model  *models.PromptModel
	logger *zap.Logger
}

// NewPrompt creates a new prompt service.
func NewPrompt(model *models.PromptModel, logger *zap.Logger) *PromptService {
	return &PromptService{
		model:  model,
		logger: logger.Named("prompt_service"),
	}
}

// Insert validates and stores a prompt, making it servable immediately.
func (s *PromptService) Insert(
	ctx context.Context, category enum.Category, text string, nsfw bool, author string,
) (*types.Prompt, error) {
	if !category.Valid() {
		return nil, types.ErrUnknownCategory
	}

	text, err := types.NormalizeText(text)
	if err != nil {
		return nil, err
	}

	prompt := &types.Prompt{
		Category:  category,
		Text:      text,
		NSFW:      nsfw,
		Author:    author,
		CreatedAt: time.Now(),
	}

	if err := s.model.Create(ctx, prompt); err != nil {
		return nil, types.StorageError("insert prompt", err)
	}

	return prompt, nil
}

// Random returns a uniformly chosen prompt of the category with the given safety tag.
func (s *PromptService) Random(ctx context.Context, category enum.Category, nsfw bool) (*types.Prompt, error) {
	if !category.Valid() {
		return nil, types.ErrUnknownCategory
	}

	prompt, err := s.model.Random(ctx, category, nsfw)
	if err != nil {
		return nil, classify("select prompt", err)
	}

	return prompt, nil
}

// Count returns how many prompts of the category carry the given safety tag.
func (s *PromptService) Count(ctx context.Context, category enum.Category, nsfw bool) (int, error) {
	count, err := s.model.Count(ctx, category, nsfw)
	if err != nil {
		return 0, types.StorageError("count prompts", err)
	}

	return count, nil
}

// All returns every stored prompt.
func (s *PromptService) All(ctx context.Context) ([]*types.Prompt, error) {
	prompts, err := s.model.All(ctx)
	if err != nil {
		return nil, types.StorageError("list prompts", err)
	}

	return prompts, nil
}

// Exists reports whether a prompt with the same category and text is stored.
func (s *PromptService) Exists(ctx context.Context, category enum.Category, text string) (bool, error) {
	text, err := types.NormalizeText(text)
	if err != nil {
		return false, err
	}

	exists, err := s.model.Exists(ctx, category, text)
	if err != nil {
		return false, types.StorageError("check prompt", err)
	}

	return exists, nil
}

// classify passes validation and not-found errors through and wraps anything
// else as a storage failure.
func classify(op string, err error) error {
	if errors.Is(err, types.ErrValidation) || errors.Is(err, types.ErrNotFound) {
		return err
	}

	return types.StorageError(op, err)
}
