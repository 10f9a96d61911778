package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/robalyx/todbot/internal/database/dbretry"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PromptModel handles database operations for served prompts.
type PromptModel struct {
	db     *bun.DB
	logger *zap.Logger
	intn   func(n int) int
}

// NewPrompt creates a new prompt model.
func NewPrompt(db *bun.DB, logger *zap.Logger) *PromptModel {
	return &PromptModel{
		db:     db,
		logger: logger.Named("db_prompt"),
		intn:   rand.IntN,
	}
}

// SetRandomSource replaces the offset generator used by Random.
// The function must return a value in [0, n).
func (m *PromptModel) SetRandomSource(intn func(n int) int) {
	m.intn = intn
}

// Insert stores a prompt using the given database handle, which may be a transaction.
func (m *PromptModel) Insert(ctx context.Context, db bun.IDB, prompt *types.Prompt) error {
	_, err := db.NewInsert().
		Model(prompt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert prompt: %w", err)
	}

	m.logger.Debug("Inserted prompt",
		zap.Int64("id", prompt.ID),
		zap.String("category", prompt.Category.String()),
		zap.Bool("nsfw", prompt.NSFW))

	return nil
}

// Create stores a prompt outside of any transaction.
func (m *PromptModel) Create(ctx context.Context, prompt *types.Prompt) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		return m.Insert(ctx, m.db, prompt)
	})
}

// Count returns the number of prompts in a category with the given safety tag.
func (m *PromptModel) Count(ctx context.Context, category enum.Category, nsfw bool) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Prompt)(nil)).
			Where("category = ?", category).
			Where("nsfw = ?", nsfw).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count prompts: %w", err)
		}

		return count, nil
	})
}

// Random picks one prompt uniformly among those matching the category and safety tag.
// Returns a *types.NoPromptsError when nothing matches.
func (m *PromptModel) Random(ctx context.Context, category enum.Category, nsfw bool) (*types.Prompt, error) {
	count, err := m.Count(ctx, category, nsfw)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, &types.NoPromptsError{Category: category}
	}

	// Prompts are never deleted so every offset below count stays valid
	offset := m.intn(count)

	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Prompt, error) {
		var prompt types.Prompt
		err := m.db.NewSelect().
			Model(&prompt).
			Where("category = ?", category).
			Where("nsfw = ?", nsfw).
			Order("id ASC").
			Offset(offset).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &types.NoPromptsError{Category: category}
			}
			return nil, fmt.Errorf("failed to select prompt at offset %d: %w", offset, err)
		}

		return &prompt, nil
	})
}

// All returns every prompt ordered by ID.
func (m *PromptModel) All(ctx context.Context) ([]*types.Prompt, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Prompt, error) {
		var prompts []*types.Prompt
		err := m.db.NewSelect().
			Model(&prompts).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list prompts: %w", err)
		}

		return prompts, nil
	})
}

// Exists reports whether an identical prompt is already stored.
func (m *PromptModel) Exists(ctx context.Context, category enum.Category, text string) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.Prompt)(nil)).
			Where("category = ?", category).
			Where("text = ?", text).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check prompt: %w", err)
		}

		return exists, nil
	})
}
