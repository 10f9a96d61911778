package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	dbTypes "github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/robalyx/todbot/internal/export/csv"
	"go.uber.org/zap"
)

// PromptStore is the content store as seen by the importer.
type PromptStore interface {
	Insert(ctx context.Context, category enum.Category, text string, nsfw bool, author string) (*dbTypes.Prompt, error)
	Exists(ctx context.Context, category enum.Category, text string) (bool, error)
}

// ImportResult counts what an import did.
type ImportResult struct {
	Added      int
	Duplicates int
	Skipped    int
}

// ImportCSV loads prompts from csv into the store. Rows with an unknown
// category, blank text or unreadable values are skipped and logged, and rows
// already present are counted as duplicates. IDs in the file are ignored.
func ImportCSV(ctx context.Context, store PromptStore, r io.Reader, logger *zap.Logger) (*ImportResult, error) {
	logger = logger.Named("import")

	records, invalid, err := csv.Read(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Skipped: len(invalid)}
	for _, line := range slices.Sorted(maps.Keys(invalid)) {
		logger.Warn("Skipping row", zap.Int("line", line), zap.Error(invalid[line]))
	}

	for _, record := range records {
		category, err := enum.CategoryString(record.Category)
		if err != nil {
			result.Skipped++
			logger.Warn("Skipping row with unknown category", zap.String("category", record.Category))
			continue
		}

		exists, err := store.Exists(ctx, category, record.Text)
		if errors.Is(err, dbTypes.ErrValidation) {
			result.Skipped++
			logger.Warn("Skipping invalid row", zap.String("text", record.Text), zap.Error(err))
			continue
		}
		if err != nil {
			return result, err
		}
		if exists {
			result.Duplicates++
			continue
		}

		if _, err := store.Insert(ctx, category, record.Text, record.NSFW, record.Author); err != nil {
			return result, fmt.Errorf("failed to import %q: %w", record.Text, err)
		}
		result.Added++
	}

	logger.Info("Imported prompts",
		zap.Int("added", result.Added),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("skipped", result.Skipped))

	return result, nil
}
