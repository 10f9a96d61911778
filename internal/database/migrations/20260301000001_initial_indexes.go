package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		statements := []string{
			// Random selection counts and offsets within a category and audience
			`CREATE INDEX IF NOT EXISTS idx_prompts_category_nsfw ON prompts (category, nsfw, id)`,
			// Pending queue listing
			`CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions (status, created_at)`,
		}

		for _, stmt := range statements {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, name := range []string{"idx_submissions_status", "idx_prompts_category_nsfw"} {
			if _, err := db.NewRaw("DROP INDEX IF EXISTS " + name).Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop index %s: %w", name, err)
			}
		}

		return nil
	})
}
