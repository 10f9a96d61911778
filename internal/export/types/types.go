package types

import (
	dbTypes "github.com/robalyx/todbot/internal/database/types"
)

// Record is one prompt as written to an export file.
type Record struct {
	ID       int64
	Category string
	Text     string
	NSFW     bool
	Author   string
}

// FromPrompt converts a stored prompt into an export record.
func FromPrompt(prompt *dbTypes.Prompt) *Record {
	return &Record{
		ID:       prompt.ID,
		Category: prompt.Category.String(),
		Text:     prompt.Text,
		NSFW:     prompt.NSFW,
		Author:   prompt.Author,
	}
}
