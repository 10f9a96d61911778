package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// MaxTextLength caps prompt text so it always fits in an embed description.
const MaxTextLength = 1000

// Prompt represents an approved truth or dare that can be served.
type Prompt struct {
	bun.BaseModel `bun:"table:prompts,alias:p"`

	ID        int64         `bun:",pk,autoincrement"` // Unique numeric identifier
	Category  enum.Category `bun:",notnull"`          // Truth or dare
	Text      string        `bun:",notnull"`          // Prompt text shown to players
	NSFW      bool          `bun:"nsfw,notnull"`      // Only served in age-restricted channels
	Author    string        `bun:",notnull"`          // Opaque submitter ID, empty for imported rows
	CreatedAt time.Time     `bun:",notnull"`          // When the prompt entered the store
}

// NormalizeText trims the text and checks it against the content rules.
func NormalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", ErrTextTooLong
	}

	return text, nil
}
