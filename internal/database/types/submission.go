package types

import (
	"time"

	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// Submission represents a proposed prompt awaiting moderator review.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID         int64                 `bun:",pk,autoincrement"` // Unique numeric identifier
	Category   enum.Category         `bun:",notnull"`          // Truth or dare
	Text       string                `bun:",notnull"`          // Proposed prompt text
	NSFW       bool                  `bun:"nsfw,notnull"`      // Declared by the submitter
	Author     string                `bun:",notnull"`          // Opaque submitter ID
	Status     enum.SubmissionStatus `bun:",notnull"`          // Pending, approved or rejected
	CreatedAt  time.Time             `bun:",notnull"`          // When the submission was made
	ReviewedBy string                `bun:",nullzero"`         // Moderator who resolved the submission
	ReviewedAt time.Time             `bun:",nullzero"`         // When the submission was resolved
}

// ToPrompt builds the prompt that an approval of this submission publishes.
func (s *Submission) ToPrompt(now time.Time) *Prompt {
	return &Prompt{
		Category:  s.Category,
		Text:      s.Text,
		NSFW:      s.NSFW,
		Author:    s.Author,
		CreatedAt: now,
	}
}

// Resolution describes the outcome of a review decision.
type Resolution struct {
	// Submission is the row after the decision was applied.
	Submission *Submission
	// Prompt is set when the decision published a new prompt.
	Prompt *Prompt
	// AlreadyResolved is true when another moderator decided first.
	// Nothing was changed by this call in that case.
	AlreadyResolved bool
}
