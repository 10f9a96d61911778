package service

import (
	"context"
	"time"

	"github.com/robalyx/todbot/internal/database/models"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// DefaultPendingLimit caps how many pending submissions are listed at once.
const DefaultPendingLimit = 10

// SubmissionService handles the review queue business logic.
type SubmissionService struct {
	submission *models.SubmissionModel
	prompt     *models.PromptModel
	logger     *zap.Logger
}

// NewSubmission creates a new submission service.
func NewSubmission(
	submission *models.SubmissionModel, prompt *models.PromptModel, logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		submission: submission,
		prompt:     prompt,
		logger:     logger.Named("submission_service"),
	}
}

// Create validates a proposed prompt and queues it as Pending.
func (s *SubmissionService) Create(
	ctx context.Context, category enum.Category, text string, nsfw bool, author string,
) (*types.Submission, error) {
	if !category.Valid() {
		return nil, types.ErrUnknownCategory
	}

	text, err := types.NormalizeText(text)
	if err != nil {
		return nil, err
	}

	submission := &types.Submission{
		Category:  category,
		Text:      text,
		NSFW:      nsfw,
		Author:    author,
		CreatedAt: time.Now(),
	}

	if err := s.submission.Create(ctx, submission); err != nil {
		return nil, types.StorageError("insert submission", err)
	}

	s.logger.Debug("Queued submission",
		zap.Int64("id", submission.ID),
		zap.String("category", category.String()))

	return submission, nil
}

// Get returns a submission by ID.
func (s *SubmissionService) Get(ctx context.Context, id int64) (*types.Submission, error) {
	submission, err := s.submission.Get(ctx, id)
	if err != nil {
		return nil, classify("get submission", err)
	}

	return submission, nil
}

// Approve resolves a pending submission as Approved and publishes exactly one
// prompt carrying its category, text, safety tag and author. Both writes share
// one transaction, so a failed prompt insert leaves the submission Pending.
func (s *SubmissionService) Approve(ctx context.Context, id int64, moderator string) (*types.Resolution, error) {
	resolution, err := s.submission.Resolve(ctx, id, enum.SubmissionStatusApproved, moderator,
		func(ctx context.Context, tx bun.Tx, submission *types.Submission) (*types.Prompt, error) {
			prompt := submission.ToPrompt(time.Now())
			if err := s.prompt.Insert(ctx, tx, prompt); err != nil {
				return nil, err
			}
			return prompt, nil
		})
	if err != nil {
		return nil, classify("approve submission", err)
	}

	return resolution, nil
}

// Reject resolves a pending submission as Rejected. No prompt is written.
func (s *SubmissionService) Reject(ctx context.Context, id int64, moderator string) (*types.Resolution, error) {
	resolution, err := s.submission.Resolve(ctx, id, enum.SubmissionStatusRejected, moderator, nil)
	if err != nil {
		return nil, classify("reject submission", err)
	}

	return resolution, nil
}

// ListPending returns up to limit pending submissions, oldest first.
func (s *SubmissionService) ListPending(ctx context.Context, limit int) ([]*types.Submission, error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}

	submissions, err := s.submission.ListPending(ctx, limit)
	if err != nil {
		return nil, types.StorageError("list pending submissions", err)
	}

	return submissions, nil
}
