// Package moderation runs the review of submitted prompts.
//
// A submission is Pending until a moderator approves or rejects it, and it
// leaves Pending exactly once. Deferred reviews are resolved later by ID with
// Approve and Reject. Live reviews post an artifact with accept and deny
// affordances and honor the first event routed to it before a deadline.
// Both modes resolve through the same conditional update in the store.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultReviewTimeout is how long a live review stays open.
const DefaultReviewTimeout = 600 * time.Second

// retractTimeout bounds the notifier call that removes affordances after a
// review is settled.
const retractTimeout = 10 * time.Second

var (
	// ErrCooldown is returned when an author submits again too soon.
	ErrCooldown = fmt.Errorf("%w: you are submitting too quickly, please wait a moment", types.ErrValidation)
	// ErrReviewClosed is returned for events targeting an unknown or expired live review.
	ErrReviewClosed = errors.New("review is closed")
	// ErrUnknownAffordance is returned for events naming neither accept nor deny.
	ErrUnknownAffordance = fmt.Errorf("%w: unknown review action", types.ErrValidation)
)

// Affordance names a resolution action on a live review artifact.
type Affordance string

const (
	AffordanceAccept Affordance = "accept"
	AffordanceDeny   Affordance = "deny"
)

// MessageRef identifies a posted review artifact.
type MessageRef struct {
	ChannelID uint64
	MessageID uint64
}

// ReviewPost asks the presentation layer to show a submission to moderators.
type ReviewPost struct {
	Submission *types.Submission
	// Token routes resolution events back to the live review. Empty in deferred mode.
	Token string
	// Affordances are the actions to attach. Empty in deferred mode.
	Affordances []Affordance
	// Deadline is when a live review stops accepting events.
	Deadline time.Time
}

// Outcome describes how a review artifact was settled.
type Outcome struct {
	Status    enum.SubmissionStatus
	Moderator string
	// Expired is true when the deadline passed with no decision.
	Expired bool
}

// Notifier posts review artifacts and later removes their affordances.
type Notifier interface {
	PostReview(ctx context.Context, post ReviewPost) (MessageRef, error)
	RetractAffordances(ctx context.Context, ref MessageRef, outcome Outcome) error
}

// Submissions is the durable review queue.
type Submissions interface {
	Create(ctx context.Context, category enum.Category, text string, nsfw bool, author string) (*types.Submission, error)
	Get(ctx context.Context, id int64) (*types.Submission, error)
	Approve(ctx context.Context, id int64, moderator string) (*types.Resolution, error)
	Reject(ctx context.Context, id int64, moderator string) (*types.Resolution, error)
	ListPending(ctx context.Context, limit int) ([]*types.Submission, error)
}

// Prompts is the content store written by direct admin inserts.
type Prompts interface {
	Insert(ctx context.Context, category enum.Category, text string, nsfw bool, author string) (*types.Prompt, error)
}

// SubmitRequest carries a proposed prompt.
type SubmitRequest struct {
	Category enum.Category
	Text     string
	NSFW     bool
	Author   string
}

// Config holds the workflow settings read at startup.
type Config struct {
	Mode    enum.ReviewMode
	Timeout time.Duration
}

// Workflow coordinates submissions, decisions and review artifacts.
type Workflow struct {
	submissions Submissions
	prompts     Prompts
	notifier    Notifier
	limiter     Limiter
	config      Config
	live        sync.Map // token -> *LiveReview
	bySubmitted sync.Map // submission ID -> token
	watchers    conc.WaitGroup
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewWorkflow creates a workflow. limiter may be nil to disable cooldowns.
func NewWorkflow(
	submissions Submissions,
	prompts Prompts,
	notifier Notifier,
	limiter Limiter,
	config Config,
	logger *zap.Logger,
) *Workflow {
	if config.Timeout <= 0 {
		config.Timeout = DefaultReviewTimeout
	}

	return &Workflow{
		submissions: submissions,
		prompts:     prompts,
		notifier:    notifier,
		limiter:     limiter,
		config:      config,
		tracer:      otel.Tracer("github.com/robalyx/todbot/internal/moderation"),
		logger:      logger.Named("moderation"),
	}
}

// Mode returns the configured review mode.
func (w *Workflow) Mode() enum.ReviewMode {
	return w.config.Mode
}

// Submit queues a submission for deferred review and posts a notice for
// moderators. A failed post is logged and does not undo the submission.
func (w *Workflow) Submit(ctx context.Context, req SubmitRequest) (*types.Submission, error) {
	ctx, span := w.tracer.Start(ctx, "moderation.Submit",
		trace.WithAttributes(attribute.String("category", req.Category.String())))
	defer span.End()

	submission, err := w.create(ctx, req)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.Int64("submission.id", submission.ID))

	if _, err := w.notifier.PostReview(ctx, ReviewPost{Submission: submission}); err != nil {
		w.logger.Error("Failed to post review notice",
			zap.Int64("id", submission.ID),
			zap.Error(err))
	}

	return submission, nil
}

// Approve resolves a pending submission as Approved and publishes its prompt.
// A submission that was already resolved yields AlreadyResolved, not an error.
func (w *Workflow) Approve(ctx context.Context, id int64, moderator string) (*types.Resolution, error) {
	ctx, span := w.tracer.Start(ctx, "moderation.Approve",
		trace.WithAttributes(attribute.Int64("submission.id", id)))
	defer span.End()

	resolution, err := w.submissions.Approve(ctx, id, moderator)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.Bool("already_resolved", resolution.AlreadyResolved))

	w.settleLive(id, resolution, moderator)

	return resolution, nil
}

// Reject resolves a pending submission as Rejected. No prompt is written.
func (w *Workflow) Reject(ctx context.Context, id int64, moderator string) (*types.Resolution, error) {
	ctx, span := w.tracer.Start(ctx, "moderation.Reject",
		trace.WithAttributes(attribute.Int64("submission.id", id)))
	defer span.End()

	resolution, err := w.submissions.Reject(ctx, id, moderator)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.Bool("already_resolved", resolution.AlreadyResolved))

	w.settleLive(id, resolution, moderator)

	return resolution, nil
}

// ListPending returns up to limit pending submissions, oldest first.
func (w *Workflow) ListPending(ctx context.Context, limit int) ([]*types.Submission, error) {
	return w.submissions.ListPending(ctx, limit)
}

// Publish inserts a prompt directly, skipping review.
func (w *Workflow) Publish(
	ctx context.Context, category enum.Category, text string, nsfw bool, author string,
) (*types.Prompt, error) {
	ctx, span := w.tracer.Start(ctx, "moderation.Publish",
		trace.WithAttributes(attribute.String("category", category.String())))
	defer span.End()

	prompt, err := w.prompts.Insert(ctx, category, text, nsfw, author)
	if err != nil {
		return nil, recordError(span, err)
	}

	w.logger.Info("Published prompt",
		zap.Int64("id", prompt.ID),
		zap.String("category", category.String()),
		zap.String("author", author))

	return prompt, nil
}

// Close expires every open live review and waits for their watchers to finish.
func (w *Workflow) Close() {
	w.live.Range(func(_, value any) bool {
		value.(*LiveReview).cancel()
		return true
	})
	w.watchers.Wait()
}

// create validates the request, applies the cooldown and stores a Pending row.
func (w *Workflow) create(ctx context.Context, req SubmitRequest) (*types.Submission, error) {
	if !req.Category.Valid() {
		return nil, types.ErrUnknownCategory
	}

	if _, err := types.NormalizeText(req.Text); err != nil {
		return nil, err
	}

	claimed := false
	if w.limiter != nil {
		allowed, err := w.limiter.Allow(ctx, req.Author)
		switch {
		case err != nil:
			// The cooldown only throttles spam, so Redis trouble lets the submission through
			w.logger.Warn("Cooldown check failed", zap.String("author", req.Author), zap.Error(err))
		case !allowed:
			return nil, ErrCooldown
		default:
			claimed = true
		}
	}

	submission, err := w.submissions.Create(ctx, req.Category, req.Text, req.NSFW, req.Author)
	if err != nil {
		// Nothing was queued, so give the author their slot back
		if claimed {
			if releaseErr := w.limiter.Release(ctx, req.Author); releaseErr != nil {
				w.logger.Warn("Failed to release cooldown",
					zap.String("author", req.Author),
					zap.Error(releaseErr))
			}
		}
		return nil, err
	}

	w.logger.Info("Received submission",
		zap.Int64("id", submission.ID),
		zap.String("category", submission.Category.String()),
		zap.Bool("nsfw", submission.NSFW),
		zap.String("author", submission.Author))

	return submission, nil
}

// recordError marks the span as failed and returns err.
func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
