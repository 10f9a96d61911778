package moderation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Live review states. Only the goroutine that moves a review out of
// stateOpen may act on it.
const (
	stateOpen int32 = iota
	stateResolving
	stateDone
)

// LiveReview is an open, deadline-bound review of one submission.
type LiveReview struct {
	token      string
	submission *types.Submission
	deadline   time.Time

	state   atomic.Int32
	expired atomic.Bool
	decided atomic.Pointer[types.Submission] // set once a decision is recorded
	ctx     context.Context //nolint:containedctx // bounds the review, not a request
	cancel  context.CancelFunc

	posted  chan struct{} // closed once the artifact post returned
	ref     MessageRef
	done    chan struct{} // closed once the review is settled
	outcome Outcome
}

// Token returns the identifier embedded in the artifact's affordances.
func (r *LiveReview) Token() string { return r.token }

// Submission returns the reviewed submission as it was when posted.
func (r *LiveReview) Submission() *types.Submission { return r.submission }

// Deadline returns when the review stops accepting events.
func (r *LiveReview) Deadline() time.Time { return r.deadline }

// Message returns the posted artifact.
func (r *LiveReview) Message() MessageRef { return r.ref }

// Done is closed once the review is decided or expired.
func (r *LiveReview) Done() <-chan struct{} { return r.done }

// Outcome reports how the review ended. Only valid after Done is closed.
func (r *LiveReview) Outcome() Outcome { return r.outcome }

// SubmitInteractive stores a submission and posts a live review artifact with
// accept and deny affordances. The review stays open until the first honored
// event or the configured timeout, whichever comes first.
func (w *Workflow) SubmitInteractive(ctx context.Context, req SubmitRequest) (*LiveReview, error) {
	ctx, span := w.tracer.Start(ctx, "moderation.SubmitInteractive",
		trace.WithAttributes(attribute.String("category", req.Category.String())))
	defer span.End()

	submission, err := w.create(ctx, req)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.Int64("submission.id", submission.ID))

	// Register before posting so an early click still finds the review
	review := w.open(submission)

	ref, err := w.notifier.PostReview(ctx, ReviewPost{
		Submission:  submission,
		Token:       review.token,
		Affordances: []Affordance{AffordanceAccept, AffordanceDeny},
		Deadline:    review.deadline,
	})
	if err != nil {
		// Nothing was shown to moderators, so close the review without a decision.
		// The submission stays Pending and can still be resolved by ID.
		if review.state.CompareAndSwap(stateOpen, stateDone) {
			review.expired.Store(true)
			w.unregister(review)
			review.cancel()
			review.outcome = Outcome{Status: enum.SubmissionStatusPending, Expired: true}
			close(review.done)
		}
		close(review.posted)
		return nil, recordError(span, fmt.Errorf("failed to post live review: %w", err))
	}

	review.ref = ref
	close(review.posted)

	w.watchers.Go(func() {
		w.watch(review)
	})

	w.logger.Info("Opened live review",
		zap.Int64("id", submission.ID),
		zap.String("token", review.token),
		zap.Time("deadline", review.deadline))

	return review, nil
}

// Resolve routes a resolution event to the live review identified by token.
//
// The first event to claim an open review is honored. Events that arrive
// while or after another event is honored get AlreadyResolved, until the
// review's deadline. Events for an unknown token or an expired review get
// ErrReviewClosed. A storage failure reopens the review so the decision can be
// retried, unless the submission was decided by ID in the meantime.
func (w *Workflow) Resolve(
	ctx context.Context, token string, affordance Affordance, moderator string,
) (*types.Resolution, error) {
	ctx, span := w.tracer.Start(ctx, "moderation.Resolve",
		trace.WithAttributes(attribute.String("affordance", string(affordance))))
	defer span.End()

	if affordance != AffordanceAccept && affordance != AffordanceDeny {
		return nil, recordError(span, ErrUnknownAffordance)
	}

	value, ok := w.live.Load(token)
	if !ok {
		return nil, ErrReviewClosed
	}
	review := value.(*LiveReview)
	span.SetAttributes(attribute.Int64("submission.id", review.submission.ID))

	select {
	case <-review.posted:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !review.state.CompareAndSwap(stateOpen, stateResolving) {
		return review.settled()
	}

	if review.ctx.Err() != nil {
		// The deadline passed before the watcher got to it
		review.state.Store(stateOpen)
		w.expire(review)
		return nil, ErrReviewClosed
	}

	var (
		resolution *types.Resolution
		err        error
	)
	switch affordance {
	case AffordanceAccept:
		resolution, err = w.submissions.Approve(ctx, review.submission.ID, moderator)
	case AffordanceDeny:
		resolution, err = w.submissions.Reject(ctx, review.submission.ID, moderator)
	}
	if err != nil {
		current, getErr := w.submissions.Get(ctx, review.submission.ID)
		if getErr == nil && current.Status != enum.SubmissionStatusPending {
			w.logger.Warn("Live review decided elsewhere while its event failed",
				zap.Int64("id", current.ID),
				zap.String("status", current.Status.String()),
				zap.Error(err))
			w.decide(review, current, current.ReviewedBy)
			return &types.Resolution{Submission: current, AlreadyResolved: true}, nil
		}

		// Release the claim, and expire here if the deadline passed while we held it
		review.state.Store(stateOpen)
		if review.ctx.Err() != nil {
			w.expire(review)
		}
		return nil, recordError(span, err)
	}

	w.decide(review, resolution.Submission, resolution.Submission.ReviewedBy)

	return resolution, nil
}

// settled answers an event for a review another event already claimed.
func (r *LiveReview) settled() (*types.Resolution, error) {
	if decided := r.decided.Load(); decided != nil {
		return &types.Resolution{Submission: decided, AlreadyResolved: true}, nil
	}
	if r.expired.Load() || r.ctx.Err() != nil {
		return nil, ErrReviewClosed
	}

	// Another event holds the claim and has not finished yet
	return &types.Resolution{Submission: r.submission, AlreadyResolved: true}, nil
}

// open creates and registers a live review for the submission.
func (w *Workflow) open(submission *types.Submission) *LiveReview {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.Timeout)
	deadline, _ := ctx.Deadline()

	review := &LiveReview{
		token:      uuid.NewString(),
		submission: submission,
		deadline:   deadline,
		ctx:        ctx,
		cancel:     cancel,
		posted:     make(chan struct{}),
		done:       make(chan struct{}),
	}

	w.live.Store(review.token, review)
	w.bySubmitted.Store(submission.ID, review.token)

	return review
}

// watch expires the review once its context ends.
func (w *Workflow) watch(review *LiveReview) {
	<-review.ctx.Done()
	w.expire(review)
}

// expire closes an open review without changing the submission.
func (w *Workflow) expire(review *LiveReview) {
	if !review.state.CompareAndSwap(stateOpen, stateResolving) {
		return
	}
	review.expired.Store(true)

	w.logger.Info("Live review expired",
		zap.Int64("id", review.submission.ID),
		zap.String("token", review.token))

	w.finish(review, Outcome{Status: enum.SubmissionStatusPending, Expired: true})
}

// settleLive closes a live review whose submission was decided by ID instead
// of through its affordances.
func (w *Workflow) settleLive(id int64, resolution *types.Resolution, moderator string) {
	if resolution.AlreadyResolved {
		return
	}

	token, ok := w.bySubmitted.Load(id)
	if !ok {
		return
	}

	value, ok := w.live.Load(token)
	if !ok {
		return
	}
	review := value.(*LiveReview)

	if !review.state.CompareAndSwap(stateOpen, stateResolving) {
		return
	}

	w.decide(review, resolution.Submission, moderator)
}

// decide records the decided submission on a claimed review and finishes it.
func (w *Workflow) decide(review *LiveReview, submission *types.Submission, moderator string) {
	review.decided.Store(submission)
	w.finish(review, Outcome{Status: submission.Status, Moderator: moderator})
}

// finish retracts a claimed review's affordances. Expired reviews leave the
// registry at once. Decided ones stay until their deadline so late events
// still see the decision.
func (w *Workflow) finish(review *LiveReview, outcome Outcome) {
	review.state.Store(stateDone)
	if review.expired.Load() {
		w.unregister(review)
	} else {
		w.bySubmitted.CompareAndDelete(review.submission.ID, review.token)
		time.AfterFunc(time.Until(review.deadline), func() {
			w.live.CompareAndDelete(review.token, review)
		})
	}
	review.cancel()

	<-review.posted

	if review.ref != (MessageRef{}) {
		ctx, cancel := context.WithTimeout(context.Background(), retractTimeout)
		defer cancel()

		if err := w.notifier.RetractAffordances(ctx, review.ref, outcome); err != nil {
			w.logger.Warn("Failed to retract review affordances",
				zap.Int64("id", review.submission.ID),
				zap.Error(err))
		}
	}

	review.outcome = outcome
	close(review.done)
}

func (w *Workflow) unregister(review *LiveReview) {
	w.live.Delete(review.token)
	w.bySubmitted.CompareAndDelete(review.submission.ID, review.token)
}
