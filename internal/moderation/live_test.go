package moderation_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robalyx/todbot/internal/database/databasetest"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/robalyx/todbot/internal/moderation"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var liveConfig = moderation.Config{Mode: enum.ReviewModeLive, Timeout: time.Minute}

func submitLive(t *testing.T, f *fixture, text string, nsfw bool) *moderation.LiveReview {
	t.Helper()

	review, err := f.workflow.SubmitInteractive(context.Background(), moderation.SubmitRequest{
		Category: enum.CategoryDare,
		Text:     text,
		NSFW:     nsfw,
		Author:   "u1",
	})
	require.NoError(t, err)

	return review
}

func TestLiveAcceptPublishesPrompt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig, nil)
	ctx := context.Background()
	review := submitLive(t, f, "Do a handstand", true)

	posts := f.notifier.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, review.Token(), posts[0].Token)
	assert.Equal(t, []moderation.Affordance{moderation.AffordanceAccept, moderation.AffordanceDeny}, posts[0].Affordances)
	assert.Equal(t, review.Deadline(), posts[0].Deadline)

	resolution, err := f.workflow.Resolve(ctx, review.Token(), moderation.AffordanceAccept, "mod-1")
	require.NoError(t, err)
	assert.False(t, resolution.AlreadyResolved)
	require.NotNil(t, resolution.Prompt)
	assert.True(t, resolution.Prompt.NSFW)

	outcome := waitDone(t, review)
	assert.Equal(t, enum.SubmissionStatusApproved, outcome.Status)
	assert.Equal(t, "mod-1", outcome.Moderator)
	assert.False(t, outcome.Expired)
	assert.Len(t, f.notifier.Retracted(), 1)

	// Later clicks on the same artifact report the recorded decision
	for _, affordance := range []moderation.Affordance{moderation.AffordanceAccept, moderation.AffordanceDeny} {
		resolution, err = f.workflow.Resolve(ctx, review.Token(), affordance, "mod-2")
		require.NoError(t, err)
		assert.True(t, resolution.AlreadyResolved)
		assert.Equal(t, enum.SubmissionStatusApproved, resolution.Submission.Status)
		assert.Equal(t, "mod-1", resolution.Submission.ReviewedBy)
	}

	assert.Equal(t, 1, f.promptCount(t, enum.CategoryDare, true))
	assert.Len(t, f.notifier.Retracted(), 1)
}

func TestLiveDenyWritesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig, nil)
	review := submitLive(t, f, "Eat a lemon", false)

	resolution, err := f.workflow.Resolve(context.Background(), review.Token(), moderation.AffordanceDeny, "mod-1")
	require.NoError(t, err)
	assert.Equal(t, enum.SubmissionStatusRejected, resolution.Submission.Status)
	assert.Nil(t, resolution.Prompt)

	outcome := waitDone(t, review)
	assert.Equal(t, enum.SubmissionStatusRejected, outcome.Status)
	assert.Zero(t, f.promptCount(t, enum.CategoryDare, false))
}

func TestLiveConcurrentEventsResolveOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig, nil)
	review := submitLive(t, f, "Call a friend and sing", false)

	const clicks = 10
	var honored, ignored atomic.Int32

	var wg conc.WaitGroup
	for i := range clicks {
		wg.Go(func() {
			affordance := moderation.AffordanceAccept
			if i%2 == 1 {
				affordance = moderation.AffordanceDeny
			}

			resolution, err := f.workflow.Resolve(context.Background(), review.Token(), affordance, "mod")
			switch {
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			case resolution.AlreadyResolved:
				ignored.Add(1)
			default:
				honored.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), honored.Load())
	assert.Equal(t, int32(clicks-1), ignored.Load())

	outcome := waitDone(t, review)
	assert.Len(t, f.notifier.Retracted(), 1)

	published := f.promptCount(t, enum.CategoryDare, false)
	if outcome.Status == enum.SubmissionStatusApproved {
		assert.Equal(t, 1, published)
	} else {
		assert.Zero(t, published)
	}
}

func TestLiveTimeoutLeavesSubmissionPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t, moderation.Config{Mode: enum.ReviewModeLive, Timeout: 50 * time.Millisecond}, nil)
	ctx := context.Background()
	review := submitLive(t, f, "Tell a joke", false)

	outcome := waitDone(t, review)
	assert.True(t, outcome.Expired)
	assert.Equal(t, enum.SubmissionStatusPending, outcome.Status)

	retracted := f.notifier.Retracted()
	require.Len(t, retracted, 1)
	assert.True(t, retracted[0].Expired)

	_, err := f.workflow.Resolve(ctx, review.Token(), moderation.AffordanceAccept, "mod-1")
	require.ErrorIs(t, err, moderation.ErrReviewClosed)

	submission, err := f.client.Service().Submission().Get(ctx, review.Submission().ID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubmissionStatusPending, submission.Status)
	assert.Zero(t, f.promptCount(t, enum.CategoryDare, false))
}

func TestLiveDeferredDecisionClosesReview(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig, nil)
	ctx := context.Background()
	review := submitLive(t, f, "Do twenty squats", false)

	_, err := f.workflow.Approve(ctx, review.Submission().ID, "mod-1")
	require.NoError(t, err)

	outcome := waitDone(t, review)
	assert.Equal(t, enum.SubmissionStatusApproved, outcome.Status)
	assert.Equal(t, "mod-1", outcome.Moderator)

	resolution, err := f.workflow.Resolve(ctx, review.Token(), moderation.AffordanceAccept, "mod-2")
	require.NoError(t, err)
	assert.True(t, resolution.AlreadyResolved)
	assert.Equal(t, enum.SubmissionStatusApproved, resolution.Submission.Status)
	assert.Equal(t, 1, f.promptCount(t, enum.CategoryDare, false))
}

func TestLiveUnknownTokenAndAffordance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig, nil)
	ctx := context.Background()
	review := submitLive(t, f, "Whistle a tune", false)

	_, err := f.workflow.Resolve(ctx, "not-a-token", moderation.AffordanceAccept, "mod")
	require.ErrorIs(t, err, moderation.ErrReviewClosed)

	_, err = f.workflow.Resolve(ctx, review.Token(), moderation.Affordance("maybe"), "mod")
	require.ErrorIs(t, err, moderation.ErrUnknownAffordance)

	// The review is still open after both bad events
	resolution, err := f.workflow.Resolve(ctx, review.Token(), moderation.AffordanceAccept, "mod")
	require.NoError(t, err)
	assert.False(t, resolution.AlreadyResolved)
}

func TestLivePostFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig, nil)
	f.notifier.postErr = errors.New("missing permissions")

	_, err := f.workflow.SubmitInteractive(context.Background(), moderation.SubmitRequest{
		Category: enum.CategoryTruth,
		Text:     "Biggest regret?",
		Author:   "u1",
	})
	require.Error(t, err)

	// The submission is kept for deferred review
	pending, err := f.workflow.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestLiveCloseExpiresOpenReviews(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig, nil)
	review := submitLive(t, f, "Wear socks on your hands", false)

	f.workflow.Close()

	outcome := waitDone(t, review)
	assert.True(t, outcome.Expired)
}

// flakySubmissions fails the first approval with a storage error.
type flakySubmissions struct {
	moderation.Submissions
	failed atomic.Bool
}

func (s *flakySubmissions) Approve(ctx context.Context, id int64, moderator string) (*types.Resolution, error) {
	if s.failed.CompareAndSwap(false, true) {
		return nil, types.StorageError("approve submission", errors.New("connection reset by peer"))
	}
	return s.Submissions.Approve(ctx, id, moderator)
}

func TestLiveStorageFailureReleasesClaim(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	notifier := &fakeNotifier{}
	workflow := moderation.NewWorkflow(
		&flakySubmissions{Submissions: client.Service().Submission()},
		client.Service().Prompt(),
		notifier,
		nil,
		liveConfig,
		zap.NewNop(),
	)
	t.Cleanup(workflow.Close)

	ctx := context.Background()
	review, err := workflow.SubmitInteractive(ctx, moderation.SubmitRequest{
		Category: enum.CategoryDare,
		Text:     "Balance a spoon on your nose",
		Author:   "u1",
	})
	require.NoError(t, err)

	_, err = workflow.Resolve(ctx, review.Token(), moderation.AffordanceAccept, "mod-1")
	require.ErrorIs(t, err, types.ErrStorage)
	assert.Empty(t, notifier.Retracted())

	submission, err := client.Service().Submission().Get(ctx, review.Submission().ID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubmissionStatusPending, submission.Status)

	resolution, err := workflow.Resolve(ctx, review.Token(), moderation.AffordanceAccept, "mod-1")
	require.NoError(t, err)
	assert.False(t, resolution.AlreadyResolved)
	assert.Equal(t, enum.SubmissionStatusApproved, waitDone(t, review).Status)
}

// racedSubmissions records an approval by ID, as a moderator's /approve would,
// and then fails the button's own approval.
type racedSubmissions struct {
	moderation.Submissions
}

func (s *racedSubmissions) Approve(ctx context.Context, id int64, _ string) (*types.Resolution, error) {
	if _, err := s.Submissions.Approve(ctx, id, "mod-9"); err != nil {
		return nil, err
	}
	return nil, types.StorageError("approve submission", errors.New("connection reset by peer"))
}

func TestLiveFailedEventAfterDecisionByID(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	notifier := &fakeNotifier{}
	workflow := moderation.NewWorkflow(
		&racedSubmissions{Submissions: client.Service().Submission()},
		client.Service().Prompt(),
		notifier,
		nil,
		liveConfig,
		zap.NewNop(),
	)
	t.Cleanup(workflow.Close)

	ctx := context.Background()
	review, err := workflow.SubmitInteractive(ctx, moderation.SubmitRequest{
		Category: enum.CategoryDare,
		Text:     "Moonwalk across the room",
		Author:   "u1",
	})
	require.NoError(t, err)

	resolution, err := workflow.Resolve(ctx, review.Token(), moderation.AffordanceAccept, "mod-1")
	require.NoError(t, err)
	assert.True(t, resolution.AlreadyResolved)
	assert.Equal(t, enum.SubmissionStatusApproved, resolution.Submission.Status)

	// The review closes with the stored decision instead of timing out later
	outcome := waitDone(t, review)
	assert.False(t, outcome.Expired)
	assert.Equal(t, enum.SubmissionStatusApproved, outcome.Status)
	assert.Equal(t, "mod-9", outcome.Moderator)

	retracted := notifier.Retracted()
	require.Len(t, retracted, 1)
	assert.False(t, retracted[0].Expired)
}
