package bot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/todbot/internal/bot"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/robalyx/todbot/internal/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	created []discord.MessageCreate
	updated []discord.MessageUpdate
	err     error
}

func (s *fakeSender) CreateMessage(
	channelID snowflake.ID, messageCreate discord.MessageCreate, _ ...rest.RequestOpt,
) (*discord.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, messageCreate)
	return &discord.Message{ID: snowflake.ID(900 + len(s.created)), ChannelID: channelID}, nil
}

func (s *fakeSender) UpdateMessage(
	channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, _ ...rest.RequestOpt,
) (*discord.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updated = append(s.updated, messageUpdate)
	return &discord.Message{ID: messageID, ChannelID: channelID}, nil
}

func testSubmission(nsfw bool) *types.Submission {
	return &types.Submission{
		ID:        7,
		Category:  enum.CategoryDare,
		Text:      "Sing a song",
		NSFW:      nsfw,
		Author:    "42",
		Status:    enum.SubmissionStatusPending,
		CreatedAt: time.Now(),
	}
}

func fieldValue(t *testing.T, embed discord.Embed, name string) string {
	t.Helper()

	for _, field := range embed.Fields {
		if field.Name == name {
			return field.Value
		}
	}
	t.Fatalf("embed has no %q field", name)
	return ""
}

func TestBuildReviewMessageDeferred(t *testing.T) {
	t.Parallel()

	message := bot.BuildReviewMessage(moderation.ReviewPost{Submission: testSubmission(false)})

	require.Len(t, message.Embeds, 1)
	embed := message.Embeds[0]
	assert.Equal(t, "Dare suggestion", embed.Title)
	assert.Equal(t, "7", fieldValue(t, embed, "ID"))
	assert.Equal(t, "<@42>", fieldValue(t, embed, "Author"))
	assert.Empty(t, message.Components)
}

func TestBuildReviewMessageLive(t *testing.T) {
	t.Parallel()

	deadline := time.Unix(1_800_000_000, 0)
	message := bot.BuildReviewMessage(moderation.ReviewPost{
		Submission:  testSubmission(true),
		Token:       "tok",
		Affordances: []moderation.Affordance{moderation.AffordanceAccept, moderation.AffordanceDeny},
		Deadline:    deadline,
	})

	require.Len(t, message.Embeds, 1)
	assert.Equal(t, "Dare suggestion (NSFW)", message.Embeds[0].Title)
	assert.Equal(t, "<t:1800000000:R>", fieldValue(t, message.Embeds[0], "Expires"))
	assert.Len(t, message.Components, 1)
}

func TestReviewCustomIDRoundTrip(t *testing.T) {
	t.Parallel()

	customID := bot.ReviewCustomID(moderation.AffordanceDeny, "abc-123")
	assert.Equal(t, "review:deny:abc-123", customID)

	affordance, token, ok := bot.ParseReviewCustomID(customID)
	require.True(t, ok)
	assert.Equal(t, moderation.AffordanceDeny, affordance)
	assert.Equal(t, "abc-123", token)

	for _, invalid := range []string{"", "review", "review:accept", "review:accept:", "other:accept:tok"} {
		_, _, ok := bot.ParseReviewCustomID(invalid)
		assert.False(t, ok, invalid)
	}
}

func TestOutcomeLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "✅ Accepted by <@9>",
		bot.OutcomeLine(moderation.Outcome{Status: enum.SubmissionStatusApproved, Moderator: "9"}))
	assert.Equal(t, "❌ Denied by <@9>",
		bot.OutcomeLine(moderation.Outcome{Status: enum.SubmissionStatusRejected, Moderator: "9"}))
	assert.Contains(t,
		bot.OutcomeLine(moderation.Outcome{Status: enum.SubmissionStatusPending, Expired: true}),
		"timed out")
}

func TestReviewNotifier(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	notifier := bot.NewReviewNotifier(sender, 55, zap.NewNop())
	ctx := context.Background()

	ref, err := notifier.PostReview(ctx, moderation.ReviewPost{Submission: testSubmission(false)})
	require.NoError(t, err)
	assert.Equal(t, moderation.MessageRef{ChannelID: 55, MessageID: 901}, ref)
	require.Len(t, sender.created, 1)

	err = notifier.RetractAffordances(ctx, ref, moderation.Outcome{Status: enum.SubmissionStatusApproved, Moderator: "9"})
	require.NoError(t, err)
	require.Len(t, sender.updated, 1)
	require.NotNil(t, sender.updated[0].Content)
	assert.Equal(t, "✅ Accepted by <@9>", *sender.updated[0].Content)

	sender.err = errors.New("missing access")
	_, err = notifier.PostReview(ctx, moderation.ReviewPost{Submission: testSubmission(false)})
	require.Error(t, err)
}
