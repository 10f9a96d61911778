package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/todbot/internal/bot/constants"
	"github.com/robalyx/todbot/internal/bot/utils"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/robalyx/todbot/internal/moderation"
	"go.uber.org/zap"
)

// MessageSender is the part of the Discord REST client the notifier needs.
type MessageSender interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
	UpdateMessage(
		channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt,
	) (*discord.Message, error)
}

// ReviewNotifier posts submissions to the review channel.
type ReviewNotifier struct {
	sender    MessageSender
	channelID snowflake.ID
	logger    *zap.Logger
}

// NewReviewNotifier creates a notifier posting to the given channel.
func NewReviewNotifier(sender MessageSender, channelID uint64, logger *zap.Logger) *ReviewNotifier {
	return &ReviewNotifier{
		sender:    sender,
		channelID: snowflake.ID(channelID),
		logger:    logger.Named("review_notifier"),
	}
}

// PostReview sends the review embed, with buttons when the post is live.
func (n *ReviewNotifier) PostReview(ctx context.Context, post moderation.ReviewPost) (moderation.MessageRef, error) {
	message, err := n.sender.CreateMessage(n.channelID, BuildReviewMessage(post), rest.WithCtx(ctx))
	if err != nil {
		return moderation.MessageRef{}, fmt.Errorf("failed to send review message: %w", err)
	}

	n.logger.Debug("Posted review",
		zap.Int64("id", post.Submission.ID),
		zap.Bool("live", post.Token != ""),
		zap.Uint64("messageID", uint64(message.ID)))

	return moderation.MessageRef{
		ChannelID: uint64(message.ChannelID),
		MessageID: uint64(message.ID),
	}, nil
}

// RetractAffordances removes the buttons and notes how the review ended.
func (n *ReviewNotifier) RetractAffordances(ctx context.Context, ref moderation.MessageRef, outcome moderation.Outcome) error {
	update := discord.NewMessageUpdateBuilder().
		SetContent(OutcomeLine(outcome)).
		ClearContainerComponents().
		Build()

	_, err := n.sender.UpdateMessage(snowflake.ID(ref.ChannelID), snowflake.ID(ref.MessageID), update, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to update review message: %w", err)
	}

	return nil
}

// BuildReviewMessage builds the review post for a submission.
func BuildReviewMessage(post moderation.ReviewPost) discord.MessageCreate {
	submission := post.Submission

	title := submission.Category.Title() + " suggestion"
	color := constants.DefaultEmbedColor
	if submission.NSFW {
		title += " (NSFW)"
		color = constants.NSFWEmbedColor
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(utils.FormatString(submission.Text)).
		SetColor(color).
		AddField("ID", strconv.FormatInt(submission.ID, 10), true).
		AddField("Author", utils.FormatMention(submission.Author), true).
		SetTimestamp(submission.CreatedAt)

	builder := discord.NewMessageCreateBuilder()

	if post.Token == "" {
		embed.SetFooter(fmt.Sprintf("Use /approve or /reject with id %d", submission.ID), "")
		return builder.SetEmbeds(embed.Build()).Build()
	}

	embed.AddField("Expires", fmt.Sprintf("<t:%d:R>", post.Deadline.Unix()), true)

	buttons := make([]discord.InteractiveComponent, 0, len(post.Affordances))
	for _, affordance := range post.Affordances {
		customID := ReviewCustomID(affordance, post.Token)
		switch affordance {
		case moderation.AffordanceAccept:
			buttons = append(buttons, discord.NewSuccessButton("Accept", customID))
		case moderation.AffordanceDeny:
			buttons = append(buttons, discord.NewDangerButton("Deny", customID))
		}
	}

	return builder.
		SetEmbeds(embed.Build()).
		AddActionRow(buttons...).
		Build()
}

// OutcomeLine describes how a review was settled.
func OutcomeLine(outcome moderation.Outcome) string {
	if outcome.Expired {
		return fmt.Sprintf("%s Review timed out. The submission is still pending.", outcome.Status.Emoji())
	}

	verb := "Accepted"
	if outcome.Status == enum.SubmissionStatusRejected {
		verb = "Denied"
	}

	return fmt.Sprintf("%s %s by %s", outcome.Status.Emoji(), verb, utils.FormatMention(outcome.Moderator))
}

// ReviewCustomID builds the component ID routing a button press to a live review.
func ReviewCustomID(affordance moderation.Affordance, token string) string {
	return strings.Join([]string{constants.ReviewCustomIDPrefix, string(affordance), token}, constants.CustomIDSeparator)
}

// ParseReviewCustomID splits a review component ID into its affordance and token.
func ParseReviewCustomID(customID string) (moderation.Affordance, string, bool) {
	parts := strings.SplitN(customID, constants.CustomIDSeparator, 3)
	if len(parts) != 3 || parts[0] != constants.ReviewCustomIDPrefix || parts[2] == "" {
		return "", "", false
	}

	return moderation.Affordance(parts[1]), parts[2], true
}
