package bot

import (
	"errors"
	"strings"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/todbot/internal/access"
	"github.com/robalyx/todbot/internal/bot/constants"
	"github.com/robalyx/todbot/internal/bot/utils"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/moderation"
	"go.uber.org/zap"
)

// commonEvent is satisfied by both command and component interaction events.
type commonEvent interface {
	Client() bot.Client
	ApplicationID() snowflake.ID
	Token() string
	User() discord.User
}

// ErrorMessage turns a failure into the reply shown to the user.
// The second result is false for failures that should be logged.
func ErrorMessage(err error) (string, bool) {
	var noPrompts *types.NoPromptsError

	switch {
	case errors.As(err, &noPrompts):
		return noPrompts.Error(), true
	case errors.Is(err, types.ErrSubmissionNotFound):
		return "No submission found with that ID.", true
	case errors.Is(err, moderation.ErrReviewClosed):
		return constants.ReviewClosedReply, true
	case errors.Is(err, access.ErrChannelNotAllowed):
		return constants.ChannelDeniedReply, true
	case errors.Is(err, access.ErrUnauthorized):
		return constants.RoleDeniedReply, true
	case errors.Is(err, types.ErrValidation):
		return validationMessage(err), true
	case errors.Is(err, types.ErrNotFound):
		return "Nothing found.", true
	default:
		return constants.GenericErrorMessage, false
	}
}

// validationMessage strips the error kind so only the reason is shown.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), types.ErrValidation.Error()+": ")
	if msg == "" {
		return "Invalid input."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

// updateResponse replaces the deferred interaction response.
func (b *Bot) updateResponse(event commonEvent, update discord.MessageUpdate) {
	_, err := event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), update)
	if err != nil {
		b.logger.Error("Failed to update interaction response", zap.Error(err))
	}
}

// respondContent replaces the deferred response with plain text.
func (b *Bot) respondContent(event commonEvent, content string) {
	b.updateResponse(event, discord.NewMessageUpdateBuilder().
		SetContent(content).
		ClearEmbeds().
		ClearContainerComponents().
		Build())
}

// respondError replaces the deferred response with the message for err.
func (b *Bot) respondError(event commonEvent, err error) {
	message, expected := ErrorMessage(err)
	if !expected {
		b.logger.Error("Interaction failed",
			zap.Uint64("userID", uint64(event.User().ID)),
			zap.Error(err))
	}

	b.respondContent(event, utils.GetTimestampedSubtext(message))
}

// followup sends an ephemeral message after a deferred component update.
func (b *Bot) followup(event commonEvent, content string) {
	_, err := event.Client().Rest().CreateFollowupMessage(event.ApplicationID(), event.Token(),
		discord.NewMessageCreateBuilder().
			SetContent(content).
			SetEphemeral(true).
			Build())
	if err != nil {
		b.logger.Error("Failed to send followup message", zap.Error(err))
	}
}
