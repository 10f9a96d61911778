package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/todbot/internal/access"
	"github.com/robalyx/todbot/internal/bot/constants"
	"github.com/robalyx/todbot/internal/bot/utils"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/robalyx/todbot/internal/moderation"
	"github.com/robalyx/todbot/internal/retrieval"
	"go.uber.org/zap"
)

var errUnknownCommand = errors.New("unknown command")

// requirements lists the gate checks of every command.
var requirements = map[string]access.Requirement{ //nolint:gochecknoglobals // -
	constants.TruthCommandName:       {Channel: true},
	constants.DareCommandName:        {Channel: true},
	constants.SuggestCommandName:     {Channel: true},
	constants.AddQuestionCommandName: {Role: true},
	constants.AddDareCommandName:     {Role: true},
	constants.ApproveCommandName:     {Role: true},
	constants.RejectCommandName:      {Role: true},
	constants.PendingCommandName:     {Role: true},
}

// commands returns the slash commands registered with Discord.
func commands() []discord.ApplicationCommandCreate {
	textOption := discord.ApplicationCommandOptionString{
		Name:        constants.TextOption,
		Description: "The prompt text",
		Required:    true,
	}
	nsfwOption := discord.ApplicationCommandOptionBool{
		Name:        constants.NSFWOption,
		Description: "Only show this in age-restricted channels",
	}
	idOption := discord.ApplicationCommandOptionInt{
		Name:        constants.IDOption,
		Description: "The submission ID",
		Required:    true,
	}

	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        constants.TruthCommandName,
			Description: "Get a random truth",
		},
		discord.SlashCommandCreate{
			Name:        constants.DareCommandName,
			Description: "Get a random dare",
		},
		discord.SlashCommandCreate{
			Name:        constants.SuggestCommandName,
			Description: "Suggest a new truth or dare",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        constants.CategoryOption,
					Description: "Whether this is a truth or a dare",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: enum.CategoryTruth.Title(), Value: enum.CategoryTruth.String()},
						{Name: enum.CategoryDare.Title(), Value: enum.CategoryDare.String()},
					},
				},
				textOption,
				nsfwOption,
			},
		},
		discord.SlashCommandCreate{
			Name:        constants.AddQuestionCommandName,
			Description: "Add a truth without review",
			Options:     []discord.ApplicationCommandOption{textOption, nsfwOption},
		},
		discord.SlashCommandCreate{
			Name:        constants.AddDareCommandName,
			Description: "Add a dare without review",
			Options:     []discord.ApplicationCommandOption{textOption, nsfwOption},
		},
		discord.SlashCommandCreate{
			Name:        constants.ApproveCommandName,
			Description: "Approve a suggestion",
			Options:     []discord.ApplicationCommandOption{idOption},
		},
		discord.SlashCommandCreate{
			Name:        constants.RejectCommandName,
			Description: "Reject a suggestion",
			Options:     []discord.ApplicationCommandOption{idOption},
		},
		discord.SlashCommandCreate{
			Name:        constants.PendingCommandName,
			Description: "List suggestions waiting for review",
		},
	}
}

// handleCommand checks the gate and runs the command.
func (b *Bot) handleCommand(ctx context.Context, event *events.ApplicationCommandInteractionCreate, name string) {
	requirement, ok := requirements[name]
	if !ok {
		b.logger.Warn("Received unknown command", zap.String("command", name))
		b.reply(event, constants.GenericErrorMessage)
		return
	}

	// Channel checks are local, so deny before deferring to keep the reply private
	inv := invocationOf(event)
	if requirement.Channel && !b.gate.ChannelAllowed(inv.ChannelID) {
		b.reply(event, constants.ChannelDeniedReply)
		return
	}

	// Prompts are shown to everyone in the channel, everything else is private
	ephemeral := name != constants.TruthCommandName && name != constants.DareCommandName
	if err := event.DeferCreateMessage(ephemeral); err != nil {
		b.logger.Error("Failed to defer create message", zap.Error(err))
		return
	}

	if requirement.Role && !b.gate.RoleAllowed(ctx, inv.ActorID, inv.GuildID) {
		b.respondError(event, access.ErrMissingRole)
		return
	}

	data := event.SlashCommandInteractionData()
	author := event.User().ID.String()

	var err error
	switch name {
	case constants.TruthCommandName:
		err = b.handlePrompt(ctx, event, enum.CategoryTruth)
	case constants.DareCommandName:
		err = b.handlePrompt(ctx, event, enum.CategoryDare)
	case constants.SuggestCommandName:
		err = b.handleSuggest(ctx, event, data, author)
	case constants.AddQuestionCommandName:
		err = b.handlePublish(ctx, event, data, enum.CategoryTruth, author)
	case constants.AddDareCommandName:
		err = b.handlePublish(ctx, event, data, enum.CategoryDare, author)
	case constants.ApproveCommandName:
		err = b.handleDecision(ctx, event, int64(data.Int(constants.IDOption)), author, true)
	case constants.RejectCommandName:
		err = b.handleDecision(ctx, event, int64(data.Int(constants.IDOption)), author, false)
	case constants.PendingCommandName:
		err = b.handlePending(ctx, event)
	default:
		err = errUnknownCommand
	}

	if err != nil {
		b.respondError(event, err)
	}
}

// handlePrompt serves a random truth or dare suited to the channel.
func (b *Bot) handlePrompt(ctx context.Context, event *events.ApplicationCommandInteractionCreate, category enum.Category) error {
	nsfw := IsNSFWChannel(ctx, b.client.Rest(), event.ChannelID(), b.logger)

	prompt, err := b.retrieval.Serve(ctx, category, retrieval.Context{NSFWChannel: nsfw})
	if err != nil {
		return err
	}

	b.updateResponse(event, discord.NewMessageUpdateBuilder().
		SetEmbeds(BuildPromptEmbed(prompt)).
		Build())

	return nil
}

// handleSuggest queues a submission in the configured review mode.
func (b *Bot) handleSuggest(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, author string,
) error {
	category, err := enum.CategoryString(data.String(constants.CategoryOption))
	if err != nil {
		return types.ErrUnknownCategory
	}

	req := moderation.SubmitRequest{
		Category: category,
		Text:     data.String(constants.TextOption),
		NSFW:     data.Bool(constants.NSFWOption),
		Author:   author,
	}

	var id int64
	switch b.workflow.Mode() {
	case enum.ReviewModeLive:
		review, err := b.workflow.SubmitInteractive(ctx, req)
		if err != nil {
			return err
		}
		id = review.Submission().ID
	default:
		submission, err := b.workflow.Submit(ctx, req)
		if err != nil {
			return err
		}
		id = submission.ID
	}

	b.respondContent(event, fmt.Sprintf("Thanks! Your %s suggestion was sent for review (ID %d).", category.String(), id))
	return nil
}

// handlePublish adds a prompt without review.
func (b *Bot) handlePublish(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, category enum.Category, author string,
) error {
	prompt, err := b.workflow.Publish(ctx, category, data.String(constants.TextOption), data.Bool(constants.NSFWOption), author)
	if err != nil {
		return err
	}

	b.respondContent(event, fmt.Sprintf("Added %s #%d.", category.String(), prompt.ID))
	return nil
}

// handleDecision approves or rejects a submission by ID.
func (b *Bot) handleDecision(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, id int64, moderator string, approve bool,
) error {
	var (
		resolution *types.Resolution
		err        error
	)
	if approve {
		resolution, err = b.workflow.Approve(ctx, id, moderator)
	} else {
		resolution, err = b.workflow.Reject(ctx, id, moderator)
	}
	if err != nil {
		return err
	}

	b.respondContent(event, DecisionMessage(resolution))
	return nil
}

// handlePending lists the oldest submissions waiting for review.
func (b *Bot) handlePending(ctx context.Context, event *events.ApplicationCommandInteractionCreate) error {
	submissions, err := b.workflow.ListPending(ctx, constants.MaxPendingListed)
	if err != nil {
		return err
	}

	b.updateResponse(event, discord.NewMessageUpdateBuilder().
		SetEmbeds(BuildPendingEmbed(submissions)).
		Build())

	return nil
}

// reply answers an interaction that was not deferred with a private message.
func (b *Bot) reply(event *events.ApplicationCommandInteractionCreate, content string) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build())
	if err != nil {
		b.logger.Error("Failed to reply to interaction", zap.Error(err))
	}
}

// ChannelSource is the part of the Discord REST client used to read channel flags.
type ChannelSource interface {
	GetChannel(channelID snowflake.ID, opts ...rest.RequestOpt) (discord.Channel, error)
}

// IsNSFWChannel reports whether the channel is marked age-restricted.
// Lookup failures count as not restricted.
func IsNSFWChannel(ctx context.Context, source ChannelSource, channelID snowflake.ID, logger *zap.Logger) bool {
	channel, err := source.GetChannel(channelID, rest.WithCtx(ctx))
	if err != nil {
		logger.Warn("Failed to fetch channel, treating it as not NSFW",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
		return false
	}

	messageChannel, ok := channel.(discord.GuildMessageChannel)
	return ok && messageChannel.NSFW()
}

// BuildPromptEmbed builds the embed showing a served prompt.
func BuildPromptEmbed(prompt *types.Prompt) discord.Embed {
	color := constants.DefaultEmbedColor
	if prompt.NSFW {
		color = constants.NSFWEmbedColor
	}

	return discord.NewEmbedBuilder().
		SetTitle(prompt.Category.Title()).
		SetDescription(prompt.Text).
		SetColor(color).
		SetFooter(fmt.Sprintf("#%d", prompt.ID), "").
		Build()
}

// BuildPendingEmbed builds the embed listing pending submissions.
func BuildPendingEmbed(submissions []*types.Submission) discord.Embed {
	embed := discord.NewEmbedBuilder().
		SetTitle("Pending suggestions").
		SetColor(constants.DefaultEmbedColor)

	if len(submissions) == 0 {
		return embed.SetDescription("Nothing is waiting for review.").Build()
	}

	lines := make([]string, 0, len(submissions))
	for _, s := range submissions {
		tag := ""
		if s.NSFW {
			tag = " (NSFW)"
		}
		lines = append(lines, fmt.Sprintf("`%d` **%s**%s by %s: %s",
			s.ID, s.Category.Title(), tag, utils.FormatMention(s.Author),
			utils.TruncateString(utils.NormalizeString(s.Text), 100)))
	}

	return embed.
		SetDescription(strings.Join(lines, "\n")).
		SetFooter("Use /approve or /reject with the ID", "").
		Build()
}

// DecisionMessage describes the result of /approve or /reject.
func DecisionMessage(resolution *types.Resolution) string {
	submission := resolution.Submission
	id := strconv.FormatInt(submission.ID, 10)

	if resolution.AlreadyResolved {
		return fmt.Sprintf("%s Submission %s was already %s.", submission.Status.Emoji(), id, submission.Status.String())
	}

	if resolution.Prompt != nil {
		return fmt.Sprintf("%s Approved submission %s, it is now %s #%d.",
			submission.Status.Emoji(), id, resolution.Prompt.Category.String(), resolution.Prompt.ID)
	}

	return fmt.Sprintf("%s Rejected submission %s.", submission.Status.Emoji(), id)
}
