package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/todbot/internal/access"
	"github.com/robalyx/todbot/internal/bot/constants"
	"github.com/robalyx/todbot/internal/bot/utils"
	"github.com/robalyx/todbot/internal/database"
	"github.com/robalyx/todbot/internal/moderation"
	"github.com/robalyx/todbot/internal/retrieval"
	"github.com/robalyx/todbot/internal/setup/config"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// interactionTimeout bounds the work done for a single interaction.
const interactionTimeout = 30 * time.Second

// Bot wires the Discord client to the moderation workflow, the retrieval
// service and the access gate.
type Bot struct {
	client    bot.Client
	workflow  *moderation.Workflow
	retrieval *retrieval.Service
	gate      *access.Gate
	handlers  conc.WaitGroup
	logger    *zap.Logger
}

// New creates the Discord client and every component the handlers use.
// limiter may be nil when submission cooldowns are disabled.
func New(cfg *config.BotConfig, db database.Client, limiter moderation.Limiter, logger *zap.Logger) (*Bot, error) {
	b := &Bot{
		retrieval: retrieval.NewService(db.Service().Prompt(), logger),
		logger:    logger.Named("bot"),
	}

	// Configure Discord client with required gateway intents and event handlers
	client, err := disgo.New(cfg.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(gateway.IntentGuilds),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
			OnComponentInteraction:          b.handleComponentInteraction,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}
	b.client = client

	moderationCfg := cfg.Moderation

	gate, err := access.NewGate(access.Config{
		AllowedChannelIDs: moderationCfg.AllowedChannelIDs,
		ModeratorRole:     moderationCfg.ModeratorRole,
	}, NewDirectory(client.Rest(), logger), logger)
	if err != nil {
		return nil, err
	}
	b.gate = gate

	b.workflow = moderation.NewWorkflow(
		db.Service().Submission(),
		db.Service().Prompt(),
		NewReviewNotifier(client.Rest(), moderationCfg.ReviewChannelID, logger),
		limiter,
		moderation.Config{
			Mode:    moderationCfg.Mode(),
			Timeout: moderationCfg.Timeout(),
		},
		logger,
	)

	return b, nil
}

// Start registers global commands with Discord and opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands")

	_, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commands(), rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot", zap.String("review_mode", b.workflow.Mode().String()))
	return b.client.OpenGateway(ctx)
}

// Close expires open live reviews, waits for running handlers and shuts the
// gateway connection down.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.workflow.Close()
	b.handlers.Wait()
	b.client.Close(ctx)
}

// handleApplicationCommandInteraction runs each slash command in its own goroutine.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	b.handlers.Go(func() {
		name := event.SlashCommandInteractionData().CommandName()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in application command interaction handler",
					zap.String("command", name),
					zap.Any("panic", r))
				b.respondContent(event, utils.GetTimestampedSubtext("Internal error. Please report this to an administrator."))
			}
			b.logger.Debug("Application command interaction handled",
				zap.String("command", name),
				zap.Duration("duration", time.Since(start)))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		b.handleCommand(ctx, event, name)
	})
}

// handleComponentInteraction routes review button presses to the workflow.
func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	customID := event.Data.CustomID()

	affordance, token, ok := ParseReviewCustomID(customID)
	if !ok {
		b.logger.Debug("Ignoring unknown component", zap.String("customID", customID))
		return
	}

	b.handlers.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in component interaction handler", zap.Any("panic", r))
			}
		}()

		// Acknowledge without changing the message, the notifier edits it once settled
		if err := event.DeferUpdateMessage(); err != nil {
			b.logger.Error("Failed to defer update message", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		if err := b.gate.Authorize(ctx, invocationOf(event), access.Requirement{Role: true}); err != nil {
			b.followupError(event, err)
			return
		}

		resolution, err := b.workflow.Resolve(ctx, token, affordance, event.User().ID.String())
		if err != nil {
			b.followupError(event, err)
			return
		}

		switch {
		case resolution.AlreadyResolved:
			b.followup(event, constants.AlreadyResolvedText)
		case affordance == moderation.AffordanceAccept:
			b.followup(event, "Accepted")
		default:
			b.followup(event, "Denied")
		}
	})
}

// followupError sends the message for err as an ephemeral followup.
func (b *Bot) followupError(event commonEvent, err error) {
	message, expected := ErrorMessage(err)
	if !expected {
		b.logger.Error("Component interaction failed", zap.Error(err))
	}
	b.followup(event, message)
}

// interactionEvent is what invocationOf reads from an interaction.
type interactionEvent interface {
	ChannelID() snowflake.ID
	GuildID() *snowflake.ID
	User() discord.User
}

// invocationOf describes where and by whom an interaction was triggered.
func invocationOf(event interactionEvent) access.Invocation {
	inv := access.Invocation{
		ChannelID: uint64(event.ChannelID()),
		ActorID:   uint64(event.User().ID),
	}
	if guildID := event.GuildID(); guildID != nil {
		inv.GuildID = uint64(*guildID)
	}
	return inv
}
