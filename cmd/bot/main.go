package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/todbot/internal/bot"
	"github.com/robalyx/todbot/internal/moderation"
	"github.com/robalyx/todbot/internal/redis"
	"github.com/robalyx/todbot/internal/setup"
	"github.com/robalyx/todbot/internal/setup/telemetry"
	"go.uber.org/zap"
)

const (
	// BotLogDir specifies where bot log files are stored.
	BotLogDir = "logs/bot_logs"

	// shutdownTimeout bounds the graceful shutdown.
	shutdownTimeout = 30 * time.Second
)

func main() {
	ctx := context.Background()

	// Initialize application with required dependencies
	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, BotLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup(ctx)

	// Submission cooldowns need Redis, so only connect when they are enabled
	var limiter moderation.Limiter
	if window := app.Config.Bot.Moderation.Cooldown(); window > 0 {
		client, err := app.RedisManager.GetClient(redis.CooldownDBIndex)
		if err != nil {
			log.Printf("Failed to connect to redis: %v", err)
			return
		}
		limiter = moderation.NewCooldown(client, window, app.Logger)
	}

	// Create bot instance
	discordBot, err := bot.New(&app.Config.Bot, app.DB, limiter, app.Logger)
	if err != nil {
		log.Printf("Failed to create bot: %v", err)
		return
	}

	// Start the bot and connect to Discord
	if err := discordBot.Start(ctx); err != nil {
		log.Printf("Failed to start bot: %v", err)
		return
	}

	app.Logger.Info("Bot started",
		zap.String("instance_id", app.LogManager.GetInstanceID()),
		zap.String("review_mode", app.Config.Bot.Moderation.ReviewMode))
	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")

	// Wait for interrupt signal to gracefully shutdown the bot
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	discordBot.Close(shutdownCtx)
}
