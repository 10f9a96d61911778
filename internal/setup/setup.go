package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/robalyx/todbot/internal/database"
	"github.com/robalyx/todbot/internal/database/migrations"
	"github.com/robalyx/todbot/internal/redis"
	"github.com/robalyx/todbot/internal/setup/config"
	"github.com/robalyx/todbot/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// App bundles the dependencies shared by every binary.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the config files were read from
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log session management
	Tracing      *telemetry.Tracing // Span exporter
}

// InitializeApp loads the configuration and brings up logging, tracing and the database.
// Redis clients are created lazily by the manager.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Tracing comes first so the loggers can forward errors as spans
	tracing := telemetry.SetupTracing(&cfg.Common.Telemetry, serviceType)

	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, tracing.Enabled())

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	db, err := checkAndRunMigrations(ctx, &cfg.Common.Database, dbLogger)
	if err != nil {
		return nil, err
	}

	logger.Info("Application initialized",
		zap.String("config_dir", configDir),
		zap.String("session_dir", logManager.GetCurrentSessionDir()),
		zap.Bool("tracing", tracing.Enabled()))

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		LogManager:   logManager,
		Tracing:      tracing,
	}, nil
}

// Cleanup shuts components down in reverse order of initialization.
// Errors are logged so every component still gets its turn.
func (s *App) Cleanup(ctx context.Context) {
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	s.RedisManager.Close()

	if err := s.Tracing.Shutdown(ctx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}
}

// checkAndRunMigrations asks before applying pending migrations.
func checkAndRunMigrations(ctx context.Context, cfg *config.Database, dbLogger *zap.Logger) (database.Client, error) {
	db, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if len(ms.Unapplied()) == 0 {
		return db, nil
	}

	log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

	var response string
	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		db.Close()
		log.Fatalf("Closing program due to incomplete migrations")
	}

	if err := database.Migrate(ctx, db.DB(), dbLogger); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
