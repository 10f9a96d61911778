package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robalyx/todbot/internal/database/types/enum"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrMissingRequired       = errors.New("missing required config value")
	ErrInvalidValue          = errors.New("invalid config value")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v1.0.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Database drivers supported by the database client.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Defaults applied when a value is left out of the config files.
const (
	DefaultLogLevel      = "info"
	DefaultMaxLogsToKeep = 10
	DefaultMaxLogLines   = 10000
	DefaultSQLitePath    = "truth_or_dare.db"
	DefaultReviewTimeout = 600
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Bot    BotConfig
}

// CommonConfig contains configuration shared by every binary.
type CommonConfig struct {
	// Version of the common config.
	Version   int       `koanf:"version"`
	Debug     Debug     `koanf:"debug"`
	Database  Database  `koanf:"database"`
	Redis     Redis     `koanf:"redis"`
	Telemetry Telemetry `koanf:"telemetry"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Discord configuration.
	Discord Discord `koanf:"discord"`
	// Moderation configuration.
	Moderation Moderation `koanf:"moderation"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Database selects and configures the backing store.
type Database struct {
	// Driver is either "postgres" or "sqlite".
	Driver     string     `koanf:"driver"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	SQLite     SQLite     `koanf:"sqlite"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// SQLite contains single-file database configuration.
type SQLite struct {
	// Path to the database file.
	Path string `koanf:"path"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Telemetry contains tracing configuration.
type Telemetry struct {
	// Uptrace DSN, tracing is disabled when empty.
	UptraceDSN string `koanf:"uptrace_dsn"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Discord bot token for authentication.
	Token string `koanf:"token"`
}

// Moderation configures the access gate and the review workflow.
type Moderation struct {
	// Channels where truth or dare commands may be used.
	AllowedChannelIDs []uint64 `koanf:"allowed_channel_ids"`
	// Name of the role that grants moderator commands.
	ModeratorRole string `koanf:"moderator_role"`
	// Channel where submissions are posted for review.
	ReviewChannelID uint64 `koanf:"review_channel_id"`
	// Review mode, "deferred" or "live".
	ReviewMode string `koanf:"review_mode"`
	// Seconds a live review stays open.
	ReviewTimeout int `koanf:"review_timeout"`
	// Seconds between submissions from the same author, 0 disables.
	SubmissionCooldown int `koanf:"submission_cooldown"`
}

// Mode parses the configured review mode.
func (m *Moderation) Mode() enum.ReviewMode {
	mode, err := enum.ReviewModeString(m.ReviewMode)
	if err != nil {
		return enum.ReviewModeDeferred
	}

	return mode
}

// Timeout returns the live review timeout as a duration.
func (m *Moderation) Timeout() time.Duration {
	return time.Duration(m.ReviewTimeout) * time.Second
}

// Cooldown returns the per-author submission cooldown as a duration.
func (m *Moderation) Cooldown() time.Duration {
	return time.Duration(m.SubmissionCooldown) * time.Second
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".todbot",
		homeDir + "/.todbot/config",
		"/etc/todbot/config",
		"/app/config",
		"config",
		".",
	}

	return LoadConfigFrom(configPaths)
}

// LoadConfigFrom loads common.toml and bot.toml from the first path holding each file.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "bot"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// applyDefaults fills in optional values that were left empty.
func (c *Config) applyDefaults() {
	if c.Common.Debug.LogLevel == "" {
		c.Common.Debug.LogLevel = DefaultLogLevel
	}

	if c.Common.Debug.MaxLogsToKeep == 0 {
		c.Common.Debug.MaxLogsToKeep = DefaultMaxLogsToKeep
	}

	if c.Common.Debug.MaxLogLines == 0 {
		c.Common.Debug.MaxLogLines = DefaultMaxLogLines
	}

	if c.Common.Database.Driver == "" {
		c.Common.Database.Driver = DriverPostgres
	}

	if c.Common.Database.SQLite.Path == "" {
		c.Common.Database.SQLite.Path = DefaultSQLitePath
	}

	if c.Bot.Moderation.ReviewMode == "" {
		c.Bot.Moderation.ReviewMode = enum.ReviewModeDeferred.String()
	}

	if c.Bot.Moderation.ReviewTimeout == 0 {
		c.Bot.Moderation.ReviewTimeout = DefaultReviewTimeout
	}
}

// Validate checks that every required value is present and well formed.
// A failure here is fatal at startup, never an error per request.
func (c *Config) Validate() error {
	var missing []string

	if c.Bot.Discord.Token == "" {
		missing = append(missing, "discord.token")
	}

	if len(c.Bot.Moderation.AllowedChannelIDs) == 0 {
		missing = append(missing, "moderation.allowed_channel_ids")
	}

	if strings.TrimSpace(c.Bot.Moderation.ModeratorRole) == "" {
		missing = append(missing, "moderation.moderator_role")
	}

	if c.Bot.Moderation.ReviewChannelID == 0 {
		missing = append(missing, "moderation.review_channel_id")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: bot.toml %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	switch c.Common.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: database.driver %q", ErrInvalidValue, c.Common.Database.Driver)
	}

	if _, err := enum.ReviewModeString(c.Bot.Moderation.ReviewMode); err != nil {
		return fmt.Errorf("%w: moderation.review_mode %q", ErrInvalidValue, c.Bot.Moderation.ReviewMode)
	}

	if c.Bot.Moderation.ReviewTimeout < 0 || c.Bot.Moderation.SubmissionCooldown < 0 {
		return fmt.Errorf("%w: moderation durations must not be negative", ErrInvalidValue)
	}

	return nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/todbot/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
