package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/robalyx/todbot/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonTOML = `
version = 1

[debug]
log_level = "debug"

[database]
driver = "sqlite"
`

const botTOML = `
version = 1

[discord]
token = "token"

[moderation]
allowed_channel_ids = [1100000000000000001, 1100000000000000002]
moderator_role = "tod_admin"
review_channel_id = 1200000000000000000
review_mode = "live"
submission_cooldown = 30
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common.toml", commonTOML)
	writeConfig(t, dir, "bot.toml", botTOML)

	cfg, usedPath, err := config.LoadConfigFrom([]string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)
	assert.Equal(t, dir, usedPath)

	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, config.DefaultMaxLogsToKeep, cfg.Common.Debug.MaxLogsToKeep)
	assert.Equal(t, config.DriverSQLite, cfg.Common.Database.Driver)
	assert.Equal(t, config.DefaultSQLitePath, cfg.Common.Database.SQLite.Path)

	mod := cfg.Bot.Moderation
	assert.Equal(t, []uint64{1100000000000000001, 1100000000000000002}, mod.AllowedChannelIDs)
	assert.Equal(t, "tod_admin", mod.ModeratorRole)
	assert.Equal(t, uint64(1200000000000000000), mod.ReviewChannelID)
	assert.Equal(t, enum.ReviewModeLive, mod.Mode())
	assert.Equal(t, 600*time.Second, mod.Timeout())
	assert.Equal(t, 30*time.Second, mod.Cooldown())
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common.toml", commonTOML)

	_, _, err := config.LoadConfigFrom([]string{dir})
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func TestLoadConfigVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		common  string
		wantErr error
	}{
		{
			name:    "missing version",
			common:  "[debug]\nlog_level = \"info\"\n",
			wantErr: config.ErrConfigVersionMissing,
		},
		{
			name:    "version mismatch",
			common:  "version = 99\n",
			wantErr: config.ErrConfigVersionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, "common.toml", tt.common)
			writeConfig(t, dir, "bot.toml", botTOML)

			_, _, err := config.LoadConfigFrom([]string{dir})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *config.Config {
		return &config.Config{
			Common: config.CommonConfig{
				Database: config.Database{Driver: config.DriverPostgres},
			},
			Bot: config.BotConfig{
				Discord: config.Discord{Token: "token"},
				Moderation: config.Moderation{
					AllowedChannelIDs: []uint64{1},
					ModeratorRole:     "tod_admin",
					ReviewChannelID:   2,
					ReviewMode:        "deferred",
					ReviewTimeout:     600,
				},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{
			name:    "empty channel allow list",
			mutate:  func(c *config.Config) { c.Bot.Moderation.AllowedChannelIDs = nil },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "blank role",
			mutate:  func(c *config.Config) { c.Bot.Moderation.ModeratorRole = "  " },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "missing review channel",
			mutate:  func(c *config.Config) { c.Bot.Moderation.ReviewChannelID = 0 },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "missing token",
			mutate:  func(c *config.Config) { c.Bot.Discord.Token = "" },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "unknown driver",
			mutate:  func(c *config.Config) { c.Common.Database.Driver = "mysql" },
			wantErr: config.ErrInvalidValue,
		},
		{
			name:    "unknown review mode",
			mutate:  func(c *config.Config) { c.Bot.Moderation.ReviewMode = "sometimes" },
			wantErr: config.ErrInvalidValue,
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *config.Config) { c.Bot.Moderation.SubmissionCooldown = -1 },
			wantErr: config.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
