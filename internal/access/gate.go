// Package access decides who may use which command and where.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrMissingConfig is returned by NewGate when the allow lists are empty.
	ErrMissingConfig = errors.New("access gate is not configured")
	// ErrUnauthorized is the kind wrapped by every denial.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrChannelNotAllowed means the command was used outside the allowed channels.
	ErrChannelNotAllowed = fmt.Errorf("%w: channel not allowed", ErrUnauthorized)
	// ErrMissingRole means the actor lacks the moderator role or it could not be checked.
	ErrMissingRole = fmt.Errorf("%w: missing moderator role", ErrUnauthorized)
	// ErrDirectory wraps a failed role lookup.
	ErrDirectory = errors.New("directory lookup failed")
)

// Directory resolves the role names a member holds in a guild.
type Directory interface {
	MemberRoleNames(ctx context.Context, guildID, userID uint64) ([]string, error)
}

// Config lists the allowed channels and the moderator role name.
type Config struct {
	AllowedChannelIDs []uint64
	ModeratorRole     string
}

// Requirement describes which checks an invocation must pass.
type Requirement struct {
	Channel bool
	Role    bool
}

// Invocation is where and by whom a command was used.
// GuildID is zero for direct messages.
type Invocation struct {
	ChannelID uint64
	GuildID   uint64
	ActorID   uint64
}

// Gate answers channel and role questions. It is safe for concurrent use.
type Gate struct {
	channels  map[uint64]struct{}
	role      string
	directory Directory
	logger    *zap.Logger
}

// NewGate creates a gate from the given configuration.
func NewGate(cfg Config, directory Directory, logger *zap.Logger) (*Gate, error) {
	role := strings.TrimSpace(cfg.ModeratorRole)
	if len(cfg.AllowedChannelIDs) == 0 {
		return nil, fmt.Errorf("%w: no allowed channels", ErrMissingConfig)
	}
	if role == "" {
		return nil, fmt.Errorf("%w: no moderator role", ErrMissingConfig)
	}
	if directory == nil {
		return nil, fmt.Errorf("%w: no directory", ErrMissingConfig)
	}

	channels := make(map[uint64]struct{}, len(cfg.AllowedChannelIDs))
	for _, id := range cfg.AllowedChannelIDs {
		channels[id] = struct{}{}
	}

	return &Gate{
		channels:  channels,
		role:      role,
		directory: directory,
		logger:    logger.Named("access_gate"),
	}, nil
}

// ChannelAllowed reports whether commands may be used in the channel.
func (g *Gate) ChannelAllowed(channelID uint64) bool {
	_, ok := g.channels[channelID]
	return ok
}

// RoleAllowed reports whether the actor holds the moderator role in the guild.
// Any lookup failure denies.
func (g *Gate) RoleAllowed(ctx context.Context, actorID, guildID uint64) bool {
	ok, err := g.checkRole(ctx, actorID, guildID)
	if err != nil {
		g.logger.Warn("Role lookup failed, denying",
			zap.Uint64("actor_id", actorID),
			zap.Uint64("guild_id", guildID),
			zap.Error(err))
		return false
	}

	return ok
}

// Authorize runs the checks named by req and returns the first denial.
func (g *Gate) Authorize(ctx context.Context, inv Invocation, req Requirement) error {
	if req.Channel && !g.ChannelAllowed(inv.ChannelID) {
		return ErrChannelNotAllowed
	}

	if req.Role && !g.RoleAllowed(ctx, inv.ActorID, inv.GuildID) {
		return ErrMissingRole
	}

	return nil
}

func (g *Gate) checkRole(ctx context.Context, actorID, guildID uint64) (bool, error) {
	if guildID == 0 {
		return false, nil
	}

	names, err := g.directory.MemberRoleNames(ctx, guildID, actorID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	for _, name := range names {
		if name == g.role {
			return true, nil
		}
	}

	return false, nil
}
