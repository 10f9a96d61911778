package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MemberSource is the part of the Discord REST client the directory needs.
type MemberSource interface {
	GetMember(guildID snowflake.ID, userID snowflake.ID, opts ...rest.RequestOpt) (*discord.Member, error)
	GetRoles(guildID snowflake.ID, opts ...rest.RequestOpt) ([]discord.Role, error)
}

// Directory resolves guild role names for the access gate.
type Directory struct {
	source MemberSource
	roles  singleflight.Group
	logger *zap.Logger
}

// NewDirectory creates a directory backed by the Discord REST API.
func NewDirectory(source MemberSource, logger *zap.Logger) *Directory {
	return &Directory{
		source: source,
		logger: logger.Named("directory"),
	}
}

// MemberRoleNames returns the names of every role the user holds in the guild.
func (d *Directory) MemberRoleNames(ctx context.Context, guildID, userID uint64) ([]string, error) {
	member, err := d.source.GetMember(snowflake.ID(guildID), snowflake.ID(userID), rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}

	if len(member.RoleIDs) == 0 {
		return nil, nil
	}

	// Concurrent checks in the same guild share one roles request
	result, err, _ := d.roles.Do(strconv.FormatUint(guildID, 10), func() (any, error) {
		return d.source.GetRoles(snowflake.ID(guildID), rest.WithCtx(ctx))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild roles: %w", err)
	}

	roles := result.([]discord.Role)
	byID := make(map[snowflake.ID]string, len(roles))
	for _, role := range roles {
		byID[role.ID] = role.Name
	}

	names := make([]string, 0, len(member.RoleIDs))
	for _, id := range member.RoleIDs {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}

	d.logger.Debug("Resolved member roles",
		zap.Uint64("guildID", guildID),
		zap.Uint64("userID", userID),
		zap.Strings("roles", names))

	return names, nil
}
