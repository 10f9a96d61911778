package access_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/robalyx/todbot/internal/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	guildID     = 10
	channelID   = 20
	moderatorID = 30
	memberID    = 31
)

type fakeDirectory struct {
	roles map[uint64][]string
	err   error
	calls atomic.Int32
}

func (d *fakeDirectory) MemberRoleNames(_ context.Context, _, userID uint64) ([]string, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.roles[userID], nil
}

func newGate(t *testing.T, directory access.Directory) *access.Gate {
	t.Helper()

	gate, err := access.NewGate(access.Config{
		AllowedChannelIDs: []uint64{channelID, 21},
		ModeratorRole:     "tod_admin",
	}, directory, zap.NewNop())
	require.NoError(t, err)

	return gate
}

func TestNewGateRequiresConfig(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{}

	_, err := access.NewGate(access.Config{ModeratorRole: "tod_admin"}, directory, zap.NewNop())
	require.ErrorIs(t, err, access.ErrMissingConfig)

	_, err = access.NewGate(access.Config{AllowedChannelIDs: []uint64{1}, ModeratorRole: " "}, directory, zap.NewNop())
	require.ErrorIs(t, err, access.ErrMissingConfig)

	_, err = access.NewGate(access.Config{AllowedChannelIDs: []uint64{1}, ModeratorRole: "tod_admin"}, nil, zap.NewNop())
	require.ErrorIs(t, err, access.ErrMissingConfig)
}

func TestChannelAllowed(t *testing.T) {
	t.Parallel()

	gate := newGate(t, &fakeDirectory{})

	assert.True(t, gate.ChannelAllowed(channelID))
	assert.True(t, gate.ChannelAllowed(21))
	assert.False(t, gate.ChannelAllowed(22))
	assert.False(t, gate.ChannelAllowed(0))
}

func TestRoleAllowed(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{roles: map[uint64][]string{
		moderatorID: {"member", "tod_admin"},
		memberID:    {"member", "TOD_ADMIN"},
	}}
	gate := newGate(t, directory)
	ctx := context.Background()

	assert.True(t, gate.RoleAllowed(ctx, moderatorID, guildID))
	assert.False(t, gate.RoleAllowed(ctx, memberID, guildID), "role names are matched exactly")
	assert.False(t, gate.RoleAllowed(ctx, 99, guildID))
}

func TestRoleAllowedFailsClosed(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{
		roles: map[uint64][]string{moderatorID: {"tod_admin"}},
		err:   errors.New("rest: 503 service unavailable"),
	}
	gate := newGate(t, directory)

	assert.False(t, gate.RoleAllowed(context.Background(), moderatorID, guildID))
}

func TestRoleAllowedWithoutGuild(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{roles: map[uint64][]string{moderatorID: {"tod_admin"}}}
	gate := newGate(t, directory)

	assert.False(t, gate.RoleAllowed(context.Background(), moderatorID, 0))
	assert.Zero(t, directory.calls.Load())
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{roles: map[uint64][]string{moderatorID: {"tod_admin"}}}
	gate := newGate(t, directory)
	ctx := context.Background()

	tests := []struct {
		name    string
		inv     access.Invocation
		req     access.Requirement
		wantErr error
	}{
		{
			name: "player in allowed channel",
			inv:  access.Invocation{ChannelID: channelID, GuildID: guildID, ActorID: memberID},
			req:  access.Requirement{Channel: true},
		},
		{
			name:    "player in other channel",
			inv:     access.Invocation{ChannelID: 99, GuildID: guildID, ActorID: memberID},
			req:     access.Requirement{Channel: true},
			wantErr: access.ErrChannelNotAllowed,
		},
		{
			name:    "member using moderator command",
			inv:     access.Invocation{ChannelID: channelID, GuildID: guildID, ActorID: memberID},
			req:     access.Requirement{Role: true},
			wantErr: access.ErrMissingRole,
		},
		{
			name: "moderator anywhere",
			inv:  access.Invocation{ChannelID: 99, GuildID: guildID, ActorID: moderatorID},
			req:  access.Requirement{Role: true},
		},
		{
			name:    "moderator in other channel with both checks",
			inv:     access.Invocation{ChannelID: 99, GuildID: guildID, ActorID: moderatorID},
			req:     access.Requirement{Channel: true, Role: true},
			wantErr: access.ErrChannelNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Authorize(ctx, tt.inv, tt.req)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, access.ErrUnauthorized)
		})
	}
}
