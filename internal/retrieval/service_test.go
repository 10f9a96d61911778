package retrieval_test

import (
	"context"
	"testing"

	"github.com/robalyx/todbot/internal/database/databasetest"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/robalyx/todbot/internal/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServeMatchesChannelSafety(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	prompts := client.Service().Prompt()
	ctx := context.Background()

	for _, p := range []struct {
		text string
		nsfw bool
	}{
		{"safe one", false},
		{"safe two", false},
		{"restricted one", true},
		{"restricted two", true},
	} {
		_, err := prompts.Insert(ctx, enum.CategoryTruth, p.text, p.nsfw, "")
		require.NoError(t, err)
	}

	service := retrieval.NewService(prompts, zap.NewNop())

	for range 100 {
		got, err := service.Serve(ctx, enum.CategoryTruth, retrieval.Context{NSFWChannel: false})
		require.NoError(t, err)
		assert.False(t, got.NSFW, "served %q in a safe channel", got.Text)

		got, err = service.Serve(ctx, enum.CategoryTruth, retrieval.Context{NSFWChannel: true})
		require.NoError(t, err)
		assert.True(t, got.NSFW)
	}
}

func TestServeEmptyCategory(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	service := retrieval.NewService(client.Service().Prompt(), zap.NewNop())

	_, err := service.Serve(context.Background(), enum.CategoryDare, retrieval.Context{})
	require.ErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, err.Error(), "no dares found")
}
