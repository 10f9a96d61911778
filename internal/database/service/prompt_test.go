package service_test

import (
	"context"
	"testing"

	"github.com/robalyx/todbot/internal/database/databasetest"
	"github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptInsertValidation(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	prompts := client.Service().Prompt()
	ctx := context.Background()

	tests := []struct {
		name     string
		category enum.Category
		text     string
		wantErr  error
	}{
		{name: "empty text", category: enum.CategoryTruth, text: "", wantErr: types.ErrEmptyText},
		{name: "whitespace text", category: enum.CategoryDare, text: "  \t\n", wantErr: types.ErrEmptyText},
		{name: "unknown category", category: enum.Category(7), text: "hello", wantErr: types.ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prompts.Insert(ctx, tt.category, tt.text, false, "author")
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, types.ErrValidation)
		})
	}

	count, err := prompts.Count(ctx, enum.CategoryTruth, false)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPromptRandomEmptyThenInserted(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	prompts := client.Service().Prompt()
	ctx := context.Background()

	_, err := prompts.Random(ctx, enum.CategoryTruth, false)
	require.ErrorIs(t, err, types.ErrNotFound)

	var noPrompts *types.NoPromptsError
	require.ErrorAs(t, err, &noPrompts)
	assert.Equal(t, enum.CategoryTruth, noPrompts.Category)
	assert.Equal(t, "no truths found, please add some using /suggest", err.Error())

	inserted, err := prompts.Insert(ctx, enum.CategoryTruth, "  What is your biggest fear?  ", false, "42")
	require.NoError(t, err)
	assert.Equal(t, "What is your biggest fear?", inserted.Text)

	got, err := prompts.Random(ctx, enum.CategoryTruth, false)
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, "What is your biggest fear?", got.Text)
	assert.Equal(t, "42", got.Author)
}

func TestPromptRandomFiltersCategoryAndSafety(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	prompts := client.Service().Prompt()
	ctx := context.Background()

	_, err := prompts.Insert(ctx, enum.CategoryTruth, "safe truth", false, "")
	require.NoError(t, err)
	_, err = prompts.Insert(ctx, enum.CategoryTruth, "restricted truth", true, "")
	require.NoError(t, err)
	_, err = prompts.Insert(ctx, enum.CategoryDare, "restricted dare", true, "")
	require.NoError(t, err)

	for range 50 {
		got, err := prompts.Random(ctx, enum.CategoryTruth, false)
		require.NoError(t, err)
		assert.Equal(t, "safe truth", got.Text)
		assert.False(t, got.NSFW)
	}

	got, err := prompts.Random(ctx, enum.CategoryDare, true)
	require.NoError(t, err)
	assert.Equal(t, "restricted dare", got.Text)

	_, err = prompts.Random(ctx, enum.CategoryDare, false)
	require.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, "no dares found, please add some using /suggest", err.Error())
}

func TestPromptRandomUsesDrawnOffset(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	prompts := client.Service().Prompt()
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, err := prompts.Insert(ctx, enum.CategoryDare, text, false, "")
		require.NoError(t, err)
	}

	var bound int
	client.Model().Prompt().SetRandomSource(func(n int) int {
		bound = n
		return 1
	})

	got, err := prompts.Random(ctx, enum.CategoryDare, false)
	require.NoError(t, err)
	assert.Equal(t, 3, bound)
	assert.Equal(t, "second", got.Text)
}

func TestPromptRandomIsUniform(t *testing.T) {
	t.Parallel()

	client := databasetest.New(t)
	prompts := client.Service().Prompt()
	ctx := context.Background()

	texts := []string{"a", "b", "c", "d"}
	for _, text := range texts {
		_, err := prompts.Insert(ctx, enum.CategoryTruth, text, false, "")
		require.NoError(t, err)
	}

	const draws = 4000
	seen := make(map[string]int)
	for range draws {
		got, err := prompts.Random(ctx, enum.CategoryTruth, false)
		require.NoError(t, err)
		seen[got.Text]++
	}

	// Pearson's chi-square over 4 buckets, 3 degrees of freedom.
	// 16.27 is the p=0.001 critical value.
	expected := float64(draws) / float64(len(texts))
	var chi2 float64
	for _, text := range texts {
		diff := float64(seen[text]) - expected
		chi2 += diff * diff / expected
	}
	assert.Less(t, chi2, 16.27, "distribution %v", seen)
}
