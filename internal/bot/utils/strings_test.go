package utils_test

import (
	"strings"
	"testing"

	"github.com/robalyx/todbot/internal/bot/utils"
	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{
			name:      "short string",
			input:     "hello",
			maxLength: 10,
			want:      "hello",
		},
		{
			name:      "long string",
			input:     "hello world this is a long string",
			maxLength: 10,
			want:      "hello w...",
		},
		{
			name:      "exact length",
			input:     "hello",
			maxLength: 5,
			want:      "hello",
		},
		{
			name:      "multibyte characters",
			input:     "ñañañañañaña",
			maxLength: 6,
			want:      "ñañ...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := utils.TruncateString(tt.input, tt.maxLength)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple string",
			input: "hello",
			want:  "```\nhello\n```",
		},
		{
			name:  "string with backticks",
			input: "hello `world`",
			want:  "```\nhello world\n```",
		},
		{
			name:  "string with multiple newlines",
			input: "hello\n\n\n\nworld",
			want:  "```\nhello\nworld\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := utils.FormatString(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple string",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "string with backticks",
			input: "hello `world`",
			want:  "hello world",
		},
		{
			name:  "string with multiple newlines",
			input: "hello\n\n\nworld",
			want:  "hello world",
		},
		{
			name:  "string with mixed spaces and newlines",
			input: "hello   world\n\n  test",
			want:  "hello world test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := utils.NormalizeString(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMention(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "<@123>", utils.FormatMention("123"))
	assert.Equal(t, "Unknown", utils.FormatMention(""))
}

func TestGetTimestampedSubtext(t *testing.T) {
	t.Parallel()
	assert.Empty(t, utils.GetTimestampedSubtext(""))

	got := utils.GetTimestampedSubtext("Done")
	assert.True(t, strings.HasPrefix(got, "-# `Done` <t:"))
	assert.True(t, strings.HasSuffix(got, ":R>"))
}
