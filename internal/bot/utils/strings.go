package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Regular expression to clean up excessive newlines in prompt text.
var multipleNewlinesRegex = regexp.MustCompile(`\n{3,}`)

// Regular expression to collapse runs of whitespace into one space.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// TruncateString truncates a string to a maximum number of characters.
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) > maxLength {
		return string(runes[:maxLength-3]) + "..."
	}
	return s
}

// FormatString formats a string by trimming it, removing backticks, and enclosing in markdown.
func FormatString(s string) string {
	s = multipleNewlinesRegex.ReplaceAllString(s, "\n")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "`", "")
	return fmt.Sprintf("```\n%s\n```", s)
}

// NormalizeString flattens text onto one line and removes backticks so it
// can be shown inside list entries.
func NormalizeString(s string) string {
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// FormatMention formats an opaque user ID as a Discord mention.
// Empty IDs come from imported prompts and have no author.
func FormatMention(id string) string {
	if id == "" {
		return "Unknown"
	}
	return fmt.Sprintf("<@%s>", id)
}

// GetTimestampedSubtext formats a message with a Discord timestamp and prefix.
// The timestamp shows relative time (e.g., "2 minutes ago") using Discord's timestamp format.
func GetTimestampedSubtext(message string) string {
	if message != "" {
		return fmt.Sprintf("-# `%s` <t:%d:R>", message, time.Now().Unix())
	}
	return ""
}
