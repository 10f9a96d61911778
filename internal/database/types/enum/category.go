package enum

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category represents the kind of prompt stored in the content store.
//
//go:generate go tool enumer -type=Category -trimprefix=Category -transform=lower
type Category int

const (
	// CategoryTruth is a question the player must answer honestly.
	CategoryTruth Category = iota
	// CategoryDare is a task the player must perform.
	CategoryDare
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	return c == CategoryTruth || c == CategoryDare
}

// Title returns the display name used in embeds and replies.
func (c Category) Title() string {
	return cases.Title(language.English).String(c.String())
}

// Plural returns the lowercase plural name used in user-facing messages.
func (c Category) Plural() string {
	return c.String() + "s"
}

// SubmissionStatus represents the review state of a submission.
//
//go:generate go tool enumer -type=SubmissionStatus -trimprefix=SubmissionStatus -transform=lower
type SubmissionStatus int

const (
	SubmissionStatusPending SubmissionStatus = iota
	SubmissionStatusApproved
	SubmissionStatusRejected
)

// Emoji returns the appropriate emoji for a submission status.
func (s SubmissionStatus) Emoji() string {
	switch s {
	case SubmissionStatusPending:
		return "⏳"
	case SubmissionStatusApproved:
		return "✅"
	case SubmissionStatusRejected:
		return "❌"
	default:
		return "❔"
	}
}

// ReviewMode selects how new submissions are presented to moderators.
//
//go:generate go tool enumer -type=ReviewMode -trimprefix=ReviewMode -transform=lower
type ReviewMode int

const (
	// ReviewModeDeferred posts the submission and waits for /approve or /reject.
	ReviewModeDeferred ReviewMode = iota
	// ReviewModeLive posts the submission with accept and deny buttons.
	ReviewModeLive
)
