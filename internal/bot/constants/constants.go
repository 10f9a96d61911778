package constants

const (
	// Commands.
	TruthCommandName       = "truth"
	DareCommandName        = "dare"
	SuggestCommandName     = "suggest"
	AddQuestionCommandName = "add_question"
	AddDareCommandName     = "add_dare"
	ApproveCommandName     = "approve"
	RejectCommandName      = "reject"
	PendingCommandName     = "pending"

	// Command options.
	CategoryOption = "category"
	TextOption     = "text"
	NSFWOption     = "nsfw"
	IDOption       = "id"

	// Common.
	DefaultEmbedColor = 0x312D2B
	NSFWEmbedColor    = 0x8B1E3F
	CustomIDSeparator = ":"

	// Review.
	ReviewCustomIDPrefix = "review"
	MaxPendingListed     = 10

	// Replies.
	GenericErrorMessage = "Something went wrong. Please try again later."
	ChannelDeniedReply  = "This command can only be used in the truth or dare channels."
	RoleDeniedReply     = "You need the moderator role to use this."
	ReviewClosedReply   = "This review is no longer open."
	AlreadyResolvedText = "Someone else already handled this submission."
)
