package gmail

// Config holds Gmail connector configuration.
type Config struct {
	// LabelIDs limits fetching to specific label IDs.
	// If empty, fetches from INBOX by default.
	LabelIDs []string
	// Query is a Gmail search query (optional).
	Query string
	// MaxResults is the default fetch size when the caller does not
	// specify a limit.
	MaxResults int64
	// IncludeSpamTrash includes spam and trash if true.
	IncludeSpamTrash bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LabelIDs:   []string{"INBOX"},
		MaxResults: 100,
	}
}
