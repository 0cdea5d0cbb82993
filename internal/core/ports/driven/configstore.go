package driven

// ConfigStore reads and writes application configuration. Keys use dot
// notation ("llm.provider", "ingest.gmail_limit"). The typed getters
// return the zero value for a missing key or a type mismatch, so
// callers layer their own defaults on top.
type ConfigStore interface {
	// Get returns the raw value and whether the key exists.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat(key string) float64
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save writes the current state to storage.
	Save() error

	// Load re-reads configuration from storage.
	Load() error

	// Path identifies the backing file, for display in `config show`.
	Path() string
}
