package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driving"
)

// mockAssistant records the last query and returns canned results.
type mockAssistant struct {
	answer    string
	sources   []domain.ScoredChunk
	queryErr  error
	profile   *domain.StyleProfile
	styleErr  error
	lastQuery domain.QueryContext
}

var _ driving.AssistantService = (*mockAssistant)(nil)

func (m *mockAssistant) Query(
	_ context.Context, qc domain.QueryContext,
) (string, []domain.ScoredChunk, error) {
	m.lastQuery = qc
	if m.queryErr != nil {
		return "", nil, m.queryErr
	}
	return m.answer, m.sources, nil
}

func (m *mockAssistant) AnalyzeStyle(_ context.Context, _ string) (*domain.StyleProfile, error) {
	if m.styleErr != nil {
		return nil, m.styleErr
	}
	return m.profile, nil
}

// mockIngest returns a fixed run record for every operation.
type mockIngest struct {
	run      *domain.IngestRun
	err      error
	lastUser string
	purged   bool
}

var _ driving.IngestService = (*mockIngest)(nil)

func (m *mockIngest) StartIngest(_ context.Context, userID string, _ int) (string, error) {
	m.lastUser = userID
	if m.err != nil {
		return "", m.err
	}
	return m.run.ID, nil
}

func (m *mockIngest) Ingest(_ context.Context, userID string, _ int) (*domain.IngestRun, error) {
	m.lastUser = userID
	return m.run, m.err
}

func (m *mockIngest) Status(_ context.Context, _ string) (*domain.IngestRun, error) {
	return m.run, m.err
}

func (m *mockIngest) LatestStatus(_ context.Context, userID string) (*domain.IngestRun, error) {
	m.lastUser = userID
	return m.run, m.err
}

func (m *mockIngest) PurgeUser(_ context.Context, userID string) error {
	m.lastUser = userID
	m.purged = true
	return m.err
}

// memConfig is an in-memory ConfigStore for command tests.
type memConfig struct {
	mu     sync.RWMutex
	values map[string]any
}

func newMemConfig(values map[string]any) *memConfig {
	if values == nil {
		values = make(map[string]any)
	}
	return &memConfig{values: values}
}

func (c *memConfig) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *memConfig) GetString(key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (c *memConfig) GetInt(key string) int {
	if v, ok := c.Get(key); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

func (c *memConfig) GetBool(key string) bool {
	if v, ok := c.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func (c *memConfig) GetFloat(key string) float64 {
	if v, ok := c.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return 0
}

func (c *memConfig) GetStringSlice(key string) []string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.([]string); ok {
			return s
		}
	}
	return nil
}

func (c *memConfig) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memConfig) Save() error { return nil }
func (c *memConfig) Load() error { return nil }

func (c *memConfig) Path() string { return "/tmp/mailrag-test/config.toml" }

// setupTestServices installs mock services and returns a cleanup that
// restores the previous ones.
func setupTestServices() func() {
	oldAssistant := assistantService
	oldIngest := ingestService
	oldConfig := configStore

	assistantService = &mockAssistant{
		answer: "The meeting is on Tuesday.",
		sources: []domain.ScoredChunk{
			{
				Chunk: domain.Chunk{
					Source:   domain.SourceEmail,
					SourceID: "msg-1",
					Metadata: map[string]any{
						"subject": "Team sync",
						"sender":  "alice@example.com",
					},
				},
				Distance: 0.12,
			},
		},
		profile: &domain.StyleProfile{
			Tone:      "concise and friendly",
			Greetings: []string{"Hi", "Hello"},
			SignOffs:  []string{"Best"},
		},
	}
	ingestService = &mockIngest{
		run: &domain.IngestRun{
			ID:                 "run-1",
			UserID:             "alice@example.com",
			State:              domain.RunSucceeded,
			DocumentsProcessed: 3,
			DocumentsSkipped:   1,
			ChunksStored:       9,
		},
	}
	configStore = newMemConfig(map[string]any{
		"user.id": "alice@example.com",
	})

	return func() {
		assistantService = oldAssistant
		ingestService = oldIngest
		configStore = oldConfig
	}
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
