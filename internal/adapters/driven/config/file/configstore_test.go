package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_PathUnderConfigDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultsToHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mailrag", "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deeply", "nested")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	require.NotNil(t, store)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_UnwritableDir(t *testing.T) {
	store, err := NewConfigStore("/dev/null/nope")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_RejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = toml = at all"), 0600))

	store, err := NewConfigStore(dir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("provider", "ollama"))
	require.NoError(t, store.Set("chunk_size", 800))
	require.NoError(t, store.Set("temperature", 0.2))
	require.NoError(t, store.Set("verbose", true))
	require.NoError(t, store.Set("labels", []string{"INBOX", "SENT"}))

	assert.Equal(t, "ollama", store.GetString("provider"))
	assert.Equal(t, 800, store.GetInt("chunk_size"))
	assert.Equal(t, 0.2, store.GetFloat("temperature"))
	assert.True(t, store.GetBool("verbose"))
	assert.Equal(t, []string{"INBOX", "SENT"}, store.GetStringSlice("labels"))
}

func TestConfigStore_TypedGetters_ZeroValues(t *testing.T) {
	store := newTestStore(t)

	// Mistyped value, same zero result as a missing key.
	require.NoError(t, store.Set("oddball", "forty-two"))

	tests := []struct {
		name string
		key  string
	}{
		{name: "missing key", key: "absent"},
		{name: "wrong type", key: "oddball"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0, store.GetInt(tt.key))
			assert.Equal(t, 0.0, store.GetFloat(tt.key))
			assert.False(t, store.GetBool(tt.key))
			assert.Nil(t, store.GetStringSlice(tt.key))
			if tt.key == "absent" {
				assert.Equal(t, "", store.GetString(tt.key))
				_, ok := store.Get(tt.key)
				assert.False(t, ok)
			}
		})
	}
}

func TestConfigStore_GetFloat_WidensIntegers(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("limit", 50))

	assert.Equal(t, 50.0, store.GetFloat("limit"))
}

func TestConfigStore_Set_Overwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("llm.model", "qwen2.5"))

	assert.Equal(t, "qwen2.5", store.GetString("llm.model"))
}

func TestConfigStore_Set_RejectsUnmarshallable(t *testing.T) {
	store := newTestStore(t)

	err := store.Set("ch", make(chan int))

	assert.Error(t, err)
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("user.id", "alice@example.com"))
	require.NoError(t, store.Set("ingest.gmail_limit", 200))
	require.NoError(t, store.Set("verbose", true))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", reloaded.GetString("user.id"))
	assert.Equal(t, 200, reloaded.GetInt("ingest.gmail_limit"))
	assert.True(t, reloaded.GetBool("verbose"))
}

func TestConfigStore_SaveWritesNestedTables(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	// Dotted keys are grouped under a table header, not written literally.
	assert.Contains(t, string(raw), "[embedding]")
	assert.NotContains(t, string(raw), "'embedding.model'")
}

func TestConfigStore_LoadFlattensTables(t *testing.T) {
	dir := t.TempDir()
	content := "[llm]\nprovider = \"openai\"\nmodel = \"gpt-4o-mini\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))
}

func TestConfigStore_FileModeIsPrivate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("llm.api_key", "sk-test"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Load_MissingFileStartsEmpty(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Load())

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Load_CommentOnlyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("# nothing here yet\n"), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Load_CorruptedFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("ok", "yes"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("][ broken"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Save_WriteFailure(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("ok", "yes"))

	// A directory at the config path makes the write fail.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Save())
}

func TestConfigStore_ConcurrentReadersAndWriters(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := "worker." + string(rune('a'+n))
			_ = store.Set(key, n)
			_ = store.GetInt(key)
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()
}

func TestUnflatten_ScalarTableCollision(t *testing.T) {
	flat := map[string]any{
		"llm":       "oops",
		"llm.model": "llama3.2",
	}

	nested := unflatten(flat)

	// The scalar wins; the dotted key under it is dropped rather than
	// producing a TOML document with a duplicate name.
	assert.Equal(t, "oops", nested["llm"])
}
