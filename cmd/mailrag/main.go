// Command mailrag is a local retrieval assistant over your email,
// documents and calendar. It wires the storage, embedding, LLM and
// connector adapters together and hands them to the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/mailrag-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/mailrag-cli/internal/adapters/driven/auth"
	configfile "github.com/custodia-labs/mailrag-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mailrag-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/mailrag-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/mailrag-cli/internal/connectors/google/calendar"
	"github.com/custodia-labs/mailrag-cli/internal/connectors/google/drive"
	"github.com/custodia-labs/mailrag-cli/internal/connectors/google/gmail"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/core/services"
	"github.com/custodia-labs/mailrag-cli/internal/logger"
	"github.com/custodia-labs/mailrag-cli/internal/segmenter"
	"github.com/custodia-labs/mailrag-cli/internal/vector"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// MAILRAG_HOME overrides ~/.mailrag, mainly for tests and
	// side-by-side installs.
	home := os.Getenv("MAILRAG_HOME")

	configStore, err := configfile.NewConfigStore(home)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	var dataDir string
	if home != "" {
		dataDir = filepath.Join(home, "data")
	}
	metric, err := metricFromConfig(configStore)
	if err != nil {
		return fmt.Errorf("reading retrieval.metric: %w", err)
	}
	store, err := sqlite.NewStore(dataDir, sqlite.WithMetric(metric))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	embedder, err := ai.NewEmbeddingService(ai.SettingsFromConfig(configStore, "embedding"))
	if err != nil {
		return fmt.Errorf("configuring embedding provider: %w", err)
	}
	defer embedder.Close()

	llm, err := ai.NewLLMService(ai.SettingsFromConfig(configStore, "llm"))
	if err != nil {
		return fmt.Errorf("configuring LLM provider: %w", err)
	}
	defer llm.Close()

	tokenProvider := auth.NewOAuthProvider(configStore)

	sources, err := buildSources(context.Background(), tokenProvider, configStore)
	if err != nil {
		return fmt.Errorf("configuring sources: %w", err)
	}
	defer func() {
		for _, src := range sources {
			_ = src.Close()
		}
	}()

	seg := segmenterFromConfig(configStore)

	cli.SetVersion(version)
	cli.SetConfigStore(configStore)
	cli.SetTokenProvider(tokenProvider)
	cli.SetAssistantService(services.NewAssistantService(store.ChunkStore(), embedder, llm))
	cli.SetIngestService(services.NewIngestService(
		sources,
		store.DocumentStateStore(),
		store.ChunkStore(),
		store.IngestRunStore(),
		embedder,
		seg,
	))

	return cli.Execute()
}

// buildSources creates the Google connectors. Without stored
// credentials it returns no sources, which leaves ask and config
// usable before 'mailrag auth' has run.
func buildSources(
	ctx context.Context,
	provider driven.TokenProvider,
	cfg driven.ConfigStore,
) ([]driven.MailboxSource, error) {
	if !provider.IsAuthenticated() {
		logger.Debug("No stored credentials; no sources configured")
		return nil, nil
	}

	gmailCfg := gmail.DefaultConfig()
	if n := cfg.GetInt("ingest.gmail_limit"); n > 0 {
		gmailCfg.MaxResults = int64(n)
	}
	gm, err := gmail.New(ctx, provider, gmailCfg)
	if err != nil {
		return nil, fmt.Errorf("gmail: %w", err)
	}

	driveCfg := drive.Config{}
	if n := cfg.GetInt("ingest.drive_limit"); n > 0 {
		driveCfg.MaxResults = int64(n)
	}
	dr, err := drive.New(ctx, provider, driveCfg)
	if err != nil {
		return nil, fmt.Errorf("drive: %w", err)
	}

	calCfg := calendar.Config{}
	if n := cfg.GetInt("ingest.calendar_limit"); n > 0 {
		calCfg.MaxResults = int64(n)
	}
	cal, err := calendar.New(ctx, provider, calCfg)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	return []driven.MailboxSource{gm, dr, cal}, nil
}

// metricFromConfig resolves the distance metric for retrieval from the
// optional retrieval.metric config key. An unset key means L2.
func metricFromConfig(cfg driven.ConfigStore) (vector.Metric, error) {
	return vector.ParseMetric(cfg.GetString("retrieval.metric"))
}

// segmenterFromConfig builds the segmenter, honouring optional size
// overrides from the config file.
func segmenterFromConfig(cfg driven.ConfigStore) *segmenter.Segmenter {
	var opts []segmenter.Option
	if n := cfg.GetInt("segmenter.chunk_size"); n > 0 {
		opts = append(opts, segmenter.WithChunkSize(n))
	}
	if n := cfg.GetInt("segmenter.overlap"); n > 0 {
		opts = append(opts, segmenter.WithOverlap(n))
	}
	return segmenter.New(opts...)
}
