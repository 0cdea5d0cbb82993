// Package ai builds embedding and LLM adapters from configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/mailrag-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/mailrag-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/mailrag-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/mailrag-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/mailrag-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// pingTimeout bounds connectivity validation requests.
const pingTimeout = 5 * time.Second

// Settings describes one provider configuration, read from the config
// file under a key prefix such as "embedding" or "llm".
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// SettingsFromConfig reads provider settings from cfg under prefix.
// Unset keys stay empty; the adapters apply their own defaults.
func SettingsFromConfig(cfg driven.ConfigStore, prefix string) Settings {
	return Settings{
		Provider: cfg.GetString(prefix + ".provider"),
		Model:    cfg.GetString(prefix + ".model"),
		APIKey:   cfg.GetString(prefix + ".api_key"),
		BaseURL:  cfg.GetString(prefix + ".base_url"),
	}
}

// NewEmbeddingService creates the embedding service for s. The default
// provider, when none is configured, is Ollama so a fresh install works
// without credentials.
func NewEmbeddingService(s Settings) (driven.EmbeddingService, error) {
	switch s.Provider {
	case ProviderOllama, "":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: s.BaseURL,
			Model:   s.Model,
		}), nil

	case ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  s.APIKey,
			BaseURL: s.BaseURL,
			Model:   s.Model,
		})

	case ProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not provide embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", s.Provider)
	}
}

// NewLLMService creates the LLM service for s. Defaults to Ollama when
// no provider is configured.
func NewLLMService(s Settings) (driven.LLMService, error) {
	switch s.Provider {
	case ProviderOllama, "":
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: s.BaseURL,
			Model:   s.Model,
		}), nil

	case ProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  s.APIKey,
			BaseURL: s.BaseURL,
			Model:   s.Model,
		})

	case ProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  s.APIKey,
			BaseURL: s.BaseURL,
			Model:   s.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

// ValidateEmbedding creates the embedding service for s and pings it.
func ValidateEmbedding(s Settings) error {
	svc, err := NewEmbeddingService(s)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLM creates the LLM service for s and pings it.
func ValidateLLM(s Settings) error {
	svc, err := NewLLMService(s)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
