// Package factory instantiates the configured embeddings provider.
package factory

import (
	"fmt"

	"github.com/agentlang-ai/agentstore/pkg/config"
	"github.com/agentlang-ai/agentstore/pkg/embeddings"
	"github.com/agentlang-ai/agentstore/pkg/embeddings/ollama"
	"github.com/agentlang-ai/agentstore/pkg/embeddings/openai"
)

// FromConfig builds the provider selected by the embedding configuration.
//
//nolint:ireturn
func FromConfig(cfg config.EmbeddingConfig) (embeddings.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "ollama":
		return ollama.New(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("embeddings: unknown provider %q", cfg.Provider)
	}
}
