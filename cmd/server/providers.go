package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/iammorganparry/hyprcontext/internal/api"
	"github.com/iammorganparry/hyprcontext/internal/config"
	"github.com/iammorganparry/hyprcontext/internal/embedding"
	"github.com/iammorganparry/hyprcontext/internal/vectorstore"
	"github.com/iammorganparry/hyprcontext/internal/vision"
)

type modelSet struct {
	describer vision.Describer
	embedder  embedding.Embedder
	// health is nil for hosted providers.
	health api.Checker
}

func openModels(ctx context.Context, cfg *config.Config) (modelSet, error) {
	switch cfg.ModelProvider {
	case config.ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return modelSet{}, fmt.Errorf("create genai client: %w", err)
		}
		return modelSet{
			describer: vision.NewGeminiDescriber(client, cfg.VisionModel),
			embedder:  embedding.NewGeminiEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDim),
		}, nil

	case config.ProviderOpenAI:
		opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		client := openai.NewClient(opts...)
		return modelSet{
			describer: vision.NewOpenAIDescriber(client, cfg.VisionModel),
			embedder:  embedding.NewOpenAIEmbedder(client, cfg.EmbeddingModel),
		}, nil

	default:
		ollama := embedding.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.EmbeddingModel)
		return modelSet{
			describer: vision.NewOllamaDescriber(cfg.OllamaBaseURL, cfg.VisionModel),
			embedder:  ollama,
			health:    ollama,
		}, nil
	}
}

func openIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vectorstore.Index, error) {
	if cfg.VectorBackend != config.BackendQdrant {
		return vectorstore.NewChromemIndex(cfg.VectorDir, "observations")
	}

	qdrant := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingDim)
	if err := qdrant.HealthCheck(ctx); err != nil {
		logger.Warn("qdrant not available at startup, will retry on first use", "error", err)
		return qdrant, nil
	}
	if err := qdrant.EnsureCollection(ctx); err != nil {
		logger.Warn("failed to create qdrant collection", "error", err, "collection", cfg.QdrantCollection)
	}
	return qdrant, nil
}
