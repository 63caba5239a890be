package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const geminiTaskType = "SEMANTIC_SIMILARITY"

// GeminiEmbedder embeds text with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	dim    int32
}

func NewGeminiEmbedder(client *genai.Client, model string, dim int) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model, dim: int32(dim)}
}

func (g *GeminiEmbedder) Model() string { return g.model }

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: text}}}}
	dim := g.dim
	res, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType:             geminiTaskType,
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned no embeddings")
	}
	return res.Embeddings[0].Values, nil
}
