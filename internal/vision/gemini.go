package vision

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiDescriber sends the capture to a Gemini multimodal model.
type GeminiDescriber struct {
	client *genai.Client
	model  string
}

func NewGeminiDescriber(client *genai.Client, model string) *GeminiDescriber {
	return &GeminiDescriber{client: client, model: model}
}

func (g *GeminiDescriber) Describe(ctx context.Context, req Request) (Result, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Image, mimeType(req.Image)),
		genai.NewPartFromText(BuildPrompt(req)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	temp := float32(temperature)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temp,
	})
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate: %w", err)
	}
	return finish(resp.Text())
}
