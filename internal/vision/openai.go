package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIDescriber uses an OpenAI-compatible chat completions endpoint with an
// inline data URL image.
type OpenAIDescriber struct {
	client openai.Client
	model  string
}

func NewOpenAIDescriber(client openai.Client, model string) *OpenAIDescriber {
	return &OpenAIDescriber{client: client, model: model}
}

func (o *OpenAIDescriber) Describe(ctx context.Context, req Request) (Result, error) {
	dataURL := "data:" + mimeType(req.Image) + ";base64," + base64.StdEncoding.EncodeToString(req.Image)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(BuildPrompt(req)),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("openai returned no choices")
	}
	return finish(resp.Choices[0].Message.Content)
}
