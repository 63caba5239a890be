package embedding

import "context"

// Embedder turns text into a vector. Model reports the model name recorded
// alongside each stored embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}
