package embedding

import "context"

// Embedder produces a vector for text; an empty vector means failure.
// llm.Gateway satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}
