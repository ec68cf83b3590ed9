package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Model, ForceJSON, etc.
type Option func(*Options)

// Options carries per-call settings. The zero value produced by DefaultOptions
// is deterministic: temperature 0, top-p 1 and a fixed seed.
type Options struct {
	Temperature float64
	TopP        float64
	Seed        int
	MaxTokens   int
	Model       string // Override default model
	ForceJSON   bool
}

const DefaultSeed = 42

func DefaultOptions() *Options {
	return &Options{
		Temperature: 0,
		TopP:        1,
		Seed:        DefaultSeed,
	}
}

func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithJSON asks the backend to constrain output to JSON; the adapter validates it.
func WithJSON(force bool) Option {
	return func(o *Options) {
		o.ForceJSON = force
	}
}

// LLMProvider defines the contract for any LLM backend.
// Every call either returns a usable result or an error; an empty answer is an error.
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a system prompt plus user text as a single completion
	Generate(ctx context.Context, system, user string, options ...Option) (string, error)

	// Embed returns the embedding vector of text
	Embed(ctx context.Context, text string, options ...Option) ([]float32, error)

	// ListModels returns the model names the backend has installed
	ListModels(ctx context.Context) ([]string, error)
}
