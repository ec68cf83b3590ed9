package llm

import (
	"context"
	"strings"
	"sync"

	"ideawalker-core/internal/pkg/logger"
)

// Client is what the pipelines consume: failures collapse into "no result".
type Client interface {
	Generate(ctx context.Context, system, user string, forceJSON bool) (string, bool)
	Chat(ctx context.Context, history []Message, forceJSON bool) (string, bool)
	Embed(ctx context.Context, text string) []float32
	CurrentModel() string
}

// Gateway wraps an LLMProvider with the active model selection and logging.
type Gateway struct {
	provider       LLMProvider
	logger         logger.ILogger
	embeddingModel string

	mu    sync.RWMutex
	model string
}

var _ Client = (*Gateway)(nil)

func NewGateway(provider LLMProvider, log logger.ILogger, model, embeddingModel string) *Gateway {
	return &Gateway{
		provider:       provider,
		logger:         log,
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func (g *Gateway) CurrentModel() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model
}

func (g *Gateway) SetModel(model string) {
	g.mu.Lock()
	g.model = model
	g.mu.Unlock()
}

func (g *Gateway) Generate(ctx context.Context, system, user string, forceJSON bool) (string, bool) {
	model := g.CurrentModel()
	out, err := g.provider.Generate(ctx, system, user, WithModel(model), WithJSON(forceJSON))
	if err != nil {
		g.logger.Warn("LLMGateway", "Generate returned no result", map[string]interface{}{
			"model": model,
			"json":  forceJSON,
			"error": err.Error(),
		})
		return "", false
	}
	return out, true
}

func (g *Gateway) Chat(ctx context.Context, history []Message, forceJSON bool) (string, bool) {
	model := g.CurrentModel()
	out, err := g.provider.Chat(ctx, history, WithModel(model), WithJSON(forceJSON))
	if err != nil {
		g.logger.Warn("LLMGateway", "Chat returned no result", map[string]interface{}{
			"model":    model,
			"messages": len(history),
			"error":    err.Error(),
		})
		return "", false
	}
	return out, true
}

// Embed returns an empty vector on failure.
func (g *Gateway) Embed(ctx context.Context, text string) []float32 {
	vec, err := g.provider.Embed(ctx, text, WithModel(g.embeddingModel))
	if err != nil {
		g.logger.Warn("LLMGateway", "Embedding failed", map[string]interface{}{
			"model": g.embeddingModel,
			"error": err.Error(),
		})
		return []float32{}
	}
	return vec
}

// ListModels returns an empty list when the backend is unreachable.
func (g *Gateway) ListModels(ctx context.Context) []string {
	models, err := g.provider.ListModels(ctx)
	if err != nil {
		g.logger.Warn("LLMGateway", "Model listing failed", map[string]interface{}{
			"error": err.Error(),
		})
		return []string{}
	}
	return models
}

// AutoSelectModel switches to the best installed model and returns it.
// With nothing installed the current model is kept.
func (g *Gateway) AutoSelectModel(ctx context.Context) string {
	available := g.ListModels(ctx)
	if len(available) == 0 {
		return g.CurrentModel()
	}
	selected := SelectBestModel(available, g.CurrentModel())
	if selected != g.CurrentModel() {
		g.logger.Info("LLMGateway", "Model switched", map[string]interface{}{
			"from": g.CurrentModel(),
			"to":   selected,
		})
		g.SetModel(selected)
	}
	return selected
}

var modelPriority = []string{"qwen2.5:7b", "qwen2.5", "llama3", "mistral", "gemma", "deepseek-coder"}

// SelectBestModel picks the first available model matching the priority list,
// then the current model when installed, then the first available.
func SelectBestModel(available []string, current string) string {
	if len(available) == 0 {
		return current
	}
	for _, preferred := range modelPriority {
		for _, name := range available {
			if strings.Contains(strings.ToLower(name), preferred) {
				return name
			}
		}
	}
	for _, name := range available {
		if name == current {
			return current
		}
	}
	return available[0]
}
