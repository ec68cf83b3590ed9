package factory

import (
	"fmt"
	"time"

	"ideawalker-core/pkg/llm"
	"ideawalker-core/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL string, readTimeout, listTimeout time.Duration) (llm.LLMProvider, error) {
	switch providerType {
	case "", "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName, readTimeout, listTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
