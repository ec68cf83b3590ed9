package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	for _, name := range []string{"", "ollama"} {
		p, err := NewLLMProvider(name, "llama3", "http://127.0.0.1:11434", time.Minute, time.Second)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}

	_, err := NewLLMProvider("gemini", "m", "", time.Minute, time.Second)
	assert.EqualError(t, err, "unsupported LLM provider: gemini")
}
