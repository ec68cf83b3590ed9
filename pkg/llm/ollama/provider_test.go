package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ideawalker-core/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OllamaProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOllamaProvider(srv.URL, "qwen2.5:7b", 2*time.Second, time.Second)
}

func TestGenerateSendsDeterministicOptions(t *testing.T) {
	var got map[string]interface{}
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"response":"{\"ok\":true}","done":true}`))
	})

	out, err := p.Generate(context.Background(), "SYS", "hello", llm.WithJSON(true))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "qwen2.5:7b", got["model"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "SYS\n\nTexto:\nhello", got["prompt"])

	opts := got["options"].(map[string]interface{})
	assert.Equal(t, 0.0, opts["temperature"])
	assert.Equal(t, 1.0, opts["top_p"])
	assert.Equal(t, float64(llm.DefaultSeed), opts["seed"])
}

func TestGenerateFailureModes(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		forceJSON bool
	}{
		{"non-200", http.StatusInternalServerError, `{"error":"boom"}`, false},
		{"unparseable envelope", http.StatusOK, `not json`, false},
		{"empty response", http.StatusOK, `{"response":"   "}`, false},
		{"invalid json when forced", http.StatusOK, `{"response":"# Título: x"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			out, err := p.Generate(context.Background(), "s", "u", llm.WithJSON(tt.forceJSON))
			assert.Error(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestChatMapsRolesAndModelOverride(t *testing.T) {
	var got ollamaChatRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"oi"},"done":true}`))
	})

	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "s"},
		{Role: "model", Content: "a"},
		{Role: "user", Content: "u"},
	}, llm.WithModel("llama3"))
	require.NoError(t, err)
	assert.Equal(t, "oi", out)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Empty(t, got.Format)
}

func TestEmbedNormalizes(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"embedding":[3,4]}`))
	})

	vec, err := p.Embed(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestListModels(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"mistral:latest"},{"name":"qwen2.5:7b"}]}`))
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mistral:latest", "qwen2.5:7b"}, models)
}

func TestListModelsTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	p := NewOllamaProvider(srv.URL, "m", time.Second, 50*time.Millisecond)
	_, err := p.ListModels(context.Background())
	assert.Error(t, err)
}
