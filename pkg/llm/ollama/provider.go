package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"ideawalker-core/pkg/llm"
)

const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultReadTimeout = 600 * time.Second
	DefaultListTimeout = 5 * time.Second
)

var ErrEmptyResponse = errors.New("ollama returned an empty response")

type OllamaProvider struct {
	BaseURL    string
	ModelName  string
	Client     *http.Client
	ListClient *http.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string, readTimeout, listTimeout time.Duration) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if listTimeout <= 0 {
		listTimeout = DefaultListTimeout
	}
	return &OllamaProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ModelName:  modelName,
		Client:     &http.Client{Timeout: readTimeout},
		ListClient: &http.Client{Timeout: listTimeout},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// temperature is sent even when zero
type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	Seed        int     `json:"seed"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"` // Ollama returns float64 usually
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// --- Interface Implementation ---

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(opts...)

	// Map generic messages to Ollama messages
	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		ollamaMessages[i] = ollamaMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	reqPayload := ollamaChatRequest{
		Model:    o.model(options),
		Messages: ollamaMessages,
		Stream:   false,
		Options:  toOllamaOptions(options),
	}
	if options.ForceJSON {
		reqPayload.Format = "json"
	}

	var ollamaResp ollamaChatResponse
	if err := o.post(ctx, o.Client, "/api/chat", reqPayload, &ollamaResp); err != nil {
		return "", err
	}

	return checkContent(ollamaResp.Message.Content, options.ForceJSON)
}

// Generate uses /api/generate with the system prompt prepended to the text.
func (o *OllamaProvider) Generate(ctx context.Context, system, user string, opts ...llm.Option) (string, error) {
	options := llm.Apply(opts...)

	reqPayload := ollamaGenerateRequest{
		Model:   o.model(options),
		Prompt:  system + "\n\nTexto:\n" + user,
		Stream:  false,
		Options: toOllamaOptions(options),
	}
	if options.ForceJSON {
		reqPayload.Format = "json"
	}

	var ollamaResp ollamaGenerateResponse
	if err := o.post(ctx, o.Client, "/api/generate", reqPayload, &ollamaResp); err != nil {
		return "", err
	}

	return checkContent(ollamaResp.Response, options.ForceJSON)
}

func (o *OllamaProvider) Embed(ctx context.Context, text string, opts ...llm.Option) ([]float32, error) {
	options := llm.Apply(opts...)

	reqBody := ollamaEmbeddingRequest{
		Model:  o.model(options),
		Prompt: text,
	}

	var ollamaResp ollamaEmbeddingResponse
	if err := o.post(ctx, o.Client, "/api/embeddings", reqBody, &ollamaResp); err != nil {
		return nil, err
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, ErrEmptyResponse
	}

	values := make([]float32, len(ollamaResp.Embedding))
	for i, v := range ollamaResp.Embedding {
		values[i] = float32(v)
	}

	return normalizeVector(values), nil
}

func (o *OllamaProvider) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := o.ListClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var tags ollamaTagsResponse
	if err := json.Unmarshal(bodyBytes, &tags); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *OllamaProvider) model(options *llm.Options) string {
	if options.Model != "" {
		return options.Model
	}
	return o.ModelName
}

func (o *OllamaProvider) post(ctx context.Context, client *http.Client, path string, payload, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func toOllamaOptions(options *llm.Options) *ollamaOptions {
	return &ollamaOptions{
		Temperature: options.Temperature,
		TopP:        options.TopP,
		Seed:        options.Seed,
		NumPredict:  options.MaxTokens,
	}
}

func checkContent(content string, forceJSON bool) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	if forceJSON && !json.Valid([]byte(content)) {
		return "", fmt.Errorf("ollama returned invalid JSON (%d bytes)", len(content))
	}
	return content, nil
}

// normalizeVector normalizes a vector to unit length (magnitude = 1)
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
