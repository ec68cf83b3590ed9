package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Paths     PathsConfig
	Ai        AIConfig
	Telemetry TelemetryConfig
	Tools     ToolsConfig
}

type AppConfig struct {
	Host               string
	Port               string
	CorsAllowedOrigins string
	Environment        string
	LogFilePath        string
}

// PathsConfig is the on-disk project layout. Everything hangs off ProjectRoot.
type PathsConfig struct {
	ProjectRoot       string
	Inbox             string
	ScientificInbox   string
	Notes             string
	History           string
	Observations      string
	Consumables       string
	Dialogues         string
	Writing           string
	Settings          string
	EmbeddingCache    string
	ActivityLog       string
	TextCache         string
	PromptCatalogPath string
}

type AIConfig struct {
	Provider       string
	OllamaBaseURL  string
	LLMModel       string
	EmbeddingModel string
	ReadTimeout    time.Duration
	ListTimeout    time.Duration
}

type TelemetryConfig struct {
	OtelEnabled  bool
	OtelEndpoint string
}

type ToolsConfig struct {
	PdfToText         string
	TranscriberPython string
	TranscriberScript string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	root := getEnv("PROJECT_ROOT", ".")
	cfg := &Config{
		App: AppConfig{
			Host:               getEnv("APP_HOST", "127.0.0.1"),
			Port:               getEnv("APP_PORT", "7878"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", filepath.Join(root, "logs", "ideawalker.log")),
		},
		Paths: NewPaths(root),
		Ai: AIConfig{
			Provider:       getEnv("LLM_PROVIDER", "ollama"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMModel:       getEnv("LLM_MODEL", "qwen2.5:7b"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			ReadTimeout:    time.Duration(getEnvAsInt("LLM_READ_TIMEOUT_SECONDS", 600)) * time.Second,
			ListTimeout:    time.Duration(getEnvAsInt("LLM_LIST_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Telemetry: TelemetryConfig{
			OtelEnabled:  getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Tools: ToolsConfig{
			PdfToText:         getEnv("PDFTOTEXT_BIN", "pdftotext"),
			TranscriberPython: getEnv("TRANSCRIBER_PYTHON", "python3"),
			TranscriberScript: getEnv("TRANSCRIBER_SCRIPT", ""),
		},
	}
	cfg.Paths.PromptCatalogPath = getEnv("PROMPT_CATALOG_PATH", "")

	// Read timeout must cover long generations; listing must stay snappy.
	if cfg.Ai.ReadTimeout < 10*time.Minute {
		cfg.Ai.ReadTimeout = 10 * time.Minute
	}
	if cfg.Ai.ListTimeout <= 0 || cfg.Ai.ListTimeout > 5*time.Second {
		cfg.Ai.ListTimeout = 5 * time.Second
	}

	if settings, err := LoadSettings(cfg.Paths.Settings); err == nil && settings.AIModel != "" {
		cfg.Ai.LLMModel = settings.AIModel
	}

	return cfg
}

// NewPaths derives the full project layout from a root directory.
func NewPaths(root string) PathsConfig {
	return PathsConfig{
		ProjectRoot:     root,
		Inbox:           filepath.Join(root, "inbox"),
		ScientificInbox: filepath.Join(root, "inbox", "scientific"),
		Notes:           filepath.Join(root, "notas"),
		History:         filepath.Join(root, ".history"),
		Observations:    filepath.Join(root, "observations"),
		Consumables:     filepath.Join(root, "consumables"),
		Dialogues:       filepath.Join(root, "dialogues"),
		Writing:         filepath.Join(root, "writing"),
		Settings:        filepath.Join(root, "settings.json"),
		EmbeddingCache:  filepath.Join(root, ".embeddings.json"),
		ActivityLog:     filepath.Join(root, ".activity_log.json"),
		TextCache:       filepath.Join(root, ".iwcache", "text"),
	}
}

// EnsureDirs creates every directory of the layout.
func (p PathsConfig) EnsureDirs() error {
	dirs := []string{
		p.Inbox,
		p.ScientificInbox,
		p.Notes,
		p.History,
		p.Observations,
		filepath.Join(p.Observations, "scientific", "validation"),
		filepath.Join(p.Observations, "scientific", "errors"),
		p.Consumables,
		p.Dialogues,
		filepath.Join(p.Writing, "trajectories"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
