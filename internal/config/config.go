package config

import (
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	// Zero disables the corresponding gate.
	APIRateLimitRPS   float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int     `yaml:"api_rate_limit_burst"`
	APIMaxInFlight    int     `yaml:"api_max_in_flight"`

	DataFolder string `yaml:"data_folder"`

	OllamaURL            string  `yaml:"ollama_url"`
	OllamaChatModel      string  `yaml:"ollama_chat_model"`
	OllamaEmbedModel     string  `yaml:"ollama_embed_model"`
	OllamaTimeoutSeconds int     `yaml:"ollama_timeout_seconds"`
	OllamaRequestsPerSec float64 `yaml:"ollama_requests_per_sec"`
	OllamaRateBurst      int     `yaml:"ollama_rate_burst"`

	RAGTopK              int `yaml:"rag_top_k"`
	EmbedBatchSize       int `yaml:"embed_batch_size"`
	EmbedWorkers         int `yaml:"embed_workers"`
	AnswerTimeoutSeconds int `yaml:"answer_timeout_seconds"`
}

// Load resolves configuration in three layers: built-in defaults, an
// optional YAML file (CYBEE_CONFIG or ./cybee.yaml), then environment
// variables on top.
func Load() Config {
	cfg := fileConfig(defaults())

	return Config{
		APIPort:  mustEnv("API_PORT", cfg.APIPort),
		LogLevel: mustEnv("LOG_LEVEL", cfg.LogLevel),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", cfg.APIRateLimitRPS),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", cfg.APIRateLimitBurst),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", cfg.APIMaxInFlight),

		DataFolder: mustEnv("DATA_FOLDER", cfg.DataFolder),

		OllamaURL:            mustEnv("OLLAMA_URL", cfg.OllamaURL),
		OllamaChatModel:      mustEnv("OLLAMA_CHAT_MODEL", cfg.OllamaChatModel),
		OllamaEmbedModel:     mustEnv("OLLAMA_EMBED_MODEL", cfg.OllamaEmbedModel),
		OllamaTimeoutSeconds: mustEnvInt("OLLAMA_TIMEOUT_SECONDS", cfg.OllamaTimeoutSeconds),
		OllamaRequestsPerSec: mustEnvFloat("OLLAMA_REQUESTS_PER_SEC", cfg.OllamaRequestsPerSec),
		OllamaRateBurst:      mustEnvInt("OLLAMA_RATE_BURST", cfg.OllamaRateBurst),

		RAGTopK:              mustEnvInt("RAG_TOP_K", cfg.RAGTopK),
		EmbedBatchSize:       mustEnvInt("EMBED_BATCH_SIZE", cfg.EmbedBatchSize),
		EmbedWorkers:         mustEnvInt("EMBED_WORKERS", cfg.EmbedWorkers),
		AnswerTimeoutSeconds: mustEnvInt("ANSWER_TIMEOUT_SECONDS", cfg.AnswerTimeoutSeconds),
	}
}

func defaults() Config {
	return Config{
		APIPort:  "8080",
		LogLevel: "info",

		DataFolder: "./data",

		OllamaURL:            "http://localhost:11434",
		OllamaChatModel:      "llama3",
		OllamaEmbedModel:     "nomic-embed-text",
		OllamaTimeoutSeconds: 120,
		OllamaRequestsPerSec: 8,
		OllamaRateBurst:      4,

		RAGTopK:              5,
		EmbedBatchSize:       32,
		EmbedWorkers:         4,
		AnswerTimeoutSeconds: 120,
	}
}

func fileConfig(cfg Config) Config {
	path := os.Getenv("CYBEE_CONFIG")
	if path == "" {
		path = "cybee.yaml"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	out := cfg
	if err := yaml.Unmarshal(raw, &out); err != nil {
		slog.Warn("ignoring malformed config file", "path", path, "error", err)
		return cfg
	}
	return out
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
