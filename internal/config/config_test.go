package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CYBEE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("API_PORT", "")
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("OLLAMA_CHAT_MODEL", "")
	t.Setenv("OLLAMA_EMBED_MODEL", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("EMBED_BATCH_SIZE", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.APIPort)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Fatalf("expected default ollama url, got %q", cfg.OllamaURL)
	}
	if cfg.OllamaChatModel != "llama3" || cfg.OllamaEmbedModel != "nomic-embed-text" {
		t.Fatalf("expected default models, got %q / %q", cfg.OllamaChatModel, cfg.OllamaEmbedModel)
	}
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.EmbedBatchSize != 32 || cfg.EmbedWorkers != 4 {
		t.Fatalf("expected default batching, got %d / %d", cfg.EmbedBatchSize, cfg.EmbedWorkers)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cybee.yaml")
	content := "api_port: \"9090\"\nrag_top_k: 7\nollama_chat_model: mistral:7b\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CYBEE_CONFIG", path)
	t.Setenv("API_PORT", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("OLLAMA_CHAT_MODEL", "")

	cfg := Load()
	if cfg.APIPort != "9090" {
		t.Fatalf("expected file port 9090, got %q", cfg.APIPort)
	}
	if cfg.RAGTopK != 7 {
		t.Fatalf("expected file top k 7, got %d", cfg.RAGTopK)
	}
	if cfg.OllamaChatModel != "mistral:7b" {
		t.Fatalf("expected file chat model, got %q", cfg.OllamaChatModel)
	}
	// Untouched keys keep their defaults.
	if cfg.OllamaEmbedModel != "nomic-embed-text" {
		t.Fatalf("expected default embed model, got %q", cfg.OllamaEmbedModel)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cybee.yaml")
	if err := os.WriteFile(path, []byte("rag_top_k: 7\nembed_workers: 2\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CYBEE_CONFIG", path)
	t.Setenv("RAG_TOP_K", "9")
	t.Setenv("EMBED_WORKERS", "lots")

	cfg := Load()
	if cfg.RAGTopK != 9 {
		t.Fatalf("expected env override 9, got %d", cfg.RAGTopK)
	}
	// Unparseable numbers fall back to the file value.
	if cfg.EmbedWorkers != 2 {
		t.Fatalf("expected file workers 2, got %d", cfg.EmbedWorkers)
	}
}

func TestLoadIgnoresMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cybee.yaml")
	if err := os.WriteFile(path, []byte("api_port: [not, a, string"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CYBEE_CONFIG", path)
	t.Setenv("API_PORT", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected defaults after malformed file, got %q", cfg.APIPort)
	}
}
