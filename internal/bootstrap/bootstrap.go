package bootstrap

import (
	"time"

	"github.com/daveymason/cy-bee/internal/config"
	"github.com/daveymason/cy-bee/internal/core/ports"
	"github.com/daveymason/cy-bee/internal/core/state"
	"github.com/daveymason/cy-bee/internal/core/usecase"
	"github.com/daveymason/cy-bee/internal/infrastructure/corpus"
	"github.com/daveymason/cy-bee/internal/infrastructure/llm/ollama"
	"github.com/daveymason/cy-bee/internal/infrastructure/resilience"
	"github.com/daveymason/cy-bee/internal/infrastructure/vector/memory"
	"github.com/daveymason/cy-bee/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics
	Engine  *state.Engine

	IngestUC ports.CorpusIngestor
	AskUC    ports.QuestionAnswerer
	ModelsUC ports.ModelAdmin
	Status   ports.StatusReader
}

// New wires the engine together. Nothing here opens a connection: the
// inference service is only dialed once a request needs it, so the engine
// starts fine with Ollama down.
func New(cfg config.Config) *App {
	executor := resilience.NewExecutor(resilience.LocalServicePolicy())

	client := ollama.New(ollama.Config{
		BaseURL:        cfg.OllamaURL,
		EmbedModel:     cfg.OllamaEmbedModel,
		RequestTimeout: time.Duration(cfg.OllamaTimeoutSeconds) * time.Second,
		RequestsPerSec: cfg.OllamaRequestsPerSec,
		Burst:          cfg.OllamaRateBurst,
	}, executor)

	embedder := ollama.NewEmbedder(client)
	generator := ollama.NewGenerator(client)
	catalog := ollama.NewCatalog(client)

	engine := state.NewEngine(cfg.OllamaChatModel)
	parser := corpus.New()
	builder := memory.NewBuilder()

	return &App{
		Config:  cfg,
		Metrics: metrics.NewHTTPServerMetrics("api"),
		Engine:  engine,

		IngestUC: usecase.NewIngestCorpusUseCase(parser, embedder, catalog, builder, engine, cfg.EmbedBatchSize, cfg.EmbedWorkers),
		AskUC:    usecase.NewAskUseCase(embedder, generator, engine, cfg.RAGTopK, time.Duration(cfg.AnswerTimeoutSeconds)*time.Second),
		ModelsUC: usecase.NewModelsUseCase(catalog, engine, cfg.OllamaEmbedModel),
		Status:   engine,
	}
}
