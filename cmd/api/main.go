package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/daveymason/cy-bee/internal/adapters/http"
	"github.com/daveymason/cy-bee/internal/bootstrap"
	"github.com/daveymason/cy-bee/internal/config"
	"github.com/daveymason/cy-bee/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logging.NewJSONLogger(os.Stderr, "cy-bee", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.New(cfg)
	router := httpadapter.NewRouter(cfg, app.Metrics, app.IngestUC, app.AskUC, app.ModelsUC, app.Status).Handler()

	server := &http.Server{
		Addr:        ":" + cfg.APIPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Writes stay open for the duration of a model completion, so the
		// write timeout must exceed the answer deadline.
		WriteTimeout: time.Duration(cfg.AnswerTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "ollama_url", cfg.OllamaURL, "chat_model", cfg.OllamaChatModel)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
