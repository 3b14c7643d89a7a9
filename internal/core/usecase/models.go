package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/daveymason/cy-bee/internal/core/domain"
	"github.com/daveymason/cy-bee/internal/core/ports"
	"github.com/daveymason/cy-bee/internal/core/state"
)

// Known embedding-model families. Anything the local service reports under
// these names cannot chat, so it is hidden from model selection.
var embeddingOnlyModels = []string{
	"nomic-embed-text",
	"all-minilm",
	"mxbai-embed-large",
	"bge-m3",
	"bge-large",
	"snowflake-arctic-embed",
	"paraphrase-multilingual",
	"granite-embedding",
	"embeddinggemma",
	"qwen3-embedding",
}

type ModelsUseCase struct {
	catalog    ports.ModelCatalog
	engine     *state.Engine
	embedModel string
}

func NewModelsUseCase(catalog ports.ModelCatalog, engine *state.Engine, embedModel string) *ModelsUseCase {
	return &ModelsUseCase{
		catalog:    catalog,
		engine:     engine,
		embedModel: embedModel,
	}
}

// ServiceStatus reports whether the local inference service is reachable
// and usable. It never returns an error: an unreachable service is itself
// a valid status.
func (uc *ModelsUseCase) ServiceStatus(ctx context.Context) domain.ServiceStatus {
	models, err := uc.catalog.ListModels(ctx)
	if err != nil {
		return domain.ServiceStatus{
			Running: false,
			Message: "Ollama is not running. Start it with: ollama serve",
		}
	}

	status := domain.ServiceStatus{Running: true}
	for _, model := range models {
		if strings.Contains(model.Name, uc.embedModel) {
			status.HasEmbeddingModel = true
		}
		if !isEmbeddingModel(model.Name) {
			status.ChatModelCount++
		}
	}

	if status.HasEmbeddingModel {
		status.Message = "Ollama is ready"
	} else {
		status.Message = fmt.Sprintf("Ollama is running but %s is not installed. Run: ollama pull %s",
			uc.embedModel, uc.embedModel)
	}
	return status
}

// ListModels returns the installed models that can serve as chat models.
func (uc *ModelsUseCase) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	models, err := uc.catalog.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	chatModels := make([]domain.ModelInfo, 0, len(models))
	for _, model := range models {
		if isEmbeddingModel(model.Name) {
			continue
		}
		chatModels = append(chatModels, model)
	}
	return chatModels, nil
}

// SelectModel switches the chat model used for answers after confirming it
// is actually installed. A bare name matches its tagged variants, so
// "llama3" selects an installed "llama3:latest".
func (uc *ModelsUseCase) SelectModel(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.WrapError(domain.ErrInvalidInput, "select model", errors.New("model name is empty"))
	}

	available, err := uc.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, model := range available {
		if model.Name == name || strings.HasPrefix(model.Name, name+":") {
			uc.engine.SetModel(name)
			return nil
		}
	}
	return domain.WrapError(domain.ErrModelNotFound, "select model", fmt.Errorf("%q is not installed", name))
}

func isEmbeddingModel(name string) bool {
	for _, family := range embeddingOnlyModels {
		if strings.HasPrefix(name, family) {
			return true
		}
	}
	return false
}
