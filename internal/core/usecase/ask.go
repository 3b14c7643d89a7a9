package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daveymason/cy-bee/internal/core/domain"
	"github.com/daveymason/cy-bee/internal/core/ports"
	"github.com/daveymason/cy-bee/internal/core/state"
)

const (
	defaultTopK              = 5
	defaultCompletionTimeout = 2 * time.Minute
)

type AskUseCase struct {
	embedder  ports.Embedder
	completer ports.Completer
	engine    *state.Engine

	topK              int
	completionTimeout time.Duration
}

func NewAskUseCase(
	embedder ports.Embedder,
	completer ports.Completer,
	engine *state.Engine,
	topK int,
	completionTimeout time.Duration,
) *AskUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	if completionTimeout <= 0 {
		completionTimeout = defaultCompletionTimeout
	}
	return &AskUseCase{
		embedder:          embedder,
		completer:         completer,
		engine:            engine,
		topK:              topK,
		completionTimeout: completionTimeout,
	}
}

// Ask answers a question from the indexed rows alone: it embeds the
// question, retrieves the closest rows and asks the chat model to answer
// from those rows, returning only the citations the model referenced.
func (uc *AskUseCase) Ask(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is empty"))
	}

	corpus, index, ok := uc.engine.Installed()
	if !ok {
		return domain.Answer{}, fmt.Errorf("ask: %w", domain.ErrNotIndexed)
	}

	retrieved, err := uc.retrieve(ctx, corpus, index, question)
	if err != nil {
		return domain.Answer{}, err
	}

	answerText, err := uc.generate(ctx, question, retrieved)
	if err != nil {
		return domain.Answer{}, err
	}

	return domain.Answer{
		Text:      answerText,
		Citations: extractCitations(answerText, retrieved),
		Retrieved: len(retrieved),
	}, nil
}

func (uc *AskUseCase) retrieve(
	ctx context.Context,
	corpus *domain.CorpusIndex,
	index ports.VectorIndex,
	question string,
) ([]domain.Chunk, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := index.Search(ctx, queryVector, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	retrieved := make([]domain.Chunk, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := corpus.ChunkByID(hit.ChunkID)
		if !ok {
			continue
		}
		retrieved = append(retrieved, chunk)
	}
	return retrieved, nil
}

func (uc *AskUseCase) generate(ctx context.Context, question string, retrieved []domain.Chunk) (string, error) {
	// Completions are never retried, so the only bound on a stuck model is
	// this deadline.
	ctx, cancel := context.WithTimeout(ctx, uc.completionTimeout)
	defer cancel()

	answerText, err := uc.completer.Complete(ctx, uc.engine.SelectedModel(), buildGroundedPrompt(question, retrieved))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answerText, nil
}
