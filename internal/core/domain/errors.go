package domain

import (
	"errors"
	"fmt"
)

// Engine failure kinds. Call sites return a kind either bare through
// fmt.Errorf("...: %w", kind) or with cause context through WrapError;
// IsKind matches both forms.
var (
	// Inference service and model kinds.
	ErrServiceUnavailable = errors.New("inference service unavailable")
	ErrModelNotFound      = errors.New("model not found")
	ErrTimeout            = errors.New("request timed out")

	// Corpus lifecycle kinds.
	ErrNotIndexed       = errors.New("no data indexed")
	ErrAlreadyIndexing  = errors.New("ingestion already in progress")
	ErrParseFailure     = errors.New("parse failure")
	ErrEmbeddingFailure = errors.New("embedding failure")

	ErrInvalidInput = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
