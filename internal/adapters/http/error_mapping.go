package httpadapter

import (
	"net/http"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrModelNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNotIndexed):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrAlreadyIndexing):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// friendlyErrorMessage turns the well-known failure kinds into messages a
// user can act on; everything else surfaces the error chain as-is.
func friendlyErrorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrNotIndexed):
		return "No data has been indexed yet. Ingest a data folder first."
	case domain.IsKind(err, domain.ErrAlreadyIndexing):
		return "An ingestion is already in progress. Try again once it finishes."
	case domain.IsKind(err, domain.ErrServiceUnavailable):
		return "Ollama is not reachable. Start it with: ollama serve"
	case domain.IsKind(err, domain.ErrTimeout):
		return "The model took too long to answer. Try again or pick a smaller model."
	default:
		return err.Error()
	}
}
