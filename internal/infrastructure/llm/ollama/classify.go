package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/daveymason/cy-bee/internal/core/domain"
	"github.com/daveymason/cy-bee/internal/infrastructure/resilience"
)

// httpStatusError carries a non-2xx response so the verdict and taxonomy
// mapping can branch on the status code after retries are done.
type httpStatusError struct {
	op     string
	code   int
	status string
	body   string
}

func (e *httpStatusError) Error() string {
	body := strings.TrimSpace(e.body)
	if body == "" {
		return fmt.Sprintf("ollama %s status: %s", e.op, e.status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.op, e.status, body)
}

// transientStatus covers the statuses a local service emits while
// overloaded or restarting.
func transientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// embedVerdict decides retry behavior for embedding calls. Context ends and
// non-transient statuses (a missing model above all) are final; transient
// statuses and transport-level failures get another attempt and count
// against the breaker.
func embedVerdict(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{}
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if transientStatus(statusErr.code) {
			return resilience.Verdict{Retry: true, Record: true}
		}
		return resilience.Verdict{}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Verdict{Retry: true, Record: true}
	}
	return resilience.Verdict{Record: true}
}

// liftError translates an exhausted transport failure into the engine error
// taxonomy. Order matters: a deadline error also satisfies net.Error and
// must become ErrTimeout, not ErrServiceUnavailable.
func liftError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}
	if resilience.Tripped(err) {
		return domain.WrapError(domain.ErrServiceUnavailable, operation, err)
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.code == http.StatusNotFound:
			return domain.WrapError(domain.ErrModelNotFound, operation, err)
		case transientStatus(statusErr.code):
			return domain.WrapError(domain.ErrServiceUnavailable, operation, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrServiceUnavailable, operation, err)
	}
	return err
}
