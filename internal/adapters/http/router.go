package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daveymason/cy-bee/internal/config"
	"github.com/daveymason/cy-bee/internal/core/ports"
	"github.com/daveymason/cy-bee/internal/observability/metrics"
)

const (
	serviceName          = "api"
	backpressureWaitSlot = 500 * time.Millisecond
)

type Router struct {
	cfg      config.Config
	metrics  *metrics.HTTPServerMetrics
	ingestor ports.CorpusIngestor
	answerer ports.QuestionAnswerer
	models   ports.ModelAdmin
	status   ports.StatusReader
}

func NewRouter(
	cfg config.Config,
	m *metrics.HTTPServerMetrics,
	ingestor ports.CorpusIngestor,
	answerer ports.QuestionAnswerer,
	models ports.ModelAdmin,
	status ports.StatusReader,
) *Router {
	return &Router{
		cfg:      cfg,
		metrics:  m,
		ingestor: ingestor,
		answerer: answerer,
		models:   models,
		status:   status,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/service/status", rt.serviceStatus)
	mux.HandleFunc("/v1/models", rt.listModels)
	mux.HandleFunc("/v1/models/select", rt.selectModel)
	mux.HandleFunc("/v1/ingest", rt.ingest)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/status", rt.engineStatus)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWaitSlot)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = logRequests(handler)
	handler = withRequestID(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) serviceStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.models.ServiceStatus(r.Context()))
}

func (rt *Router) listModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	models, err := rt.models.ListModels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (rt *Router) selectModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.models.SelectModel(r.Context(), req.Model); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": strings.TrimSpace(req.Model)})
}

func (rt *Router) ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	// The folder is optional; an empty body means the configured one.
	var req struct {
		Folder string `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	folder := strings.TrimSpace(req.Folder)
	if folder == "" {
		folder = rt.cfg.DataFolder
	}

	start := time.Now()
	rt.metrics.StartIngest()
	report, err := rt.ingestor.Ingest(r.Context(), folder)
	rt.metrics.FinishIngest(serviceName, time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordIngestVolume(serviceName, report.DocumentsIngested, report.RowsDropped, report.FilesFailed)
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordQueryObservation(serviceName, answer.Retrieved, len(answer.Citations), time.Since(start))

	sources := make([]string, 0, len(answer.Citations))
	for _, citation := range answer.Citations {
		sources = append(sources, citation.Label())
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text, Sources: sources})
}

func (rt *Router) engineStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.status.Snapshot())
}

type askResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": friendlyErrorMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
