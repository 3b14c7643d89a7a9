package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryTotal         *prometheus.CounterVec
	queryRetrievalHit  *prometheus.CounterVec
	queryNoContext     *prometheus.CounterVec
	queryRetrieved     *prometheus.HistogramVec
	queryCitedSources  *prometheus.HistogramVec
	queryDuration      *prometheus.HistogramVec
	ingestRunsTotal    *prometheus.CounterVec
	ingestDuration     *prometheus.HistogramVec
	ingestInFlight     prometheus.Gauge
	ingestRowsIndexed  *prometheus.CounterVec
	ingestRowsDropped  *prometheus.CounterVec
	ingestFileFailures *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cybee",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cybee",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total successful retrieval-grounded queries.",
		},
		[]string{"service"},
	)
	queryRetrievalHit := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "query",
			Name:      "retrieval_hit_total",
			Help:      "Total queries with at least one retrieved chunk.",
		},
		[]string{"service"},
	)
	queryNoContext := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "query",
			Name:      "no_context_total",
			Help:      "Total queries answered without retrieved context.",
		},
		[]string{"service"},
	)
	queryRetrieved := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cybee",
			Subsystem: "query",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	queryCitedSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cybee",
			Subsystem: "query",
			Name:      "cited_sources",
			Help:      "Distribution of citations the model actually used per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cybee",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "End-to-end query duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	ingestRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total completed ingestion runs by status.",
		},
		[]string{"service", "status"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cybee",
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Ingestion run duration in seconds by status.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cybee",
			Subsystem: "ingest",
			Name:      "in_flight_runs",
			Help:      "Number of in-flight ingestion runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ingestRowsIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "ingest",
			Name:      "rows_indexed_total",
			Help:      "Total rows embedded and installed into the index.",
		},
		[]string{"service"},
	)
	ingestRowsDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "ingest",
			Name:      "rows_dropped_total",
			Help:      "Total rows dropped after embedding failures.",
		},
		[]string{"service"},
	)
	ingestFileFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cybee",
			Subsystem: "ingest",
			Name:      "file_failures_total",
			Help:      "Total source files skipped as unreadable or corrupt.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryTotal,
		queryRetrievalHit,
		queryNoContext,
		queryRetrieved,
		queryCitedSources,
		queryDuration,
		ingestRunsTotal,
		ingestDuration,
		ingestInFlight,
		ingestRowsIndexed,
		ingestRowsDropped,
		ingestFileFailures,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		queryTotal:         queryTotal,
		queryRetrievalHit:  queryRetrievalHit,
		queryNoContext:     queryNoContext,
		queryRetrieved:     queryRetrieved,
		queryCitedSources:  queryCitedSources,
		queryDuration:      queryDuration,
		ingestRunsTotal:    ingestRunsTotal,
		ingestDuration:     ingestDuration,
		ingestInFlight:     ingestInFlight,
		ingestRowsIndexed:  ingestRowsIndexed,
		ingestRowsDropped:  ingestRowsDropped,
		ingestFileFailures: ingestFileFailures,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordQueryObservation(service string, retrieved, cited int, duration time.Duration) {
	m.queryTotal.WithLabelValues(service).Inc()
	m.queryRetrieved.WithLabelValues(service).Observe(float64(retrieved))
	m.queryCitedSources.WithLabelValues(service).Observe(float64(cited))
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())

	if retrieved > 0 {
		m.queryRetrievalHit.WithLabelValues(service).Inc()
		return
	}
	m.queryNoContext.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) StartIngest() {
	m.ingestInFlight.Inc()
}

func (m *HTTPServerMetrics) FinishIngest(service string, duration time.Duration, err error) {
	m.ingestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.ingestRunsTotal.WithLabelValues(service, status).Inc()
	m.ingestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordIngestVolume(service string, rowsIndexed, rowsDropped, failedFiles int) {
	if rowsIndexed > 0 {
		m.ingestRowsIndexed.WithLabelValues(service).Add(float64(rowsIndexed))
	}
	if rowsDropped > 0 {
		m.ingestRowsDropped.WithLabelValues(service).Add(float64(rowsDropped))
	}
	if failedFiles > 0 {
		m.ingestFileFailures.WithLabelValues(service).Add(float64(failedFiles))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
