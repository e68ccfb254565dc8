package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets      = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	analyticsDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60}
	bodySizeBuckets          = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments. It implements the
// simulation and analytics recorder interfaces.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Response cache metrics
	ResponseCacheHitsTotal   *prometheus.CounterVec
	ResponseCacheMissesTotal *prometheus.CounterVec
	ResponseCacheErrorsTotal prometheus.Counter

	// Generation metrics
	CasesTotal         *prometheus.CounterVec
	CaseFailuresTotal  *prometheus.CounterVec
	ActivitiesTotal    *prometheus.CounterVec
	ReworksTotal       *prometheus.CounterVec
	BillsTotal         prometheus.Counter
	InvoicesTotal      prometheus.Counter
	InvoiceGroupsTotal prometheus.Counter

	// Analytics metrics
	AnalyticsDuration  prometheus.Histogram
	VariantsDiscovered prometheus.Gauge

	// System metrics
	OpenAPIOperationsIndexed prometheus.Gauge
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procmine_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "procmine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "procmine_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "procmine_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Response cache
		ResponseCacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procmine_response_cache_hits_total",
			Help: "Total read-API responses served from cache.",
		}, []string{"path_pattern"}),
		ResponseCacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procmine_response_cache_misses_total",
			Help: "Total read-API responses rendered on a cache miss.",
		}, []string{"path_pattern"}),
		ResponseCacheErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmine_response_cache_errors_total",
			Help: "Total response cache backend errors.",
		}),

		// Generation
		CasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procmine_cases_total",
			Help: "Total number of generated cases.",
		}, []string{"type", "outcome"}),
		CaseFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procmine_case_failures_total",
			Help: "Total number of cases whose generation failed.",
		}, []string{"type"}),
		ActivitiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procmine_activities_total",
			Help: "Total number of logged activities.",
		}, []string{"name"}),
		ReworksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procmine_reworks_total",
			Help: "Total number of recorded reworks.",
		}, []string{"target"}),
		BillsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmine_bills_total",
			Help: "Total number of emitted bills.",
		}),
		InvoicesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmine_invoices_total",
			Help: "Total number of generated invoices.",
		}),
		InvoiceGroupsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmine_invoice_groups_total",
			Help: "Total number of generated invoice groups.",
		}),

		// Analytics
		AnalyticsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "procmine_analytics_duration_seconds",
			Help:    "Analytics recompute duration in seconds.",
			Buckets: analyticsDurationBuckets,
		}),
		VariantsDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "procmine_variants",
			Help: "Number of variants found by the last analytics run.",
		}),

		// System
		OpenAPIOperationsIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "procmine_openapi_operations_indexed",
			Help: "Number of indexed OpenAPI operations.",
		}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Response cache
		m.ResponseCacheHitsTotal,
		m.ResponseCacheMissesTotal,
		m.ResponseCacheErrorsTotal,
		// Generation
		m.CasesTotal,
		m.CaseFailuresTotal,
		m.ActivitiesTotal,
		m.ReworksTotal,
		m.BillsTotal,
		m.InvoicesTotal,
		m.InvoiceGroupsTotal,
		// Analytics
		m.AnalyticsDuration,
		m.VariantsDiscovered,
		// System
		m.OpenAPIOperationsIndexed,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordCacheHit records a response served from cache.
func (m *Metrics) RecordCacheHit(pathPattern string) {
	m.ResponseCacheHitsTotal.WithLabelValues(pathPattern).Inc()
}

// RecordCacheMiss records a response rendered on a cache miss.
func (m *Metrics) RecordCacheMiss(pathPattern string) {
	m.ResponseCacheMissesTotal.WithLabelValues(pathPattern).Inc()
}

// RecordCacheError records a failed cache read or write.
func (m *Metrics) RecordCacheError() {
	m.ResponseCacheErrorsTotal.Inc()
}

// RecordActivity records a logged activity.
func (m *Metrics) RecordActivity(name string) {
	m.ActivitiesTotal.WithLabelValues(name).Inc()
}

// RecordRework records a rework returning to target.
func (m *Metrics) RecordRework(target string) {
	m.ReworksTotal.WithLabelValues(target).Inc()
}

// RecordBills records n emitted bills.
func (m *Metrics) RecordBills(n int) {
	m.BillsTotal.Add(float64(n))
}

// RecordCaseCompleted records a case that reached a terminal stage.
func (m *Metrics) RecordCaseCompleted(caseType, outcome string) {
	m.CasesTotal.WithLabelValues(caseType, outcome).Inc()
}

// RecordCaseFailure records a case whose generation failed.
func (m *Metrics) RecordCaseFailure(caseType string) {
	m.CaseFailuresTotal.WithLabelValues(caseType).Inc()
}

// RecordInvoices records an invoice generation run.
func (m *Metrics) RecordInvoices(groups, invoices int) {
	m.InvoiceGroupsTotal.Add(float64(groups))
	m.InvoicesTotal.Add(float64(invoices))
}

// RecordAnalytics records an analytics recompute.
func (m *Metrics) RecordAnalytics(duration time.Duration, variants int) {
	m.AnalyticsDuration.Observe(duration.Seconds())
	m.VariantsDiscovered.Set(float64(variants))
}

// SetOpenAPIOperationsIndexed sets the number of indexed OpenAPI operations.
func (m *Metrics) SetOpenAPIOperationsIndexed(count int) {
	m.OpenAPIOperationsIndexed.Set(float64(count))
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// statusRecorder captures the status and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
