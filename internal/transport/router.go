package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/cache"
	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/internal/observability"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config   *config.Config
	Handlers *Handlers
	Logger   *zap.Logger

	// Metrics enables request metrics and response cache counters when set.
	Metrics *observability.Metrics
	// Cache enables the response cache of the /api routes when set.
	Cache cache.Cache

	HealthHandler  http.Handler
	ReadyHandler   http.Handler
	MetricsHandler http.Handler
}

// Route is one registered read endpoint.
type Route struct {
	Method  string
	Pattern string
}

// apiRoutes lists the read endpoints in registration order.
func apiRoutes(h *Handlers) []struct {
	Route
	handler http.HandlerFunc
} {
	return []struct {
		Route
		handler http.HandlerFunc
	}{
		{Route{http.MethodGet, "/api/activity"}, h.ListActivities},
		{Route{http.MethodGet, "/api/activity/export.csv"}, h.ExportActivities},
		{Route{http.MethodGet, "/api/activity-times"}, h.ListActivityTimes},
		{Route{http.MethodGet, "/api/meta-data"}, h.GetMetaData},
		{Route{http.MethodGet, "/api/variant"}, h.ListVariants},
		{Route{http.MethodGet, "/api/KPI"}, h.GetKPI},
		{Route{http.MethodGet, "/api/invoice"}, h.ListInvoices},
		{Route{http.MethodGet, "/api/invoice/{id}/similar"}, h.ListSimilarInvoices},
		{Route{http.MethodGet, "/api/group"}, h.ListGroups},
		{Route{http.MethodGet, "/api/inventory"}, h.ListInventory},
		{Route{http.MethodGet, "/api/case"}, h.ListCases},
		{Route{http.MethodGet, "/api/case/{id}"}, h.GetCase},
		{Route{http.MethodGet, "/api/case/{id}/bill"}, h.ListCaseBills},
		{Route{http.MethodGet, "/api/rework"}, h.ListReworks},
		{Route{http.MethodGet, "/api/diagram"}, h.GetDiagram},
		{Route{http.MethodGet, "/api/openapi.json"}, h.GetOpenAPI},
	}
}

// APIRoutes returns the method and pattern of every read endpoint.
func APIRoutes() []Route {
	entries := apiRoutes(&Handlers{})
	out := make([]Route, len(entries))
	for i, e := range entries {
		out[i] = e.Route
	}
	return out
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// response cache and the handler timeout.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(RequestID)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(SecurityHeaders)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.MetricsMiddleware)
	}

	r.Method(http.MethodGet, "/health", handlerOr(deps.HealthHandler, observability.HandleHealth()))
	if deps.ReadyHandler != nil {
		r.Method(http.MethodGet, "/ready", deps.ReadyHandler)
	}
	if deps.Config.Observability.Metrics.Enabled {
		path := deps.Config.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, handlerOr(deps.MetricsHandler, observability.Handler()))
	}

	h := deps.Handlers
	if h == nil {
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))
		if deps.Cache != nil {
			var rec CacheRecorder = nopCacheRecorder{}
			if deps.Metrics != nil {
				rec = deps.Metrics
			}
			r.Use(ResponseCache(deps.Cache, deps.Config.Cache.TTL, rec, logger))
		}

		for _, e := range apiRoutes(h) {
			r.Method(e.Method, e.Pattern, e.handler)
		}
	})

	return r
}

func handlerOr(h, fallback http.Handler) http.Handler {
	if h != nil {
		return h
	}
	return fallback
}

type nopCacheRecorder struct{}

func (nopCacheRecorder) RecordCacheHit(string)  {}
func (nopCacheRecorder) RecordCacheMiss(string) {}
func (nopCacheRecorder) RecordCacheError()      {}
