package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/cache"
	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/internal/observability"
	"github.com/Ofi-Services/unified-backend/model"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Correlation-Id"

// Recovery catches panics in downstream handlers, logs them, and returns
// a 500 JSON error response.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					observability.RequestLogger(r.Context(), logger).Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)
					WriteError(w, model.NewInternalError(""))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS returns middleware that handles Cross-Origin Resource Sharing based
// on the provided configuration.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := fmt.Sprintf("%d", cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (origins[origin] || origins["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID reads the request id header or generates a UUID, then stores a
// model.RequestContext in the context and echoes the id in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		traceID, spanID := observability.SpanIDs(r.Context())
		rctx := &model.RequestContext{
			RequestID: id,
			TraceID:   traceID,
			SpanID:    spanID,
			Method:    r.Method,
			Path:      r.URL.Path,
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(model.WithRequestContext(r.Context(), rctx)))
	})
}

// RequestIDFrom returns the request id stored by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	if rctx := model.RequestContextFrom(ctx); rctx != nil {
		return rctx.RequestID
	}
	return ""
}

// SecurityHeaders sets standard security response headers on all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// HandlerTimeout returns middleware that sets a context deadline on requests.
func HandlerTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogging logs each request with its status and duration. 5xx
// responses log at error, 4xx at warn.
func RequestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			log := observability.RequestLogger(r.Context(), logger)
			fields := []zap.Field{
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("query", r.URL.RawQuery),
			}
			switch {
			case ww.status >= 500:
				log.Error("request", fields...)
			case ww.status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}

// CacheRecorder counts response cache lookups.
type CacheRecorder interface {
	RecordCacheHit(pathPattern string)
	RecordCacheMiss(pathPattern string)
	RecordCacheError()
}

// ResponseCache serves GET responses from c and stores successful ones for
// ttl. Cache backend errors are logged and the request is served normally.
// It must run after routing so the route pattern is known.
func ResponseCache(c cache.Cache, ttl time.Duration, rec CacheRecorder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			pattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			key := cache.FormatKey(r.URL.Path, r.URL.Query())
			log := observability.RequestLogger(r.Context(), logger)

			entry, found, err := c.Get(r.Context(), key)
			trace.SpanFromContext(r.Context()).SetAttributes(observability.AttrCacheHit.Bool(found))
			switch {
			case err != nil:
				rec.RecordCacheError()
				log.Warn("response cache read failed", zap.Error(err))
			case found:
				rec.RecordCacheHit(pattern)
				log.Debug("response cache hit", zap.String("key", key))
				w.Header().Set("Content-Type", entry.ContentType)
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(entry.Status)
				w.Write(entry.Body)
				return
			default:
				rec.RecordCacheMiss(pattern)
				log.Debug("response cache miss", zap.String("key", key))
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			w.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(cw, r)

			if cw.status != http.StatusOK {
				return
			}
			stored := cache.Entry{
				Status:      cw.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        cw.body.Bytes(),
			}
			if err := c.Set(r.Context(), key, stored, ttl); err != nil {
				rec.RecordCacheError()
				log.Warn("response cache write failed", zap.Error(err))
			}
		})
	}
}

// --- helpers ---

// statusWriter wraps http.ResponseWriter to capture the written status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// captureWriter tees the response body into a buffer.
type captureWriter struct {
	http.ResponseWriter
	status  int
	written bool
	body    bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
