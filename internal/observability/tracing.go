package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ofi-Services/unified-backend/internal/config"
)

const tracerName = "github.com/Ofi-Services/unified-backend"

// Span attributes of generation runs, analytics passes and API reads.
var (
	AttrCasesRequested = attribute.Key("procmine.cases.requested")
	AttrCaseIndex      = attribute.Key("procmine.case.index")
	AttrCaseID         = attribute.Key("procmine.case.id")
	AttrCaseType       = attribute.Key("procmine.case.type")
	AttrCaseOutcome    = attribute.Key("procmine.case.outcome")
	AttrActivities     = attribute.Key("procmine.activities")
	AttrVariants       = attribute.Key("procmine.variants")
	AttrInvoiceGroups  = attribute.Key("procmine.invoice.groups")
	AttrCacheHit       = attribute.Key("procmine.cache_hit")

	// AttrError marks a span started for a case that already failed.
	AttrError = attribute.Key("error")
)

// spanOutput receives spans of the stdout exporter. Commands print their
// results on stdout, so spans go to stderr.
var spanOutput io.Writer = os.Stderr

// InitTracing installs the global TracerProvider and W3C propagators. The
// returned function flushes buffered spans; it is a no-op when tracing is
// disabled.
func InitTracing(ctx context.Context, cfg config.TracingConfig, serviceName, serviceVersion string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(spanOutput))
	case "otlp", "":
		var opts []otlptracegrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		err = fmt.Errorf("exporter %q is not one of otlp, stdout", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// sampleRatio clamps the configured rate into (0, 1]; zero or less means 10%.
func sampleRatio(rate float64) float64 {
	switch {
	case rate <= 0:
		return 0.1
	case rate > 1:
		return 1
	}
	return rate
}

func newSampler(cfg config.TracingConfig) sdktrace.Sampler {
	var base sdktrace.Sampler = sdktrace.AlwaysSample()
	if ratio := sampleRatio(cfg.SamplingRate); ratio < 1 {
		base = sdktrace.TraceIDRatioBased(ratio)
	}
	sampler := sdktrace.ParentBased(base)
	if cfg.ForceSampleErrors {
		return failedCaseSampler{next: sampler}
	}
	return sampler
}

// failedCaseSampler keeps every span started with AttrError=true, so a
// failed case is exported even when its run was not sampled.
type failedCaseSampler struct {
	next sdktrace.Sampler
}

func (s failedCaseSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	result := s.next.ShouldSample(p)
	if result.Decision == sdktrace.RecordAndSample {
		return result
	}
	for _, kv := range p.Attributes {
		if kv.Key == AttrError && kv.Value.AsBool() {
			result.Decision = sdktrace.RecordAndSample
			break
		}
	}
	return result
}

func (s failedCaseSampler) Description() string {
	return "FailedCaseSampler{" + s.next.Description() + "}"
}

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts an internal span with attrs.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpanWithError records err, if any, as the span status and ends it.
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SpanIDs returns the hex trace and span ids of the span in ctx, or empty
// strings when there is none.
func SpanIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	if sc.HasSpanID() {
		spanID = sc.SpanID().String()
	}
	return traceID, spanID
}

// TracingMiddleware starts a server span per request, continuing an inbound
// traceparent and echoing the context in the response headers. Once routing
// has run the span is renamed after the chi pattern, so /api/case/7 and
// /api/case/8 share one span name.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prop := otel.GetTextMapPropagator()
		ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer().Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
			),
		)
		defer span.End()

		prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		if pattern := routePattern(r); pattern != r.URL.Path {
			span.SetName(r.Method + " " + pattern)
			span.SetAttributes(semconv.HTTPRoute(pattern))
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}
