package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// ReadinessResponse is the body of GET /ready.
type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthChecker is implemented by the event log stores and the Redis cache.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReadinessChecks lists what /ready verifies. The OpenAPI index and the store
// are required; the cache is checked only when set.
type ReadinessChecks struct {
	OpenAPILoaded func() bool
	Store         HealthChecker
	Cache         HealthChecker
}

const checkTimeout = 2 * time.Second

var (
	errNoOpenAPI = errors.New("OpenAPI document not loaded")
	errNoStore   = errors.New("no store configured")
)

type namedCheck struct {
	name string
	run  func(context.Context) error
}

func (c ReadinessChecks) list() []namedCheck {
	checks := []namedCheck{
		{"openapi_index", func(context.Context) error {
			if c.OpenAPILoaded == nil || !c.OpenAPILoaded() {
				return errNoOpenAPI
			}
			return nil
		}},
		{"store", func(ctx context.Context) error {
			if c.Store == nil {
				return errNoStore
			}
			return c.Store.HealthCheck(ctx)
		}},
	}
	if c.Cache != nil {
		checks = append(checks, namedCheck{"cache", c.Cache.HealthCheck})
	}
	return checks
}

// HandleHealth reports liveness with the build version.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHealthJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version, Commit: Commit})
	}
}

// HandleReady runs every check concurrently, each under its own timeout, and
// answers 503 unless all of them pass.
func HandleReady(checks ReadinessChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := checks.list()
		results := make([]CheckResult, len(list))

		var wg sync.WaitGroup
		for i, c := range list {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = runCheck(r.Context(), c.run)
			}()
		}
		wg.Wait()

		resp := ReadinessResponse{Status: "ready", Checks: make(map[string]CheckResult, len(list))}
		status := http.StatusOK
		for i, c := range list {
			resp.Checks[c.name] = results[i]
			if results[i].Status != "ok" {
				resp.Status = "not_ready"
				status = http.StatusServiceUnavailable
			}
		}
		writeHealthJSON(w, status, resp)
	}
}

func runCheck(parent context.Context, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(parent, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	res := CheckResult{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
	}
	return res
}

func writeHealthJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
