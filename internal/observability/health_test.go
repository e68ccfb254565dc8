package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandleHealth(t *testing.T) {
	origVersion, origCommit := Version, Commit
	Version, Commit = "1.2.3", "abc1234"
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	rec := httptest.NewRecorder()
	HandleHealth().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp != (HealthResponse{Status: "ok", Version: "1.2.3", Commit: "abc1234"}) {
		t.Errorf("resp = %+v", resp)
	}
}

type checkerFunc func(context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func healthy() HealthChecker { return checkerFunc(func(context.Context) error { return nil }) }

func failing(msg string) HealthChecker {
	return checkerFunc(func(context.Context) error { return errors.New(msg) })
}

func loaded() bool { return true }

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name   string
		checks ReadinessChecks
		status int
		want   map[string]string // check name -> error ("" when ok)
	}{
		{
			name:   "memory store without cache",
			checks: ReadinessChecks{OpenAPILoaded: loaded, Store: healthy()},
			status: http.StatusOK,
			want:   map[string]string{"openapi_index": "", "store": ""},
		},
		{
			name:   "postgres and redis up",
			checks: ReadinessChecks{OpenAPILoaded: loaded, Store: healthy(), Cache: healthy()},
			status: http.StatusOK,
			want:   map[string]string{"openapi_index": "", "store": "", "cache": ""},
		},
		{
			name:   "postgres down",
			checks: ReadinessChecks{OpenAPILoaded: loaded, Store: failing("ping postgres: connection refused")},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"openapi_index": "", "store": "ping postgres: connection refused"},
		},
		{
			name:   "redis down",
			checks: ReadinessChecks{OpenAPILoaded: loaded, Store: healthy(), Cache: failing("redis timeout")},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"openapi_index": "", "store": "", "cache": "redis timeout"},
		},
		{
			name:   "nothing configured",
			checks: ReadinessChecks{},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"openapi_index": errNoOpenAPI.Error(), "store": errNoStore.Error()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleReady(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp ReadinessResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			wantStatus := "ready"
			if tt.status != http.StatusOK {
				wantStatus = "not_ready"
			}
			if resp.Status != wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, wantStatus)
			}
			if len(resp.Checks) != len(tt.want) {
				t.Errorf("checks = %v, want %d entries", resp.Checks, len(tt.want))
			}
			for name, wantErr := range tt.want {
				got := resp.Checks[name]
				if wantErr == "" && got.Status != "ok" {
					t.Errorf("%s = %+v, want ok", name, got)
				}
				if wantErr != "" && (got.Status != "error" || got.Error != wantErr) {
					t.Errorf("%s = %+v, want error %q", name, got, wantErr)
				}
			}
		})
	}
}

func TestHandleReady_checkTimeout(t *testing.T) {
	hung := checkerFunc(func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		if !ok || time.Until(deadline) > checkTimeout {
			return errors.New("no check deadline")
		}
		return nil
	})
	rec := httptest.NewRecorder()
	HandleReady(ReadinessChecks{OpenAPILoaded: loaded, Store: hung}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (store check saw a bounded deadline)", rec.Code)
	}
}
