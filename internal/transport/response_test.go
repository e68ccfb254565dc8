package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ofi-Services/unified-backend/model"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]string{"hello": "world"})

	if w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if xct := w.Header().Get("X-Content-Type-Options"); xct != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", xct)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["hello"] != "world" {
		t.Errorf("body = %v", body)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorEnvelope {
	t.Helper()
	var resp struct {
		Error model.ErrorEnvelope `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

func TestWriteError_envelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, model.NewNotFoundError("invoice 7 not found"))

	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if got := decodeError(t, w); got.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", got.Code)
	}
}

func TestWriteError_wrappedEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("lookup: %w", model.NewNotFoundError("gone")))

	if w.Code != 404 {
		t.Errorf("status = %d, want 404 for wrapped envelope", w.Code)
	}
}

func TestWriteError_nonEnvelope_passesMessageThrough(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("database is locked"))

	if w.Code != 500 {
		t.Errorf("status = %d, want 500 for non-envelope error", w.Code)
	}
	got := decodeError(t, w)
	if got.Code != model.ErrInternalError {
		t.Errorf("code = %q, want %s", got.Code, model.ErrInternalError)
	}
	if got.Message != "database is locked" {
		t.Errorf("message = %q, want the underlying error", got.Message)
	}
}

func TestWriteError_deadline(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("list activities: %w", context.DeadlineExceeded))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestWriteError_invalidDate(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, model.NewInvalidDateError("start_date"))

	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w); got.Message != "Invalid date format. Use YYYY-MM-DD." {
		t.Errorf("message = %q", got.Message)
	}
}

func TestWriteRequestError_attachesTraceID(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/KPI", nil)
	r = r.WithContext(model.WithRequestContext(r.Context(), &model.RequestContext{
		RequestID: "req-1",
		TraceID:   "4bf92f3577b34da6a3ce929d0e0e4736",
	}))
	w := httptest.NewRecorder()

	env := model.NewBadRequestError("bad")
	writeRequestError(w, r, env)

	if got := decodeError(t, w); got.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %q", got.TraceID)
	}
	if env.TraceID != "" {
		t.Error("writeRequestError must not mutate the caller's envelope")
	}
}

func TestWriteNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	WriteNotFound(w, "resource missing")
	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	WriteBadRequest(w, "bad page")
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStatusForCode_coverage(t *testing.T) {
	codes := []struct {
		code   string
		status int
	}{
		{model.ErrBadRequest, 400},
		{model.ErrInvalidDate, 400},
		{model.ErrNotFound, 404},
		{model.ErrConflict, 409},
		{model.ErrValidationError, 422},
		{model.ErrInternalError, 500},
		{model.ErrUnavailable, 503},
		{"SOMETHING_ELSE", 500},
	}
	for _, tc := range codes {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, &model.ErrorEnvelope{Code: tc.code, Message: "test"})
			if w.Code != tc.status {
				t.Errorf("status for %s = %d, want %d", tc.code, w.Code, tc.status)
			}
		})
	}
}

// --- Pagination envelope ---

func TestNewPageResponse_links(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		p        Pagination
		count    int
		wantNext string
		wantPrev string
	}{
		{"single page", "/api/case", Pagination{Page: 1, Size: 50}, 10, "", ""},
		{"first of two", "/api/variant?page_size=5", Pagination{Page: 1, Size: 5}, 8,
			"http://example.com/api/variant?page=2&page_size=5", ""},
		{"last of two", "/api/variant?page=2&page_size=5", Pagination{Page: 2, Size: 5}, 8,
			"", "http://example.com/api/variant?page_size=5"},
		{"middle", "/api/activity?case=3&page=2&page_size=1", Pagination{Page: 2, Size: 1}, 3,
			"http://example.com/api/activity?case=3&page=3&page_size=1",
			"http://example.com/api/activity?case=3&page_size=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			resp := NewPageResponse(r, tt.p, tt.count, []int{})

			if resp.Count != tt.count {
				t.Errorf("Count = %d, want %d", resp.Count, tt.count)
			}
			if got := deref(resp.Next); got != tt.wantNext {
				t.Errorf("Next = %q, want %q", got, tt.wantNext)
			}
			if got := deref(resp.Previous); got != tt.wantPrev {
				t.Errorf("Previous = %q, want %q", got, tt.wantPrev)
			}
		})
	}
}

func TestNewPageResponse_nullLinksEncodeAsNull(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/case", nil)
	data, _ := json.Marshal(NewPageResponse(r, Pagination{Page: 1, Size: 50}, 0, []int{}))

	var raw map[string]any
	json.Unmarshal(data, &raw)
	if v, ok := raw["next"]; !ok || v != nil {
		t.Errorf("next = %v, want null", v)
	}
	if v, ok := raw["previous"]; !ok || v != nil {
		t.Errorf("previous = %v, want null", v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
