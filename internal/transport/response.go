// Package transport contains the HTTP router, middleware chain, and all
// request handlers for the read API.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Ofi-Services/unified-backend/model"
)

// statusForCode maps ErrorEnvelope codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrBadRequest:      http.StatusBadRequest,
	model.ErrInvalidDate:     http.StatusBadRequest,
	model.ErrNotFound:        http.StatusNotFound,
	model.ErrConflict:        http.StatusConflict,
	model.ErrValidationError: http.StatusUnprocessableEntity,
	model.ErrInternalError:   http.StatusInternalServerError,
	model.ErrUnavailable:     http.StatusServiceUnavailable,
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// WriteError writes an ErrorEnvelope as a JSON response with the correct
// HTTP status code. Any other error becomes an INTERNAL_ERROR carrying the
// error's message; a handler deadline becomes SERVICE_UNAVAILABLE.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err, "")
}

// writeRequestError is WriteError with the trace id of the request attached.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	traceID := ""
	if rctx := model.RequestContextFrom(r.Context()); rctx != nil {
		traceID = rctx.TraceID
	}
	writeError(w, err, traceID)
}

func writeError(w http.ResponseWriter, err error, traceID string) {
	var ee *model.ErrorEnvelope
	switch {
	case errors.As(err, &ee):
	case errors.Is(err, context.DeadlineExceeded):
		ee = model.NewUnavailableError("request timed out")
	default:
		ee = model.NewInternalError(err.Error())
	}
	if traceID != "" && ee.TraceID == "" {
		copied := *ee
		copied.TraceID = traceID
		ee = &copied
	}

	status := statusForCode[ee.Code]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	type errorResponse struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	WriteJSON(w, status, errorResponse{Error: ee})
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewNotFoundError(msg))
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewBadRequestError(msg))
}

// PageResponse is the envelope of every paginated listing. Next and Previous
// are absolute URLs of the neighbouring pages, or null at either end.
type PageResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// NewPageResponse builds the envelope of page p of a listing of count rows.
// results must be the rows of that page.
func NewPageResponse(r *http.Request, p Pagination, count int, results any) PageResponse {
	resp := PageResponse{Count: count, Results: results}
	if p.Page*p.Size < count {
		next := pageURL(r, p.Page+1)
		resp.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(r, p.Page-1)
		resp.Previous = &prev
	}
	return resp
}

// pageURL rewrites the page parameter of the request URL. The first page
// drops the parameter.
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
