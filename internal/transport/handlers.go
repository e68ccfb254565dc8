package transport

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/observability"
	"github.com/Ofi-Services/unified-backend/internal/openapi"
	"github.com/Ofi-Services/unified-backend/internal/report"
	"github.com/Ofi-Services/unified-backend/internal/simulation"
	"github.com/Ofi-Services/unified-backend/internal/store"
	"github.com/Ofi-Services/unified-backend/model"
)

const defaultSimilarLimit = 10

// Handlers serves the read API.
type Handlers struct {
	report *report.Service
	index  *openapi.Index
	graph  *simulation.Graph
	logger *zap.Logger
}

// NewHandlers creates Handlers. index and graph may be nil, in which case
// their endpoints report SERVICE_UNAVAILABLE.
func NewHandlers(svc *report.Service, index *openapi.Index, graph *simulation.Graph, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{report: svc, index: index, graph: graph, logger: logger}
}

// fail logs a server-side failure and writes the error response.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) {
		observability.RequestLogger(r.Context(), h.logger).Error("request failed", zap.Error(err))
	}
	writeRequestError(w, r, err)
}

// ListActivities handles GET /api/activity.
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	aq, err := ParseActivityQuery(q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := parsePagination(q, DefaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rows, count, err := h.report.Activities(r.Context(), aq, p.Window())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewPageResponse(r, p, count, rows))
}

// ExportActivities handles GET /api/activity/export.csv. The body is
// buffered so a failure can still be reported as a JSON error.
func (h *Handlers) ExportActivities(w http.ResponseWriter, r *http.Request) {
	aq, err := ParseActivityQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	n, err := h.report.ExportActivities(r.Context(), &buf, aq)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="activities.csv"`)
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ListActivityTimes handles GET /api/activity-times.
func (h *Handlers) ListActivityTimes(w http.ResponseWriter, r *http.Request) {
	times, err := h.report.ActivityTimes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, times)
}

// GetMetaData handles GET /api/meta-data.
func (h *Handlers) GetMetaData(w http.ResponseWriter, r *http.Request) {
	md, err := h.report.MetaData(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, md)
}

// ListVariants handles GET /api/variant.
func (h *Handlers) ListVariants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePagination(q, DefaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rows, count, err := h.report.Variants(r.Context(), splitValues(q["activities"]), p.Window())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewPageResponse(r, p, count, rows))
}

// GetKPI handles GET /api/KPI.
func (h *Handlers) GetKPI(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDates(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	kpi, err := h.report.KPI(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, kpi)
}

// ListInvoices handles GET /api/invoice.
func (h *Handlers) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cases, err := parseInts(q, "case")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := parsePagination(q, DefaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f := store.InvoiceFilter{CaseIDs: cases, GroupID: q.Get("group_id")}
	rows, count, err := h.report.Invoices(r.Context(), f, p.Window())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewPageResponse(r, p, count, rows))
}

// ListSimilarInvoices handles GET /api/invoice/{id}/similar.
func (h *Handlers) ListSimilarInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, model.NewBadRequestError("Invalid invoice id."))
		return
	}
	limit := defaultSimilarLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			h.fail(w, r, model.NewBadRequestError("Invalid limit."))
			return
		}
	}

	ranked, err := h.report.SimilarInvoices(r.Context(), id, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ranked)
}

// ListGroups handles GET /api/group.
func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	p, err := parsePagination(r.URL.Query(), DefaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, count, err := h.report.Groups(r.Context(), p.Window())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewPageResponse(r, p, count, rows))
}

// ListInventory handles GET /api/inventory.
func (h *Handlers) ListInventory(w http.ResponseWriter, r *http.Request) {
	p, err := parsePagination(r.URL.Query(), DefaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, count, err := h.report.Inventory(r.Context(), p.Window())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewPageResponse(r, p, count, rows))
}

// ListCases handles GET /api/case.
func (h *Handlers) ListCases(w http.ResponseWriter, r *http.Request) {
	p, err := parsePagination(r.URL.Query(), DefaultCasePageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, count, err := h.report.Cases(r.Context(), p.Window())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewPageResponse(r, p, count, rows))
}

// GetCase handles GET /api/case/{id}.
func (h *Handlers) GetCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, model.NewBadRequestError("Invalid case id."))
		return
	}
	c, err := h.report.Case(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// ListCaseBills handles GET /api/case/{id}/bill.
func (h *Handlers) ListCaseBills(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, model.NewBadRequestError("Invalid case id."))
		return
	}
	bills, err := h.report.Bills(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, bills)
}

// reworkView is a rework with the description of the stage it returns to.
type reworkView struct {
	model.Rework
	TargetLabel string `json:"target_label"`
}

// ListReworks handles GET /api/rework. target must name a workflow stage.
func (h *Handlers) ListReworks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("target")
	if target != "" {
		if _, ok := simulation.ParseStage(target); !ok {
			h.fail(w, r, model.NewBadRequestError(fmt.Sprintf("Unknown stage %q.", target)))
			return
		}
	}
	p, err := parsePagination(q, DefaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rows, count, err := h.report.Reworks(r.Context(), target, p.Window())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]reworkView, len(rows))
	for i, rw := range rows {
		views[i] = reworkView{Rework: rw, TargetLabel: rw.Target}
		if stage, ok := simulation.ParseStage(rw.Target); ok {
			views[i].TargetLabel = stage.Label()
		}
	}
	WriteJSON(w, http.StatusOK, NewPageResponse(r, p, count, views))
}

// GetDiagram handles GET /api/diagram.
func (h *Handlers) GetDiagram(w http.ResponseWriter, r *http.Request) {
	if h.graph == nil {
		h.fail(w, r, model.NewUnavailableError("workflow graph not configured"))
		return
	}
	dir := simulation.Direction(r.URL.Query().Get("direction"))
	switch dir {
	case "", simulation.TopToBottom, simulation.LeftToRight:
	default:
		h.fail(w, r, model.NewBadRequestError("direction must be TB or LR."))
		return
	}

	var buf bytes.Buffer
	if err := simulation.WriteDiagram(&buf, h.graph, dir); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetOpenAPI handles GET /api/openapi.json.
func (h *Handlers) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		h.fail(w, r, model.NewUnavailableError("OpenAPI document not loaded"))
		return
	}
	WriteJSON(w, http.StatusOK, h.index)
}
