// Package report answers the read-side queries of the REST layer: filtered
// activity and variant listings, the KPI summary, the meta-data used by the
// front end's filter widgets, invoice groups and similarity rankings.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Ofi-Services/unified-backend/internal/invoice"
	"github.com/Ofi-Services/unified-backend/internal/store"
	"github.com/Ofi-Services/unified-backend/model"
)

// States counted as cancellations in the KPI summary.
var (
	CancelledByCompanyStates = []string{"DeclinarSuscripcion"}
	CancelledByBrokerStates  = []string{"RechazarBrocker", "DeclinarBrocker"}
)

// ActivityTimer computes the mean time per activity name.
type ActivityTimer interface {
	ActivityTimes(ctx context.Context) ([]model.ActivityTime, error)
}

// Service runs read queries against a store.
type Service struct {
	store store.Store
	times ActivityTimer
}

// NewService creates a Service. times may be nil, in which case
// ActivityTimes returns an empty list.
func NewService(s store.Store, times ActivityTimer) *Service {
	return &Service{store: s, times: times}
}

// ActivityQuery is an activity listing request. VariantIDs restricts the
// listing to the cases of those variants; ids that match no variant are
// ignored.
type ActivityQuery struct {
	Filter     store.ActivityFilter
	VariantIDs []int64
}

// Activities returns a page of matching activities and the total count.
func (s *Service) Activities(ctx context.Context, q ActivityQuery, page store.Page) ([]model.Activity, int, error) {
	f, err := s.resolve(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListActivities(ctx, f, page)
}

// resolve turns variant ids into the case-id restriction of the filter.
func (s *Service) resolve(ctx context.Context, q ActivityQuery) (store.ActivityFilter, error) {
	f := q.Filter
	if len(q.VariantIDs) == 0 {
		return f, nil
	}
	variants, _, err := s.store.ListVariants(ctx, store.VariantFilter{IDs: q.VariantIDs}, store.Page{})
	if err != nil {
		return f, fmt.Errorf("load variants: %w", err)
	}
	if len(variants) == 0 {
		return f, nil
	}
	ids := []int{}
	for _, v := range variants {
		ids = append(ids, v.Cases...)
	}
	f.VariantCaseIDs = ids
	return f, nil
}

// Variants returns a page of variants whose activity list contains every
// entry of activities, ignoring case.
func (s *Service) Variants(ctx context.Context, activities []string, page store.Page) ([]model.Variant, int, error) {
	return s.store.ListVariants(ctx, store.VariantFilter{Activities: activities}, page)
}

// KPI summarizes the event log. case_quantity counts the distinct cases with
// an activity in [from, to]; zero bounds are open. The other figures cover
// the whole log.
func (s *Service) KPI(ctx context.Context, from, to time.Time) (model.KPI, error) {
	cases, err := s.store.CountActivityCases(ctx, from, to)
	if err != nil {
		return model.KPI{}, fmt.Errorf("count cases: %w", err)
	}
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return model.KPI{}, fmt.Errorf("count rows: %w", err)
	}
	return model.KPI{
		CaseQuantity:       cases,
		VariantQuantity:    counts.Variants,
		BillQuantity:       counts.Bills,
		ReworkQuantity:     counts.Reworks,
		ApprovedCases:      counts.Approved,
		CancelledByCompany: sumStates(counts.States, CancelledByCompanyStates),
		CancelledByBroker:  sumStates(counts.States, CancelledByBrokerStates),
	}, nil
}

func sumStates(states map[string]int, names []string) int {
	n := 0
	for _, name := range names {
		n += states[name]
	}
	return n
}

// Attribute describes one filterable activity attribute.
type Attribute struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Distincts []any  `json:"distincts"`
}

// MetaData lists the filterable attributes of the activity log.
type MetaData struct {
	Attributes []Attribute `json:"attributes"`
}

// MetaData returns the distinct case ids and activity names.
func (s *Service) MetaData(ctx context.Context) (MetaData, error) {
	cases, err := s.store.ActivityCaseIDs(ctx)
	if err != nil {
		return MetaData{}, fmt.Errorf("distinct cases: %w", err)
	}
	names, err := s.store.ActivityNames(ctx)
	if err != nil {
		return MetaData{}, fmt.Errorf("distinct names: %w", err)
	}
	return MetaData{Attributes: []Attribute{
		{Name: "case", Type: "number", Distincts: toAny(cases)},
		{Name: "timestamp", Type: "date", Distincts: []any{}},
		{Name: "name", Type: "str", Distincts: toAny(names)},
	}}, nil
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// Invoices returns a page of invoices.
func (s *Service) Invoices(ctx context.Context, f store.InvoiceFilter, page store.Page) ([]model.Invoice, int, error) {
	return s.store.ListInvoices(ctx, f, page)
}

// Groups returns a page of invoice group summaries and the number of groups.
func (s *Service) Groups(ctx context.Context, page store.Page) ([]model.InvoiceGroup, int, error) {
	all, _, err := s.store.ListInvoices(ctx, store.InvoiceFilter{}, store.Page{})
	if err != nil {
		return nil, 0, fmt.Errorf("load invoices: %w", err)
	}
	groups := invoice.Groups(all)
	return window(groups, page), len(groups), nil
}

// SimilarInvoices ranks every other invoice by similarity to invoice id.
// Returns NOT_FOUND if the invoice does not exist.
func (s *Service) SimilarInvoices(ctx context.Context, id int64, limit int) ([]invoice.Comparison, error) {
	target, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	all, _, err := s.store.ListInvoices(ctx, store.InvoiceFilter{}, store.Page{})
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return invoice.MostSimilar(target, all, limit), nil
}

// Inventory returns a page of inventory items.
func (s *Service) Inventory(ctx context.Context, page store.Page) ([]model.InventoryItem, int, error) {
	return s.store.ListInventory(ctx, page)
}

// Case returns one case. Returns NOT_FOUND if it does not exist.
func (s *Service) Case(ctx context.Context, id int) (model.Case, error) {
	return s.store.GetCase(ctx, id)
}

// Reworks returns a page of reworks in id order. A non-empty target keeps
// only the reworks returning to that stage.
func (s *Service) Reworks(ctx context.Context, target string, page store.Page) ([]model.Rework, int, error) {
	all, err := s.store.ListReworks(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load reworks: %w", err)
	}
	if target != "" {
		kept := all[:0]
		for _, rw := range all {
			if rw.Target == target {
				kept = append(kept, rw)
			}
		}
		all = kept
	}
	return window(all, page), len(all), nil
}

// Bills returns the bills of a case in timestamp order. Returns NOT_FOUND if
// the case does not exist.
func (s *Service) Bills(ctx context.Context, caseID int) ([]model.Bill, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	bills, err := s.store.ListBills(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	if bills == nil {
		bills = []model.Bill{}
	}
	return bills, nil
}

// Cases returns a page of cases.
func (s *Service) Cases(ctx context.Context, page store.Page) ([]model.Case, int, error) {
	return s.store.ListCases(ctx, page)
}

// ActivityTimes returns the mean time per activity name, sorted by name.
func (s *Service) ActivityTimes(ctx context.Context) ([]model.ActivityTime, error) {
	if s.times == nil {
		return []model.ActivityTime{}, nil
	}
	return s.times.ActivityTimes(ctx)
}

// ExportHeader is the header row of the activity CSV export.
var ExportHeader = []string{"id", "case", "case_index", "name", "timestamp", "tpt", "rework", "automatic"}

// ExportActivities writes every matching activity to w as CSV, ordered like
// Activities. Returns the number of data rows written.
func (s *Service) ExportActivities(ctx context.Context, w io.Writer, q ActivityQuery) (int, error) {
	activities, _, err := s.Activities(ctx, q, store.Page{})
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, err
	}
	for i, a := range activities {
		row := []string{
			strconv.FormatInt(a.ID, 10),
			strconv.Itoa(a.CaseID),
			strconv.Itoa(a.CaseIndex),
			a.Name,
			a.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(a.TPT, 'f', -1, 64),
			strconv.FormatBool(a.Rework),
			strconv.FormatBool(a.Automatic),
		}
		if err := cw.Write(row); err != nil {
			return i, err
		}
	}
	cw.Flush()
	return len(activities), cw.Error()
}

// window returns the page window of items.
func window[T any](items []T, page store.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	start := max(page.Offset, 0)
	end := len(items)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}
	return items[start:end]
}
