package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Ofi-Services/unified-backend/model"
)

// MemoryStore is an in-memory Store for tests and single-process demos.
type MemoryStore struct {
	mu         sync.RWMutex
	cases      map[int]model.Case
	activities []model.Activity // insertion order
	reworks    []model.Rework
	bills      []model.Bill
	variants   []model.Variant
	invoices   []model.Invoice
	inventory  []model.InventoryItem

	nextActivityID int64
	nextReworkID   int64
	nextBillID     int64
	nextInvoiceID  int64
	nextItemID     int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cases: make(map[int]model.Case)}
}

// CreateCase persists a new case.
func (s *MemoryStore) CreateCase(_ context.Context, c model.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[c.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("case %d already exists", c.ID))
	}
	c.LastTimestamp = time.Time{}
	s.cases[c.ID] = c
	return nil
}

// UpdateCase persists the mutable fields of a case.
func (s *MemoryStore) UpdateCase(_ context.Context, c model.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.cases[c.ID]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("case %d not found", c.ID))
	}
	stored.State = c.State
	stored.AvgTime = c.AvgTime
	stored.Approved = c.Approved
	s.cases[c.ID] = stored
	return nil
}

// GetCase retrieves a case by id.
func (s *MemoryStore) GetCase(_ context.Context, id int) (model.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.cases[id]
	if !exists {
		return model.Case{}, model.NewNotFoundError(fmt.Sprintf("case %d not found", id))
	}
	return c, nil
}

// ListCases returns a page of cases ordered by id.
func (s *MemoryStore) ListCases(_ context.Context, page Page) ([]model.Case, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.Case, 0, len(s.cases))
	for _, c := range s.cases {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page), len(all), nil
}

// CaseIDs returns the ids of every stored case, sorted.
func (s *MemoryStore) CaseIDs(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// SetCaseAvgTimes writes avg_time for each case in the map.
func (s *MemoryStore) SetCaseAvgTimes(_ context.Context, avg map[int]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, v := range avg {
		c, exists := s.cases[id]
		if !exists {
			continue
		}
		c.AvgTime = v
		s.cases[id] = c
	}
	return nil
}

// AppendActivity stores an activity and assigns its ID.
func (s *MemoryStore) AppendActivity(_ context.Context, a *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextActivityID++
	a.ID = s.nextActivityID
	s.activities = append(s.activities, *a)
	return nil
}

// FirstActivity returns the earliest-stored activity of a case with a name.
func (s *MemoryStore) FirstActivity(_ context.Context, caseID int, name string) (model.Activity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.activities {
		if a.CaseID == caseID && a.Name == name {
			return a, true, nil
		}
	}
	return model.Activity{}, false, nil
}

// ListActivities returns a page of matching activities ordered by timestamp.
func (s *MemoryStore) ListActivities(_ context.Context, f ActivityFilter, page Page) ([]model.Activity, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Activity
	for _, a := range s.activities {
		if s.matchActivity(a, f) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, page), len(out), nil
}

func (s *MemoryStore) matchActivity(a model.Activity, f ActivityFilter) bool {
	if len(f.CaseIDs) > 0 && !slices.Contains(f.CaseIDs, a.CaseID) {
		return false
	}
	if f.VariantCaseIDs != nil && !slices.Contains(f.VariantCaseIDs, a.CaseID) {
		return false
	}
	if len(f.Names) > 0 && !slices.Contains(f.Names, a.Name) {
		return false
	}
	if f.CaseIndex != nil && a.CaseIndex != *f.CaseIndex {
		return false
	}
	if !f.From.IsZero() && a.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.Timestamp.After(f.To) {
		return false
	}
	if !f.joinsCase() {
		return true
	}

	c, ok := s.cases[a.CaseID]
	if !ok {
		return false
	}
	checks := []struct{ want, got string }{
		{f.Type, string(c.Type)},
		{f.Branch, c.Branch},
		{f.Ramo, c.Ramo},
		{f.Broker, c.Broker},
		{f.State, c.State},
		{f.Client, c.Client},
		{f.Creator, c.Creator},
	}
	for _, chk := range checks {
		if chk.want != "" && chk.want != chk.got {
			return false
		}
	}
	return true
}

// AllActivities returns every activity in storage order.
func (s *MemoryStore) AllActivities(_ context.Context) ([]model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.activities), nil
}

// SetActivityTPTs writes tpt for each activity id in the map.
func (s *MemoryStore) SetActivityTPTs(_ context.Context, tpt map[int64]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.activities {
		if v, ok := tpt[s.activities[i].ID]; ok {
			s.activities[i].TPT = v
		}
	}
	return nil
}

// ActivityNames returns the distinct activity names, sorted.
func (s *MemoryStore) ActivityNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var names []string
	for _, a := range s.activities {
		if _, ok := seen[a.Name]; !ok {
			seen[a.Name] = struct{}{}
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ActivityCaseIDs returns the distinct case ids with activities, sorted.
func (s *MemoryStore) ActivityCaseIDs(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{})
	var ids []int
	for _, a := range s.activities {
		if _, ok := seen[a.CaseID]; !ok {
			seen[a.CaseID] = struct{}{}
			ids = append(ids, a.CaseID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// CountActivityCases counts distinct cases with an activity in [from, to].
func (s *MemoryStore) CountActivityCases(_ context.Context, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{})
	for _, a := range s.activities {
		if !from.IsZero() && a.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && a.Timestamp.After(to) {
			continue
		}
		seen[a.CaseID] = struct{}{}
	}
	return len(seen), nil
}

// CreateRework stores a rework and assigns its ID.
func (s *MemoryStore) CreateRework(_ context.Context, r *model.Rework) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReworkID++
	r.ID = s.nextReworkID
	s.reworks = append(s.reworks, *r)
	return nil
}

// ListReworks returns every rework ordered by id.
func (s *MemoryStore) ListReworks(_ context.Context) ([]model.Rework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.reworks), nil
}

// CreateBill stores a bill and assigns its ID.
func (s *MemoryStore) CreateBill(_ context.Context, b *model.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBillID++
	b.ID = s.nextBillID
	s.bills = append(s.bills, *b)
	return nil
}

// ListBills returns the bills of a case ordered by timestamp.
func (s *MemoryStore) ListBills(_ context.Context, caseID int) ([]model.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Bill
	for _, b := range s.bills {
		if b.CaseID == caseID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ReplaceVariants swaps the whole variant set. IDs are the 1-based
// positions in vs.
func (s *MemoryStore) ReplaceVariants(_ context.Context, vs []model.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.variants = make([]model.Variant, len(vs))
	for i := range vs {
		vs[i].ID = int64(i + 1)
		v := vs[i]
		v.Activities = slices.Clone(v.Activities)
		v.Cases = slices.Clone(v.Cases)
		s.variants[i] = v
	}
	return nil
}

// ListVariants returns a page of matching variants by percentage descending.
func (s *MemoryStore) ListVariants(_ context.Context, f VariantFilter, page Page) ([]model.Variant, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Variant
	for _, v := range s.variants {
		if len(f.IDs) > 0 && !slices.Contains(f.IDs, v.ID) {
			continue
		}
		if !matchVariantActivities(v.Activities, f.Activities) {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, page), len(out), nil
}

// matchVariantActivities applies the substring filter to the JSON form of
// the activity list, the same text the SQL backends store.
func matchVariantActivities(activities, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	raw, _ := json.Marshal(activities)
	text := strings.ToLower(string(raw))
	for _, n := range needles {
		if !strings.Contains(text, strings.ToLower(n)) {
			return false
		}
	}
	return true
}

// CreateInvoice stores an invoice and assigns its ID.
func (s *MemoryStore) CreateInvoice(_ context.Context, inv *model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextInvoiceID++
	inv.ID = s.nextInvoiceID
	s.invoices = append(s.invoices, *inv)
	return nil
}

// GetInvoice retrieves an invoice by id.
func (s *MemoryStore) GetInvoice(_ context.Context, id int64) (model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return model.Invoice{}, model.NewNotFoundError(fmt.Sprintf("invoice %d not found", id))
}

// ListInvoices returns a page of matching invoices ordered by id.
func (s *MemoryStore) ListInvoices(_ context.Context, f InvoiceFilter, page Page) ([]model.Invoice, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Invoice
	for _, inv := range s.invoices {
		if len(f.CaseIDs) > 0 && (inv.CaseID == nil || !slices.Contains(f.CaseIDs, *inv.CaseID)) {
			continue
		}
		if f.GroupID != "" && inv.GroupID != f.GroupID {
			continue
		}
		out = append(out, inv)
	}
	return paginate(out, page), len(out), nil
}

// CreateInventoryItem stores an inventory item and assigns its ID.
func (s *MemoryStore) CreateInventoryItem(_ context.Context, item *model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item.ID = s.nextItemID
	s.inventory = append(s.inventory, *item)
	return nil
}

// ListInventory returns a page of inventory items ordered by id.
func (s *MemoryStore) ListInventory(_ context.Context, page Page) ([]model.InventoryItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return paginate(s.inventory, page), len(s.inventory), nil
}

// Counts returns the table totals.
func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{
		Cases:    len(s.cases),
		Bills:    len(s.bills),
		Reworks:  len(s.reworks),
		Variants: len(s.variants),
		States:   make(map[string]int),
	}
	for _, cs := range s.cases {
		if cs.Approved {
			c.Approved++
		}
		c.States[cs.State]++
	}
	return c, nil
}

// Reset deletes every row.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases = make(map[int]model.Case)
	s.activities = nil
	s.reworks = nil
	s.bills = nil
	s.variants = nil
	s.invoices = nil
	s.inventory = nil
	s.nextActivityID, s.nextReworkID, s.nextBillID = 0, 0, 0
	s.nextInvoiceID, s.nextItemID = 0, 0
	return nil
}

// HealthCheck always succeeds.
func (s *MemoryStore) HealthCheck(_ context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// paginate returns a copy of the page window of items.
func paginate[T any](items []T, page Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	start := max(page.Offset, 0)
	end := len(items)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}
	return slices.Clone(items[start:end])
}
