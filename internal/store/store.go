// Package store persists the simulated event log, the derived analytics and
// the invoice demo data. Three backends share one contract: an in-memory
// store, PostgreSQL through pgx and SQLite through go-sqlite3.
package store

import (
	"context"
	"time"

	"github.com/Ofi-Services/unified-backend/model"
)

// Store is the persistence contract used by the simulation, the analytics
// pass and the read API.
type Store interface {
	// CreateCase persists a new case. Returns CONFLICT if the id is taken.
	CreateCase(ctx context.Context, c model.Case) error

	// UpdateCase persists state, avg_time and approved of an existing case.
	// Returns NOT_FOUND if the case does not exist.
	UpdateCase(ctx context.Context, c model.Case) error

	// GetCase retrieves a case by id.
	GetCase(ctx context.Context, id int) (model.Case, error)

	// ListCases returns a page of cases ordered by id and the total count.
	ListCases(ctx context.Context, page Page) ([]model.Case, int, error)

	// CaseIDs returns the ids of every stored case.
	CaseIDs(ctx context.Context) ([]int, error)

	// SetCaseAvgTimes writes avg_time for each case id in the map.
	SetCaseAvgTimes(ctx context.Context, avg map[int]float64) error

	// AppendActivity stores an activity and assigns its ID. IDs increase in
	// insertion order.
	AppendActivity(ctx context.Context, a *model.Activity) error

	// FirstActivity returns the earliest-stored activity of a case with the
	// given name.
	FirstActivity(ctx context.Context, caseID int, name string) (model.Activity, bool, error)

	// ListActivities returns a page of matching activities ordered by
	// timestamp, then id, and the total match count.
	ListActivities(ctx context.Context, f ActivityFilter, page Page) ([]model.Activity, int, error)

	// AllActivities returns every activity in storage order.
	AllActivities(ctx context.Context) ([]model.Activity, error)

	// SetActivityTPTs writes tpt for each activity id in the map.
	SetActivityTPTs(ctx context.Context, tpt map[int64]float64) error

	// ActivityNames returns the distinct activity names, sorted.
	ActivityNames(ctx context.Context) ([]string, error)

	// ActivityCaseIDs returns the distinct case ids that have activities,
	// sorted.
	ActivityCaseIDs(ctx context.Context) ([]int, error)

	// CountActivityCases counts the distinct cases with at least one activity
	// in [from, to]. A zero bound is open.
	CountActivityCases(ctx context.Context, from, to time.Time) (int, error)

	// CreateRework stores a rework and assigns its ID.
	CreateRework(ctx context.Context, r *model.Rework) error

	// ListReworks returns every rework ordered by id.
	ListReworks(ctx context.Context) ([]model.Rework, error)

	// CreateBill stores a bill and assigns its ID.
	CreateBill(ctx context.Context, b *model.Bill) error

	// ListBills returns the bills of a case ordered by timestamp.
	ListBills(ctx context.Context, caseID int) ([]model.Bill, error)

	// ReplaceVariants deletes every variant and stores vs, assigning IDs in
	// slice order.
	ReplaceVariants(ctx context.Context, vs []model.Variant) error

	// ListVariants returns a page of matching variants ordered by percentage
	// descending, then id, and the total match count.
	ListVariants(ctx context.Context, f VariantFilter, page Page) ([]model.Variant, int, error)

	// CreateInvoice stores an invoice and assigns its ID.
	CreateInvoice(ctx context.Context, inv *model.Invoice) error

	// GetInvoice retrieves an invoice by id.
	GetInvoice(ctx context.Context, id int64) (model.Invoice, error)

	// ListInvoices returns a page of matching invoices ordered by id and the
	// total match count.
	ListInvoices(ctx context.Context, f InvoiceFilter, page Page) ([]model.Invoice, int, error)

	// CreateInventoryItem stores an inventory item and assigns its ID.
	CreateInventoryItem(ctx context.Context, item *model.InventoryItem) error

	// ListInventory returns a page of inventory items ordered by id.
	ListInventory(ctx context.Context, page Page) ([]model.InventoryItem, int, error)

	// Counts returns the table totals used by the KPI summary.
	Counts(ctx context.Context) (Counts, error)

	// Reset deletes every row.
	Reset(ctx context.Context) error

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Page selects a window of an ordered result. A Limit of zero or less
// returns every row from Offset on.
type Page struct {
	Offset int
	Limit  int
}

// ActivityFilter narrows an activity listing. Zero-valued fields do not
// filter. VariantCaseIDs applies when non-nil and is combined with CaseIDs.
type ActivityFilter struct {
	CaseIDs        []int
	Names          []string
	CaseIndex      *int
	Type           string
	Branch         string
	Ramo           string
	Broker         string
	State          string
	Client         string
	Creator        string
	VariantCaseIDs []int
	From           time.Time
	To             time.Time
}

// joinsCase reports whether the filter needs case columns.
func (f ActivityFilter) joinsCase() bool {
	return f.Type != "" || f.Branch != "" || f.Ramo != "" || f.Broker != "" ||
		f.State != "" || f.Client != "" || f.Creator != ""
}

// VariantFilter narrows a variant listing. Every entry of Activities must
// appear, case-insensitively, in the variant's serialized activity list.
type VariantFilter struct {
	IDs        []int64
	Activities []string
}

// InvoiceFilter narrows an invoice listing.
type InvoiceFilter struct {
	CaseIDs []int
	GroupID string
}

// Counts are whole-table totals.
type Counts struct {
	Cases    int
	Approved int
	Bills    int
	Reworks  int
	Variants int
	// States counts cases per current state.
	States map[string]int
}
