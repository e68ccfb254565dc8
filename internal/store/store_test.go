package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ofi-Services/unified-backend/model"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	out := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "procmine.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
	if dsn := os.Getenv("PROCMINE_TEST_POSTGRES_DSN"); dsn != "" {
		out["postgres"] = func(t *testing.T) Store {
			s, err := OpenPostgres(context.Background(), dsn, 4)
			require.NoError(t, err)
			require.NoError(t, s.Reset(context.Background()))
			t.Cleanup(func() { s.Close() })
			return s
		}
	}
	return out
}

// forEachBackend runs fn against a fresh store of every available backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func errorCode(err error) string {
	var env *model.ErrorEnvelope
	if errors.As(err, &env) {
		return env.Code
	}
	return ""
}

func sampleCase(id int, typ model.WorkflowType) model.Case {
	return model.Case{
		ID:                id,
		Type:              typ,
		Branch:            "Bogota",
		Ramo:              "Autos",
		Broker:            "Marsh",
		Client:            "Client 7",
		Creator:           "Ana",
		Value:             2500,
		InsuranceNumber:   "000042",
		InsuranceCreation: t0.AddDate(0, 0, -10),
		InsuranceStart:    t0.AddDate(0, 0, -5),
		InsuranceEnd:      t0.AddDate(0, 0, 360),
		State:             "Start",
	}
}

// seedLog stores two cases and five activities:
//
//	case 1: Start(t0) A(t0+1h) B(t0+2h)
//	case 2: Start(t0+30m) A(t0+3d)
func seedLog(t *testing.T, s Store) []model.Activity {
	t.Helper()
	ctx := context.Background()

	c1 := sampleCase(1, model.WorkflowIssuance)
	c2 := sampleCase(2, model.WorkflowRenewal)
	c2.Branch = "Cali"
	require.NoError(t, s.CreateCase(ctx, c1))
	require.NoError(t, s.CreateCase(ctx, c2))

	acts := []model.Activity{
		{CaseID: 1, CaseIndex: 0, Name: "Start", Timestamp: t0},
		{CaseID: 1, CaseIndex: 0, Name: "A", Timestamp: t0.Add(time.Hour)},
		{CaseID: 2, CaseIndex: 1, Name: "Start", Timestamp: t0.Add(30 * time.Minute)},
		{CaseID: 1, CaseIndex: 0, Name: "B", Timestamp: t0.Add(2 * time.Hour), Rework: true},
		{CaseID: 2, CaseIndex: 1, Name: "A", Timestamp: t0.AddDate(0, 0, 3), Automatic: true},
	}
	for i := range acts {
		require.NoError(t, s.AppendActivity(ctx, &acts[i]))
	}
	return acts
}

func names(acts []model.Activity) []string {
	out := make([]string, len(acts))
	for i, a := range acts {
		out[i] = a.Name
	}
	return out
}

// --- Cases ---

func TestStore_Cases(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		c := sampleCase(7, model.WorkflowPolicyOnboarding)
		require.NoError(t, s.CreateCase(ctx, c))

		err := s.CreateCase(ctx, c)
		assert.Equal(t, model.ErrConflict, errorCode(err))

		got, err := s.GetCase(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, c.Type, got.Type)
		assert.Equal(t, c.Broker, got.Broker)
		assert.True(t, c.InsuranceEnd.Equal(got.InsuranceEnd))

		c.State = "EmitirPoliza"
		c.Approved = true
		c.AvgTime = 99
		require.NoError(t, s.UpdateCase(ctx, c))
		got, err = s.GetCase(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "EmitirPoliza", got.State)
		assert.True(t, got.Approved)
		assert.Equal(t, 99.0, got.AvgTime)

		_, err = s.GetCase(ctx, 8)
		assert.Equal(t, model.ErrNotFound, errorCode(err))
		assert.Equal(t, model.ErrNotFound, errorCode(s.UpdateCase(ctx, sampleCase(8, model.WorkflowRenewal))))
	})
}

func TestStore_ListCasesAndAvgTimes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, id := range []int{30, 10, 20} {
			require.NoError(t, s.CreateCase(ctx, sampleCase(id, model.WorkflowRenewal)))
		}
		require.NoError(t, s.SetCaseAvgTimes(ctx, map[int]float64{10: 1.5, 30: 3}))

		page, total, err := s.ListCases(ctx, Page{Offset: 1, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, 20, page[0].ID)
		assert.Equal(t, 30, page[1].ID)
		assert.Equal(t, 3.0, page[1].AvgTime)

		ids, err := s.CaseIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{10, 20, 30}, ids)
	})
}

// --- Activities ---

func TestStore_ActivitiesAssignIncreasingIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		acts := seedLog(t, s)
		for i := 1; i < len(acts); i++ {
			assert.Greater(t, acts[i].ID, acts[i-1].ID)
		}

		all, err := s.AllActivities(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Start", "A", "Start", "B", "A"}, names(all))
		assert.True(t, all[3].Rework)
		assert.True(t, all[4].Automatic)
		assert.True(t, all[4].Timestamp.Equal(t0.AddDate(0, 0, 3)))
	})
}

func TestStore_FirstActivity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		acts := seedLog(t, s)
		again := model.Activity{CaseID: 1, Name: "A", Timestamp: t0.Add(5 * time.Hour)}
		require.NoError(t, s.AppendActivity(ctx, &again))

		first, ok, err := s.FirstActivity(ctx, 1, "A")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, acts[1].ID, first.ID)

		_, ok, err = s.FirstActivity(ctx, 1, "Z")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_ListActivitiesFilters(t *testing.T) {
	idx := 1
	tests := []struct {
		name   string
		filter ActivityFilter
		want   []string
		total  int
	}{
		{"no filter orders by timestamp", ActivityFilter{}, []string{"Start", "Start", "A", "B", "A"}, 5},
		{"by case", ActivityFilter{CaseIDs: []int{2}}, []string{"Start", "A"}, 2},
		{"by name", ActivityFilter{Names: []string{"A", "B"}}, []string{"A", "B", "A"}, 3},
		{"by case index", ActivityFilter{CaseIndex: &idx}, []string{"Start", "A"}, 2},
		{"by case column", ActivityFilter{Branch: "Cali"}, []string{"Start", "A"}, 2},
		{"by type", ActivityFilter{Type: string(model.WorkflowIssuance)}, []string{"Start", "A", "B"}, 3},
		{"empty variant cases match nothing", ActivityFilter{VariantCaseIDs: []int{}}, []string{}, 0},
		{"variant cases", ActivityFilter{VariantCaseIDs: []int{1}}, []string{"Start", "A", "B"}, 3},
		{"window", ActivityFilter{From: t0.Add(time.Minute), To: t0.Add(2 * time.Hour)}, []string{"Start", "A", "B"}, 3},
	}
	forEachBackend(t, func(t *testing.T, s Store) {
		seedLog(t, s)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, total, err := s.ListActivities(context.Background(), tt.filter, Page{})
				require.NoError(t, err)
				assert.Equal(t, tt.total, total)
				assert.Equal(t, tt.want, names(got))
			})
		}
	})
}

func TestStore_ListActivitiesPaging(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		seedLog(t, s)
		got, total, err := s.ListActivities(context.Background(), ActivityFilter{}, Page{Offset: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, []string{"A", "B"}, names(got))

		got, _, err = s.ListActivities(context.Background(), ActivityFilter{}, Page{Offset: 10, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStore_ActivityAggregates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		acts := seedLog(t, s)

		ns, err := s.ActivityNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "Start"}, ns)

		ids, err := s.ActivityCaseIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, ids)

		n, err := s.CountActivityCases(ctx, t0.AddDate(0, 0, 1), time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = s.CountActivityCases(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.NoError(t, s.SetActivityTPTs(ctx, map[int64]float64{acts[0].ID: 3600, acts[1].ID: 3600}))
		all, err := s.AllActivities(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3600.0, all[0].TPT)
		assert.Equal(t, 0.0, all[2].TPT)
	})
}

// --- Reworks and bills ---

func TestStore_ReworksAndBills(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		acts := seedLog(t, s)

		r := model.Rework{ActivityID: acts[3].ID, Target: "A", Cost: 3600, Cause: "Missing document"}
		require.NoError(t, s.CreateRework(ctx, &r))
		assert.NotZero(t, r.ID)
		reworks, err := s.ListReworks(ctx)
		require.NoError(t, err)
		require.Len(t, reworks, 1)
		assert.Equal(t, r, reworks[0])

		late := model.Bill{CaseID: 1, Value: 208, Timestamp: t0.AddDate(0, 1, 0)}
		early := model.Bill{CaseID: 1, Value: 208, Timestamp: t0}
		require.NoError(t, s.CreateBill(ctx, &late))
		require.NoError(t, s.CreateBill(ctx, &early))
		bills, err := s.ListBills(ctx, 1)
		require.NoError(t, err)
		require.Len(t, bills, 2)
		assert.Equal(t, early.ID, bills[0].ID)

		bills, err = s.ListBills(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, bills)
	})
}

// --- Variants ---

func TestStore_Variants(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		vs := []model.Variant{
			{Activities: []string{"Start", "RegistroCompromiso"}, Cases: []int{1}, NumberCases: 1, Percentage: 25, AvgTime: 10},
			{Activities: []string{"Start", "GenerarFactura_100%"}, Cases: []int{2, 3, 4}, NumberCases: 3, Percentage: 75, AvgTime: 20},
		}
		require.NoError(t, s.ReplaceVariants(ctx, vs))
		assert.Equal(t, int64(1), vs[0].ID)
		assert.Equal(t, int64(2), vs[1].ID)

		got, total, err := s.ListVariants(ctx, VariantFilter{}, Page{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, vs[1].ID, got[0].ID, "highest percentage first")
		assert.Equal(t, []int{2, 3, 4}, got[0].Cases)

		got, _, err = s.ListVariants(ctx, VariantFilter{Activities: []string{"registro"}}, Page{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, vs[0].ID, got[0].ID)

		got, _, err = s.ListVariants(ctx, VariantFilter{Activities: []string{"_100%"}}, Page{})
		require.NoError(t, err)
		require.Len(t, got, 1, "LIKE metacharacters are literal")

		got, _, err = s.ListVariants(ctx, VariantFilter{IDs: []int64{vs[0].ID}}, Page{})
		require.NoError(t, err)
		require.Len(t, got, 1)

		require.NoError(t, s.ReplaceVariants(ctx, vs[:1]))
		_, total, err = s.ListVariants(ctx, VariantFilter{}, Page{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}

func TestStore_ReplaceVariantsRestartsIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		variants := func() []model.Variant {
			return []model.Variant{
				{Activities: []string{"Start", "Visado"}, Cases: []int{1, 2}, NumberCases: 2, Percentage: 66.67},
				{Activities: []string{"Start", "RevisionEmision"}, Cases: []int{3}, NumberCases: 1, Percentage: 33.33},
			}
		}
		first := variants()
		require.NoError(t, s.ReplaceVariants(ctx, first))
		second := variants()
		require.NoError(t, s.ReplaceVariants(ctx, second))

		assert.Equal(t, first[0].ID, second[0].ID)
		assert.Equal(t, first[1].ID, second[1].ID)

		got, _, err := s.ListVariants(ctx, VariantFilter{IDs: []int64{first[1].ID}}, Page{})
		require.NoError(t, err)
		require.Len(t, got, 1, "an id from the previous set still resolves")
		assert.Equal(t, []int{3}, got[0].Cases)
	})
}

// --- Invoices and inventory ---

func TestStore_Invoices(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateCase(ctx, sampleCase(1, model.WorkflowRenewal)))

		caseID := 1
		paid := t0.AddDate(0, 0, 20)
		a := model.Invoice{
			CaseID: &caseID, Reference: "INV-1", Date: t0, PayDate: &paid, Quantity: 2, UnitPrice: 50, Value: 100,
			Vendor: "Acme", Region: "North", GroupID: "g-1", Confidence: "High", Open: true, Accuracy: 97,
		}
		b := model.Invoice{Reference: "INV-2", Date: t0, Quantity: 1, UnitPrice: 80, Value: 80, GroupID: "g-2"}
		require.NoError(t, s.CreateInvoice(ctx, &a))
		require.NoError(t, s.CreateInvoice(ctx, &b))

		got, err := s.GetInvoice(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CaseID)
		assert.Equal(t, 1, *got.CaseID)
		require.NotNil(t, got.PayDate)
		assert.True(t, paid.Equal(*got.PayDate))
		assert.True(t, got.Open)

		got, err = s.GetInvoice(ctx, b.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CaseID)
		assert.Nil(t, got.PayDate)

		_, err = s.GetInvoice(ctx, 999)
		assert.Equal(t, model.ErrNotFound, errorCode(err))

		list, total, err := s.ListInvoices(ctx, InvoiceFilter{GroupID: "g-2"}, Page{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "INV-2", list[0].Reference)

		list, _, err = s.ListInvoices(ctx, InvoiceFilter{CaseIDs: []int{1}}, Page{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "INV-1", list[0].Reference)
	})
}

func TestStore_Inventory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, code := range []string{"P-1", "P-2", "P-3"} {
			item := model.InventoryItem{ProductCode: code, ProductName: "Widget", CurrentStock: 5, UnitPrice: 9.5}
			require.NoError(t, s.CreateInventoryItem(ctx, &item))
		}
		items, total, err := s.ListInventory(ctx, Page{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, items, 2)
		assert.Equal(t, "P-1", items[0].ProductCode)
	})
}

// --- Counts and reset ---

func TestStore_CountsAndReset(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		acts := seedLog(t, s)

		c := sampleCase(1, model.WorkflowIssuance)
		c.State = "RecepcionPago"
		c.Approved = true
		require.NoError(t, s.UpdateCase(ctx, c))
		require.NoError(t, s.CreateBill(ctx, &model.Bill{CaseID: 1, Value: 10, Timestamp: t0}))
		require.NoError(t, s.CreateRework(ctx, &model.Rework{ActivityID: acts[3].ID, Target: "A", Cause: "x"}))

		counts, err := s.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts.Cases)
		assert.Equal(t, 1, counts.Approved)
		assert.Equal(t, 1, counts.Bills)
		assert.Equal(t, 1, counts.Reworks)
		assert.Equal(t, map[string]int{"RecepcionPago": 1, "Start": 1}, counts.States)

		require.NoError(t, s.Reset(ctx))
		counts, err = s.Counts(ctx)
		require.NoError(t, err)
		assert.Zero(t, counts.Cases)
		assert.Empty(t, counts.States)

		require.NoError(t, s.CreateCase(ctx, sampleCase(1, model.WorkflowIssuance)))
		a := model.Activity{CaseID: 1, Name: "Start", Timestamp: t0}
		require.NoError(t, s.AppendActivity(ctx, &a))
		assert.Equal(t, int64(1), a.ID, "ids restart after reset")

		assert.NoError(t, s.HealthCheck(ctx))
	})
}
