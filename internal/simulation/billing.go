package simulation

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/Ofi-Services/unified-backend/model"
)

// BillingPeriod is the spacing between consecutive bills.
const BillingPeriod = 30 * 24 * time.Hour

// Bills returns one bill per started billing period between from and now:
// while the cursor is before now a bill is emitted and the cursor advances by
// BillingPeriod. No bills are returned when from is not before now.
func Bills(caseID int, value float64, from, now time.Time) []model.Bill {
	var bills []model.Bill
	for ts := from; ts.Before(now); ts = ts.Add(BillingPeriod) {
		bills = append(bills, model.Bill{CaseID: caseID, Value: value, Timestamp: ts})
	}
	return bills
}

// Biller emits the bills of a case against the wall clock.
type Biller struct {
	store Store
	clock clock.PassiveClock
}

// NewBiller creates a Biller. "now" is read from clk at emission time.
func NewBiller(store Store, clk clock.PassiveClock) *Biller {
	return &Biller{store: store, clock: clk}
}

// Emit stores every bill due for c from the stage timestamp until now and
// returns how many were written.
func (b *Biller) Emit(ctx context.Context, c model.Case, from time.Time) (int, error) {
	bills := Bills(c.ID, c.Value, from, b.clock.Now())
	for i := range bills {
		if err := b.store.CreateBill(ctx, &bills[i]); err != nil {
			return i, fmt.Errorf("insert bill %d for case %d: %w", i+1, c.ID, err)
		}
	}
	return len(bills), nil
}
