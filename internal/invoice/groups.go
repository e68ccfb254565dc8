package invoice

import "github.com/Ofi-Services/unified-backend/model"

// Groups summarizes invoices per group id. Groups appear in order of their
// first invoice; items keep the given order.
//
// The overpaid amount is the total value minus the first invoice's value.
// Region, pattern, open and confidence come from the first invoice and the
// date is the earliest of the group.
func Groups(invoices []model.Invoice) []model.InvoiceGroup {
	index := make(map[string]int)
	var out []model.InvoiceGroup
	for _, inv := range invoices {
		i, ok := index[inv.GroupID]
		if !ok {
			i = len(out)
			index[inv.GroupID] = i
			out = append(out, model.InvoiceGroup{
				GroupID:    inv.GroupID,
				Date:       inv.Date,
				Region:     inv.Region,
				Pattern:    inv.Pattern,
				Open:       inv.Open,
				Confidence: inv.Confidence,
				Items:      []model.Invoice{},
			})
		}
		g := &out[i]
		if len(g.Items) > 0 {
			g.AmountOverpaid += inv.Value
		}
		if inv.Date.Before(g.Date) {
			g.Date = inv.Date
		}
		g.Items = append(g.Items, inv)
		g.ItemCount++
	}
	if out == nil {
		return []model.InvoiceGroup{}
	}
	return out
}
