package store

import (
	"fmt"
	"strings"
	"time"
)

// dialect captures the SQL differences between the backends.
type dialect struct {
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
	// timeArg converts a timestamp into its stored form.
	timeArg func(t time.Time) any
	// activitiesText is the expression of a variant's activity list as text.
	activitiesText string
	// unlimited is the LIMIT operand that returns every row.
	unlimited string
}

var postgresDialect = dialect{
	placeholder:    func(n int) string { return fmt.Sprintf("$%d", n) },
	timeArg:        func(t time.Time) any { return t.UTC() },
	activitiesText: "v.activities::text",
	unlimited:      "ALL",
}

var sqliteDialect = dialect{
	placeholder:    func(int) string { return "?" },
	timeArg:        func(t time.Time) any { return t.UTC().UnixNano() },
	activitiesText: "v.activities",
	unlimited:      "-1",
}

// where accumulates conditions and their bind arguments.
type where struct {
	d     dialect
	conds []string
	args  []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return w.d.placeholder(len(w.args))
}

func (w *where) add(cond string) { w.conds = append(w.conds, cond) }

func (w *where) eq(column string, v any) {
	w.add(column + " = " + w.arg(v))
}

func (w *where) in(column string, vs []any) {
	if len(vs) == 0 {
		w.add("1 = 0")
		return
	}
	ph := make([]string, len(vs))
	for i, v := range vs {
		ph[i] = w.arg(v)
	}
	w.add(column + " IN (" + strings.Join(ph, ", ") + ")")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// activityWhere builds the FROM and WHERE clauses of an activity listing.
func activityWhere(d dialect, f ActivityFilter) (string, []any) {
	w := &where{d: d}
	if len(f.CaseIDs) > 0 {
		w.in("a.case_id", toAny(f.CaseIDs))
	}
	if f.VariantCaseIDs != nil {
		w.in("a.case_id", toAny(f.VariantCaseIDs))
	}
	if len(f.Names) > 0 {
		w.in("a.name", toAny(f.Names))
	}
	if f.CaseIndex != nil {
		w.eq("a.case_index", *f.CaseIndex)
	}
	if !f.From.IsZero() {
		w.add("a.ts >= " + w.arg(d.timeArg(f.From)))
	}
	if !f.To.IsZero() {
		w.add("a.ts <= " + w.arg(d.timeArg(f.To)))
	}

	from := " FROM activities a"
	if f.joinsCase() {
		from += " JOIN cases c ON c.id = a.case_id"
		for _, col := range []struct{ name, v string }{
			{"c.type", f.Type},
			{"c.branch", f.Branch},
			{"c.ramo", f.Ramo},
			{"c.broker", f.Broker},
			{"c.state", f.State},
			{"c.client", f.Client},
			{"c.creator", f.Creator},
		} {
			if col.v != "" {
				w.eq(col.name, col.v)
			}
		}
	}
	return from + w.String(), w.args
}

// variantWhere builds the WHERE clause of a variant listing.
func variantWhere(d dialect, f VariantFilter) (string, []any) {
	w := &where{d: d}
	if len(f.IDs) > 0 {
		w.in("v.id", toAny(f.IDs))
	}
	for _, a := range f.Activities {
		w.add("LOWER(" + d.activitiesText + ") LIKE " + w.arg(likePattern(a)) + ` ESCAPE '\'`)
	}
	return w.String(), w.args
}

// invoiceWhere builds the WHERE clause of an invoice listing.
func invoiceWhere(d dialect, f InvoiceFilter) (string, []any) {
	w := &where{d: d}
	if len(f.CaseIDs) > 0 {
		w.in("i.case_id", toAny(f.CaseIDs))
	}
	if f.GroupID != "" {
		w.eq("i.group_id", f.GroupID)
	}
	return w.String(), w.args
}

// limit renders LIMIT/OFFSET for a page.
func (d dialect) limit(page Page) string {
	if page.Limit <= 0 {
		if page.Offset > 0 {
			return fmt.Sprintf(" LIMIT %s OFFSET %d", d.unlimited, page.Offset)
		}
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit, max(page.Offset, 0))
}

// likePattern lowercases s, escapes LIKE metacharacters and wraps it for a
// substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
