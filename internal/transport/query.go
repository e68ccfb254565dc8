package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Ofi-Services/unified-backend/internal/report"
	"github.com/Ofi-Services/unified-backend/internal/store"
	"github.com/Ofi-Services/unified-backend/model"
)

// Default page sizes. Case listings default to a page large enough to hold
// every case; the other listings default to 50.
const (
	DefaultPageSize     = 50
	DefaultCasePageSize = 100000
)

// dateLayout is the only accepted format of start_date and end_date.
const dateLayout = "2006-01-02"

// Pagination is a parsed page/page_size pair. Page is 1-based.
type Pagination struct {
	Page int
	Size int
}

// Window converts the pagination into a store page.
func (p Pagination) Window() store.Page {
	return store.Page{Offset: (p.Page - 1) * p.Size, Limit: p.Size}
}

// parsePagination reads page and page_size. Missing values take the
// defaults; malformed or non-positive values are a BAD_REQUEST.
func parsePagination(q url.Values, defaultSize int) (Pagination, error) {
	p := Pagination{Page: 1, Size: defaultSize}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, model.NewBadRequestError("Invalid page.")
		}
		p.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, model.NewBadRequestError("Invalid page_size.")
		}
		p.Size = n
	}
	return p, nil
}

// parseDates reads start_date and end_date as YYYY-MM-DD in UTC. Both are
// optional. The end date is its midnight, so an activity later on that day
// falls outside the range.
func parseDates(q url.Values) (from, to time.Time, err error) {
	if v := q.Get("start_date"); v != "" {
		from, err = time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidDateError("start_date")
		}
	}
	if v := q.Get("end_date"); v != "" {
		to, err = time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidDateError("end_date")
		}
	}
	return from, to, nil
}

// parseInts reads every value of a repeated integer parameter. Values may
// also be comma separated.
func parseInts(q url.Values, name string) ([]int, error) {
	var out []int
	for _, raw := range splitValues(q[name]) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, model.NewBadRequestError(fmt.Sprintf("Invalid %s value %q.", name, raw))
		}
		out = append(out, n)
	}
	return out, nil
}

func parseInt64s(q url.Values, name string) ([]int64, error) {
	ints, err := parseInts(q, name)
	if err != nil || len(ints) == 0 {
		return nil, err
	}
	out := make([]int64, len(ints))
	for i, n := range ints {
		out[i] = int64(n)
	}
	return out, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseActivityQuery reads the filters of an activity listing or export from
// query parameters.
func ParseActivityQuery(q url.Values) (report.ActivityQuery, error) {
	var aq report.ActivityQuery
	f := &aq.Filter

	cases, err := parseInts(q, "case")
	if err != nil {
		return aq, err
	}
	f.CaseIDs = cases
	f.Names = splitValues(q["name"])

	if v := q.Get("case_index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return aq, model.NewBadRequestError(fmt.Sprintf("Invalid case_index value %q.", v))
		}
		f.CaseIndex = &n
	}

	f.Type = q.Get("type")
	f.Branch = q.Get("branch")
	f.Ramo = q.Get("ramo")
	f.Broker = q.Get("broker")
	if f.Broker == "" {
		f.Broker = q.Get("brocker")
	}
	f.State = q.Get("state")
	f.Client = q.Get("client")
	f.Creator = q.Get("creator")

	if aq.VariantIDs, err = parseInt64s(q, "var"); err != nil {
		return aq, err
	}
	if f.From, f.To, err = parseDates(q); err != nil {
		return aq, err
	}
	return aq, nil
}
