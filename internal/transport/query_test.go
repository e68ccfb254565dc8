package transport

import (
	"errors"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/Ofi-Services/unified-backend/model"
)

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("ParseQuery(%q) error = %v", raw, err)
	}
	return q
}

func errorCode(err error) string {
	var ee *model.ErrorEnvelope
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		raw      string
		def      int
		want     Pagination
		wantCode string
	}{
		{"", DefaultPageSize, Pagination{Page: 1, Size: 50}, ""},
		{"", DefaultCasePageSize, Pagination{Page: 1, Size: 100000}, ""},
		{"page=3&page_size=20", DefaultPageSize, Pagination{Page: 3, Size: 20}, ""},
		{"page=0", DefaultPageSize, Pagination{}, model.ErrBadRequest},
		{"page_size=abc", DefaultPageSize, Pagination{}, model.ErrBadRequest},
		{"page_size=-5", DefaultPageSize, Pagination{}, model.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parsePagination(mustQuery(t, tt.raw), tt.def)
			if tt.wantCode != "" {
				if code := errorCode(err); code != tt.wantCode {
					t.Fatalf("error code = %q, want %q", code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePagination() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parsePagination() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPagination_Window(t *testing.T) {
	w := Pagination{Page: 3, Size: 20}.Window()
	if w.Offset != 40 || w.Limit != 20 {
		t.Errorf("Window() = %+v, want offset 40 limit 20", w)
	}
}

func TestParseDates(t *testing.T) {
	from, to, err := parseDates(mustQuery(t, "start_date=2025-03-01&end_date=2025-03-11"))
	if err != nil {
		t.Fatalf("parseDates() error = %v", err)
	}
	if !from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}
	if !to.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v, want midnight of the end date", to)
	}

	from, to, err = parseDates(url.Values{})
	if err != nil || !from.IsZero() || !to.IsZero() {
		t.Errorf("parseDates(empty) = %v, %v, %v; want zero bounds", from, to, err)
	}
}

func TestParseDates_invalid(t *testing.T) {
	for _, raw := range []string{
		"start_date=01/03/2025",
		"end_date=2025-13-01",
		"start_date=2025-03-01T10:00:00Z",
	} {
		t.Run(raw, func(t *testing.T) {
			_, _, err := parseDates(mustQuery(t, raw))
			if code := errorCode(err); code != model.ErrInvalidDate {
				t.Errorf("error code = %q, want %s", code, model.ErrInvalidDate)
			}
		})
	}
}

func TestParseActivityQuery(t *testing.T) {
	q := mustQuery(t, "case=1&case=2,3&name=Start&name=Visado&case_index=4&type=Issuance"+
		"&branch=Norte&ramo=Autos&state=Visado&client=ACME&creator=ana&var=7,8"+
		"&start_date=2025-01-01&end_date=2025-02-01&broker=Marsh")

	aq, err := ParseActivityQuery(q)
	if err != nil {
		t.Fatalf("ParseActivityQuery() error = %v", err)
	}
	f := aq.Filter
	if !slices.Equal(f.CaseIDs, []int{1, 2, 3}) {
		t.Errorf("CaseIDs = %v", f.CaseIDs)
	}
	if !slices.Equal(f.Names, []string{"Start", "Visado"}) {
		t.Errorf("Names = %v", f.Names)
	}
	if f.CaseIndex == nil || *f.CaseIndex != 4 {
		t.Errorf("CaseIndex = %v, want 4", f.CaseIndex)
	}
	if f.Type != "Issuance" || f.Branch != "Norte" || f.Ramo != "Autos" || f.State != "Visado" ||
		f.Client != "ACME" || f.Creator != "ana" || f.Broker != "Marsh" {
		t.Errorf("case filters = %+v", f)
	}
	if !slices.Equal(aq.VariantIDs, []int64{7, 8}) {
		t.Errorf("VariantIDs = %v", aq.VariantIDs)
	}
	if f.From.IsZero() || f.To.IsZero() {
		t.Error("date bounds not parsed")
	}
}

func TestParseActivityQuery_legacyBrokerParam(t *testing.T) {
	aq, err := ParseActivityQuery(mustQuery(t, "brocker=Aon"))
	if err != nil {
		t.Fatalf("ParseActivityQuery() error = %v", err)
	}
	if aq.Filter.Broker != "Aon" {
		t.Errorf("Broker = %q, want Aon from the legacy parameter", aq.Filter.Broker)
	}

	aq, _ = ParseActivityQuery(mustQuery(t, "brocker=Aon&broker=Marsh"))
	if aq.Filter.Broker != "Marsh" {
		t.Errorf("Broker = %q, want broker to win over brocker", aq.Filter.Broker)
	}
}

func TestParseActivityQuery_errors(t *testing.T) {
	tests := []struct {
		raw  string
		code string
	}{
		{"case=abc", model.ErrBadRequest},
		{"case_index=first", model.ErrBadRequest},
		{"var=x", model.ErrBadRequest},
		{"end_date=yesterday", model.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseActivityQuery(mustQuery(t, tt.raw))
			if code := errorCode(err); code != tt.code {
				t.Errorf("error code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestParseActivityQuery_empty(t *testing.T) {
	aq, err := ParseActivityQuery(url.Values{})
	if err != nil {
		t.Fatalf("ParseActivityQuery() error = %v", err)
	}
	if aq.Filter.CaseIDs != nil || aq.Filter.CaseIndex != nil || aq.VariantIDs != nil {
		t.Errorf("empty query produced filters: %+v", aq)
	}
}
