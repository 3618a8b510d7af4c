package casedex

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain/search/order"
)

func TestQueryBuilder(t *testing.T) {
	fs := &fakeSearch{}
	c := &Client{search: fs}

	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC)
	_, err := c.Query("qualified immunity").
		Jurisdiction("Ohio", "Kentucky").
		Court("Sixth Circuit").
		Type(Civil, Constitutional).
		Since(from).
		Until(to).
		Oldest().
		Offset(20).
		Limit(5).
		Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	req := fs.got
	if req.Text() != "qualified immunity" {
		t.Errorf("text = %q", req.Text())
	}
	f := req.Filters()
	if f.Jurisdiction != "Ohio,Kentucky" || f.Court != "Sixth Circuit" || f.CaseType != "Civil,Constitutional" {
		t.Errorf("filters = %+v", f)
	}
	if f.DateFrom == nil || !f.DateFrom.Equal(from) || f.DateTo == nil || !f.DateTo.Equal(to) {
		t.Errorf("dates = %v %v", f.DateFrom, f.DateTo)
	}
	if req.Order() != order.DateAsc || req.Offset() != 20 || req.Limit() != 5 {
		t.Errorf("paging = %s %d %d", req.Order(), req.Offset(), req.Limit())
	}
}

func TestQueryBuilder_Defaults(t *testing.T) {
	fs := &fakeSearch{}
	c := &Client{search: fs}

	if _, err := c.Query("*").Newest().Do(context.Background()); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !fs.got.IsBrowse() {
		t.Error("* should browse")
	}
	if fs.got.Limit() != 10 {
		t.Errorf("limit = %d, want default 10", fs.got.Limit())
	}
	if fs.got.Filters().DateFrom != nil || fs.got.Filters().DateTo != nil {
		t.Error("zero dates must not filter")
	}
	if fs.got.Order() != order.DateDesc {
		t.Errorf("order = %s", fs.got.Order())
	}
}

func TestQueryBuilder_OptionsSnapshot(t *testing.T) {
	b := (&Client{}).Query("bail").Court("A").Limit(3)
	opts := b.Options()
	if opts.Limit != 3 || len(opts.Courts) != 1 {
		t.Errorf("options = %+v", opts)
	}
}
