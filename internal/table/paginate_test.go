package table

import (
	"testing"
	"time"
)

func sampleRows() []Row {
	return []Row{
		{"transaction_id": "id1", "amount_held": 5.0, "active": true},
		{"transaction_id": "id2", "amount_held": 1.0, "active": false},
		{"transaction_id": "id3", "amount_held": 9.0, "active": true},
	}
}

func ids(page Page) []string {
	out := make([]string, 0, len(page.List))
	for _, row := range page.List {
		out = append(out, row["transaction_id"].(string))
	}
	return out
}

func TestPaginateSortAndSlice(t *testing.T) {
	page := Paginate(sampleRows(), Request{
		Sort:     []SortKey{{Column: "amount_held"}},
		PageSize: 2,
	})

	if page.Total != 3 {
		t.Errorf("expected total 3, got %d", page.Total)
	}
	got := ids(page)
	if len(got) != 2 || got[0] != "id2" || got[1] != "id1" {
		t.Errorf("expected first page [id2 id1], got %v", got)
	}

	// Second page holds the remainder.
	page = Paginate(sampleRows(), Request{
		Sort:      []SortKey{{Column: "amount_held"}},
		PageSize:  2,
		PageIndex: 1,
	})
	got = ids(page)
	if len(got) != 1 || got[0] != "id3" {
		t.Errorf("expected second page [id3], got %v", got)
	}
}

func TestPaginateSortDirection(t *testing.T) {
	asc := Paginate(sampleRows(), Request{Sort: []SortKey{{Column: "amount_held"}}})
	desc := Paginate(sampleRows(), Request{Sort: []SortKey{{Column: "amount_held", Desc: true}}})

	ascIDs := ids(asc)
	descIDs := ids(desc)
	for i := range ascIDs {
		if ascIDs[i] != descIDs[len(descIDs)-1-i] {
			t.Fatalf("descending is not the reverse of ascending: %v vs %v", ascIDs, descIDs)
		}
	}
}

func TestPaginateLastSortKeyWins(t *testing.T) {
	page := Paginate(sampleRows(), Request{
		Sort: []SortKey{
			{Column: "transaction_id", Desc: true},
			{Column: "amount_held"},
		},
	})
	got := ids(page)
	if got[0] != "id2" {
		t.Errorf("expected the last sort key (amount_held asc) to win, got %v", got)
	}
}

func TestPaginateFilters(t *testing.T) {
	rows := []Row{
		{"transaction_id": "id1", "amount_held": 1.0},
		{"transaction_id": "id2", "amount_held": 15.0},
		{"transaction_id": "id3", "amount_held": 5.0},
	}

	// String filters match by substring on the stringified cell.
	page := Paginate(rows, Request{Filters: []Filter{{Column: "amount_held", Value: "1"}}})
	got := ids(page)
	if len(got) != 2 || got[0] != "id1" || got[1] != "id2" {
		t.Errorf("expected substring filter to match [id1 id2], got %v", got)
	}

	// Numeric filters match by equality.
	page = Paginate(rows, Request{Filters: []Filter{{Column: "amount_held", Value: 5}}})
	got = ids(page)
	if len(got) != 1 || got[0] != "id3" {
		t.Errorf("expected numeric filter to match [id3], got %v", got)
	}

	// Boolean filters match by equality.
	page = Paginate(sampleRows(), Request{Filters: []Filter{{Column: "active", Value: true}}})
	if page.Total != 2 {
		t.Errorf("expected 2 active rows, got %d", page.Total)
	}

	// Filters AND together.
	page = Paginate(sampleRows(), Request{Filters: []Filter{
		{Column: "active", Value: true},
		{Column: "amount_held", Value: 9},
	}})
	got = ids(page)
	if len(got) != 1 || got[0] != "id3" {
		t.Errorf("expected ANDed filters to match [id3], got %v", got)
	}
}

func TestPaginateUnknownFilterTypeFailsOpen(t *testing.T) {
	page := Paginate(sampleRows(), Request{Filters: []Filter{
		{Column: "amount_held", Value: struct{ x int }{1}},
	}})
	if page.Total != 3 {
		t.Errorf("expected unknown filter value type to pass all rows, got %d", page.Total)
	}
}

func TestPaginateEmptyInput(t *testing.T) {
	page := Paginate(nil, Request{
		Sort:    []SortKey{{Column: "missing"}},
		Filters: []Filter{{Column: "missing", Value: "x"}},
	})
	if page.Total != 0 {
		t.Errorf("expected total 0, got %d", page.Total)
	}
	if page.List == nil || len(page.List) != 0 {
		t.Errorf("expected empty non-nil list, got %v", page.List)
	}
}

func TestPaginateOutOfRangePage(t *testing.T) {
	page := Paginate(sampleRows(), Request{PageSize: 2, PageIndex: 5})
	if len(page.List) != 0 {
		t.Errorf("expected empty list for out-of-range page, got %v", page.List)
	}
	if page.Total != 3 {
		t.Errorf("expected total 3 regardless of page, got %d", page.Total)
	}
}

func TestPaginateTotalIsPostFilterCount(t *testing.T) {
	page := Paginate(sampleRows(), Request{
		Filters:  []Filter{{Column: "active", Value: true}},
		PageSize: 1,
	})
	if page.Total != 2 {
		t.Errorf("expected post-filter total 2, got %d", page.Total)
	}
	if len(page.List) != 1 {
		t.Errorf("expected one row on the page, got %d", len(page.List))
	}
}

func TestCompareMixedKinds(t *testing.T) {
	rows := []Row{
		{"transaction_id": "id1", "buy_time": time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{"transaction_id": "id2", "buy_time": time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	page := Paginate(rows, Request{Sort: []SortKey{{Column: "buy_time"}}})
	got := ids(page)
	if got[0] != "id2" {
		t.Errorf("expected chronological sort, got %v", got)
	}
}
