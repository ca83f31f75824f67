package series

import (
	"testing"
	"time"

	"github.com/mothmanmarket/mothman/internal/store"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

func TestReconcileMergesDuplicateLabels(t *testing.T) {
	samples := []store.PricePoint{
		{ID: "h3", BetID: "b1", YesPrice: "0.50", NoPrice: "0.50", CreatedAt: mustTime(t, "2025-06-01T10:01:00Z")},
		{ID: "h1", BetID: "b1", YesPrice: "0.40", NoPrice: "0.60", CreatedAt: mustTime(t, "2025-06-01T10:00:05Z")},
		{ID: "h2", BetID: "b1", YesPrice: "0.45", NoPrice: "0.55", CreatedAt: mustTime(t, "2025-06-01T10:00:30Z")},
	}

	points := Reconcile(samples)

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Label != "10:00" || points[1].Label != "10:01" {
		t.Errorf("expected labels [10:00 10:01], got [%s %s]", points[0].Label, points[1].Label)
	}

	// The earliest sample in a bucket is its representative.
	if points[0].Yes == nil || *points[0].Yes != 0.40 {
		t.Errorf("expected first 10:00 sample (yes 0.40) to win, got %v", points[0].Yes)
	}
	if points[0].No == nil || *points[0].No != 0.60 {
		t.Errorf("expected no 0.60 at 10:00, got %v", points[0].No)
	}
	if points[1].Yes == nil || *points[1].Yes != 0.50 {
		t.Errorf("expected yes 0.50 at 10:01, got %v", points[1].Yes)
	}
}

func TestReconcileEmptyInput(t *testing.T) {
	if points := Reconcile(nil); points != nil {
		t.Errorf("expected nil for empty input, got %v", points)
	}

	low, high := Bounds(nil)
	if low != 0 || high != 1 {
		t.Errorf("expected default range [0,1], got [%v,%v]", low, high)
	}
}

func TestReconcileNonNumericPrices(t *testing.T) {
	samples := []store.PricePoint{
		{ID: "h1", BetID: "b1", YesPrice: "garbage", NoPrice: "", CreatedAt: mustTime(t, "2025-06-01T10:00:00Z")},
	}

	points := Reconcile(samples)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}

	// Unparsable prices must chart as gaps, not as zero.
	if points[0].Yes != nil {
		t.Errorf("expected nil yes for unparsable price, got %v", *points[0].Yes)
	}
	if points[0].No != nil {
		t.Errorf("expected nil no for absent price, got %v", *points[0].No)
	}

	low, high := Bounds(points)
	if low != 0 || high != 1 {
		t.Errorf("expected default range with no numeric values, got [%v,%v]", low, high)
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	samples := []store.PricePoint{
		{ID: "h2", CreatedAt: mustTime(t, "2025-06-01T10:05:00Z"), YesPrice: "0.7", NoPrice: "0.3"},
		{ID: "h1", CreatedAt: mustTime(t, "2025-06-01T10:00:00Z"), YesPrice: "0.6", NoPrice: "0.4"},
	}

	first := Reconcile(samples)
	if samples[0].ID != "h2" || samples[1].ID != "h1" {
		t.Fatalf("input slice was reordered: %v", samples)
	}

	second := Reconcile(samples)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic output lengths: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Label != second[i].Label || *first[i].Yes != *second[i].Yes {
			t.Errorf("point %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestBoundsClampedMargin(t *testing.T) {
	yes1, no1 := 0.40, 0.60
	yes2, no2 := 0.98, 0.02
	points := []Point{
		{Yes: &yes1, No: &no1},
		{Yes: &yes2, No: &no2},
	}

	low, high := Bounds(points)

	// min 0.02 - 0.05 clamps to 0; max 0.98 + 0.05 clamps to 1.
	if low != 0 {
		t.Errorf("expected low clamped to 0, got %v", low)
	}
	if high != 1 {
		t.Errorf("expected high clamped to 1, got %v", high)
	}
}

func TestBoundsInteriorMargin(t *testing.T) {
	yes, no := 0.40, 0.60
	points := []Point{{Yes: &yes, No: &no}}

	low, high := Bounds(points)

	if low != 0.40-Margin {
		t.Errorf("expected low %v, got %v", 0.40-Margin, low)
	}
	if high != 0.60+Margin {
		t.Errorf("expected high %v, got %v", 0.60+Margin, high)
	}
}

func TestBoundsOutOfRangeValues(t *testing.T) {
	// Prices are probability-like but not enforced; a stray value past
	// the unit interval must not produce an inverted range.
	v := 1.5
	points := []Point{{Yes: &v}}

	low, high := Bounds(points)
	if high <= low {
		t.Fatalf("inverted range [%v,%v] for out-of-range value", low, high)
	}
	if low != 1.5-Margin || high != 1.5+Margin {
		t.Errorf("expected unclamped margins around 1.5, got [%v,%v]", low, high)
	}

	neg := -0.5
	points = []Point{{Yes: &neg}}
	low, high = Bounds(points)
	if high <= low {
		t.Fatalf("inverted range [%v,%v] for negative value", low, high)
	}
}

func TestBoundsSingleValueNonZeroWidth(t *testing.T) {
	v := 0.5
	points := []Point{{Yes: &v, No: &v}}

	low, high := Bounds(points)
	if high <= low {
		t.Errorf("expected a non-zero-width range for a flat series, got [%v,%v]", low, high)
	}
}

func TestForBet(t *testing.T) {
	history := []store.PricePoint{
		{ID: "h1", BetID: "b1"},
		{ID: "h2", BetID: "b2"},
		{ID: "h3", BetID: "b1"},
	}

	got := ForBet(history, "b1")
	if len(got) != 2 || got[0].ID != "h1" || got[1].ID != "h3" {
		t.Errorf("expected [h1 h3] for bet b1, got %v", got)
	}
	if got := ForBet(history, "missing"); got != nil {
		t.Errorf("expected nil for unknown bet, got %v", got)
	}
}
