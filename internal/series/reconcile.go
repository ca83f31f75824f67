// Package series reshapes raw price history rows into chartable data.
//
// The gateway writes one or more price_history rows per trade, each
// stamped with a wall-clock time and a yes/no price pair. Charting
// wants one point per displayed tick, so samples are bucketed to
// hour:minute granularity and merged onto a single time axis.
package series

import (
	"sort"
	"time"

	"github.com/mothmanmarket/mothman/internal/store"
)

// TimeLabelLayout is the bucketing granularity for the chart x-axis.
// Samples whose timestamps format to the same label share one tick.
const TimeLabelLayout = "15:04"

// Margin is the padding applied to the value range on each side. It
// also guarantees a non-zero-width range when every sample carries
// the same price.
const Margin = 0.05

// Point is one merged chart tick. Yes and No are nil when the
// representative sample lacks the field or it failed to parse.
type Point struct {
	Label string
	At    time.Time
	Yes   *float64
	No    *float64
}

// Reconcile merges an unordered set of price samples for one bet onto
// a common time axis. The distinct hour:minute labels, in
// chronological order of first occurrence, define the output; the
// first sample seen for a label is its representative. The input is
// not mutated and the result is deterministic for a fixed input order.
func Reconcile(samples []store.PricePoint) []Point {
	if len(samples) == 0 {
		return nil
	}

	ordered := make([]store.PricePoint, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	seen := make(map[string]bool, len(ordered))
	points := make([]Point, 0, len(ordered))

	for _, s := range ordered {
		label := s.CreatedAt.Format(TimeLabelLayout)
		if seen[label] {
			continue
		}
		seen[label] = true

		points = append(points, Point{
			Label: label,
			At:    s.CreatedAt,
			Yes:   parsePrice(s.YesPrice),
			No:    parsePrice(s.NoPrice),
		})
	}

	return points
}

// Bounds derives the chart display range from the merged points.
//
// Prices are unit-interval probabilities, so the range is clamped to
// [0,1] after padding: [max(0, min-Margin), min(1, max+Margin)]. With
// no numeric values at all the range defaults to [0, 1].
func Bounds(points []Point) (low, high float64) {
	var (
		min, max float64
		any      bool
	)

	for _, p := range points {
		for _, v := range []*float64{p.Yes, p.No} {
			if v == nil {
				continue
			}
			if !any || *v < min {
				min = *v
			}
			if !any || *v > max {
				max = *v
			}
			any = true
		}
	}

	if !any {
		return 0, 1
	}

	low = min - Margin
	if low < 0 {
		low = 0
	}
	high = max + Margin
	if high > 1 {
		high = 1
	}

	// Prices outside the unit interval are not enforced away upstream;
	// clamping them can invert the range. Fall back to the unclamped
	// margins so the chart range stays well-formed.
	if high < low {
		low = min - Margin
		high = max + Margin
	}
	return low, high
}

// ForBet filters the full price history down to one bet's samples.
func ForBet(history []store.PricePoint, betID string) []store.PricePoint {
	var out []store.PricePoint
	for _, h := range history {
		if h.BetID == betID {
			out = append(out, h)
		}
	}
	return out
}

// parsePrice returns the parsed value, or nil for absent or
// non-numeric fields. Unparsable prices must not chart as zero.
func parsePrice(n store.Numeric) *float64 {
	f, ok := n.Float()
	if !ok {
		return nil
	}
	return &f
}
