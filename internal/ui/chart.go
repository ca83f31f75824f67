package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/mothmanmarket/mothman/internal/series"
)

// renderChart draws the merged yes/no price series as a two-line
// terminal chart. Missing samples become NaN gaps rather than zeros.
func renderChart(points []series.Point, width, height int) string {
	if len(points) == 0 {
		return "No price history yet."
	}

	yes := make([]float64, len(points))
	no := make([]float64, len(points))
	for i, p := range points {
		yes[i] = valueOrNaN(p.Yes)
		no[i] = valueOrNaN(p.No)
	}

	low, high := series.Bounds(points)

	graph := asciigraph.PlotMany(
		[][]float64{yes, no},
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(3),
		asciigraph.LowerBound(low),
		asciigraph.UpperBound(high),
		asciigraph.SeriesColors(asciigraph.Fuchsia, asciigraph.Aqua),
		asciigraph.SeriesLegends("Yes", "No"),
	)

	return graph + "\n" + axisLine(points, width)
}

// axisLine shows the first and last time labels under the chart.
func axisLine(points []series.Point, width int) string {
	first := points[0].Label
	last := points[len(points)-1].Label
	if len(points) == 1 || first == last {
		return first
	}
	gap := width - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	return first + strings.Repeat(" ", gap) + last
}

// formatPrice renders a price cell, or a dash when absent.
func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
