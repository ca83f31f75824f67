package ui

import (
	"fmt"
	"sort"

	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/metrics"
)

// StatsView displays client health: sync activity per table and the
// realtime connection state.
type StatsView struct {
	text *tview.TextView
}

// NewStatsView creates the stats panel.
func NewStatsView() *StatsView {
	text := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	text.SetTitle(" Client Stats ").SetBorder(true)
	return &StatsView{text: text}
}

// Widget returns the tview primitive.
func (v *StatsView) Widget() tview.Primitive {
	return v.text
}

// Update refreshes the stats display.
func (v *StatsView) Update(snapshot metrics.Snapshot) {
	v.text.Clear()

	rtColor := "red"
	if snapshot.RealtimeStatus == "connected" {
		rtColor = "green"
	}

	fmt.Fprintf(v.text, `[yellow]System Status[-]
Uptime: %s
Realtime: [%s]%s[-]

[yellow]Sync Activity[-]
Fetches: %d
Errors: %d

`,
		formatDuration(snapshot.Uptime),
		rtColor, snapshot.RealtimeStatus,
		snapshot.FetchesTotal,
		snapshot.ErrorsTotal,
	)

	names := make([]string, 0, len(snapshot.Tables))
	for name := range snapshot.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := snapshot.Tables[name]
		fmt.Fprintf(v.text, "%-14s fetches %d · refetches %d · coalesced %d · synced %s\n",
			name, t.Fetches, t.Refetches, t.Coalesced, formatTimeAgo(t.LastSync))
	}
}
