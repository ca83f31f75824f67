package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/store"
)

// tickerLimit caps how many transactions the feed shows.
const tickerLimit = 100

// TickerView is the one-line feed of recent trades across the market.
type TickerView struct {
	app  *App
	text *tview.TextView

	entries []store.TickerEntry
	offset  int
}

// NewTickerView creates the transaction ticker bar.
func NewTickerView(app *App) *TickerView {
	v := &TickerView{
		app:  app,
		text: tview.NewTextView().SetDynamicColors(true).SetWrap(false),
	}
	v.text.SetText("Waiting for transactions...")
	return v
}

// Widget returns the tview primitive.
func (v *TickerView) Widget() tview.Primitive {
	return v.text
}

// Refetch reloads the feed. Registered with the sync manager for the
// transactions table.
func (v *TickerView) Refetch(ctx context.Context) {
	entries, err := v.app.gateway.RecentTransactions(ctx, tickerLimit)
	v.app.metrics.RecordFetch(gateway.TableTransactions, err)
	if err != nil {
		return
	}

	// Newest first by sell-or-buy time.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastActivity().After(entries[j].LastActivity())
	})

	v.app.QueueUpdateDraw(func() {
		v.entries = entries
		v.offset = 0
		v.redraw()
	})
}

// Advance scrolls the feed one entry; the app's update loop drives it.
func (v *TickerView) Advance() {
	if len(v.entries) == 0 {
		return
	}
	v.offset = (v.offset + 1) % len(v.entries)
	v.redraw()
}

// redraw renders the feed starting at the current offset.
func (v *TickerView) redraw() {
	if len(v.entries) == 0 {
		v.text.SetText("Waiting for transactions...")
		return
	}

	var b strings.Builder
	for i := 0; i < len(v.entries); i++ {
		entry := v.entries[(v.offset+i)%len(v.entries)]
		b.WriteString(formatTickerEntry(entry))
		b.WriteString("   ·   ")
	}
	v.text.SetText(b.String())
}

// formatTickerEntry renders one trade for the feed.
func formatTickerEntry(e store.TickerEntry) string {
	action := "bought"
	price := e.BuyPrice
	if e.SellTime != nil {
		action = "sold"
		price = e.SellPrice
	}

	side := "[#c75000::b]NO[-::-]"
	if e.IsYes {
		side = "[#925cff::b]YES[-::-]"
	}

	return fmt.Sprintf("[::b]%s[::-] %s %.0f %s shares of [yellow]%q[-] @ [green]$%.2f[-]",
		e.Username, action, e.AmountHeld.FloatOr(0), side, e.BetTitle, price.FloatOr(0))
}
