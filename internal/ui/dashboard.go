package ui

import (
	"context"
	"fmt"
	"sort"

	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/series"
	"github.com/mothmanmarket/mothman/internal/store"
)

// DashboardView lists bets with a price chart for the selected one.
// With resolvedOnly set it becomes the past-bets view.
type DashboardView struct {
	app          *App
	resolvedOnly bool

	layout *tview.Flex
	list   *tview.List
	detail *tview.TextView
	status *tview.TextView

	bets    []store.Bet
	history []store.PricePoint
}

// NewDashboardView creates the market dashboard.
func NewDashboardView(app *App, resolvedOnly bool) *DashboardView {
	v := &DashboardView{
		app:          app,
		resolvedOnly: resolvedOnly,
		list:         tview.NewList().ShowSecondaryText(true),
		detail:       tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		status:       tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}

	title := " Mothman Market Dashboard "
	if resolvedOnly {
		title = " Past Bets "
	}
	v.list.SetTitle(title).SetBorder(true)
	v.detail.SetTitle(" Price History ").SetBorder(true)

	v.list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		v.renderDetail(index)
	})
	v.list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index >= 0 && index < len(v.visibleBets()) {
			v.app.ShowBet(v.visibleBets()[index].ID)
		}
	})

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(v.list, 0, 1, true).
			AddItem(v.detail, 0, 2, false), 0, 1, true).
		AddItem(v.status, 1, 0, false)

	v.status.SetText("Loading market data...")

	return v
}

// Widget returns the tview primitive.
func (v *DashboardView) Widget() tview.Primitive {
	return v.layout
}

// Refetch reloads bets and price history. Registered with the sync
// manager for both tables; the manager coalesces overlapping calls.
func (v *DashboardView) Refetch(ctx context.Context) {
	bets, betsErr := v.app.gateway.Bets(ctx)
	v.app.metrics.RecordFetch(gateway.TableBets, betsErr)

	history, histErr := v.app.gateway.AllPriceHistory(ctx)
	v.app.metrics.RecordFetch(gateway.TablePriceHistory, histErr)

	v.app.QueueUpdateDraw(func() {
		if betsErr != nil || histErr != nil {
			v.status.SetText("[red]Failed to load market data.[-]")
			return
		}
		v.setData(bets, history)
	})
}

// setData replaces the view's rows and redraws.
func (v *DashboardView) setData(bets []store.Bet, history []store.PricePoint) {
	sort.SliceStable(bets, func(i, j int) bool {
		return bets[i].CreatedAt.After(bets[j].CreatedAt)
	})
	v.bets = bets
	v.history = history

	selected := v.list.GetCurrentItem()
	v.list.Clear()

	visible := v.visibleBets()
	for _, bet := range visible {
		yes := bet.YesPrice.FloatOr(0)
		no := bet.NoPrice.FloatOr(0)
		secondary := fmt.Sprintf("%s · Yes %.3f · No %.3f", statusText(bet.Resolved), yes, no)
		v.list.AddItem(truncate(bet.Title, 40), secondary, 0, nil)
	}

	if len(visible) == 0 {
		v.status.SetText("No bets to show.")
		v.detail.Clear()
		return
	}
	v.status.SetText(fmt.Sprintf("%d bets · Enter to open", len(visible)))

	if selected >= len(visible) {
		selected = 0
	}
	v.list.SetCurrentItem(selected)
	v.renderDetail(selected)
}

// renderDetail draws the chart for the bet at the given list index.
func (v *DashboardView) renderDetail(index int) {
	visible := v.visibleBets()
	if index < 0 || index >= len(visible) {
		v.detail.Clear()
		return
	}
	bet := visible[index]

	points := series.Reconcile(series.ForBet(v.history, bet.ID))

	v.detail.Clear()
	v.detail.SetTitle(fmt.Sprintf(" %s ", truncate(bet.Title, 50)))

	_, _, width, height := v.detail.GetInnerRect()
	if width < 20 {
		width = 60
	}
	if height < 8 {
		height = 14
	}

	fmt.Fprintf(v.detail, "%s\n\n", renderChart(points, width-12, height-5))
	if len(points) > 0 {
		last := points[len(points)-1]
		fmt.Fprintf(v.detail, "Latest: Yes %s · No %s\n", formatPrice(last.Yes), formatPrice(last.No))
	}
	if bet.Comments != "" {
		fmt.Fprintf(v.detail, "[gray]%s[-]\n", truncate(bet.Comments, 160))
	}
}

// visibleBets applies the resolved-only filter of the past-bets page.
func (v *DashboardView) visibleBets() []store.Bet {
	if !v.resolvedOnly {
		return v.bets
	}
	var out []store.Bet
	for _, b := range v.bets {
		if b.Resolved {
			out = append(out, b)
		}
	}
	return out
}
