package ui

import (
	"context"
	"fmt"

	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/store"
)

// rankIcons decorate the top three seers.
var rankIcons = []string{"👑", "🦉", "🌕"}

// LeaderboardView displays every profile ordered by balance.
type LeaderboardView struct {
	app    *App
	layout *tview.Flex
	grid   *tview.Table
	status *tview.TextView
}

// NewLeaderboardView creates the leaderboard view.
func NewLeaderboardView(app *App) *LeaderboardView {
	v := &LeaderboardView{
		app:    app,
		grid:   tview.NewTable().SetBorders(false).SetFixed(1, 0),
		status: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}

	v.grid.SetTitle(" Mothman Market Leaderboard ").SetBorder(true)
	v.status.SetText("Summoning balances from the void...")

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.grid, 0, 1, true).
		AddItem(v.status, 1, 0, false)

	return v
}

// Widget returns the tview primitive.
func (v *LeaderboardView) Widget() tview.Primitive {
	return v.layout
}

// Refetch reloads the leaderboard. Registered with the sync manager
// for the profiles table.
func (v *LeaderboardView) Refetch(ctx context.Context) {
	profiles, err := v.app.gateway.Leaderboard(ctx)
	v.app.metrics.RecordFetch(gateway.TableProfiles, err)

	v.app.QueueUpdateDraw(func() {
		if err != nil {
			v.status.SetText("[red]Failed to summon the leaderboard.[-]")
			return
		}
		v.update(profiles)
	})
}

// update redraws the ranking. The gateway already orders rows by
// balance descending.
func (v *LeaderboardView) update(profiles []store.Profile) {
	v.grid.Clear()

	headers := []string{"Rank", "Username", "Balance"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false).
			SetExpansion(1)
		v.grid.SetCell(0, col, cell)
	}

	for i, p := range profiles {
		rank := fmt.Sprintf("%d", i+1)
		if i < len(rankIcons) {
			rank = rankIcons[i] + " " + rank
		}

		v.grid.SetCell(i+1, 0, tview.NewTableCell(rank).SetAlign(tview.AlignLeft))
		v.grid.SetCell(i+1, 1, tview.NewTableCell(p.Username).SetAlign(tview.AlignLeft))
		v.grid.SetCell(i+1, 2, tview.NewTableCell(fmt.Sprintf("%.2f", p.Balance.FloatOr(0))).
			SetAlign(tview.AlignRight))
	}

	v.status.SetText(fmt.Sprintf("The cryptid watches… %d seers ranked.", len(profiles)))
}
