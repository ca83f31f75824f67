package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/session"
	"github.com/mothmanmarket/mothman/internal/store"
)

// ResolveView lists the bets the current user may resolve.
type ResolveView struct {
	app *App

	layout  *tview.Flex
	list    *tview.List
	message *tview.TextView

	bets []store.Bet
}

// NewResolveView creates the resolve-bets view.
func NewResolveView(app *App) *ResolveView {
	v := &ResolveView{
		app:     app,
		list:    tview.NewList().ShowSecondaryText(true),
		message: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}

	v.list.SetTitle(" Resolve Bets ").SetBorder(true)

	// y resolves yes, n resolves no, Enter opens the bet.
	v.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		index := v.list.GetCurrentItem()
		switch event.Rune() {
		case 'y':
			v.resolve(index, store.OutcomeYes)
			return nil
		case 'n':
			v.resolve(index, store.OutcomeNo)
			return nil
		}
		return event
	})
	v.list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index >= 0 && index < len(v.bets) {
			v.app.ShowBet(v.bets[index].ID)
		}
	})

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.list, 0, 1, true).
		AddItem(v.message, 1, 0, false)

	v.setMessage("y resolve yes · n resolve no · Enter view bet")

	return v
}

// Widget returns the tview primitive.
func (v *ResolveView) Widget() tview.Primitive {
	return v.layout
}

// Refetch reloads the bets assigned to the current user for
// resolution. Registered with the sync manager for the bets table.
func (v *ResolveView) Refetch(ctx context.Context) {
	userID, state := v.app.session.UserID()
	if state != session.StatePresent {
		return
	}

	bets, err := v.app.gateway.BetsByResolver(ctx, userID)
	v.app.metrics.RecordFetch(gateway.TableBets, err)

	v.app.QueueUpdateDraw(func() {
		if err != nil {
			v.setMessage("[red]" + err.Error() + "[-]")
			return
		}
		v.update(bets)
	})
}

// update redraws the list.
func (v *ResolveView) update(bets []store.Bet) {
	v.bets = bets
	v.list.Clear()

	if len(bets) == 0 {
		v.list.AddItem("No bets assigned to you for resolution.", "", 0, nil)
		return
	}

	for _, b := range bets {
		secondary := fmt.Sprintf("%s · Yes %.3f · No %.3f",
			statusText(b.Resolved), b.YesPrice.FloatOr(0), b.NoPrice.FloatOr(0))
		if b.Comments != "" {
			secondary += " · " + truncate(b.Comments, 80)
		}
		v.list.AddItem(truncate(b.Title, 60), secondary, 0, nil)
	}
}

// resolve invokes the resolve_bet procedure for the selected bet and
// refetches the list on success.
func (v *ResolveView) resolve(index int, outcome string) {
	if index < 0 || index >= len(v.bets) {
		return
	}
	bet := v.bets[index]
	if bet.Resolved {
		v.setMessage("Cannot resolve a resolved bet.")
		return
	}

	v.setMessage("Resolving bet...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.app.requestTimeout)
		defer cancel()

		if err := v.app.gateway.Resolve(ctx, bet.ID, outcome); err != nil {
			v.app.QueueUpdateDraw(func() {
				v.setMessage("[red]" + err.Error() + "[-]")
			})
			return
		}

		v.app.QueueUpdateDraw(func() {
			v.setMessage(fmt.Sprintf("Bet resolved: %s", sideText(outcome == store.OutcomeYes)))
		})
		v.app.sync.Trigger(gateway.TableBets)
	}()
}

func (v *ResolveView) setMessage(text string) {
	v.message.Clear()
	fmt.Fprint(v.message, text)
}
