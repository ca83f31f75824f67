package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/series"
	"github.com/mothmanmarket/mothman/internal/session"
	"github.com/mothmanmarket/mothman/internal/store"
)

// redirectDelay is how long the confirmation message stays on screen
// before the view returns to the dashboard.
const redirectDelay = 1 * time.Second

// BetView shows a single bet: the reconciled price chart, current
// prices, and the buy/sell form.
type BetView struct {
	app *App

	layout  *tview.Flex
	chart   *tview.TextView
	form    *tview.Form
	message *tview.TextView

	bet    *store.Bet
	points []series.Point

	action   Action
	isYes    bool
	quantity float64
}

// NewBetView creates the single-bet view.
func NewBetView(app *App) *BetView {
	v := &BetView{
		app:      app,
		chart:    tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		message:  tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		action:   ActionBuy,
		isYes:    true,
		quantity: 1,
	}

	v.chart.SetBorder(true)

	v.form = tview.NewForm().
		AddDropDown("Action", []string{"Buy", "Sell"}, 0, func(option string, _ int) {
			if option == "Sell" {
				v.action = ActionSell
			} else {
				v.action = ActionBuy
			}
		}).
		AddDropDown("Side", []string{"Yes", "No"}, 0, func(option string, _ int) {
			v.isYes = option == "Yes"
		}).
		AddInputField("Quantity", "1", 10, tview.InputFieldFloat, func(text string) {
			var q float64
			fmt.Sscanf(text, "%f", &q)
			v.quantity = q
		}).
		AddButton("Confirm", v.confirm).
		AddButton("Cancel", func() { v.app.ShowPage(PageDashboard) })
	v.form.SetBorder(true).SetTitle(" Trade ")

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.chart, 0, 3, false).
		AddItem(v.form, 11, 0, true).
		AddItem(v.message, 1, 0, false)

	return v
}

// Widget returns the tview primitive.
func (v *BetView) Widget() tview.Primitive {
	return v.layout
}

// Load fetches the bet and its price history, then renders. A missing
// bet renders as a state, not an error.
func (v *BetView) Load(betID string) {
	v.setMessage("")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.app.requestTimeout)
		defer cancel()

		bet, err := v.app.gateway.Bet(ctx, betID)
		v.app.metrics.RecordFetch(gateway.TableBets, err)
		if err != nil {
			v.app.QueueUpdateDraw(func() {
				v.bet = nil
				v.points = nil
				if errors.Is(err, gateway.ErrNotFound) {
					v.render("Bet not found.")
				} else {
					v.render(err.Error())
				}
			})
			return
		}

		history, err := v.app.gateway.PriceHistory(ctx, betID)
		v.app.metrics.RecordFetch(gateway.TablePriceHistory, err)
		points := series.Reconcile(history)

		v.app.QueueUpdateDraw(func() {
			v.bet = bet
			v.points = points
			v.render("")
		})
	}()
}

// render redraws the chart panel and form state.
func (v *BetView) render(message string) {
	v.chart.Clear()

	if v.bet == nil {
		fmt.Fprintf(v.chart, "[red]%s[-]", message)
		v.setMessage("")
		return
	}

	v.chart.SetTitle(fmt.Sprintf(" %s (%s) ", truncate(v.bet.Title, 60), statusText(v.bet.Resolved)))

	_, _, width, height := v.chart.GetInnerRect()
	if width < 20 {
		width = 60
	}
	if height < 8 {
		height = 12
	}

	fmt.Fprintf(v.chart, "%s\n\n", renderChart(v.points, width-12, height-6))
	yes, _ := v.bet.YesPrice.Float()
	no, _ := v.bet.NoPrice.Float()
	fmt.Fprintf(v.chart, "[green]Yes %.3f[-]   [red]No %.3f[-]", yes, no)

	if v.isResolver() {
		v.setMessage("[yellow]" + msgResolverSelf + "[-]")
	} else {
		v.setMessage(message)
	}
}

// confirm submits the trade and, on success, redirects to the
// dashboard after the fixed delay.
func (v *BetView) confirm() {
	userID, _ := v.app.session.UserID()
	bet := v.bet
	action := v.action
	isYes := v.isYes
	quantity := v.quantity

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.app.requestTimeout)
		defer cancel()

		result := SubmitTrade(ctx, v.app.gateway, bet, userID, action, isYes, quantity)

		v.app.QueueUpdateDraw(func() {
			v.setMessage(result.Message)
		})

		if result.Redirect != "" {
			v.app.sync.Trigger(gateway.TableBets)
			v.app.sync.Trigger(gateway.TablePriceHistory)
			time.AfterFunc(redirectDelay, func() {
				v.app.QueueUpdateDraw(func() {
					v.app.ShowPage(result.Redirect)
				})
			})
		}
	}()
}

func (v *BetView) isResolver() bool {
	userID, state := v.app.session.UserID()
	return v.bet != nil && state == session.StatePresent && v.bet.ResolverID != "" && v.bet.ResolverID == userID
}

func (v *BetView) setMessage(text string) {
	v.message.Clear()
	fmt.Fprint(v.message, text)
}
