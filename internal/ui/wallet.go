package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/shopspring/decimal"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/session"
	"github.com/mothmanmarket/mothman/internal/store"
	"github.com/mothmanmarket/mothman/internal/table"
)

// walletColumns is the holdings table layout, in display order.
var walletColumns = []struct {
	key    string
	header string
}{
	{"bet_title", "Title"},
	{"is_yes", "Side"},
	{"active", "Active"},
	{"amount_held", "Amount"},
	{"current_price", "Current Price"},
	{"buy_price", "Buy Price"},
	{"buy_time", "Buy Time"},
	{"cur_value", "Current Value"},
	{"cur_profit", "Current Profit"},
	{"cur_profit_perc", "Profit %"},
}

// WalletView shows the user's balance and a sortable, filterable,
// paged table of holdings.
type WalletView struct {
	app *App

	layout  *tview.Flex
	balance *tview.TextView
	grid    *tview.Table
	footer  *tview.TextView
	filter  *tview.InputField

	rows      []table.Row
	sortIdx   int
	sortDesc  bool
	filterVal string
	pageIndex int
	pageSize  int
}

// NewWalletView creates the wallet view.
func NewWalletView(app *App) *WalletView {
	v := &WalletView{
		app:      app,
		balance:  tview.NewTextView().SetDynamicColors(true),
		grid:     tview.NewTable().SetBorders(false).SetFixed(1, 0),
		footer:   tview.NewTextView().SetDynamicColors(true),
		sortIdx:  -1,
		pageSize: 10,
	}

	v.grid.SetTitle(" Current Positions ").SetBorder(true)

	v.filter = tview.NewInputField().
		SetLabel("Filter title: ").
		SetFieldWidth(24).
		SetChangedFunc(func(text string) {
			v.filterVal = text
			v.pageIndex = 0
			v.renderTable()
		})

	v.grid.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 's':
			v.sortIdx = (v.sortIdx + 1) % len(walletColumns)
			v.renderTable()
			return nil
		case 'S':
			v.sortDesc = !v.sortDesc
			v.renderTable()
			return nil
		case ']':
			v.pageIndex++
			v.renderTable()
			return nil
		case '[':
			if v.pageIndex > 0 {
				v.pageIndex--
			}
			v.renderTable()
			return nil
		}
		return event
	})

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.balance, 2, 0, false).
		AddItem(v.filter, 1, 0, false).
		AddItem(v.grid, 0, 1, true).
		AddItem(v.footer, 1, 0, false)

	v.balance.SetText("Loading...")

	return v
}

// Widget returns the tview primitive.
func (v *WalletView) Widget() tview.Primitive {
	return v.layout
}

// Refetch reloads the profile, holdings, and the bets behind them.
// Registered with the sync manager for profiles and transactions.
func (v *WalletView) Refetch(ctx context.Context) {
	userID, state := v.app.session.UserID()
	if state != session.StatePresent {
		return
	}

	profile, err := v.app.gateway.Profile(ctx, userID)
	v.app.metrics.RecordFetch(gateway.TableProfiles, err)
	if err != nil {
		v.app.QueueUpdateDraw(func() {
			v.balance.SetText(fmt.Sprintf("[red]Error encountered: %s[-]", err.Error()))
		})
		return
	}

	holdings, err := v.app.gateway.Holdings(ctx, userID)
	v.app.metrics.RecordFetch(gateway.TableTransactions, err)
	if err != nil {
		v.app.QueueUpdateDraw(func() {
			v.balance.SetText(fmt.Sprintf("[red]Error encountered: %s[-]", err.Error()))
		})
		return
	}

	betIDs := make([]string, 0, len(holdings))
	for _, h := range holdings {
		betIDs = append(betIDs, h.BetID)
	}
	bets, err := v.app.gateway.BetsByIDs(ctx, betIDs)
	v.app.metrics.RecordFetch(gateway.TableBets, err)

	betsByID := make(map[string]store.Bet, len(bets))
	for _, b := range bets {
		betsByID[b.ID] = b
	}

	rows := HoldingRows(holdings, betsByID)

	v.app.QueueUpdateDraw(func() {
		v.rows = rows
		v.balance.SetText(fmt.Sprintf(
			"User: [::b]%s[::-]   Balance: [green]%.2f[-]",
			profile.Username, profile.Balance.FloatOr(0),
		))
		v.renderTable()
	})
}

// renderTable shapes the current rows through the paginator and draws
// the visible page.
func (v *WalletView) renderTable() {
	v.grid.Clear()

	for col, c := range walletColumns {
		header := c.header
		if v.sortIdx == col {
			if v.sortDesc {
				header += " ↓"
			} else {
				header += " ↑"
			}
		}
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false).
			SetExpansion(1)
		v.grid.SetCell(0, col, cell)
	}

	if len(v.rows) == 0 {
		v.footer.SetText("This user currently does not have any holdings.")
		return
	}

	req := table.Request{
		PageIndex: v.pageIndex,
		PageSize:  v.pageSize,
	}
	if v.sortIdx >= 0 {
		req.Sort = []table.SortKey{{Column: walletColumns[v.sortIdx].key, Desc: v.sortDesc}}
	}
	if v.filterVal != "" {
		req.Filters = []table.Filter{{Column: "bet_title", Value: v.filterVal}}
	}

	page := table.Paginate(v.rows, req)

	// Clamp to the last non-empty page after a shrinking filter.
	if len(page.List) == 0 && page.Total > 0 && v.pageIndex > 0 {
		v.pageIndex = (page.Total - 1) / v.pageSize
		req.PageIndex = v.pageIndex
		page = table.Paginate(v.rows, req)
	}

	for i, row := range page.List {
		for col, c := range walletColumns {
			cell := tview.NewTableCell(cellText(row[c.key])).SetAlign(tview.AlignLeft)
			v.grid.SetCell(i+1, col, cell)
		}
	}

	totalPages := (page.Total + v.pageSize - 1) / v.pageSize
	v.footer.SetText(fmt.Sprintf(
		"%d holdings · page %d/%d · s sort · S direction · [ ] page",
		page.Total, v.pageIndex+1, totalPages,
	))
}

// HoldingRows flattens holdings into paginator rows, joining each to
// its bet for live valuation. Value, profit, and profit percentage
// use decimal math against the side's current market price.
func HoldingRows(holdings []store.Holding, betsByID map[string]store.Bet) []table.Row {
	rows := make([]table.Row, 0, len(holdings))
	for _, h := range holdings {
		row := table.Row{
			"transaction_id": h.TransactionID,
			"bet_id":         h.BetID,
			"is_yes":         h.IsYes,
			"active":         h.Active,
			"amount_held":    h.AmountHeld.FloatOr(0),
			"buy_price":      h.BuyPrice.FloatOr(0),
		}
		if h.BuyTime != nil {
			row["buy_time"] = *h.BuyTime
		}

		bet, ok := betsByID[h.BetID]
		if !ok {
			row["bet_title"] = "Unknown bet"
			row["current_price"] = 0.0
			row["cur_value"] = 0.0
			row["cur_profit"] = 0.0
			row["cur_profit_perc"] = 0.0
			rows = append(rows, row)
			continue
		}

		row["bet_title"] = truncate(bet.Title, 50)

		price := bet.NoPrice
		if h.IsYes {
			price = bet.YesPrice
		}
		market := decimal.NewFromFloat(price.FloatOr(0))
		amount := decimal.NewFromFloat(h.AmountHeld.FloatOr(0))
		buy := decimal.NewFromFloat(h.BuyPrice.FloatOr(0))

		value := market.Mul(amount)
		profit := market.Sub(buy).Mul(amount)

		row["current_price"] = market.InexactFloat64()
		row["cur_value"], _ = value.Round(2).Float64()
		row["cur_profit"], _ = profit.Round(2).Float64()

		cost := buy.Mul(amount)
		if !cost.IsZero() {
			perc := profit.Div(cost).Mul(decimal.NewFromInt(100))
			row["cur_profit_perc"], _ = perc.Round(2).Float64()
		} else {
			row["cur_profit_perc"] = 0.0
		}

		rows = append(rows, row)
	}
	return rows
}

// cellText renders one paginator cell for display.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		return fmt.Sprintf("%.2f", t)
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02 15:04")
	default:
		return fmt.Sprint(t)
	}
}
