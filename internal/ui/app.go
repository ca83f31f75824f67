// Package ui provides the terminal user interface of the market client.
package ui

import (
	"fmt"
	stdsync "sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/config"
	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/metrics"
	"github.com/mothmanmarket/mothman/internal/session"
	"github.com/mothmanmarket/mothman/internal/sync"
)

// Page names for navigation.
const (
	PageDashboard   = "dashboard"
	PageBet         = "bet"
	PagePastBets    = "pastbets"
	PageWallet      = "wallet"
	PageLeaderboard = "leaderboard"
	PageMakeBet     = "makebet"
	PageResolve     = "resolve"
	PageStats       = "stats"
	PageLogin       = "login"
)

// App is the main TUI application. It owns the page stack and hands the
// shared clients to every view.
type App struct {
	gateway *gateway.Client
	session *session.Holder
	sync    *sync.Manager
	metrics *metrics.Tracker

	requestTimeout time.Duration
	refreshRate    time.Duration

	app    *tview.Application
	pages  *tview.Pages
	navbar *tview.TextView
	layout *tview.Flex

	// Views
	dashboard   *DashboardView
	pastBets    *DashboardView
	betView     *BetView
	wallet      *WalletView
	leaderboard *LeaderboardView
	ticker      *TickerView
	stats       *StatsView
	makeBet     *MakeBetView
	resolveView *ResolveView
	auth        *AuthView

	cancels  []func()
	done     chan struct{}
	stopOnce stdsync.Once
}

// NewApp creates the TUI application and wires every view into the
// sync manager.
func NewApp(cfg *config.Config, gw *gateway.Client, sess *session.Holder, mgr *sync.Manager, tracker *metrics.Tracker) *App {
	a := &App{
		gateway:        gw,
		session:        sess,
		sync:           mgr,
		metrics:        tracker,
		requestTimeout: cfg.RequestTimeout,
		refreshRate:    cfg.UIRefreshRate,
		app:            tview.NewApplication(),
		pages:          tview.NewPages(),
		navbar:         tview.NewTextView().SetDynamicColors(true),
		done:           make(chan struct{}),
	}

	// Views
	a.dashboard = NewDashboardView(a, false)
	a.pastBets = NewDashboardView(a, true)
	a.betView = NewBetView(a)
	a.wallet = NewWalletView(a)
	a.leaderboard = NewLeaderboardView(a)
	a.ticker = NewTickerView(a)
	a.stats = NewStatsView()
	a.makeBet = NewMakeBetView(a)
	a.resolveView = NewResolveView(a)
	a.auth = NewAuthView(a)

	a.pages.AddPage(PageDashboard, a.dashboard.Widget(), true, true)
	a.pages.AddPage(PagePastBets, a.pastBets.Widget(), true, false)
	a.pages.AddPage(PageBet, a.betView.Widget(), true, false)
	a.pages.AddPage(PageWallet, a.wallet.Widget(), true, false)
	a.pages.AddPage(PageLeaderboard, a.leaderboard.Widget(), true, false)
	a.pages.AddPage(PageMakeBet, a.makeBet.Widget(), true, false)
	a.pages.AddPage(PageResolve, a.resolveView.Widget(), true, false)
	a.pages.AddPage(PageStats, a.stats.Widget(), true, false)
	a.pages.AddPage(PageLogin, a.auth.Widget(), true, false)

	a.setupLayout()
	a.setupKeyboard()
	a.subscribeViews()

	// The session holder is initialized before the app is built, so the
	// tri-state is never Unknown here. Absent means show the login page.
	if _, state := sess.UserID(); state == session.StateAbsent {
		a.pages.SwitchToPage(PageLogin)
	}

	return a
}

// setupLayout stacks the ticker bar, navbar, and page body.
func (a *App) setupLayout() {
	a.navbar.SetText(navbarText)

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.ticker.Widget(), 1, 0, false).
		AddItem(a.navbar, 1, 0, false).
		AddItem(a.pages, 0, 1, true)

	a.app.SetRoot(a.layout, true)
}

const navbarText = " [yellow]F1[-] Market  [yellow]F2[-] Past  [yellow]F3[-] Wallet  [yellow]F4[-] Seers  [yellow]F5[-] New Bet  [yellow]F6[-] Resolve  [yellow]F7[-] Stats  [yellow]F8[-] Logout  [yellow]Ctrl-C[-] Quit"

// setupKeyboard configures global shortcuts. Function keys are used so
// the shortcuts never collide with form input.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyF1:
			a.ShowPage(PageDashboard)
			return nil
		case tcell.KeyF2:
			a.ShowPage(PagePastBets)
			return nil
		case tcell.KeyF3:
			a.ShowPage(PageWallet)
			return nil
		case tcell.KeyF4:
			a.ShowPage(PageLeaderboard)
			return nil
		case tcell.KeyF5:
			a.ShowPage(PageMakeBet)
			return nil
		case tcell.KeyF6:
			a.ShowPage(PageResolve)
			return nil
		case tcell.KeyF7:
			a.ShowPage(PageStats)
			return nil
		case tcell.KeyF8:
			a.Logout()
			return nil
		}
		return event
	})
}

// subscribeViews registers every view's refetch with the sync manager.
// Session-gated views check their own state and no-op while logged out.
func (a *App) subscribeViews() {
	a.cancels = append(a.cancels,
		a.sync.Subscribe(gateway.TableBets, a.dashboard.Refetch),
		a.sync.Subscribe(gateway.TablePriceHistory, a.dashboard.Refetch),
		a.sync.Subscribe(gateway.TableBets, a.pastBets.Refetch),
		a.sync.Subscribe(gateway.TablePriceHistory, a.pastBets.Refetch),
		a.sync.Subscribe(gateway.TableProfiles, a.wallet.Refetch),
		a.sync.Subscribe(gateway.TableTransactions, a.wallet.Refetch),
		a.sync.Subscribe(gateway.TableProfiles, a.leaderboard.Refetch),
		a.sync.Subscribe(gateway.TableTransactions, a.ticker.Refetch),
		a.sync.Subscribe(gateway.TableBets, a.resolveView.Refetch),
	)
}

// Run starts the TUI (blocking).
func (a *App) Run() error {
	go a.updateLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}
	return nil
}

// Stop shuts the TUI down. Safe to call more than once.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		for _, cancel := range a.cancels {
			cancel()
		}
		a.app.Stop()
	})
}

// updateLoop drives the ticker scroll and the stats panel.
func (a *App) updateLoop() {
	tick := time.NewTicker(a.refreshRate)
	defer tick.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-tick.C:
			snapshot := a.metrics.Snapshot()
			a.app.QueueUpdateDraw(func() {
				a.ticker.Advance()
				a.stats.Update(snapshot)
			})
		}
	}
}

// QueueUpdateDraw schedules a UI mutation on the event loop.
func (a *App) QueueUpdateDraw(fn func()) {
	go a.app.QueueUpdateDraw(fn)
}

// ShowPage switches to the named page.
func (a *App) ShowPage(name string) {
	if _, state := a.session.UserID(); state != session.StatePresent {
		name = PageLogin
	}
	if name == PageMakeBet {
		a.makeBet.Reset()
	}
	a.pages.SwitchToPage(name)
}

// ShowBet opens the single-bet page for the given bet.
func (a *App) ShowBet(betID string) {
	a.betView.Load(betID)
	a.pages.SwitchToPage(PageBet)
}

// OnLogin runs after a successful sign-in: refetch everything and land
// on the dashboard.
func (a *App) OnLogin() {
	for _, table := range []string{
		gateway.TableBets,
		gateway.TablePriceHistory,
		gateway.TableProfiles,
		gateway.TableTransactions,
	} {
		a.sync.Trigger(table)
	}
	a.pages.SwitchToPage(PageDashboard)
}

// Logout clears the stored session and returns to the login page.
func (a *App) Logout() {
	if err := a.session.Clear(); err != nil {
		return
	}
	a.pages.SwitchToPage(PageLogin)
}
