package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/session"
	"github.com/mothmanmarket/mothman/internal/store"
)

// Input limits for new bets.
const (
	maxTitleLen    = 120
	maxCommentsLen = 256

	// minResolverQuery is the shortest username fragment worth
	// searching for.
	minResolverQuery = 2
)

// MakeBetView is the bet-creation form with a resolver picker.
type MakeBetView struct {
	app *App

	layout  *tview.Flex
	form    *tview.Form
	results *tview.List
	message *tview.TextView

	title    string
	comments string

	resolver        *store.Profile
	resolverResults []store.Profile
}

// NewMakeBetView creates the bet-creation view.
func NewMakeBetView(app *App) *MakeBetView {
	v := &MakeBetView{
		app:     app,
		results: tview.NewList().ShowSecondaryText(false),
		message: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}

	v.results.SetTitle(" Resolver matches ").SetBorder(true)
	v.results.SetSelectedFunc(func(index int, username, _ string, _ rune) {
		if index >= 0 && index < len(v.resolverResults) {
			p := v.resolverResults[index]
			v.resolver = &p
			v.setMessage(fmt.Sprintf("Resolver: [::b]%s[::-]", p.Username))
		}
	})

	v.form = tview.NewForm().
		AddInputField("Title", "", 60, maxLenAccept(maxTitleLen), func(text string) {
			v.title = text
		}).
		AddInputField("Comments", "", 60, maxLenAccept(maxCommentsLen), func(text string) {
			v.comments = text
		}).
		AddInputField("Resolver search", "", 30, nil, v.searchResolver).
		AddButton("Create Bet", v.create).
		AddButton("Cancel", func() { v.app.ShowPage(PageDashboard) })
	v.form.SetBorder(true).SetTitle(" Create a new bet ")

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.form, 11, 0, true).
		AddItem(v.results, 0, 1, false).
		AddItem(v.message, 1, 0, false)

	return v
}

// Widget returns the tview primitive.
func (v *MakeBetView) Widget() tview.Primitive {
	return v.layout
}

// Reset clears the form for a fresh visit.
func (v *MakeBetView) Reset() {
	v.title = ""
	v.comments = ""
	v.resolver = nil
	v.resolverResults = nil
	v.results.Clear()
	v.setMessage("")
}

// searchResolver looks up usernames matching the query fragment.
func (v *MakeBetView) searchResolver(query string) {
	v.resolver = nil
	if len(query) < minResolverQuery {
		v.app.QueueUpdateDraw(func() {
			v.resolverResults = nil
			v.results.Clear()
		})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.app.requestTimeout)
		defer cancel()

		profiles, err := v.app.gateway.SearchProfiles(ctx, query, 10)
		v.app.metrics.RecordFetch(gateway.TableProfiles, err)
		if err != nil {
			return
		}

		v.app.QueueUpdateDraw(func() {
			v.resolverResults = profiles
			v.results.Clear()
			for _, p := range profiles {
				v.results.AddItem(p.Username, "", 0, nil)
			}
		})
	}()
}

// create validates locally and invokes the make_bet procedure.
func (v *MakeBetView) create() {
	title := strings.TrimSpace(v.title)
	comments := strings.TrimSpace(v.comments)

	if title == "" {
		v.setMessage("[red]Title is required.[-]")
		return
	}
	if v.resolver == nil {
		v.setMessage("[red]Please pick a resolver from the list.[-]")
		return
	}
	userID, state := v.app.session.UserID()
	if state != session.StatePresent || userID == "" {
		v.setMessage("[red]You must be logged in to create a bet.[-]")
		return
	}

	resolverID := v.resolver.UserID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.app.requestTimeout)
		defer cancel()

		newID, err := v.app.gateway.MakeBet(ctx, title, comments, resolverID)
		if err != nil {
			v.app.QueueUpdateDraw(func() {
				v.setMessage("[red]" + err.Error() + "[-]")
			})
			return
		}

		v.app.QueueUpdateDraw(func() {
			v.setMessage("Bet created successfully.")
		})
		v.app.sync.Trigger(gateway.TableBets)

		time.AfterFunc(redirectDelay, func() {
			v.app.QueueUpdateDraw(func() {
				if newID != "" {
					v.app.ShowBet(newID)
				} else {
					v.app.ShowPage(PageDashboard)
				}
			})
		})
	}()
}

func (v *MakeBetView) setMessage(text string) {
	v.message.Clear()
	fmt.Fprint(v.message, text)
}

// maxLenAccept rejects input past the column limit.
func maxLenAccept(max int) func(string, rune) bool {
	return func(text string, _ rune) bool {
		return len(text) <= max
	}
}
