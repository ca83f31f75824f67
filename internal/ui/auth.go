package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/tview"
	"golang.org/x/crypto/bcrypt"

	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/store"
)

// authGateway is the slice of the gateway the auth flow needs.
type authGateway interface {
	ProfileByUsername(ctx context.Context, username string) (*store.Profile, error)
	CreateProfile(ctx context.Context, username, passwordHash string) error
}

// AuthView is the combined login/signup form. Credentials are hashed
// with bcrypt before they leave the form; the plaintext flow of
// earlier revisions is deliberately not reproduced.
type AuthView struct {
	app *App

	layout  *tview.Flex
	form    *tview.Form
	message *tview.TextView

	signup   bool
	username string
	password string
}

// NewAuthView creates the auth view.
func NewAuthView(app *App) *AuthView {
	v := &AuthView{
		app:     app,
		message: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}

	v.form = tview.NewForm().
		AddInputField("Username", "", 30, nil, func(text string) {
			v.username = text
		}).
		AddPasswordField("Secret phrase", "", 30, '*', func(text string) {
			v.password = text
		}).
		AddButton("Sign In", v.submit).
		AddButton("Switch to Sign Up", v.toggleMode)
	v.form.SetBorder(true)

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(v.form, 9, 0, true).
		AddItem(v.message, 1, 0, false).
		AddItem(tview.NewBox(), 0, 2, false)

	v.applyMode()

	return v
}

// Widget returns the tview primitive.
func (v *AuthView) Widget() tview.Primitive {
	return v.layout
}

// toggleMode flips between login and signup.
func (v *AuthView) toggleMode() {
	v.signup = !v.signup
	v.applyMode()
	v.setMessage("")
}

func (v *AuthView) applyMode() {
	if v.signup {
		v.form.SetTitle(" Join the Cult of Mothman ")
		v.form.GetButton(0).SetLabel("Sign Up")
		v.form.GetButton(1).SetLabel("Switch to Sign In")
	} else {
		v.form.SetTitle(" Speak with the Mothman ")
		v.form.GetButton(0).SetLabel("Sign In")
		v.form.GetButton(1).SetLabel("Switch to Sign Up")
	}
}

// submit validates the form and runs the login or signup flow.
func (v *AuthView) submit() {
	username := strings.TrimSpace(v.username)
	password := strings.TrimSpace(v.password)

	if username == "" || password == "" {
		v.setMessage("[red]Username and password are required.[-]")
		return
	}

	signup := v.signup
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.app.requestTimeout)
		defer cancel()

		var msg string
		var loggedIn bool
		if signup {
			msg = runSignup(ctx, v.app.gateway, username, password)
		} else {
			msg, loggedIn = runLogin(ctx, v.app.gateway, v.app.session, username, password)
		}

		v.app.QueueUpdateDraw(func() {
			v.setMessage(msg)
			if signup && msg == msgSignupOK {
				v.signup = false
				v.applyMode()
			}
			if loggedIn {
				v.app.OnLogin()
			}
		})
	}()
}

const (
	msgSignupOK = "Account created. Sign in to continue."
	msgBadLogin = "[red]Invalid username or password[-]"
	msgLoginOK  = "Welcome back."
)

// runSignup hashes the credential and inserts the profile.
func runSignup(ctx context.Context, gw authGateway, username, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "[red]" + err.Error() + "[-]"
	}
	if err := gw.CreateProfile(ctx, username, string(hash)); err != nil {
		return "[red]" + err.Error() + "[-]"
	}
	return msgSignupOK
}

// runLogin verifies the credential against the stored hash and, on
// success, persists the user identifier in the session holder.
func runLogin(ctx context.Context, gw authGateway, sess sessionWriter, username, password string) (string, bool) {
	profile, err := gw.ProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return msgBadLogin, false
		}
		return "[red]" + err.Error() + "[-]", false
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(password)) != nil {
		return msgBadLogin, false
	}

	if err := sess.SetUserID(profile.UserID); err != nil {
		return "[red]" + err.Error() + "[-]", false
	}
	return msgLoginOK, true
}

// sessionWriter is the slice of the session holder the login flow needs.
type sessionWriter interface {
	SetUserID(id string) error
}

func (v *AuthView) setMessage(text string) {
	v.message.Clear()
	fmt.Fprint(v.message, text)
}
