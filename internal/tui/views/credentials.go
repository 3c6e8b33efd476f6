package views

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ideacrowd/internal/tui"
)

type credentialsMode int

const (
	modeSignIn credentialsMode = iota
	modeSignUp
)

var errNoAuth = errors.New("sign-in is not available")

// authDoneMsg carries the provider's answer. Success needs no handling:
// the session change re-routes the shell.
type authDoneMsg struct {
	err error
}

// credentials is the sign-in and sign-up form. It always captures keys.
type credentials struct {
	mode   credentialsMode
	auth   Authenticator
	inputs []textinput.Model
	focus  int
	busy   bool
	err    error
}

func newCredentials(mode credentialsMode, auth Authenticator) *credentials {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 32
	email.Prompt = ""
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 72
	password.Width = 32
	password.Prompt = ""

	return &credentials{mode: mode, auth: auth, inputs: []textinput.Model{email, password}}
}

func (v *credentials) Init() tea.Cmd { return textinput.Blink }

func (v *credentials) Scope() string   { return scopeCredentials }
func (v *credentials) Capturing() bool { return true }

func (v *credentials) Update(msg tea.Msg) (tui.View, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err != nil {
			v.inputs[1].SetValue("")
			v.setFocus(1)
		}
		return v, nil
	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch msg.String() {
		case "tab", "down":
			v.setFocus((v.focus + 1) % len(v.inputs))
			return v, nil
		case "shift+tab", "up":
			v.setFocus((v.focus - 1 + len(v.inputs)) % len(v.inputs))
			return v, nil
		case "ctrl+n":
			if v.mode == modeSignIn {
				return v, tui.NavigateCmd(SignUpPath)
			}
			return v, tui.NavigateCmd(SignInPath)
		case "enter":
			if v.focus == 0 {
				v.setFocus(1)
				return v, nil
			}
			return v, v.submit()
		}
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd
}

func (v *credentials) setFocus(i int) {
	for j := range v.inputs {
		if j == i {
			v.inputs[j].Focus()
		} else {
			v.inputs[j].Blur()
		}
	}
	v.focus = i
}

func (v *credentials) submit() tea.Cmd {
	email := strings.TrimSpace(v.inputs[0].Value())
	password := v.inputs[1].Value()
	if email == "" || password == "" {
		v.err = errors.New("email and password are required")
		return nil
	}
	if v.auth == nil {
		v.err = errNoAuth
		return nil
	}
	v.busy = true
	v.err = nil
	auth, mode := v.auth, v.mode
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if mode == modeSignUp {
			return authDoneMsg{err: auth.SignUp(ctx, email, password)}
		}
		return authDoneMsg{err: auth.SignIn(ctx, email, password)}
	}
}

func (v *credentials) Render(width, height int) string {
	title, other := "Sign in", "No account? ctrl+n to sign up"
	if v.mode == modeSignUp {
		title, other = "Create an account", "Have an account? ctrl+n to sign in"
	}
	lines := []string{
		titleStyle.Render("IdeaCrowd"),
		mutedStyle.Render(title),
		"",
		labelStyle.Render("Email") + v.inputs[0].View(),
		labelStyle.Render("Password") + v.inputs[1].View(),
		"",
	}
	switch {
	case v.busy:
		lines = append(lines, mutedStyle.Render("Contacting identity provider…"))
	case v.err != nil:
		lines = append(lines, errStyle.Render(v.err.Error()))
	default:
		lines = append(lines, mutedStyle.Render(other))
	}
	return centered(width, height, panelStyle.Render(strings.Join(lines, "\n")))
}
