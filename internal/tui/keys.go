package tui

import (
	"slices"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// ScopeFrame holds bindings that work wherever the navigation frame is
// shown and no input has focus.
const ScopeFrame = "frame"

type KeyBinding struct {
	Keys        []string
	Action      string
	Description string
	Scopes      []string
}

type KeyRegistry struct {
	bindings []KeyBinding
}

func NewKeyRegistry(bindings []KeyBinding) *KeyRegistry {
	return &KeyRegistry{bindings: slices.Clone(bindings)}
}

func (r *KeyRegistry) Register(binding KeyBinding) {
	r.bindings = append(r.bindings, binding)
}

// BindingsForScope lists bindings that apply to scope, excluding
// wildcard ones, which the footer never shows.
func (r *KeyRegistry) BindingsForScope(scope string) []KeyBinding {
	out := make([]KeyBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		if slices.Contains(b.Scopes, scope) {
			out = append(out, b)
		}
	}
	return out
}

func (r *KeyRegistry) IsAction(msg tea.KeyMsg, action, scope string) bool {
	pressed := normalizeKey(msg.String())
	for _, b := range r.bindings {
		if b.Action != action || !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if normalizeKey(k) == pressed {
				return true
			}
		}
	}
	return false
}

// KeyFor returns the first key bound to action in scope, or "" when
// nothing is bound.
func (r *KeyRegistry) KeyFor(action, scope string) string {
	for _, b := range r.bindings {
		if b.Action == action && len(b.Keys) > 0 && scopeMatch(scope, b.Scopes) {
			return b.Keys[0]
		}
	}
	return ""
}

// normalizeKey folds case for named keys only, so "L" and "l" stay apart.
func normalizeKey(k string) string {
	k = strings.TrimSpace(k)
	if utf8.RuneCountInString(k) == 1 {
		return k
	}
	return strings.ToLower(k)
}

func scopeMatch(scope string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}

func DefaultKeyBindings() []KeyBinding {
	return []KeyBinding{
		{Keys: []string{"ctrl+c"}, Action: "force-quit", Description: "quit", Scopes: []string{"*"}},
		{Keys: []string{"j", "down"}, Action: "nav-down", Description: "next", Scopes: []string{ScopeFrame}},
		{Keys: []string{"k", "up"}, Action: "nav-up", Description: "prev", Scopes: []string{ScopeFrame}},
		{Keys: []string{"enter"}, Action: "nav-open", Description: "open", Scopes: []string{ScopeFrame}},
		{Keys: []string{"["}, Action: "toggle-sidebar", Description: "sidebar", Scopes: []string{ScopeFrame}},
		{Keys: []string{":"}, Action: "address", Description: "go to", Scopes: []string{ScopeFrame, "guest"}},
		{Keys: []string{"L"}, Action: "sign-out", Description: "log out", Scopes: []string{ScopeFrame}},
		{Keys: []string{"q"}, Action: "quit", Description: "quit", Scopes: []string{ScopeFrame, "guest"}},
		{Keys: []string{"esc"}, Action: "close", Description: "cancel", Scopes: []string{ScopeAddress}},
		{Keys: []string{"esc", "n"}, Action: "close", Description: "cancel", Scopes: []string{ScopeSignOut}},
		{Keys: []string{"enter"}, Action: "select", Description: "go", Scopes: []string{ScopeAddress}},
		{Keys: []string{"y", "enter"}, Action: "confirm", Description: "log out", Scopes: []string{ScopeSignOut}},
		{Keys: []string{"r"}, Action: "retry", Description: "retry", Scopes: []string{ScopeSignOut}},
	}
}
