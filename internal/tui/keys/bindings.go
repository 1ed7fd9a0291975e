package keys

import (
	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/letschat/internal/tui/ui"
)

// Action is one key binding.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Hidden      bool
}

// Rune binds a printable key.
func Rune(r rune, description string, handler func()) *Action {
	return &Action{Key: tcell.KeyRune, Rune: r, Description: description, Handler: handler}
}

// Key binds a special key.
func Key(k tcell.Key, description string, handler func()) *Action {
	return &Action{Key: k, Description: description, Handler: handler}
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Label is the key as shown in the menu.
func (a *Action) Label() string {
	if a.Key == tcell.KeyRune {
		return string(a.Rune)
	}
	if name, ok := tcell.KeyNames[a.Key]; ok {
		return name
	}
	return "?"
}

// Registry holds key bindings per page, in registration order.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// Add registers a binding for one page.
func (r *Registry) Add(view string, a *Action) {
	r.views[view] = append(r.views[view], a)
}

// Hints returns the visible bindings of view followed by the global ones.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, list := range [][]*Action{r.views[view], r.global} {
		for _, a := range list {
			if !a.Hidden {
				hints = append(hints, ui.MenuHint{Key: a.Label(), Description: a.Description})
			}
		}
	}
	return hints
}

// HandleEvent runs the first binding of view, then of the global scope, that
// matches ev. Returns true if one did.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, list := range [][]*Action{r.views[view], r.global} {
		for _, a := range list {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
