package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestViewBindingWinsOverGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(Rune('q', "Quit", func() { got = "global" }))
	r.Add("thread", Rune('q', "Back", func() { got = "view" }))

	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	if !r.HandleEvent("thread", ev) || got != "view" {
		t.Errorf("thread: got %q, want view", got)
	}
	if !r.HandleEvent("contacts", ev) || got != "global" {
		t.Errorf("contacts: got %q, want global", got)
	}
	if r.HandleEvent("contacts", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("unbound key handled")
	}
}

func TestHintsOrderAndHidden(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(Rune('?', "Help", func() {}))
	r.Add("contacts", Key(tcell.KeyEnter, "Open", func() {}))
	hidden := Rune('j', "Down", func() {})
	hidden.Hidden = true
	r.Add("contacts", hidden)

	hints := r.Hints("contacts")
	if len(hints) != 2 {
		t.Fatalf("hints = %+v", hints)
	}
	if hints[0].Key != "Enter" || hints[0].Description != "Open" {
		t.Errorf("hints[0] = %+v", hints[0])
	}
	if hints[1].Key != "?" {
		t.Errorf("hints[1] = %+v", hints[1])
	}
}
