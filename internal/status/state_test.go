package status

import (
	"testing"
	"time"

	"github.com/matheus3301/letschat/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine("subscription", Idle, SubscriptionTable, nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want IDLE", m.Current())
	}
}

func TestSubscriptionCycle(t *testing.T) {
	m := NewMachine("subscription", Idle, SubscriptionTable, nil)
	for _, s := range []State{Attaching, Attached, Detaching, Idle, Attaching, Idle} {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition(%s) error = %v", s, err)
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		from  State
		to    State
	}{
		{"idle to attached", SubscriptionTable, Idle, Attached},
		{"attached to idle", SubscriptionTable, Attached, Idle},
		{"detaching to attached", SubscriptionTable, Detaching, Attached},
		{"signed out to online", SessionTable, SignedOut, Online},
		{"online to wiping", SessionTable, Online, Wiping},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine("test", tt.from, tt.table, nil)
			if err := m.Transition(tt.to); err == nil {
				t.Errorf("Transition(%s -> %s) should fail", tt.from, tt.to)
			}
			if m.Current() != tt.from {
				t.Errorf("state changed to %s after failed transition", m.Current())
			}
		})
	}
}

func TestSessionRestoreFlows(t *testing.T) {
	tests := []struct {
		name string
		path []State
	}{
		{"fresh sign-in", []State{Restoring, Online, SigningOut, SignedOut}},
		{"restore after sign-out", []State{AwaitingRestore, Restoring, Online}},
		{"start fresh", []State{AwaitingRestore, Wiping, Restoring, Online}},
		{"wipe failed then restore", []State{AwaitingRestore, Wiping, AwaitingRestore, Restoring}},
		{"start fresh retried after restore failed", []State{AwaitingRestore, Wiping, Restoring, AwaitingRestore, Wiping, Restoring, Online}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine("session", SignedOut, SessionTable, nil)
			for _, s := range tt.path {
				if err := m.Transition(s); err != nil {
					t.Fatalf("Transition(%s) error = %v", s, err)
				}
			}
		})
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("subscription.", 10)
	defer unsub()

	m := NewMachine("subscription", Idle, SubscriptionTable, b)
	if err := m.Transition(Attaching); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		if evt.Kind != "subscription.state_changed" {
			t.Errorf("kind = %q", evt.Kind)
		}
		c, ok := evt.Payload.(Change)
		if !ok || c.From != Idle || c.To != Attaching {
			t.Errorf("payload = %+v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for state change event")
	}
}
