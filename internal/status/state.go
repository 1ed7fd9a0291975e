package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/letschat/internal/bus"
)

// State is one node of a lifecycle.
type State string

// Table lists the allowed successors of each state.
type Table map[State][]State

// Subscription slot lifecycle.
const (
	Idle      State = "IDLE"
	Attaching State = "ATTACHING"
	Attached  State = "ATTACHED"
	Detaching State = "DETACHING"
)

// SubscriptionTable is the lifecycle of a conversation listener slot.
var SubscriptionTable = Table{
	Idle:      {Attaching},
	Attaching: {Attached, Idle},
	Attached:  {Detaching},
	Detaching: {Idle},
}

// Client session lifecycle.
const (
	SignedOut       State = "SIGNED_OUT"
	AwaitingRestore State = "AWAITING_RESTORE_CHOICE"
	Restoring       State = "RESTORING"
	Wiping          State = "WIPING"
	Online          State = "ONLINE"
	SigningOut      State = "SIGNING_OUT"
)

// SessionTable is the lifecycle of a signed-in client.
var SessionTable = Table{
	SignedOut:       {AwaitingRestore, Restoring},
	AwaitingRestore: {Restoring, Wiping, SignedOut},
	Wiping:          {Restoring, AwaitingRestore},
	Restoring:       {Online, SignedOut, AwaitingRestore},
	Online:          {SigningOut},
	SigningOut:      {SignedOut},
}

// Machine tracks and enforces state transitions against a Table.
type Machine struct {
	mu      sync.RWMutex
	name    string
	current State
	table   Table
	bus     *bus.Bus
}

// NewMachine creates a machine named name (used as the event namespace)
// starting in initial.
func NewMachine(name string, initial State, table Table, b *bus.Bus) *Machine {
	return &Machine{
		name:    name,
		current: initial,
		table:   table,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(m.table[m.current], to) {
		return fmt.Errorf("%s: invalid transition from %s to %s", m.name, m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(m.name+".state_changed", Change{Machine: m.name, From: from, To: to})
	return nil
}

// Change is the payload for state change events.
type Change struct {
	Machine string
	From    State
	To      State
}
