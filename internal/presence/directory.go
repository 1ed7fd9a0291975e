package presence

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/bus"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

// Contact is one entry of the contact list.
type Contact struct {
	ID       string
	Name     string
	Photo    string
	Online   bool
	LastSeen time.Time
	Friend   bool
	Fixed    bool
}

// Directory keeps the contact list in sync with the users subtree.
type Directory struct {
	store  tree.Store
	me     string
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.RWMutex
	users    tree.Snapshot
	unsub    func()
	isFriend func(string) bool
}

// NewDirectory creates a directory for the user me. isFriend may be nil.
func NewDirectory(store tree.Store, me string, isFriend func(string) bool, b *bus.Bus, logger *zap.Logger) *Directory {
	return &Directory{store: store, me: me, isFriend: isFriend, bus: b, logger: logger}
}

// Start attaches the users listener.
func (d *Directory) Start() error {
	unsub, err := d.store.Subscribe(address.Users, func(s tree.Snapshot) {
		d.mu.Lock()
		d.users = s
		d.mu.Unlock()
		d.bus.Emit(bus.PresenceChanged, nil)
	})
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.unsub = unsub
	d.mu.Unlock()
	return nil
}

// Stop detaches the listener. Safe to call more than once.
func (d *Directory) Stop() {
	d.mu.Lock()
	unsub := d.unsub
	d.unsub = nil
	d.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Contacts returns the fixed entries followed by every other user sorted by
// name. A non-empty query keeps only names containing it, ignoring case.
func (d *Directory) Contacts(query string) []Contact {
	d.mu.RLock()
	users := d.users
	d.mu.RUnlock()
	return BuildContacts(users, d.me, d.isFriend, query)
}

// Lookup returns the contact with the given id.
func (d *Directory) Lookup(id string) (Contact, bool) {
	for _, c := range d.Contacts("") {
		if c.ID == id {
			return c, true
		}
	}
	return Contact{}, false
}

// BuildContacts derives the contact list from a users snapshot.
func BuildContacts(users tree.Snapshot, me string, isFriend func(string) bool, query string) []Contact {
	fixed := []Contact{
		{ID: address.GlobalFeed, Name: address.GlobalName, Fixed: true, Online: true},
		{ID: address.Favorites, Name: address.FavoritesName, Fixed: true, Online: true},
		{ID: address.BotID, Name: address.BotName, Fixed: true, Online: true},
	}

	var others []Contact
	for _, id := range users.Keys() {
		if id == me || id == address.BotID {
			continue
		}
		rec := users.Child(id).Map()
		c := Contact{
			ID:     id,
			Name:   tree.String(rec["name"]),
			Photo:  tree.String(rec["photo"]),
			Online: tree.Bool(rec["online"]),
		}
		if ms := tree.Int64(rec["lastSeen"]); ms > 0 {
			c.LastSeen = time.UnixMilli(ms)
		}
		if c.Name == "" {
			c.Name = id
		}
		if isFriend != nil {
			c.Friend = isFriend(id)
		}
		others = append(others, c)
	}
	sort.SliceStable(others, func(i, j int) bool {
		a, b := strings.ToLower(others[i].Name), strings.ToLower(others[j].Name)
		if a == b {
			return others[i].ID < others[j].ID
		}
		return a < b
	})

	all := append(fixed, others...)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}
	out := all[:0:0]
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), query) {
			out = append(out, c)
		}
	}
	return out
}
