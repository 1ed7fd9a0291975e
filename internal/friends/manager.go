// Package friends maintains the symmetric friend relation of the signed-in
// user, its durable shadow copy and the local friend cache.
package friends

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/bus"
	"github.com/matheus3301/letschat/internal/clock"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrSelf           = errors.New("cannot befriend yourself")
	ErrReserved       = errors.New("reserved identity")
	ErrInviteNotFound = errors.New("invite not found")
)

// Cache persists the live friend set between runs.
type Cache interface {
	LoadFriends(uid string) (map[string]bool, error)
	SaveFriends(uid string, friends map[string]bool) error
}

// Config holds the manager collaborators.
type Config struct {
	Store  tree.Store
	Me     address.Identity
	Cache  Cache
	Gate   *confirm.Gate
	Bus    *bus.Bus
	Clock  clock.Clock
	Logger *zap.Logger
}

// Manager owns the friend set of one user.
type Manager struct {
	cfg Config

	mu      sync.RWMutex
	friends map[string]bool
	unsub   func()
}

// New creates a manager seeded from the local cache, so friend data is
// available before the store listener first fires.
func New(cfg Config) (*Manager, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	m := &Manager{cfg: cfg, friends: map[string]bool{}}
	if cfg.Cache != nil {
		cached, err := cfg.Cache.LoadFriends(cfg.Me.ID)
		if err != nil {
			return nil, fmt.Errorf("load friend cache: %w", err)
		}
		for id, ok := range cached {
			if ok {
				m.friends[id] = true
			}
		}
	}
	return m, nil
}

// Start restores shadow edges into the live relation and begins mirroring
// the live relation into the local cache.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.MergeShadow(ctx); err != nil {
		return err
	}
	unsub, err := m.cfg.Store.Subscribe(address.Friends(m.cfg.Me.ID), m.onFriends)
	if err != nil {
		return fmt.Errorf("subscribe friends: %w", err)
	}
	m.mu.Lock()
	m.unsub = unsub
	m.mu.Unlock()
	return nil
}

// Stop detaches the store listener.
func (m *Manager) Stop() {
	m.mu.Lock()
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// MergeShadow copies every shadow edge missing from the live relation back
// into it, and every live edge missing from the shadow into the shadow.
func (m *Manager) MergeShadow(ctx context.Context) error {
	me := m.cfg.Me.ID
	live, err := m.edges(ctx, address.Friends(me))
	if err != nil {
		return err
	}
	shadow, err := m.edges(ctx, address.Shadow(me))
	if err != nil {
		return err
	}

	patch := map[string]any{}
	for id := range shadow {
		if !live[id] {
			patch["friends/"+id] = true
		}
	}
	for id := range live {
		if !shadow[id] {
			patch["friendsShadow/"+id] = true
		}
	}
	if len(patch) == 0 {
		return nil
	}
	if err := m.cfg.Store.Update(ctx, address.User(me), patch); err != nil {
		return fmt.Errorf("merge friend shadow: %w", err)
	}
	m.cfg.Logger.Info("friend shadow merged", zap.Int("edges", len(patch)))
	return nil
}

func (m *Manager) edges(ctx context.Context, path string) (map[string]bool, error) {
	v, err := m.cfg.Store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return edgeSet(tree.Snapshot{Path: path, Value: v}), nil
}

func edgeSet(snap tree.Snapshot) map[string]bool {
	out := map[string]bool{}
	for id, v := range snap.Map() {
		if tree.Bool(v) {
			out[id] = true
		}
	}
	return out
}

func (m *Manager) onFriends(snap tree.Snapshot) {
	m.replace(edgeSet(snap))
}

// replace swaps the in-memory set, writes it through to the cache and
// announces it.
func (m *Manager) replace(set map[string]bool) {
	m.mu.Lock()
	m.friends = set
	m.mu.Unlock()
	m.persist(set)
	m.cfg.Bus.Emit(bus.FriendsChanged, sortedIDs(set))
}

func (m *Manager) persist(set map[string]bool) {
	if m.cfg.Cache == nil {
		return
	}
	if err := m.cfg.Cache.SaveFriends(m.cfg.Me.ID, set); err != nil {
		m.cfg.Logger.Warn("save friend cache", zap.Error(err))
	}
}

// Refresh reloads the live friend set from the store.
func (m *Manager) Refresh(ctx context.Context) error {
	set, err := m.edges(ctx, address.Friends(m.cfg.Me.ID))
	if err != nil {
		return err
	}
	m.replace(set)
	return nil
}

// Friends returns the sorted ids of the user's friends.
func (m *Manager) Friends() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedIDs(m.friends)
}

// IsFriend reports whether id is a friend of the user.
func (m *Manager) IsFriend(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.friends[id]
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) check(id string) error {
	if err := address.ValidateID(id); err != nil {
		return err
	}
	switch id {
	case m.cfg.Me.ID:
		return ErrSelf
	case address.BotID, address.GlobalFeed, address.Favorites:
		return fmt.Errorf("%w: %s", ErrReserved, id)
	}
	return nil
}

// optimistic applies fn to a copy of the local set ahead of the store writes.
func (m *Manager) optimistic(fn func(set map[string]bool)) {
	m.mu.Lock()
	set := make(map[string]bool, len(m.friends)+1)
	for id := range m.friends {
		set[id] = true
	}
	fn(set)
	m.friends = set
	m.mu.Unlock()
	m.persist(set)
	m.cfg.Bus.Emit(bus.FriendsChanged, sortedIDs(set))
}

// Add befriends id: both directed edges and both shadow edges. Each shadow
// edge is written before its live edge, and a live edge is skipped when its
// shadow failed, so friends stays a subset of friendsShadow. The returned
// error lists every failed write. Re-running converges.
func (m *Manager) Add(ctx context.Context, id string) error {
	if err := m.check(id); err != nil {
		return err
	}
	m.optimistic(func(set map[string]bool) { set[id] = true })

	me := m.cfg.Me.ID
	var errs error
	for _, e := range edges(me, id) {
		if err := m.cfg.Store.Set(ctx, e.shadow, true); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.shadow, err))
			continue
		}
		if err := m.cfg.Store.Set(ctx, e.live, true); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.live, err))
		}
	}
	if errs != nil {
		return fmt.Errorf("add friend %s: %w", id, errs)
	}
	m.cfg.Logger.Info("friend added", zap.String("friend", id))
	return nil
}

// RequestRemove parks the removal of id until it is confirmed.
func (m *Manager) RequestRemove(id string) (confirm.Request, error) {
	if err := m.check(id); err != nil {
		return confirm.Request{}, err
	}
	prompt := fmt.Sprintf("Remove %s from your friends?", id)
	return m.cfg.Gate.Ask(confirm.RemoveFriend, prompt, func(ctx context.Context) error {
		return m.remove(ctx, id)
	}), nil
}

func (m *Manager) remove(ctx context.Context, id string) error {
	m.optimistic(func(set map[string]bool) { delete(set, id) })

	me := m.cfg.Me.ID
	var errs error
	for _, e := range edges(me, id) {
		if err := m.cfg.Store.Remove(ctx, e.live); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.live, err))
			continue
		}
		if err := m.cfg.Store.Remove(ctx, e.shadow); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.shadow, err))
		}
	}
	if errs != nil {
		return fmt.Errorf("remove friend %s: %w", id, errs)
	}
	m.cfg.Logger.Info("friend removed", zap.String("friend", id))
	return nil
}

// edge pairs a directed friend entry with its shadow copy.
type edge struct {
	live, shadow string
}

func edges(a, b string) []edge {
	return []edge{
		{live: address.Friend(a, b), shadow: address.ShadowFriend(a, b)},
		{live: address.Friend(b, a), shadow: address.ShadowFriend(b, a)},
	}
}
