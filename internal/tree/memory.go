package tree

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Memory is an in-process Store. All writes are serialized under one lock,
// which makes CompareAndSwap atomic. Listener callbacks run on a dispatcher
// goroutine, never under the lock, so a callback may write back to the store.
type Memory struct {
	mu        sync.Mutex
	root      map[string]any
	journal   Journal
	listeners map[int]*listener
	next      int
	dispatch  *Dispatcher
}

type listener struct {
	segs   []string
	path   string
	fn     func(Snapshot)
	closed atomic.Bool
}

// Option configures a Memory store.
type Option func(*Memory)

// WithRoot seeds the store with an existing tree, e.g. one loaded from a journal.
func WithRoot(root map[string]any) Option {
	return func(m *Memory) {
		if root != nil {
			m.root = root
		}
	}
}

// WithJournal makes every write go through j before it is applied.
func WithJournal(j Journal) Option {
	return func(m *Memory) { m.journal = j }
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		root:      make(map[string]any),
		listeners: make(map[int]*listener),
		dispatch:  NewDispatcher(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Close stops listener dispatch after queued callbacks have run.
func (m *Memory) Close() {
	m.dispatch.Close()
}

func (m *Memory) Get(_ context.Context, path string) (any, error) {
	segs, err := Split(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Clone(m.lookup(segs)), nil
}

func (m *Memory) Set(_ context.Context, path string, value any) error {
	w, err := prepare(path, value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit([]pendingWrite{w})
}

func (m *Memory) Update(_ context.Context, path string, children map[string]any) error {
	if len(children) == 0 {
		return nil
	}
	writes := make([]pendingWrite, 0, len(children))
	for rel, v := range children {
		w, err := prepare(Join(path, rel), v)
		if err != nil {
			return err
		}
		writes = append(writes, w)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit(writes)
}

func (m *Memory) Push(ctx context.Context, path string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("push key: %w", err)
	}
	key := id.String()
	if err := m.Set(ctx, Join(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (m *Memory) Remove(ctx context.Context, path string) error {
	return m.Set(ctx, path, nil)
}

func (m *Memory) CompareAndSwap(_ context.Context, path string, expected, next any) (bool, error) {
	w, err := prepare(path, next)
	if err != nil {
		return false, err
	}
	want, err := Normalize(expected)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !Equal(m.lookup(w.segs), want) {
		return false, nil
	}
	if err := m.commit([]pendingWrite{w}); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Subscribe(path string, fn func(Snapshot)) (func(), error) {
	segs, err := Split(path)
	if err != nil {
		return nil, err
	}
	l := &listener{segs: segs, path: Join(segs...), fn: fn}

	m.mu.Lock()
	id := m.next
	m.next++
	m.listeners[id] = l
	m.notify(l, Clone(m.lookup(segs)))
	m.mu.Unlock()

	return func() {
		l.closed.Store(true)
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}, nil
}

// Listeners returns the number of attached listeners.
func (m *Memory) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

type pendingWrite struct {
	segs  []string
	value any
}

func prepare(path string, value any) (pendingWrite, error) {
	segs, err := Split(path)
	if err != nil {
		return pendingWrite{}, err
	}
	if len(segs) == 0 {
		return pendingWrite{}, fmt.Errorf("%w: writes to the root are not allowed", ErrInvalidPath)
	}
	v, err := Normalize(value)
	if err != nil {
		return pendingWrite{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return pendingWrite{segs: segs, value: v}, nil
}

// commit journals and applies a batch, then queues listener callbacks.
// Caller holds m.mu.
func (m *Memory) commit(writes []pendingWrite) error {
	if m.journal != nil {
		batch := make([]Write, len(writes))
		for i, w := range writes {
			batch[i] = Write{Path: Join(w.segs...), Value: w.value}
		}
		if err := m.journal.Apply(batch); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	type watch struct {
		l      *listener
		before any
	}
	var affected []watch
	for _, l := range m.listeners {
		for _, w := range writes {
			if related(l.segs, w.segs) {
				affected = append(affected, watch{l: l, before: Clone(m.lookup(l.segs))})
				break
			}
		}
	}

	for _, w := range writes {
		m.assign(w.segs, Clone(w.value))
	}

	for _, a := range affected {
		after := m.lookup(a.l.segs)
		if Equal(a.before, after) {
			continue
		}
		m.notify(a.l, Clone(after))
	}
	return nil
}

func (m *Memory) notify(l *listener, value any) {
	snap := Snapshot{Path: l.path, Value: value}
	m.dispatch.Submit(func() {
		if l.closed.Load() {
			return
		}
		l.fn(snap)
	})
}

func (m *Memory) lookup(segs []string) any {
	var cur any = m.root
	for _, s := range segs {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = node[s]
		if !ok {
			return nil
		}
	}
	if node, ok := cur.(map[string]any); ok && len(node) == 0 {
		return nil
	}
	return cur
}

func (m *Memory) assign(segs []string, value any) {
	if value == nil {
		m.delete(m.root, segs)
		return
	}
	node := m.root
	for _, s := range segs[:len(segs)-1] {
		child, ok := node[s].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[s] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = value
}

// delete removes segs below node and reports whether node became empty.
func (m *Memory) delete(node map[string]any, segs []string) bool {
	if len(segs) == 1 {
		delete(node, segs[0])
		return len(node) == 0
	}
	child, ok := node[segs[0]].(map[string]any)
	if !ok {
		return len(node) == 0
	}
	if m.delete(child, segs[1:]) {
		delete(node, segs[0])
	}
	return len(node) == 0
}
