// Package tree defines the shared key-tree store the chat engine runs on and
// provides an in-memory implementation of it.
//
// Paths are slash separated ("users/alice/friends"). Values are JSON shaped:
// map[string]any for inner nodes, string, float64 or bool for leaves. Writing
// nil or an empty map removes the node, and parents left empty disappear with it.
package tree

import "context"

// Store is the contract of the shared real-time tree.
type Store interface {
	// Get returns the value at path, or nil when nothing is stored there.
	Get(ctx context.Context, path string) (any, error)
	// Set replaces the value at path.
	Set(ctx context.Context, path string, value any) error
	// Update writes each child (a path relative to path) in one step.
	// A nil child removes it.
	Update(ctx context.Context, path string, children map[string]any) error
	// Push stores value under a new time-ordered key below path and returns the key.
	Push(ctx context.Context, path string, value any) (string, error)
	// Remove deletes the subtree at path.
	Remove(ctx context.Context, path string) error
	// CompareAndSwap stores next at path only if the current value equals
	// expected. It reports whether the swap happened.
	CompareAndSwap(ctx context.Context, path string, expected, next any) (bool, error)
	// Subscribe calls fn with the current value at path and again after every
	// change to it. Callbacks of one store never run concurrently. The returned
	// function detaches the listener; no callback starts after it returns.
	Subscribe(path string, fn func(Snapshot)) (func(), error)
}

// Write is one path assignment inside an atomic batch.
type Write struct {
	Path  string
	Value any
}

// Journal receives every batch of writes before it is applied in memory.
// An error aborts the batch.
type Journal interface {
	Apply(writes []Write) error
}
