package tree

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func newMemory(t *testing.T, opts ...Option) *Memory {
	t.Helper()
	m := NewMemory(opts...)
	t.Cleanup(m.Close)
	return m
}

func waitSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	if err := m.Set(ctx, "users/alice", map[string]any{"name": "Alice", "online": true}); err != nil {
		t.Fatal(err)
	}
	v, err := m.Get(ctx, "users/alice/name")
	if err != nil {
		t.Fatal(err)
	}
	if v != "Alice" {
		t.Errorf("name = %v, want Alice", v)
	}

	missing, err := m.Get(ctx, "users/bob")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("missing = %v, want nil", missing)
	}
}

func TestNumbersNormalizeToFloat(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	if err := m.Set(ctx, "n", int64(1700000000000)); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Get(ctx, "n")
	if _, ok := v.(float64); !ok {
		t.Fatalf("value type = %T, want float64", v)
	}
	if Int64(v) != 1700000000000 {
		t.Errorf("Int64 = %d", Int64(v))
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "a", map[string]any{"b": "c"})

	v, _ := m.Get(ctx, "a")
	v.(map[string]any)["b"] = "mutated"

	again, _ := m.Get(ctx, "a/b")
	if again != "c" {
		t.Errorf("store mutated through Get result: %v", again)
	}
}

func TestRemovePrunesEmptyParents(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "users/alice/friends/bob", true)
	if err := m.Remove(ctx, "users/alice/friends/bob"); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Get(ctx, "users")
	if v != nil {
		t.Errorf("users = %v, want nil after pruning", v)
	}
}

func TestEmptyMapDeletes(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "a/b", "x")
	_ = m.Set(ctx, "a", map[string]any{})
	if v, _ := m.Get(ctx, "a"); v != nil {
		t.Errorf("a = %v, want nil", v)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "msg", map[string]any{"text": "hi", "read": false})

	err := m.Update(ctx, "msg", map[string]any{"read": true, "reactions/👍/alice": true})
	if err != nil {
		t.Fatal(err)
	}
	v, _ := m.Get(ctx, "msg")
	want := map[string]any{"text": "hi", "read": true, "reactions": map[string]any{"👍": map[string]any{"alice": true}}}
	if !Equal(v, want) {
		t.Errorf("msg = %v, want %v", v, want)
	}

	if err := m.Update(ctx, "msg", map[string]any{"text": nil}); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Get(ctx, "msg/text"); v != nil {
		t.Errorf("text = %v, want removed", v)
	}
}

func TestInvalidPaths(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	tests := []struct {
		name string
		path string
	}{
		{"root", ""},
		{"dot", "users/a.b"},
		{"dollar", "users/$x"},
		{"bracket", "users/[0]"},
		{"double slash", "users//x"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Set(ctx, tt.path, "v"); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Set(%q) error = %v, want ErrInvalidPath", tt.path, err)
			}
		})
	}

	if err := m.Set(ctx, "ok", map[string]any{"bad.key": 1}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("nested bad key error = %v, want ErrInvalidPath", err)
	}
}

func TestPushKeysAreOrdered(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	var keys []string
	for i := 0; i < 20; i++ {
		k, err := m.Push(ctx, "feed", map[string]any{"n": i})
		if err != nil {
			t.Fatal(err)
		}
		keys = append(keys, k)
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("push keys not ordered: %v", keys)
	}
	v, _ := m.Get(ctx, "feed")
	if len(v.(map[string]any)) != 20 {
		t.Errorf("feed has %d children, want 20", len(v.(map[string]any)))
	}
}

func TestCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "counter", 1)

	ok, err := m.CompareAndSwap(ctx, "counter", 2, 3)
	if err != nil || ok {
		t.Fatalf("CAS with stale expected = %v, %v; want false", ok, err)
	}
	ok, err = m.CompareAndSwap(ctx, "counter", 1, 2)
	if err != nil || !ok {
		t.Fatalf("CAS with current expected = %v, %v; want true", ok, err)
	}
	ok, _ = m.CompareAndSwap(ctx, "missing", nil, "created")
	if !ok {
		t.Error("CAS from nil should create the node")
	}
}

func TestTransactionConcurrent(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Transaction(ctx, m, "counter", func(cur any) (any, error) {
				return float64(Int64(cur) + 1), nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	v, _ := m.Get(ctx, "counter")
	if Int64(v) != 20 {
		t.Errorf("counter = %v, want 20", v)
	}
}

func TestTransactionAbort(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "x", "keep")

	_, err := Transaction(ctx, m, "x", func(any) (any, error) { return nil, ErrAborted })
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if v, _ := m.Get(ctx, "x"); v != "keep" {
		t.Errorf("x = %v, want keep", v)
	}
}

func TestSubscribeInitialAndChanges(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "conv/messages/m1", map[string]any{"text": "hi"})

	ch := make(chan Snapshot, 10)
	unsub, err := m.Subscribe("conv/messages", func(s Snapshot) { ch <- s })
	if err != nil {
		t.Fatal(err)
	}
	defer unsub()

	first := waitSnapshot(t, ch)
	if len(first.Keys()) != 1 || first.Path != "conv/messages" {
		t.Fatalf("initial snapshot = %+v", first)
	}

	_ = m.Set(ctx, "conv/messages/m2", map[string]any{"text": "there"})
	second := waitSnapshot(t, ch)
	if got := second.Keys(); len(got) != 2 {
		t.Fatalf("keys after push = %v", got)
	}

	// Ancestor overwrite reaches the listener too.
	_ = m.Remove(ctx, "conv")
	third := waitSnapshot(t, ch)
	if third.Exists() {
		t.Errorf("snapshot after ancestor removal = %+v, want empty", third)
	}
}

func TestSubscribeIgnoresUnrelatedAndNoopWrites(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	_ = m.Set(ctx, "a/x", 1)

	ch := make(chan Snapshot, 10)
	unsub, _ := m.Subscribe("a", func(s Snapshot) { ch <- s })
	defer unsub()
	waitSnapshot(t, ch)

	_ = m.Set(ctx, "b/x", 1)
	_ = m.Set(ctx, "a/x", 1)
	_ = m.Set(ctx, "a/y", 2)

	s := waitSnapshot(t, ch)
	if s.Child("y").Value != float64(2) {
		t.Errorf("next snapshot = %+v, want the a/y change", s)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected snapshot %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsCallbacks(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	ch := make(chan Snapshot, 10)
	unsub, _ := m.Subscribe("a", func(s Snapshot) { ch <- s })
	waitSnapshot(t, ch)
	unsub()
	unsub()

	_ = m.Set(ctx, "a", "changed")
	select {
	case s := <-ch:
		t.Errorf("callback after unsubscribe: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
	if m.Listeners() != 0 {
		t.Errorf("Listeners = %d, want 0", m.Listeners())
	}
}

func TestCallbackMayWrite(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	done := make(chan struct{})
	unsub, _ := m.Subscribe("ping", func(s Snapshot) {
		if s.Value == "go" {
			_ = m.Set(ctx, "pong", true)
			close(done)
		}
	})
	defer unsub()

	_ = m.Set(ctx, "ping", "go")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not run")
	}
	if v, _ := m.Get(ctx, "pong"); v != true {
		t.Errorf("pong = %v", v)
	}
}

type failingJournal struct{ err error }

func (j failingJournal) Apply([]Write) error { return j.err }

func TestJournalFailureAbortsWrite(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t, WithJournal(failingJournal{err: errors.New("disk full")}))
	if err := m.Set(ctx, "a", 1); err == nil {
		t.Fatal("expected journal error")
	}
	if v, _ := m.Get(ctx, "a"); v != nil {
		t.Errorf("a = %v, want nil after failed journal", v)
	}
}

func TestWithRoot(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t, WithRoot(map[string]any{"users": map[string]any{"alice": map[string]any{"name": "Alice"}}}))
	if v, _ := m.Get(ctx, "users/alice/name"); v != "Alice" {
		t.Errorf("name = %v", v)
	}
}
