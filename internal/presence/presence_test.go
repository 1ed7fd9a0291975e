package presence

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/clock"
	"github.com/matheus3301/letschat/internal/outbox"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newCoordinator(t *testing.T) (*Coordinator, *tree.Memory, *clock.Fake, *outbox.Writer) {
	t.Helper()
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	w := outbox.NewWriter(zap.NewNop(), 64)
	w.Start(context.Background())
	t.Cleanup(w.Stop)
	fc := clock.NewFake(epoch)
	c := New(Config{
		Store:  m,
		Me:     address.Identity{ID: "alice", Name: "Alice", Photo: "a.png"},
		Clock:  fc,
		Outbox: w,
		Logger: zap.NewNop(),
	})
	t.Cleanup(c.Close)
	return c, m, fc, w
}

func flush(t *testing.T, w *outbox.Writer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestOnlineOffline(t *testing.T) {
	c, m, fc, _ := newCoordinator(t)
	ctx := context.Background()

	if err := c.Online(ctx); err != nil {
		t.Fatal(err)
	}
	rec, _ := m.Get(ctx, "users/alice")
	r := rec.(map[string]any)
	if r["online"] != true || r["name"] != "Alice" || r["photo"] != "a.png" {
		t.Errorf("presence = %v", r)
	}
	if tree.Int64(r["lastSeen"]) != epoch.UnixMilli() {
		t.Errorf("lastSeen = %v", r["lastSeen"])
	}

	_ = m.Set(ctx, "users/alice/friends/bob", true)
	fc.Advance(time.Minute)
	if err := c.Offline(ctx); err != nil {
		t.Fatal(err)
	}
	rec, _ = m.Get(ctx, "users/alice")
	r = rec.(map[string]any)
	if r["online"] != false || tree.Int64(r["lastSeen"]) != epoch.Add(time.Minute).UnixMilli() {
		t.Errorf("offline presence = %v", r)
	}
	if r["friends"] == nil {
		t.Error("presence update clobbered the friend relation")
	}
}

func TestTypingDebounce(t *testing.T) {
	c, m, fc, w := newCoordinator(t)
	ctx := context.Background()
	conv, _ := address.For("alice", "bob")
	slot := address.TypingSlot(conv.Address, "alice")

	c.Keystroke(conv)
	flush(t, w)
	if v, _ := m.Get(ctx, slot+"/typing"); v != true {
		t.Fatalf("typing after keystroke = %v", v)
	}

	// Keystrokes keep re-arming the timer.
	for i := 0; i < 3; i++ {
		fc.Advance(600 * time.Millisecond)
		c.Keystroke(conv)
	}
	flush(t, w)
	if v, _ := m.Get(ctx, slot+"/typing"); v != true {
		t.Fatalf("typing cleared while still typing: %v", v)
	}

	fc.Advance(999 * time.Millisecond)
	flush(t, w)
	if v, _ := m.Get(ctx, slot+"/typing"); v != true {
		t.Fatalf("typing cleared before the debounce elapsed")
	}

	fc.Advance(time.Millisecond)
	flush(t, w)
	if v, _ := m.Get(ctx, slot+"/typing"); v != false {
		t.Errorf("typing after debounce = %v, want false", v)
	}
	if fc.Pending() != 0 {
		t.Errorf("pending timers = %d", fc.Pending())
	}
}

func TestStopTypingCancelsTimer(t *testing.T) {
	c, m, fc, w := newCoordinator(t)
	ctx := context.Background()
	conv, _ := address.For("alice", address.BotID)

	c.Keystroke(conv)
	c.StopTyping(conv)
	flush(t, w)
	if fc.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", fc.Pending())
	}
	if v, _ := m.Get(ctx, address.TypingSlot(conv.Address, "alice")+"/typing"); v != false {
		t.Errorf("typing = %v, want false", v)
	}
}

func TestNoTypingInFeeds(t *testing.T) {
	c, m, fc, w := newCoordinator(t)
	ctx := context.Background()
	for _, peer := range []string{address.GlobalFeed, address.Favorites} {
		conv, _ := address.For("alice", peer)
		c.Keystroke(conv)
		c.StopTyping(conv)
	}
	flush(t, w)
	if fc.Pending() != 0 {
		t.Error("feed keystroke armed a timer")
	}
	for _, root := range []string{address.GlobalFeed, address.Favorites} {
		if v, _ := m.Get(ctx, root); v != nil {
			t.Errorf("%s written: %v", root, v)
		}
	}
}

func TestTypingStatus(t *testing.T) {
	slot := func(typing bool, name string) map[string]any {
		return map[string]any{"typing": typing, "name": name}
	}
	tests := []struct {
		name  string
		slots map[string]any
		want  string
	}{
		{"nobody", nil, ""},
		{"only me", map[string]any{"alice": slot(true, "Alice")}, ""},
		{"peer typing", map[string]any{"alice": slot(true, "Alice"), "bob": slot(true, "Bob")}, "Bob is typing..."},
		{"peer stopped", map[string]any{"bob": slot(false, "Bob")}, ""},
		{"nameless peer", map[string]any{"bob": map[string]any{"typing": true}}, "bob is typing..."},
		{"two peers", map[string]any{"bob": slot(true, "Bob"), "carol": slot(true, "Carol")}, "Bob and Carol are typing..."},
		{"three peers", map[string]any{"bob": slot(true, "Bob"), "carol": slot(true, "Carol"), "dan": slot(true, "Dan")}, "Several people are typing..."},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var v any
			if tt.slots != nil {
				v = tt.slots
			}
			got := TypingStatus(tree.Snapshot{Value: v}, "alice")
			if got != tt.want {
				t.Errorf("TypingStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLastSeen(t *testing.T) {
	now := epoch
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "unknown"},
		{"future", now.Add(time.Minute), "just now"},
		{"instant", now, "just now"},
		{"four seconds", now.Add(-4 * time.Second), "just now"},
		{"seconds", now.Add(-42 * time.Second), "42s ago"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-50 * time.Hour), "2d ago"},
		{"weeks", now.Add(-8 * 24 * time.Hour), "Feb 21, 2026"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := LastSeen(tt.t, now); got != tt.want {
				t.Errorf("LastSeen = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildContacts(t *testing.T) {
	users := tree.Snapshot{Path: "users", Value: map[string]any{
		"alice": map[string]any{"name": "Alice", "online": true},
		"bob":   map[string]any{"name": "bob", "online": false, "lastSeen": float64(epoch.UnixMilli())},
		"carol": map[string]any{"name": "Carol"},
		"zed":   map[string]any{"online": true},
	}}
	isFriend := func(id string) bool { return id == "carol" }

	all := BuildContacts(users, "alice", isFriend, "")
	var ids []string
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	want := []string{address.GlobalFeed, address.Favorites, address.BotID, "bob", "carol", "zed"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if !all[4].Friend || all[3].Friend {
		t.Error("friend flags wrong")
	}
	if !all[3].LastSeen.Equal(epoch) {
		t.Errorf("bob lastSeen = %v", all[3].LastSeen)
	}
	if all[5].Name != "zed" {
		t.Errorf("nameless user should fall back to id, got %q", all[5].Name)
	}

	found := BuildContacts(users, "alice", isFriend, "  CAR ")
	if len(found) != 1 || found[0].ID != "carol" {
		t.Errorf("search = %+v", found)
	}
	found = BuildContacts(users, "alice", isFriend, "chat")
	if len(found) != 2 {
		t.Errorf("search for fixed entries = %+v", found)
	}
}

func TestDirectoryFollowsStore(t *testing.T) {
	m := tree.NewMemory()
	defer m.Close()
	ctx := context.Background()

	d := NewDirectory(m, "alice", nil, nil, zap.NewNop())
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	_ = m.Set(ctx, "users/bob", map[string]any{"name": "Bob", "online": true})

	deadline := time.After(2 * time.Second)
	for {
		if c, ok := d.Lookup("bob"); ok && c.Online {
			break
		}
		select {
		case <-deadline:
			t.Fatal("directory never saw bob")
		case <-time.After(10 * time.Millisecond):
		}
	}
	d.Stop()
	d.Stop()
}
