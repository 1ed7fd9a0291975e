package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/bus"
	"github.com/matheus3301/letschat/internal/chat"
	"github.com/matheus3301/letschat/internal/clock"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/outbox"
	"github.com/matheus3301/letschat/internal/status"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

type recordingReceipts struct {
	next  Receipts
	mu    sync.Mutex
	calls []string
}

func (r *recordingReceipts) MarkDelivered(ctx context.Context, conv address.Conversation, msg chat.Message) error {
	r.record("delivered:" + msg.ID)
	return r.next.MarkDelivered(ctx, conv, msg)
}

func (r *recordingReceipts) MarkRead(ctx context.Context, conv address.Conversation, msg chat.Message) error {
	r.record("read:" + msg.ID)
	return r.next.MarkRead(ctx, conv, msg)
}

func (r *recordingReceipts) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recordingReceipts) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type client struct {
	engine   *chat.Engine
	manager  *Manager
	receipts *recordingReceipts
	outbox   *outbox.Writer
}

func newClient(t *testing.T, m *tree.Memory, id string) *client {
	t.Helper()
	e := chat.NewEngine(chat.Config{
		Store:  m,
		Me:     address.Identity{ID: id, Name: id},
		Clock:  clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Gate:   confirm.NewGate(nil, zap.NewNop()),
		Logger: zap.NewNop(),
	})
	t.Cleanup(e.Close)
	w := outbox.NewWriter(zap.NewNop(), 64)
	w.Start(context.Background())
	t.Cleanup(w.Stop)
	rec := &recordingReceipts{next: e}
	mgr := NewManager(Config{
		Store:    m,
		Me:       id,
		Receipts: rec,
		Filter:   e,
		Outbox:   w,
		Bus:      bus.New(),
		Logger:   zap.NewNop(),
	})
	t.Cleanup(mgr.Close)
	return &client{engine: e, manager: mgr, receipts: rec, outbox: w}
}

func conversation(t *testing.T, me, peer string) address.Conversation {
	t.Helper()
	conv, err := address.For(me, peer)
	if err != nil {
		t.Fatal(err)
	}
	return conv
}

func collect() (Handlers, <-chan []chat.Message, <-chan string) {
	msgs := make(chan []chat.Message, 32)
	typing := make(chan string, 32)
	return Handlers{
		OnMessages: func(_ address.Conversation, m []chat.Message) { msgs <- m },
		OnTyping:   func(_ address.Conversation, s string) { typing <- s },
	}, msgs, typing
}

func waitMessages(t *testing.T, ch <-chan []chat.Message, want int) []chat.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-ch:
			if len(m) == want {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %d messages", want)
		}
	}
}

func TestOpenEmitsEmptyListFirst(t *testing.T) {
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	ctx := context.Background()
	a := newClient(t, m, "alice")
	a.engine.SetConversation(conversation(t, "alice", "bob"))
	if _, err := a.engine.Send(ctx, chat.Text{Body: "hi"}); err != nil {
		t.Fatal(err)
	}

	h, msgs, _ := collect()
	if _, err := a.manager.Open(conversation(t, "alice", "bob"), h); err != nil {
		t.Fatal(err)
	}
	select {
	case first := <-msgs:
		if len(first) != 0 {
			t.Fatalf("first delivery has %d messages, want 0", len(first))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
	}
	got := waitMessages(t, msgs, 1)
	if got[0].Body() != "hi" {
		t.Errorf("body = %q", got[0].Body())
	}
}

func TestOpenDetachesPrevious(t *testing.T) {
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	a := newClient(t, m, "alice")

	first, err := a.manager.Open(conversation(t, "alice", "bob"), Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	if n := m.Listeners(); n != 2 {
		t.Fatalf("listeners after direct open = %d, want 2", n)
	}

	second, err := a.manager.Open(conversation(t, "alice", address.GlobalFeed), Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	if n := m.Listeners(); n != 1 {
		t.Errorf("listeners after feed open = %d, want 1", n)
	}
	if first.State() != status.Idle {
		t.Errorf("previous state = %s", first.State())
	}
	if second.State() != status.Attached {
		t.Errorf("current state = %s", second.State())
	}
	if a.manager.Active() != second {
		t.Error("active subscription not replaced")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	a := newClient(t, m, "alice")
	sub, err := a.manager.Open(conversation(t, "alice", address.BotID), Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	sub.Close()
	sub.Close()
	a.manager.Close()
	if n := m.Listeners(); n != 0 {
		t.Errorf("listeners = %d", n)
	}
	if sub.State() != status.Idle {
		t.Errorf("state = %s", sub.State())
	}
}

func TestLateSnapshotsAfterSwitchAreIgnored(t *testing.T) {
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	ctx := context.Background()
	a := newClient(t, m, "alice")
	b := newClient(t, m, "bob")

	var mu sync.Mutex
	var seen []string
	h := Handlers{OnMessages: func(conv address.Conversation, _ []chat.Message) {
		mu.Lock()
		seen = append(seen, conv.Address)
		mu.Unlock()
	}}
	if _, err := a.manager.Open(conversation(t, "alice", "bob"), h); err != nil {
		t.Fatal(err)
	}
	if _, err := a.manager.Open(conversation(t, "alice", "carol"), h); err != nil {
		t.Fatal(err)
	}

	b.engine.SetConversation(conversation(t, "bob", "alice"))
	if _, err := b.engine.Send(ctx, chat.Text{Body: "late"}); err != nil {
		t.Fatal(err)
	}
	// callbacks run in order, so the barrier firing means the late snapshot was handled
	done := make(chan struct{})
	var once sync.Once
	unsub, err := m.Subscribe("barrier", func(s tree.Snapshot) {
		if s.Exists() {
			once.Do(func() { close(done) })
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer unsub()
	if err := m.Set(ctx, "barrier", true); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("barrier never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	carol := address.Resolve("alice", "carol")
	last := seen[len(seen)-1]
	if last != carol {
		t.Errorf("last delivery for %s, want %s (all: %v)", last, carol, seen)
	}
}

func TestReceiptsDeliveredThenRead(t *testing.T) {
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	ctx := context.Background()
	a := newClient(t, m, "alice")
	b := newClient(t, m, "bob")

	aConv := conversation(t, "alice", "bob")
	a.engine.SetConversation(aConv)
	id, err := a.engine.Send(ctx, chat.Text{Body: "ping"})
	if err != nil {
		t.Fatal(err)
	}

	// the sender's own view never produces receipts, but it sees them land
	type receipt struct{ delivered, read bool }
	states := make(chan receipt, 32)
	own := Handlers{OnMessages: func(_ address.Conversation, list []chat.Message) {
		for _, msg := range list {
			if msg.ID == id {
				states <- receipt{msg.Delivered, msg.Read}
			}
		}
	}}
	if _, err := a.manager.Open(aConv, own); err != nil {
		t.Fatal(err)
	}

	h, msgs, _ := collect()
	if _, err := b.manager.Open(conversation(t, "bob", "alice"), h); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		var got chat.Message
		select {
		case list := <-msgs:
			if len(list) != 1 {
				continue
			}
			got = list[0]
		case <-timeout:
			t.Fatal("message never reached read state")
		}
		if got.Delivered && got.Read {
			break
		}
	}

	var seen []receipt
	sawDelivered := false
	for done := false; !done; {
		select {
		case r := <-states:
			seen = append(seen, r)
			switch {
			case r.read && !r.delivered:
				t.Fatalf("read before delivered: %v", seen)
			case r.read:
				done = true
			case r.delivered:
				sawDelivered = true
			}
		case <-timeout:
			t.Fatalf("sender never saw the read receipt: %v", seen)
		}
	}
	if !sawDelivered {
		t.Errorf("sender skipped the delivered state: %v", seen)
	}

	calls := b.receipts.Calls()
	if len(calls) < 2 || calls[0] != "delivered:"+id || calls[1] != "read:"+id {
		t.Errorf("receipt calls = %v", calls)
	}
	if got := a.receipts.Calls(); len(got) != 0 {
		t.Errorf("sender issued receipts: %v", got)
	}
}

func TestNoReceiptsInFeeds(t *testing.T) {
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	ctx := context.Background()
	a := newClient(t, m, "alice")
	b := newClient(t, m, "bob")

	a.engine.SetConversation(conversation(t, "alice", address.GlobalFeed))
	if _, err := a.engine.Send(ctx, chat.Text{Body: "hello all"}); err != nil {
		t.Fatal(err)
	}
	h, msgs, _ := collect()
	if _, err := b.manager.Open(conversation(t, "bob", address.GlobalFeed), h); err != nil {
		t.Fatal(err)
	}
	waitMessages(t, msgs, 1)
	if err := b.outbox.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if got := b.receipts.Calls(); len(got) != 0 {
		t.Errorf("receipts in feed: %v", got)
	}
}

func TestTypingStatusFollowsPeer(t *testing.T) {
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	ctx := context.Background()
	a := newClient(t, m, "alice")

	conv := conversation(t, "alice", "bob")
	h, _, typing := collect()
	sub, err := a.manager.Open(conv, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Set(ctx, address.TypingSlot(conv.Address, "bob"), map[string]any{"typing": true, "name": "Bob"}); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-typing:
		if s != "Bob is typing..." {
			t.Errorf("status = %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no typing status")
	}
	if sub.TypingStatus() != "Bob is typing..." {
		t.Errorf("TypingStatus() = %q", sub.TypingStatus())
	}

	if err := m.Set(ctx, address.TypingSlot(conv.Address, "bob"), map[string]any{"typing": false, "name": "Bob"}); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-typing:
		if s != "" {
			t.Errorf("status = %q, want empty", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("typing never cleared")
	}
}
