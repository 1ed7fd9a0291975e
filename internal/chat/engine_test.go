package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/clock"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type echoBot struct{}

func (echoBot) Reply(_, text string) string { return "echo: " + text }

type stubTyping struct{ stopped []string }

func (s *stubTyping) StopTyping(conv address.Conversation) { s.stopped = append(s.stopped, conv.Address) }

type friendSet map[string]bool

func (f friendSet) IsFriend(id string) bool { return f[id] }

type fixture struct {
	store *tree.Memory
	clock *clock.Fake
	gate  *confirm.Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := tree.NewMemory()
	t.Cleanup(m.Close)
	return &fixture{store: m, clock: clock.NewFake(epoch), gate: confirm.NewGate(nil, zap.NewNop())}
}

func (f *fixture) engine(t *testing.T, id string, peer string) *Engine {
	t.Helper()
	e := NewEngine(Config{
		Store:    f.store,
		Me:       address.Identity{ID: id, Name: strings.ToUpper(id[:1]) + id[1:]},
		Clock:    f.clock,
		Gate:     f.gate,
		Logger:   zap.NewNop(),
		Bot:      echoBot{},
		BotDelay: 700 * time.Millisecond,
	})
	conv, err := address.For(id, peer)
	if err != nil {
		t.Fatal(err)
	}
	e.SetConversation(conv)
	t.Cleanup(e.Close)
	return e
}

func (f *fixture) messages(t *testing.T, conv address.Conversation) []Message {
	t.Helper()
	v, err := f.store.Get(context.Background(), conv.MessagesPath())
	if err != nil {
		t.Fatal(err)
	}
	return DecodeAll(tree.Snapshot{Path: conv.MessagesPath(), Value: v})
}

func (f *fixture) message(t *testing.T, conv address.Conversation, id string) Message {
	t.Helper()
	v, err := f.store.Get(context.Background(), conv.MessagePath(id))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := Decode(id, v)
	if !ok {
		t.Fatalf("message %s missing", id)
	}
	return m
}

func TestSendRejectsEmpty(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t, "alice", "bob")
	ctx := context.Background()

	for _, c := range []Content{Text{Body: ""}, Text{Body: "   \n"}, Image{Body: "x"}, nil} {
		if _, err := e.Send(ctx, c); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Send(%#v) error = %v, want ErrEmptyBody", c, err)
		}
	}
	if v, _ := f.store.Get(ctx, "conversations"); v != nil {
		t.Errorf("store written on invalid input: %v", v)
	}
}

func TestSendWithoutConversation(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t, "alice", "bob")
	e.ClearConversation()
	if _, err := e.Send(context.Background(), Text{Body: "hi"}); !errors.Is(err, ErrNoConversation) {
		t.Errorf("error = %v, want ErrNoConversation", err)
	}
}

func TestSendCreatesMessage(t *testing.T) {
	f := newFixture(t)
	typing := &stubTyping{}
	e := f.engine(t, "alice", "bob")
	e.cfg.Typing = typing

	id, err := e.Send(context.Background(), Text{Body: "  hi  "})
	if err != nil {
		t.Fatal(err)
	}
	conv, _ := e.Conversation()
	m := f.message(t, conv, id)

	if m.SenderID != "alice" || m.DisplayName != "Alice" || m.Body() != "hi" || m.Kind() != KindText {
		t.Errorf("message = %+v", m)
	}
	if !m.CreatedAt.Equal(epoch) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, epoch)
	}
	if m.Delivered || m.Read || m.Edited || m.Deleted || len(m.Reactions) != 0 {
		t.Errorf("flags not initialized: %+v", m)
	}
	if len(typing.stopped) != 1 || typing.stopped[0] != "bob_alice" {
		t.Errorf("typing stopped = %v", typing.stopped)
	}
}

func TestSendOrdering(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t, "alice", "bob")
	ctx := context.Background()
	for _, body := range []string{"one", "two", "three"} {
		if _, err := e.Send(ctx, Text{Body: body}); err != nil {
			t.Fatal(err)
		}
		f.clock.Advance(time.Second)
	}
	conv, _ := e.Conversation()
	msgs := f.messages(t, conv)
	if len(msgs) != 3 || msgs[0].Body() != "one" || msgs[2].Body() != "three" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestSendImage(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t, "alice", "bob")
	ctx := context.Background()
	dir := t.TempDir()

	png := filepath.Join(dir, "cat.png")
	if err := os.WriteFile(png, append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...), 0600); err != nil {
		t.Fatal(err)
	}
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("just text"), 0600); err != nil {
		t.Fatal(err)
	}

	id, err := e.Send(ctx, Image{MediaRef: png})
	if err != nil {
		t.Fatal(err)
	}
	conv, _ := e.Conversation()
	m := f.message(t, conv, id)
	if m.Kind() != KindImage || m.Body() != "cat.png" || m.MediaRef() != png {
		t.Errorf("image message = %+v", m)
	}

	if _, err := e.Send(ctx, Image{MediaRef: "https://example.com/dog.jpg", Body: "dog"}); err != nil {
		t.Errorf("remote image rejected: %v", err)
	}
	if _, err := e.Send(ctx, Image{MediaRef: notes}); !errors.Is(err, ErrNotImage) {
		t.Errorf("text file error = %v, want ErrNotImage", err)
	}
}

func TestBotReplyAfterDelay(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t, "alice", address.BotID)
	ctx := context.Background()

	if _, err := e.Send(ctx, Text{Body: "hello"}); err != nil {
		t.Fatal(err)
	}
	conv, _ := e.Conversation()
	if got := len(f.messages(t, conv)); got != 1 {
		t.Fatalf("messages before delay = %d, want 1", got)
	}

	f.clock.Advance(700 * time.Millisecond)
	msgs := f.messages(t, conv)
	if len(msgs) != 2 {
		t.Fatalf("messages after delay = %d, want 2", len(msgs))
	}
	reply := msgs[1]
	if reply.SenderID != address.BotID || reply.DisplayName != address.BotName || reply.Body() != "echo: hello" {
		t.Errorf("bot reply = %+v", reply)
	}
}

func TestBotReplyCancelledOnClose(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t, "alice", address.BotID)
	if _, err := e.Send(context.Background(), Text{Body: "hello"}); err != nil {
		t.Fatal(err)
	}
	e.Close()
	f.clock.Advance(time.Second)
	conv, _ := e.Conversation()
	if got := len(f.messages(t, conv)); got != 1 {
		t.Errorf("messages = %d, want 1 after Close", got)
	}
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	alice := f.engine(t, "alice", "bob")
	bob := f.engine(t, "bob", "alice")
	ctx := context.Background()

	id, _ := alice.Send(ctx, Text{Body: "helo"})
	if err := alice.Edit(ctx, id, "hello"); err != nil {
		t.Fatal(err)
	}
	conv, _ := alice.Conversation()
	m := f.message(t, conv, id)
	if m.Body() != "hello" || !m.Edited {
		t.Errorf("edited message = %+v", m)
	}
	if !m.CreatedAt.Equal(epoch) {
		t.Error("edit changed CreatedAt")
	}

	if err := bob.Edit(ctx, id, "hijack"); !errors.Is(err, ErrNotSender) {
		t.Errorf("non-sender edit error = %v, want ErrNotSender", err)
	}
	if err := alice.Edit(ctx, id, " "); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("empty edit error = %v, want ErrEmptyBody", err)
	}
	if err := alice.Edit(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing edit error = %v, want ErrNotFound", err)
	}
}

func TestDeleteBySender(t *testing.T) {
	f := newFixture(t)
	alice := f.engine(t, "alice", "bob")
	ctx := context.Background()

	id, _ := alice.Send(ctx, Text{Body: "oops"})
	req, err := alice.RequestDelete(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if req.Action != confirm.DeleteMessage {
		t.Errorf("action = %s", req.Action)
	}

	conv, _ := alice.Conversation()
	if f.message(t, conv, id).Deleted {
		t.Fatal("deleted before confirmation")
	}
	if err := f.gate.Resolve(ctx, req.ID, true); err != nil {
		t.Fatal(err)
	}

	m := f.message(t, conv, id)
	if !m.Deleted || m.Body() != DeletedPlaceholder {
		t.Errorf("deleted message = %+v", m)
	}
	raw, _ := f.store.Get(ctx, conv.MessagePath(id)+"/text")
	if raw != DeletedPlaceholder {
		t.Errorf("stored body = %v, want placeholder", raw)
	}

	if err := alice.Edit(ctx, id, "revive"); !errors.Is(err, ErrDeleted) {
		t.Errorf("edit after delete error = %v, want ErrDeleted", err)
	}
	if f.message(t, conv, id).Body() != DeletedPlaceholder {
		t.Error("body changed after delete")
	}

	// A second delete converges to the same state.
	req, _ = alice.RequestDelete(ctx, id)
	if err := f.gate.Resolve(ctx, req.ID, true); err != nil {
		t.Errorf("repeated delete error = %v", err)
	}
}

func TestDeleteImageDropsMedia(t *testing.T) {
	f := newFixture(t)
	alice := f.engine(t, "alice", "bob")
	ctx := context.Background()

	id, _ := alice.Send(ctx, Image{MediaRef: "https://example.com/a.png"})
	req, _ := alice.RequestDelete(ctx, id)
	_ = f.gate.Resolve(ctx, req.ID, true)

	conv, _ := alice.Conversation()
	m := f.message(t, conv, id)
	if m.MediaRef() != "" || m.Body() != DeletedPlaceholder {
		t.Errorf("deleted image = %+v", m)
	}
}

func TestDeleteDeclined(t *testing.T) {
	f := newFixture(t)
	alice := f.engine(t, "alice", "bob")
	ctx := context.Background()

	id, _ := alice.Send(ctx, Text{Body: "keep"})
	req, _ := alice.RequestDelete(ctx, id)
	if err := f.gate.Resolve(ctx, req.ID, false); err != nil {
		t.Fatal(err)
	}
	conv, _ := alice.Conversation()
	if f.message(t, conv, id).Deleted {
		t.Error("message deleted after decline")
	}
}

func TestDeleteByNonSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.engine(t, "alice", "bob")
	bob := f.engine(t, "bob", "alice")
	id, _ := alice.Send(ctx, Text{Body: "direct"})
	if _, err := bob.RequestDelete(ctx, id); !errors.Is(err, ErrNotSender) {
		t.Errorf("direct non-sender delete error = %v, want ErrNotSender", err)
	}

	aliceG := f.engine(t, "alice", address.GlobalFeed)
	bobG := f.engine(t, "bob", address.GlobalFeed)
	gid, _ := aliceG.Send(ctx, Text{Body: "broadcast"})

	hidden := 0
	bobG.OnHidden(func() { hidden++ })
	req, err := bobG.RequestDelete(ctx, gid)
	if err != nil {
		t.Fatal(err)
	}
	if req.Action != confirm.HideMessage {
		t.Errorf("action = %s, want %s", req.Action, confirm.HideMessage)
	}
	if err := f.gate.Resolve(ctx, req.ID, true); err != nil {
		t.Fatal(err)
	}
	if hidden != 1 {
		t.Errorf("OnHidden calls = %d", hidden)
	}

	conv, _ := bobG.Conversation()
	all := f.messages(t, conv)
	if len(all) != 1 || all[0].Deleted {
		t.Fatalf("shared record changed by local hide: %+v", all)
	}
	if got := bobG.Visible(conv, all); len(got) != 0 {
		t.Errorf("bob still sees hidden message: %+v", got)
	}
	if got := aliceG.Visible(conv, all); len(got) != 1 {
		t.Errorf("alice lost her message: %+v", got)
	}
}

func TestFavoritesFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.engine(t, "alice", address.Favorites)
	alice.cfg.Friends = friendSet{"bob": true}

	for _, who := range []string{"alice", "bob", "mallory"} {
		e := f.engine(t, who, address.Favorites)
		if _, err := e.Send(ctx, Text{Body: "from " + who}); err != nil {
			t.Fatal(err)
		}
	}
	conv, _ := alice.Conversation()
	got := alice.Visible(conv, f.messages(t, conv))
	if len(got) != 2 {
		t.Fatalf("visible = %+v", got)
	}
	for _, m := range got {
		if m.SenderID == "mallory" {
			t.Error("non-friend post visible in favorites")
		}
	}
}

func TestToggleReactionTwiceRestores(t *testing.T) {
	f := newFixture(t)
	alice := f.engine(t, "alice", "bob")
	ctx := context.Background()

	id, _ := alice.Send(ctx, Text{Body: "react to me"})
	conv, _ := alice.Conversation()
	before := f.message(t, conv, id).Reactions

	added, err := alice.ToggleReaction(ctx, id, "👍")
	if err != nil || !added {
		t.Fatalf("first toggle = %v, %v", added, err)
	}
	if !f.message(t, conv, id).ReactedBy("👍", "alice") {
		t.Error("reaction not recorded")
	}

	added, err = alice.ToggleReaction(ctx, id, "👍")
	if err != nil || added {
		t.Fatalf("second toggle = %v, %v", added, err)
	}
	after := f.message(t, conv, id).Reactions
	if len(after) != len(before) {
		t.Errorf("reactions after double toggle = %v, want %v", after, before)
	}
	if v, _ := f.store.Get(ctx, conv.MessagePath(id)+"/reactions"); v != nil {
		t.Errorf("empty emoji key left behind: %v", v)
	}
}

func TestToggleReactionValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.engine(t, "alice", "bob")
	ctx := context.Background()

	if _, err := alice.ToggleReaction(ctx, "missing", "👍"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing message error = %v", err)
	}
	id, _ := alice.Send(ctx, Text{Body: "x"})
	for _, bad := range []string{"", " ", "a/b", "a.b"} {
		if _, err := alice.ToggleReaction(ctx, id, bad); !errors.Is(err, ErrInvalidReaction) {
			t.Errorf("ToggleReaction(%q) error = %v", bad, err)
		}
	}
}

func TestConcurrentReactionsAreAllKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.engine(t, "alice", "bob")
	bob := f.engine(t, "bob", "alice")

	id, _ := alice.Send(ctx, Text{Body: "race"})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, e := range []*Engine{alice, bob} {
		e := e
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := e.ToggleReaction(ctx, id, "❤️"); err != nil {
				t.Error(err)
			}
		}()
	}
	close(start)
	wg.Wait()

	conv, _ := alice.Conversation()
	m := f.message(t, conv, id)
	if !m.ReactedBy("❤️", "alice") || !m.ReactedBy("❤️", "bob") {
		t.Errorf("reactions = %v, want both users", m.Reactions)
	}
}

func TestManyConcurrentTogglers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.engine(t, "alice", address.GlobalFeed)
	id, _ := alice.Send(ctx, Text{Body: "popular"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		e := f.engine(t, "user-"+string(rune('a'+i)), address.GlobalFeed)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.ToggleReaction(ctx, id, "🔥"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	conv, _ := alice.Conversation()
	if got := len(f.message(t, conv, id).Reactions["🔥"]); got != 10 {
		t.Errorf("reactors = %d, want 10", got)
	}
}

func TestReceiptsAreMonotonicAndRecipientOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.engine(t, "alice", "bob")
	bob := f.engine(t, "bob", "alice")

	id, _ := alice.Send(ctx, Text{Body: "hi"})
	conv, _ := alice.Conversation()
	m := f.message(t, conv, id)

	if err := alice.MarkDelivered(ctx, conv, m); !errors.Is(err, ErrOwnReceipt) {
		t.Errorf("sender MarkDelivered error = %v, want ErrOwnReceipt", err)
	}
	if err := bob.MarkDelivered(ctx, conv, m); err != nil {
		t.Fatal(err)
	}
	if err := bob.MarkRead(ctx, conv, m); err != nil {
		t.Fatal(err)
	}
	m = f.message(t, conv, id)
	if !m.Delivered || !m.Read {
		t.Fatalf("receipts = delivered %v read %v", m.Delivered, m.Read)
	}

	// Replaying old snapshots never clears the flags.
	stale := m
	stale.Delivered, stale.Read = false, false
	_ = bob.MarkDelivered(ctx, conv, stale)
	_ = bob.MarkRead(ctx, conv, stale)
	m = f.message(t, conv, id)
	if !m.Delivered || !m.Read {
		t.Errorf("receipts regressed: %+v", m)
	}
}

func TestReceiptOnMissingMessageIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.engine(t, "bob", "alice")
	conv, _ := bob.Conversation()

	ghost := Message{ID: "gone", SenderID: "alice"}
	if err := bob.MarkDelivered(ctx, conv, ghost); err != nil {
		t.Fatal(err)
	}
	if v, _ := f.store.Get(ctx, conv.MessagePath("gone")); v != nil {
		t.Errorf("receipt resurrected message: %v", v)
	}
}
