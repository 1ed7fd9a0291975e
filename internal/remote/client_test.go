package remote

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/matheus3301/letschat/internal/api"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type hub struct {
	memory *tree.Memory
	lis    *bufconn.Listener
}

func newHub(t *testing.T, limiter *api.Limiter) *hub {
	t.Helper()
	m := tree.NewMemory()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(api.UnaryInterceptor(limiter, nil, zap.NewNop())),
		grpc.StreamInterceptor(api.StreamInterceptor(nil)),
	)
	api.RegisterTreeServer(srv, api.NewTreeService(m, nil, zap.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		srv.Stop()
		m.Close()
	})
	return &hub{memory: m, lis: lis}
}

func (h *hub) client(t *testing.T, user string) *Client {
	t.Helper()
	c, err := Dial("passthrough:///bufnet", user, zap.NewNop(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return h.lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestReadWrite(t *testing.T) {
	h := newHub(t, nil)
	c := h.client(t, "alice")
	ctx := context.Background()

	if err := c.Set(ctx, "users/alice", map[string]any{"name": "Alice", "online": true}); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(ctx, "users/alice", map[string]any{"friends/bob": true, "online": nil}); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "users/alice")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"name": "Alice", "friends": map[string]any{"bob": true}}
	if !tree.Equal(got, want) {
		t.Errorf("Get = %v, want %v", got, want)
	}

	id, err := c.Push(ctx, "conversations/a_b/messages", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := h.memory.Get(ctx, "conversations/a_b/messages/"+id+"/text"); v != "hi" {
		t.Errorf("pushed text = %v", v)
	}

	if err := c.Remove(ctx, "conversations/a_b"); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Get(ctx, "conversations"); v != nil {
		t.Errorf("conversations after remove = %v", v)
	}
}

func TestCompareAndSwapAndTransaction(t *testing.T) {
	h := newHub(t, nil)
	c := h.client(t, "alice")
	ctx := context.Background()

	ok, err := c.CompareAndSwap(ctx, "counter", nil, 1)
	if err != nil || !ok {
		t.Fatalf("CAS on empty = %v, %v", ok, err)
	}
	ok, err = c.CompareAndSwap(ctx, "counter", 5, 6)
	if err != nil || ok {
		t.Fatalf("stale CAS = %v, %v", ok, err)
	}
	v, err := tree.Transaction(ctx, c, "counter", func(cur any) (any, error) {
		return tree.Int64(cur) + 1, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Int64(v) != 2 {
		t.Errorf("counter = %v, want 2", v)
	}
}

func TestInvalidPath(t *testing.T) {
	h := newHub(t, nil)
	c := h.client(t, "alice")
	if err := c.Set(context.Background(), "users/a.b", true); !errors.Is(err, tree.ErrInvalidPath) {
		t.Errorf("Set error = %v, want ErrInvalidPath", err)
	}
	if _, err := c.Subscribe("a#b", func(tree.Snapshot) {}); !errors.Is(err, tree.ErrInvalidPath) {
		t.Errorf("Subscribe error = %v, want ErrInvalidPath", err)
	}
}

func TestRateLimited(t *testing.T) {
	h := newHub(t, api.NewLimiter(0.001, 2))
	alice := h.client(t, "alice")
	bob := h.client(t, "bob")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := alice.Set(ctx, "x", i); err != nil {
			t.Fatal(err)
		}
	}
	if err := alice.Set(ctx, "x", 3); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third write error = %v, want ErrRateLimited", err)
	}
	if _, err := alice.Get(ctx, "x"); err != nil {
		t.Errorf("reads must not be limited: %v", err)
	}
	if err := bob.Set(ctx, "y", 1); err != nil {
		t.Errorf("bob limited by alice: %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	h := newHub(t, nil)
	c := h.client(t, "alice")
	ctx := context.Background()
	if err := h.memory.Set(ctx, "users/bob/online", true); err != nil {
		t.Fatal(err)
	}

	snaps := make(chan tree.Snapshot, 16)
	unsub, err := c.Subscribe("users/bob", func(s tree.Snapshot) { snaps <- s })
	if err != nil {
		t.Fatal(err)
	}

	first := next(t, snaps)
	if first.Path != "users/bob" || tree.Bool(first.Map()["online"]) != true {
		t.Fatalf("initial snapshot = %+v", first)
	}

	if err := h.memory.Set(ctx, "users/bob/online", false); err != nil {
		t.Fatal(err)
	}
	if s := next(t, snaps); tree.Bool(s.Map()["online"]) {
		t.Errorf("update = %+v", s)
	}

	unsub()
	if err := h.memory.Set(ctx, "users/bob/online", true); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-snaps:
		t.Errorf("callback after unsubscribe: %+v", s)
	case <-time.After(200 * time.Millisecond):
	}
}

func next(t *testing.T, ch <-chan tree.Snapshot) tree.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
		return tree.Snapshot{}
	}
}
