// Package remote implements tree.Store against a hub over gRPC.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/letschat/internal/api"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	// ErrRateLimited is returned when the hub rejects a write for exceeding
	// the per-user rate.
	ErrRateLimited = errors.New("hub write rate exceeded")
	// ErrUnavailable is returned when the hub cannot be reached.
	ErrUnavailable = errors.New("hub unavailable")
)

// watchRetry is the pause before a broken Watch stream is reopened.
const watchRetry = time.Second

// Client is a tree.Store backed by a hub connection.
type Client struct {
	conn     *grpc.ClientConn
	user     string
	logger   *zap.Logger
	dispatch *tree.Dispatcher

	mu      sync.Mutex
	watches map[int]context.CancelFunc
	next    int
	closed  bool
}

var _ tree.Store = (*Client)(nil)

// Dial connects to the hub at target ("unix:///path/hub.sock" or
// "host:port") on behalf of user.
func Dial(target, user string, logger *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial hub: %w", err)
	}
	return New(conn, user, logger), nil
}

// New wraps an existing connection. The client owns conn from now on.
func New(conn *grpc.ClientConn, user string, logger *zap.Logger) *Client {
	return &Client{
		conn:     conn,
		user:     user,
		logger:   logger,
		dispatch: tree.NewDispatcher(),
		watches:  make(map[int]context.CancelFunc),
	}
}

// Close cancels every watch and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	watches := c.watches
	c.watches = map[int]context.CancelFunc{}
	c.mu.Unlock()
	for _, cancel := range watches {
		cancel()
	}
	c.dispatch.Close()
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, api.UserHeader, c.user)
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if err := c.conn.Invoke(c.outgoing(ctx), method, req, resp); err != nil {
		return fromStatus(err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string) (any, error) {
	out := new(structpb.Value)
	if err := c.invoke(ctx, api.MethodGet, wrapperspb.String(path), out); err != nil {
		return nil, err
	}
	return api.DecodeValue(out), nil
}

func (c *Client) Set(ctx context.Context, path string, value any) error {
	req, err := api.NewWriteRequest(path, value)
	if err != nil {
		return err
	}
	return c.invoke(ctx, api.MethodSet, req, new(emptypb.Empty))
}

func (c *Client) Update(ctx context.Context, path string, children map[string]any) error {
	req, err := api.NewUpdateRequest(path, children)
	if err != nil {
		return err
	}
	return c.invoke(ctx, api.MethodUpdate, req, new(emptypb.Empty))
}

func (c *Client) Push(ctx context.Context, path string, value any) (string, error) {
	req, err := api.NewWriteRequest(path, value)
	if err != nil {
		return "", err
	}
	out := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, api.MethodPush, req, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) Remove(ctx context.Context, path string) error {
	return c.invoke(ctx, api.MethodRemove, wrapperspb.String(path), new(emptypb.Empty))
}

func (c *Client) CompareAndSwap(ctx context.Context, path string, expected, next any) (bool, error) {
	req, err := api.NewCASRequest(path, expected, next)
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, api.MethodCompareAndSwap, req, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Subscribe opens a Watch stream for path. Callbacks of one client run one
// at a time on a shared dispatcher. A broken stream is reopened until the
// listener is detached; the hub resends the current value on every reopen.
func (c *Client) Subscribe(path string, fn func(tree.Snapshot)) (func(), error) {
	segs, err := tree.Split(path)
	if err != nil {
		return nil, err
	}
	path = tree.Join(segs...)

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return nil, ErrUnavailable
	}
	id := c.next
	c.next++
	c.watches[id] = cancel
	c.mu.Unlock()

	var detached atomic.Bool
	deliver := func(v any) {
		snap := tree.Snapshot{Path: path, Value: v}
		c.dispatch.Submit(func() {
			if detached.Load() {
				return
			}
			fn(snap)
		})
	}
	go c.watch(ctx, path, deliver)

	return func() {
		detached.Store(true)
		cancel()
		c.mu.Lock()
		delete(c.watches, id)
		c.mu.Unlock()
	}, nil
}

func (c *Client) watch(ctx context.Context, path string, deliver func(any)) {
	desc := &api.TreeServiceDesc.Streams[0]
	for {
		err := c.stream(ctx, desc, path, deliver)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("watch interrupted, reopening", zap.String("path", path), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetry):
		}
	}
}

func (c *Client) stream(ctx context.Context, desc *grpc.StreamDesc, path string, deliver func(any)) error {
	s, err := c.conn.NewStream(c.outgoing(ctx), desc, api.MethodWatch)
	if err != nil {
		return fromStatus(err)
	}
	if err := s.SendMsg(wrapperspb.String(path)); err != nil {
		return fromStatus(err)
	}
	if err := s.CloseSend(); err != nil {
		return fromStatus(err)
	}
	for {
		msg := new(structpb.Value)
		if err := s.RecvMsg(msg); err != nil {
			return fromStatus(err)
		}
		deliver(api.DecodeValue(msg))
	}
}

// fromStatus maps gRPC status errors back to store errors.
func fromStatus(err error) error {
	st, ok := grpcstatus.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", tree.ErrInvalidPath, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrRateLimited, st.Message())
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}
