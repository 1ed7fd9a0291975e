package api

import (
	"context"
	"sync"

	"github.com/matheus3301/letschat/internal/metrics"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TreeService serves a tree.Store over gRPC.
type TreeService struct {
	UnimplementedTreeServer

	store   tree.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTreeService creates a service backed by store. m may be nil.
func NewTreeService(store tree.Store, m *metrics.Metrics, logger *zap.Logger) *TreeService {
	return &TreeService{store: store, metrics: m, logger: logger}
}

func (s *TreeService) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Value, error) {
	v, err := s.store.Get(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := EncodeValue(v)
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}

func (s *TreeService) Set(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	r := decodeRequest(req)
	if err := s.store.Set(ctx, r.path, r.value); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *TreeService) Update(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	r := decodeRequest(req)
	if err := s.store.Update(ctx, r.path, r.children); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *TreeService) Push(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	r := decodeRequest(req)
	id, err := s.store.Push(ctx, r.path, r.value)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(id), nil
}

func (s *TreeService) Remove(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.store.Remove(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *TreeService) CompareAndSwap(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	r := decodeRequest(req)
	ok, err := s.store.CompareAndSwap(ctx, r.path, r.expected, r.value)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}

// Watch streams the value at the requested path: the current value first,
// then one message per change. A slow reader only ever receives the latest
// value; intermediate ones are skipped.
func (s *TreeService) Watch(req *wrapperspb.StringValue, stream grpc.ServerStream) error {
	path := req.GetValue()

	var (
		mu     sync.Mutex
		latest any
		dirty  bool
	)
	wake := make(chan struct{}, 1)
	unsub, err := s.store.Subscribe(path, func(snap tree.Snapshot) {
		mu.Lock()
		latest, dirty = snap.Value, true
		mu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return toStatus(err)
	}
	defer unsub()

	s.metrics.WatchStarted()
	defer s.metrics.WatchEnded()
	s.logger.Debug("watch opened", zap.String("path", path))
	defer s.logger.Debug("watch closed", zap.String("path", path))

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
		}
		mu.Lock()
		v, send := latest, dirty
		dirty = false
		mu.Unlock()
		if !send {
			continue
		}
		msg, err := EncodeValue(v)
		if err != nil {
			return toStatus(err)
		}
		if err := stream.SendMsg(msg); err != nil {
			return err
		}
	}
}
