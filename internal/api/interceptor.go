package api

import (
	"context"
	"path"

	"github.com/matheus3301/letschat/internal/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
)

// UserHeader carries the calling user id. Writes are rate limited per value.
const UserHeader = "x-letschat-user"

const anonymous = "anonymous"

var writeMethods = map[string]bool{
	MethodSet:            true,
	MethodUpdate:         true,
	MethodPush:           true,
	MethodRemove:         true,
	MethodCompareAndSwap: true,
}

// UserFromContext returns the user id sent in the request metadata.
func UserFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return anonymous
	}
	if v := md.Get(UserHeader); len(v) > 0 && v[0] != "" {
		return v[0]
	}
	return anonymous
}

// UnaryInterceptor applies the write limiter and records per-method metrics.
// l and m may be nil.
func UnaryInterceptor(l *Limiter, m *metrics.Metrics, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		method := path.Base(info.FullMethod)
		if l != nil && writeMethods[info.FullMethod] {
			user := UserFromContext(ctx)
			if !l.Allow(user) {
				logger.Warn("write rate exceeded", zap.String("user", user), zap.String("method", method))
				m.ObserveLimited(method)
				m.ObserveOp(method, codes.ResourceExhausted.String())
				return nil, grpcstatus.Errorf(codes.ResourceExhausted, "write rate exceeded for %s", user)
			}
		}
		resp, err := handler(ctx, req)
		m.ObserveOp(method, grpcstatus.Code(err).String())
		return resp, err
	}
}

// StreamInterceptor records per-method metrics for streams.
func StreamInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		m.ObserveOp(path.Base(info.FullMethod), grpcstatus.Code(err).String())
		return err
	}
}
