package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/matheus3301/letschat/internal/api"
	"github.com/matheus3301/letschat/internal/metrics"
	"github.com/matheus3301/letschat/internal/profile"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server manages the gRPC and metrics listeners of the hub.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	tcp        net.Listener
	socketPath string
	metrics    *http.Server
	metricsLis net.Listener
	logger     *zap.Logger
}

// NewServer creates a gRPC server bound to the hub's Unix domain socket and,
// when configured, a TCP address and a metrics endpoint.
func NewServer(p Params, logger *zap.Logger, svc *api.TreeService, limiter *api.Limiter, m *metrics.Metrics) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = profile.HubSocketPath()
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	s := &Server{
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}
	if p.ListenAddr != "" {
		if s.tcp, err = net.Listen("tcp", p.ListenAddr); err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("listen tcp: %w", err)
		}
	}
	if p.MetricsAddr != "" {
		if s.metricsLis, err = net.Listen("tcp", p.MetricsAddr); err != nil {
			s.closeListeners()
			return nil, fmt.Errorf("listen metrics: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		s.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(api.UnaryInterceptor(limiter, m, logger)),
		grpc.ChainStreamInterceptor(api.StreamInterceptor(m)),
	)
	api.RegisterTreeServer(s.grpcServer, svc)
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s, nil
}

// SocketPath returns the Unix socket the hub listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins serving. Blocks until the Unix socket listener stops.
func (s *Server) Start() error {
	if s.tcp != nil {
		s.logger.Info("gRPC server listening", zap.String("addr", s.tcp.Addr().String()))
		go func() {
			if err := s.grpcServer.Serve(s.tcp); err != nil {
				s.logger.Error("tcp listener stopped", zap.Error(err))
			}
		}()
	}
	if s.metrics != nil {
		s.logger.Info("metrics listening", zap.String("addr", s.metricsLis.Addr().String()))
		go func() {
			if err := s.metrics.Serve(s.metricsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}
	s.logger.Info("gRPC server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("gRPC server stopping")
	s.health.Shutdown()
	if s.metrics != nil {
		_ = s.metrics.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// Watch streams only end when clients hang up.
		s.grpcServer.Stop()
	}
	_ = os.Remove(s.socketPath)
}

func (s *Server) closeListeners() {
	for _, l := range []net.Listener{s.listener, s.tcp, s.metricsLis} {
		if l != nil {
			_ = l.Close()
		}
	}
}
