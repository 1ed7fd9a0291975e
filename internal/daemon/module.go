package daemon

import (
	"context"
	"time"

	"github.com/matheus3301/letschat/internal/api"
	"github.com/matheus3301/letschat/internal/lock"
	"github.com/matheus3301/letschat/internal/logging"
	"github.com/matheus3301/letschat/internal/metrics"
	"github.com/matheus3301/letschat/internal/profile"
	"github.com/matheus3301/letschat/internal/store"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved hub configuration passed to the fx module.
type Params struct {
	SocketPath  string // empty = profile.HubSocketPath()
	ListenAddr  string // optional TCP listen address
	MetricsAddr string // optional Prometheus listen address
	WriteRate   float64
	WriteBurst  int
	Console     bool
}

// Module returns the fx module for the hub, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("hub",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideLock,
			provideStore,
			provideMetrics,
			provideTree,
			provideLimiter,
			provideTreeService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.HubLogPath(), "lchatd", "hub", p.Console)
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureHubDir(); err != nil {
		return nil, err
	}
	logger.Info("acquiring hub lock", zap.String("dir", profile.HubDir()))
	l, err := lock.Acquire(profile.HubDir(), "lchatd")
	if err != nil {
		return nil, err
	}
	logger.Info("hub lock acquired")
	return l, nil
}

// provideStore takes the lock as a dependency so the journal is never opened
// by two hubs.
func provideStore(_ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.HubDBPath()
	db, result, err := store.OpenMigrated(dbPath)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideMetrics(db *store.DB) *metrics.Metrics {
	return metrics.New(func() float64 {
		n, err := db.NodeCount()
		if err != nil {
			return 0
		}
		return float64(n)
	})
}

func provideTree(db *store.DB, m *metrics.Metrics, logger *zap.Logger) (*tree.Memory, error) {
	root, err := db.LoadTree()
	if err != nil {
		return nil, err
	}
	logger.Info("tree loaded", zap.Int("top_level_keys", len(root)))
	return tree.NewMemory(tree.WithRoot(root), tree.WithJournal(m.Journal(db))), nil
}

func provideLimiter(p Params) *api.Limiter {
	return api.NewLimiter(p.WriteRate, p.WriteBurst)
}

func provideTreeService(t *tree.Memory, m *metrics.Metrics, logger *zap.Logger) *api.TreeService {
	return api.NewTreeService(t, m, logger.Named("tree"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, t *tree.Memory, limiter *api.Limiter, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go limiter.Run(time.Minute)

			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			limiter.Shutdown()
			t.Close()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("hub stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
