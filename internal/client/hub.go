package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ProbeHub checks if a hub is running and healthy on the socket.
func ProbeHub(socketPath string) bool {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

// EnsureHub starts lchatd in the background when no hub answers on socketPath.
func EnsureHub(socketPath string, logger *zap.Logger) error {
	if ProbeHub(socketPath) {
		return nil
	}
	logger.Info("hub not running, starting", zap.String("socket", socketPath))
	if err := startHub(socketPath); err != nil {
		return fmt.Errorf("start hub: %w", err)
	}
	if !waitForHub(socketPath, 10*time.Second) {
		return fmt.Errorf("hub did not become ready on %s", socketPath)
	}
	return nil
}

func startHub(socketPath string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	lchatd := filepath.Join(filepath.Dir(executable), "lchatd")
	if _, err := os.Stat(lchatd); err != nil {
		lchatd = "lchatd"
	}

	cmd := exec.Command(lchatd, "--socket", socketPath, "--quiet")
	// Inherit stderr so hub startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForHub polls the hub with a real health check, not just a socket connect.
func waitForHub(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ProbeHub(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
