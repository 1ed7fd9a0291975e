package main

import (
	"fmt"
	"os"

	"github.com/matheus3301/letschat/internal/config"
	"github.com/matheus3301/letschat/internal/daemon"
	"github.com/matheus3301/letschat/internal/profile"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

func main() {
	if err := config.LoadEnv(profile.EnvPath()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()

	flags := pflag.NewFlagSet("lchatd", pflag.ExitOnError)
	socket := flags.String("socket", cfg.HubSocket, "Unix socket to serve on (default ~/.letschat/hub/hub.sock)")
	listen := flags.String("listen", cfg.HubListen, "additional TCP address to serve on")
	metricsAddr := flags.String("metrics", cfg.MetricsListen, "address of the Prometheus /metrics endpoint")
	rate := flags.Float64("write-rate", cfg.WriteRate, "writes per second admitted per user (0 disables limiting)")
	burst := flags.Int("write-burst", cfg.WriteBurst, "write burst admitted per user")
	quiet := flags.BoolP("quiet", "q", false, "log to the hub log file only")
	_ = flags.Parse(os.Args[1:])

	app := fx.New(
		daemon.Module(daemon.Params{
			SocketPath:  *socket,
			ListenAddr:  *listen,
			MetricsAddr: *metricsAddr,
			WriteRate:   *rate,
			WriteBurst:  *burst,
			Console:     !*quiet,
		}),
		fx.NopLogger,
	)

	app.Run()
}
