package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"tracehub/internal/agent"
	"tracehub/pkg/config"
	"tracehub/pkg/logger"
)

var configPath = flag.String("config", "", "path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.FatalCtx(nil, "failed to load config: %v", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		logger.FatalCtx(nil, "failed to initialize logger: %v", err)
	}
	if cfg.Agent.ServerURL == "" {
		logger.FatalCtx(nil, "agent.server_url is required")
	}
	if cfg.Agent.HostKey == "" {
		logger.FatalCtx(nil, "agent.host_key is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.InfoCtx(ctx, "Received exit signal: %v", sig)
		cancel()
	}()

	a := agent.New(&cfg.Agent)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorCtx(ctx, "agent stopped: %v", err)
		logger.Sync()
		os.Exit(1)
	}

	logger.InfoCtx(ctx, "agent exited")
	logger.Sync()
}
