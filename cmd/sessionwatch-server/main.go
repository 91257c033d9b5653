// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jwtor7/sessionwatch/lib/clock"
	"github.com/jwtor7/sessionwatch/lib/config"
	"github.com/jwtor7/sessionwatch/lib/process"
	"github.com/jwtor7/sessionwatch/lib/state"
	"github.com/jwtor7/sessionwatch/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("sessionwatch-server", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file (also "+config.EnvVar+")")
	listen := flags.String("listen", "", "listen address override, e.g. :8787")
	logLevel := flags.String("log-level", "info", "log level: debug, info, warn, error")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		version.Print("sessionwatch-server")
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Server.Address = *listen
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()
	engine := state.NewEngine(state.EngineConfig{
		MaxPayloadLen:  cfg.Ingest.MaxPayloadLen,
		FeedBufferSize: cfg.Feed.BufferSize,
		Clock:          clk,
		Logger:         logger.With("component", "engine"),
	})

	if !cfg.Sweep.Disabled {
		go engine.RunSweeper(ctx.Done(), cfg.Sweep.Interval.Std(), cfg.Sweep.PendingMaxAge.Std())
	}

	monitorServer := NewMonitorServer(engine, cfg, clk, logger.With("component", "http"))
	server := NewHTTPServer(cfg.Server.Address, monitorServer.routes(), cfg.Server.ShutdownTimeout.Std(), logger)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	select {
	case <-server.Ready():
		logger.Info("sessionwatch server running", "address", server.Addr().String())
	case err := <-serveDone:
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return <-serveDone
}
