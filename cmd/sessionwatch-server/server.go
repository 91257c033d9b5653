// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwtor7/sessionwatch/lib/clock"
	"github.com/jwtor7/sessionwatch/lib/config"
	"github.com/jwtor7/sessionwatch/lib/state"
)

// MonitorServer wires the ingestion endpoints, the stream handler,
// and the engine together. It is an http.Handler via routes().
type MonitorServer struct {
	engine    *state.Engine
	clock     clock.Clock
	logger    *slog.Logger
	startedAt time.Time

	maxBodyBytes int64
	heartbeat    time.Duration
	upgrader     websocket.Upgrader

	// Ingestion counters, read lock-free by the status handler while
	// request handlers write concurrently.
	eventsAccepted atomic.Uint64
	eventsRejected atomic.Uint64
}

// NewMonitorServer creates the server around an engine.
func NewMonitorServer(engine *state.Engine, cfg *config.Config, clk clock.Clock, logger *slog.Logger) *MonitorServer {
	if engine == nil {
		panic("MonitorServer: engine is required")
	}
	if logger == nil {
		panic("MonitorServer: logger is required")
	}
	return &MonitorServer{
		engine:       engine,
		clock:        clk,
		logger:       logger,
		startedAt:    clk.Now(),
		maxBodyBytes: cfg.Ingest.MaxBodyBytes,
		heartbeat:    cfg.Feed.Heartbeat.Std(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The monitoring surface is same-host tooling; there is
			// no cookie-based auth for a cross-origin request to ride.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// routes returns the server's handler.
func (s *MonitorServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/hook", s.handleHook)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// HTTPServer serves HTTP on a TCP listener with graceful shutdown:
// Serve(ctx) blocks until the context is cancelled and in-flight
// requests drain.
type HTTPServer struct {
	address         string
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration

	// ready is closed once the listener is bound.
	ready chan struct{}

	// addr is the resolved listen address, valid after ready closes.
	// Useful when the configured address uses an OS-assigned port.
	addr net.Addr
}

// NewHTTPServer creates a server that will listen on address.
func NewHTTPServer(address string, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) *HTTPServer {
	if address == "" {
		panic("HTTPServer: address is required")
	}
	if handler == nil {
		panic("HTTPServer: handler is required")
	}
	if logger == nil {
		panic("HTTPServer: logger is required")
	}
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServer{
		address:         address,
		handler:         handler,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
		ready:           make(chan struct{}),
	}
}

// Ready returns a channel closed once the server accepts connections.
func (s *HTTPServer) Ready() <-chan struct{} { return s.ready }

// Addr returns the resolved listen address. Valid after Ready closes.
func (s *HTTPServer) Addr() net.Addr { return s.addr }

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully, waiting up to the shutdown timeout for in-flight
// requests. Stream connections are closed by the shutdown deadline.
func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler: s.handler,

		// Event POSTs are small and fast; the generous read/write
		// timeouts exist for the long-lived stream connections,
		// which WebSocket keeps alive with its own heartbeats.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		// Long-lived stream connections do not drain; close them.
		server.Close()
		s.logger.Warn("http server closed with active connections", "error", err)
		return nil
	}

	s.logger.Info("http server stopped")
	return nil
}
