// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwtor7/sessionwatch/lib/state"
)

// streamWriteTimeout bounds a single WebSocket write. A consumer that
// cannot absorb one frame in this window is as good as gone.
const streamWriteTimeout = 10 * time.Second

// streamFrame is the JSON frame sent to stream clients.
//
// Wire protocol after upgrade:
//
//	Server → Client: {type:"snapshot", snapshot:{...}}   (once, first)
//	Server → Client: {type:"change", change:{...}}       (apply order)
//	Server → Client: {type:"heartbeat"}                  (periodic)
//	Server → Client: {type:"stale"}                      (terminal)
//
// After "stale" the server closes the connection; the client missed
// at least one change and must reconnect for a fresh snapshot.
type streamFrame struct {
	Type     string          `json:"type"`
	Snapshot *state.Snapshot `json:"snapshot,omitempty"`
	Change   *state.Change   `json:"change,omitempty"`
}

// handleStream upgrades to WebSocket and serves the snapshot plus
// live change stream. The subscriber is registered atomically with
// the snapshot read, so the first change frame follows the snapshot
// with no gap and no overlap.
func (s *MonitorServer) handleStream(writer http.ResponseWriter, request *http.Request) {
	conn, err := s.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Debug("stream: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	snapshot, subscriber := s.engine.Subscribe()
	defer subscriber.Close()

	logger := s.logger.With("subscriber", subscriber.ID())
	logger.Info("stream started", "remote_addr", request.RemoteAddr)
	defer logger.Info("stream ended")

	if err := writeFrame(conn, streamFrame{Type: "snapshot", Snapshot: &snapshot}); err != nil {
		logger.Debug("stream: failed to write snapshot", "error", err)
		return
	}

	// Reader goroutine: the client sends nothing meaningful, but the
	// read pump is what notices a closed connection.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := s.clock.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case change := <-subscriber.Events():
			if err := writeFrame(conn, streamFrame{Type: "change", Change: &change}); err != nil {
				logger.Debug("stream: failed to write change", "error", err)
				return
			}

		case <-heartbeat.C:
			if err := writeFrame(conn, streamFrame{Type: "heartbeat"}); err != nil {
				logger.Debug("stream: failed to write heartbeat", "error", err)
				return
			}

		case <-subscriber.Stale():
			// Drain nothing: after a gap the queued suffix would
			// present an inconsistent view.
			logger.Warn("stream: subscriber fell behind, closing")
			writeFrame(conn, streamFrame{Type: "stale"})
			return

		case <-clientGone:
			return

		case <-request.Context().Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, frame streamFrame) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(frame)
}
