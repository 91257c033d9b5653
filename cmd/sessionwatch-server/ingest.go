// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jwtor7/sessionwatch/lib/schema/hook"
	"github.com/jwtor7/sessionwatch/lib/schema/monitor"
)

// handleEvents ingests one wire event per POST. Validation failures
// are local to the single event: a 400 names the offending field and
// nothing is partially applied.
func (s *MonitorServer) handleEvents(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(request.Body, s.maxBodyBytes))
	if err != nil {
		s.logger.Error("events: failed to read body", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}
	if len(body) == 0 {
		s.eventsRejected.Add(1)
		http.Error(writer, "empty body", http.StatusBadRequest)
		return
	}

	event, err := monitor.Parse(body)
	if err != nil {
		s.eventsRejected.Add(1)
		s.logger.Warn("events: rejected", "error", err)
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.engine.Apply(event); err != nil {
		// Only reachable through a handler bug: Parse guarantees the
		// payload pointer matches the kind.
		s.logger.Error("events: apply failed", "kind", event.Kind, "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}

	s.eventsAccepted.Add(1)
	s.logger.Debug("event accepted", "kind", event.Kind)
	writer.WriteHeader(http.StatusNoContent)
}

// handleHook ingests the raw payload shape posted by hook scripts,
// validating it against the strict case-sensitive hook-type
// enumeration and reshaping it into wire events.
func (s *MonitorServer) handleHook(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(request.Body, s.maxBodyBytes))
	if err != nil {
		s.logger.Error("hook: failed to read body", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}

	payload, err := hook.ParsePayload(body)
	if err != nil {
		s.eventsRejected.Add(1)
		s.logger.Warn("hook: rejected", "error", err)
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	for _, event := range payload.Translate(s.clock.Now()) {
		event := event
		if err := s.engine.Apply(&event); err != nil {
			s.logger.Error("hook: apply failed", "kind", event.Kind, "error", err)
			http.Error(writer, "", http.StatusInternalServerError)
			return
		}
	}

	s.eventsAccepted.Add(1)
	s.logger.Debug("hook payload accepted", "hook_type", payload.HookType)
	writer.WriteHeader(http.StatusNoContent)
}

// statusResponse is the /status body. Aggregate operational counters
// only — no session content, identifiers, or topology.
type statusResponse struct {
	EventsAccepted uint64  `json:"eventsAccepted"`
	EventsRejected uint64  `json:"eventsRejected"`
	Subscribers    int     `json:"subscribers"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
}

func (s *MonitorServer) handleStatus(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(statusResponse{
		EventsAccepted: s.eventsAccepted.Load(),
		EventsRejected: s.eventsRejected.Load(),
		Subscribers:    s.engine.SubscriberCount(),
		UptimeSeconds:  s.clock.Now().Sub(s.startedAt).Seconds(),
	})
}

// handleHealthz reports process liveness only.
func (s *MonitorServer) handleHealthz(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(writer, "ok\n")
}
