// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"path/filepath"
	"time"
)

// unknownWorkingDirectory labels sessions materialized from events
// that arrived before (or without) their session_start.
const unknownWorkingDirectory = "(unknown)"

// SessionRegistry tracks top-level work sessions, keyed by the
// producer-assigned session identifier. Not safe for concurrent use;
// the engine serializes access.
type SessionRegistry struct {
	sessions map[string]*Session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Start creates or refreshes the session. A repeated session_start is
// assumed to be a producer retry: the second event's data wins, and a
// previously closed session reopens.
func (r *SessionRegistry) Start(id, workingDirectory string, at time.Time) Session {
	session := r.sessions[id]
	if session == nil {
		session = &Session{ID: id}
		r.sessions[id] = session
	}
	session.WorkingDirectory = workingDirectory
	session.DisplayName = displayNameFor(workingDirectory)
	session.StartedAt = at
	session.Status = SessionOpen
	return *session
}

// Close marks the session closed. A close for an unknown session is a
// referential gap, not an error: a stub record is materialized so the
// stop is never lost.
func (r *SessionRegistry) Close(id string, at time.Time) (Session, bool) {
	session := r.sessions[id]
	known := session != nil
	if session == nil {
		session = &Session{
			ID:               id,
			WorkingDirectory: unknownWorkingDirectory,
			DisplayName:      unknownWorkingDirectory,
			StartedAt:        at,
		}
		r.sessions[id] = session
	}
	session.Status = SessionClosed
	return *session, known
}

// AppendThinking appends one thinking step to the session's log,
// materializing a stub session when the thinking event outran its
// session_start. The returned session pointer is non-nil only when a
// stub was created, so the caller can publish the new session first.
func (r *SessionRegistry) AppendThinking(sessionID string, at time.Time, content string) (ThinkingRecord, *Session) {
	session := r.sessions[sessionID]
	var created *Session
	if session == nil {
		session = &Session{
			ID:               sessionID,
			WorkingDirectory: unknownWorkingDirectory,
			DisplayName:      unknownWorkingDirectory,
			StartedAt:        at,
			Status:           SessionOpen,
		}
		r.sessions[sessionID] = session
		stub := *session
		created = &stub
	}

	session.Thinking = append(session.Thinking, ThinkingEntry{Timestamp: at, Content: content})
	return ThinkingRecord{SessionID: sessionID, Timestamp: at, Content: content}, created
}

// Get returns a copy of the session, if known.
func (r *SessionRegistry) Get(id string) (Session, bool) {
	session, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// All returns copies of every session. Ordering is up to the caller.
func (r *SessionRegistry) All() []Session {
	sessions := make([]Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, *session)
	}
	return sessions
}

// displayNameFor derives a human label from a working directory: the
// final path element, or the path itself when it has no structure.
func displayNameFor(workingDirectory string) string {
	if workingDirectory == "" {
		return unknownWorkingDirectory
	}
	base := filepath.Base(workingDirectory)
	if base == "." || base == string(filepath.Separator) {
		return workingDirectory
	}
	return base
}
