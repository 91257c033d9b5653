// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"testing"
	"time"
)

var sessionEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestStartDerivesDisplayName(t *testing.T) {
	registry := NewSessionRegistry()
	session := registry.Start("S1", "/home/dev/projects/widget", sessionEpoch)

	if session.DisplayName != "widget" {
		t.Fatalf("DisplayName = %q, want %q", session.DisplayName, "widget")
	}
	if session.Status != SessionOpen {
		t.Fatalf("Status = %q, want open", session.Status)
	}
}

func TestRepeatedStartIsIdempotentByIdentifier(t *testing.T) {
	registry := NewSessionRegistry()
	registry.Start("S1", "/a", sessionEpoch)
	registry.Start("S1", "/b", sessionEpoch.Add(time.Minute))

	if len(registry.All()) != 1 {
		t.Fatalf("registry holds %d sessions, want 1", len(registry.All()))
	}
	session, _ := registry.Get("S1")
	if session.WorkingDirectory != "/b" {
		t.Fatalf("WorkingDirectory = %q, want the retry's value", session.WorkingDirectory)
	}
}

func TestCloseRetainsSession(t *testing.T) {
	registry := NewSessionRegistry()
	registry.Start("S1", "/w", sessionEpoch)
	session, known := registry.Close("S1", sessionEpoch.Add(time.Hour))

	if !known {
		t.Fatal("Close reported unknown for a started session")
	}
	if session.Status != SessionClosed {
		t.Fatalf("Status = %q, want closed", session.Status)
	}
	if _, ok := registry.Get("S1"); !ok {
		t.Fatal("closed session was deleted")
	}
}

func TestCloseUnknownSessionMaterializesStub(t *testing.T) {
	registry := NewSessionRegistry()
	session, known := registry.Close("ghost", sessionEpoch)

	if known {
		t.Fatal("Close reported known for a never-started session")
	}
	if session.Status != SessionClosed || session.ID != "ghost" {
		t.Fatalf("stub = %+v", session)
	}
}

func TestAppendThinking(t *testing.T) {
	registry := NewSessionRegistry()
	registry.Start("S1", "/w", sessionEpoch)

	record, created := registry.AppendThinking("S1", sessionEpoch.Add(time.Second), "hmm")
	if created != nil {
		t.Fatal("stub created for a known session")
	}
	if record.Content != "hmm" {
		t.Fatalf("record = %+v", record)
	}

	session, _ := registry.Get("S1")
	if len(session.Thinking) != 1 {
		t.Fatalf("session holds %d thinking entries, want 1", len(session.Thinking))
	}
}

func TestAppendThinkingBeforeSessionStart(t *testing.T) {
	registry := NewSessionRegistry()
	_, created := registry.AppendThinking("S-early", sessionEpoch, "first thought")

	if created == nil {
		t.Fatal("no stub session for out-of-order thinking")
	}
	if created.Status != SessionOpen {
		t.Fatalf("stub status = %q, want open", created.Status)
	}

	// A later session_start fills in the real working directory.
	session := registry.Start("S-early", "/real", sessionEpoch.Add(time.Second))
	if session.WorkingDirectory != "/real" {
		t.Fatalf("WorkingDirectory = %q after late start", session.WorkingDirectory)
	}
	if len(session.Thinking) != 1 {
		t.Fatal("late start dropped the earlier thinking entry")
	}
}
