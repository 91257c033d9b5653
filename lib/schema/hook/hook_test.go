// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"strings"
	"testing"
	"time"

	"github.com/jwtor7/sessionwatch/lib/schema/monitor"
)

var hookTestNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestUnknownHookTypeRejected(t *testing.T) {
	for _, hookType := range []string{"pretooluse", "PRETOOLUSE", "PreToolUse ", "Notify", ""} {
		_, err := ParsePayload([]byte(`{"hook_type":"` + hookType + `","session_id":"S1"}`))
		if err == nil {
			t.Fatalf("accepted hook_type %q", hookType)
		}
	}
}

func TestUnknownHookTypeErrorNamesType(t *testing.T) {
	_, err := ParsePayload([]byte(`{"hook_type":"Stop","session_id":"S1"}`))
	if err == nil || !strings.Contains(err.Error(), `unknown hook type "Stop"`) {
		t.Fatalf("err = %v, want unknown hook type", err)
	}
}

func TestKnownHookTypesAccepted(t *testing.T) {
	for _, hookType := range []Type{PreToolUse, PostToolUse, SubagentStart, SubagentStop, SessionStart, SessionStop} {
		if !hookType.IsKnown() {
			t.Fatalf("%s not known", hookType)
		}
	}
}

func TestPerTypeRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "missing session_id",
			payload: `{"hook_type":"SessionStart"}`,
			want:    "session_id is required",
		},
		{
			name:    "PreToolUse without tool_name",
			payload: `{"hook_type":"PreToolUse","session_id":"S1","tool_call_id":"T1"}`,
			want:    "tool_name is required",
		},
		{
			name:    "PostToolUse without tool_call_id",
			payload: `{"hook_type":"PostToolUse","session_id":"S1","tool_name":"Bash"}`,
			want:    "tool_call_id is required",
		},
		{
			name:    "SubagentStart without identifier",
			payload: `{"hook_type":"SubagentStart","session_id":"S1","agent_name":"researcher"}`,
			want:    "one of subagent_id or agent_id is required",
		},
		{
			name:    "bad decision",
			payload: `{"hook_type":"SessionStop","session_id":"S1","decision":"veto"}`,
			want:    "decision must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload([]byte(tt.payload))
			if err == nil {
				t.Fatal("payload accepted")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestTranslatePreToolUse(t *testing.T) {
	payload, err := ParsePayload([]byte(`{
		"hook_type": "PreToolUse",
		"session_id": "S1",
		"tool_name": "Bash",
		"tool_call_id": "T9",
		"tool_input": {"command": "ls"},
		"decision": "allow",
		"hook_name": "policy-gate"
	}`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}

	events := payload.Translate(hookTestNow)
	if len(events) != 2 {
		t.Fatalf("Translate produced %d events, want 2", len(events))
	}
	if events[0].Kind != monitor.KindToolStart {
		t.Fatalf("events[0].Kind = %q, want tool_start", events[0].Kind)
	}
	if events[0].ToolStart.ToolCallID != "T9" {
		t.Fatalf("tool_start call id = %q", events[0].ToolStart.ToolCallID)
	}
	if events[1].Kind != monitor.KindHookExecution {
		t.Fatalf("events[1].Kind = %q, want hook_execution", events[1].Kind)
	}
	if events[1].HookExecution.HookName != "policy-gate" {
		t.Fatalf("hook name = %q", events[1].HookExecution.HookName)
	}

	// Translated events must pass monitor validation so the engine
	// can apply them without a second check.
	for i, event := range events {
		var v interface{ Validate() error }
		switch event.Kind {
		case monitor.KindToolStart:
			v = event.ToolStart
		case monitor.KindHookExecution:
			v = event.HookExecution
		}
		if err := v.Validate(); err != nil {
			t.Fatalf("translated event %d invalid: %v", i, err)
		}
	}
}

func TestTranslatePostToolUseWithoutDecision(t *testing.T) {
	payload, err := ParsePayload([]byte(`{
		"hook_type": "PostToolUse",
		"session_id": "S1",
		"tool_name": "Bash",
		"tool_call_id": "T9",
		"tool_response": "done",
		"duration_ms": 45
	}`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}

	events := payload.Translate(hookTestNow)
	if len(events) != 1 {
		t.Fatalf("Translate produced %d events, want 1 (no verdict, no hook record)", len(events))
	}
	if events[0].Kind != monitor.KindToolEnd {
		t.Fatalf("Kind = %q, want tool_end", events[0].Kind)
	}
	if events[0].ToolEnd.DurationMs == nil || *events[0].ToolEnd.DurationMs != 45 {
		t.Fatalf("DurationMs = %v, want 45", events[0].ToolEnd.DurationMs)
	}
}

func TestTranslateSessionStopYieldsHookExecution(t *testing.T) {
	payload, err := ParsePayload([]byte(`{"hook_type":"SessionStop","session_id":"S1"}`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	events := payload.Translate(hookTestNow)
	if len(events) != 1 || events[0].Kind != monitor.KindHookExecution {
		t.Fatalf("events = %+v, want one hook_execution", events)
	}
	record := events[0].HookExecution
	if record.HookType != "SessionStop" || record.Decision != monitor.DecisionAllow {
		t.Fatalf("record = %+v", record)
	}
	if record.Timestamp == "" {
		t.Fatal("timestamp not stamped from now")
	}
}

func TestTranslateSubagentStartPrefersSubagentID(t *testing.T) {
	payload, err := ParsePayload([]byte(`{"hook_type":"SubagentStart","session_id":"S1","subagent_id":"sub-1","agent_id":"alt-1","agent_name":"scout"}`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	events := payload.Translate(hookTestNow)
	if len(events) != 1 || events[0].Kind != monitor.KindAgentStart {
		t.Fatalf("events = %+v, want one agent_start", events)
	}
	if got := events[0].AgentStart.AgentID; got != "sub-1" {
		t.Fatalf("AgentID = %q, want sub-1", got)
	}
}
