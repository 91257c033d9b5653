// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package hook defines the raw payload shape posted by the policy
// hook scripts themselves, before it is reshaped into monitor events.
// This boundary is stricter than the monitor event boundary: the
// fields are snake_case, and the hook type must be one of an exact
// case-sensitive enumeration — anything else is an "unknown hook
// type" error, so a misconfigured hook script fails loudly at its
// very first POST instead of polluting the stores.
package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwtor7/sessionwatch/lib/schema/monitor"
)

// Type is a hook lifecycle point. The enumeration is closed and
// case-sensitive: "pretooluse" is not a hook type.
type Type string

const (
	PreToolUse    Type = "PreToolUse"
	PostToolUse   Type = "PostToolUse"
	SubagentStart Type = "SubagentStart"
	SubagentStop  Type = "SubagentStop"
	SessionStart  Type = "SessionStart"
	SessionStop   Type = "SessionStop"
)

// IsKnown reports whether t is one of the enumerated hook types.
func (t Type) IsKnown() bool {
	switch t {
	case PreToolUse, PostToolUse, SubagentStart, SubagentStop, SessionStart, SessionStop:
		return true
	}
	return false
}

// Payload is the raw hook script POST body. Only hook_type and
// session_id are required for every type; the rest depends on the
// lifecycle point (see Validate).
type Payload struct {
	HookType  string `json:"hook_type"`
	SessionID string `json:"session_id"`

	// Timestamp is optional; hook scripts usually do not stamp their
	// payloads, so the server fills in arrival time.
	Timestamp string `json:"timestamp,omitempty"`

	// Cwd is the session working directory, present on SessionStart.
	Cwd string `json:"cwd,omitempty"`

	// Tool fields, present on PreToolUse/PostToolUse.
	ToolName     string `json:"tool_name,omitempty"`
	ToolCallID   string `json:"tool_call_id,omitempty"`
	ToolInput    any    `json:"tool_input,omitempty"`
	ToolResponse any    `json:"tool_response,omitempty"`
	DurationMs   *int64 `json:"duration_ms,omitempty"`

	// Agent fields, present on SubagentStart/SubagentStop. Producers
	// disagree on the identifier field name; either is accepted.
	SubagentID string `json:"subagent_id,omitempty"`
	AgentID    string `json:"agent_id,omitempty"`
	AgentName  string `json:"agent_name,omitempty"`

	// Policy verdict fields. Decision is empty when the hook made no
	// allow/deny call (a pure observation hook).
	Decision string `json:"decision,omitempty"`
	HookName string `json:"hook_name,omitempty"`
	Output   any    `json:"output,omitempty"`
}

// ParsePayload decodes and validates one raw hook POST body.
func ParsePayload(data []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("hook payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Validate checks the payload against the per-type field rules.
func (p *Payload) Validate() error {
	if p.HookType == "" {
		return errors.New("hook payload: hook_type is required")
	}
	if !Type(p.HookType).IsKnown() {
		return fmt.Errorf("hook payload: unknown hook type %q", p.HookType)
	}
	if p.SessionID == "" {
		return errors.New("hook payload: session_id is required")
	}
	if p.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339Nano, p.Timestamp); err != nil {
			return fmt.Errorf("hook payload: timestamp is not a valid RFC 3339 timestamp: %q", p.Timestamp)
		}
	}
	if p.Decision != "" && p.Decision != monitor.DecisionAllow && p.Decision != monitor.DecisionDeny {
		return fmt.Errorf("hook payload: decision must be %q or %q, got %q", monitor.DecisionAllow, monitor.DecisionDeny, p.Decision)
	}

	switch Type(p.HookType) {
	case PreToolUse, PostToolUse:
		if p.ToolName == "" {
			return fmt.Errorf("hook payload: tool_name is required for %s", p.HookType)
		}
		if p.ToolCallID == "" {
			return fmt.Errorf("hook payload: tool_call_id is required for %s", p.HookType)
		}
	case SubagentStart, SubagentStop:
		if p.SubagentID == "" && p.AgentID == "" {
			return fmt.Errorf("hook payload: one of subagent_id or agent_id is required for %s", p.HookType)
		}
	}
	return nil
}

// EffectiveAgentID returns the agent identifier, preferring
// subagent_id over agent_id when both are present.
func (p *Payload) EffectiveAgentID() string {
	if p.SubagentID != "" {
		return p.SubagentID
	}
	return p.AgentID
}

// Translate reshapes a validated payload into the monitor events it
// implies. now supplies the timestamp when the payload carries none.
// PreToolUse yields a tool_start, PostToolUse a tool_end; both are
// followed by a hook_execution record when the hook made an
// allow/deny call. Lifecycle types yield their session/agent events,
// with SessionStop and SubagentStop expressed as hook_execution
// records the engine interprets as close/complete transitions.
func (p *Payload) Translate(now time.Time) []monitor.Event {
	timestamp := p.Timestamp
	if timestamp == "" {
		timestamp = now.UTC().Format(time.RFC3339Nano)
	}

	var events []monitor.Event
	switch Type(p.HookType) {
	case PreToolUse:
		events = append(events, monitor.Event{
			Kind: monitor.KindToolStart,
			ToolStart: &monitor.ToolStartEvent{
				SessionID:  p.SessionID,
				Timestamp:  timestamp,
				ToolName:   p.ToolName,
				ToolCallID: p.ToolCallID,
				Input:      p.ToolInput,
			},
		})
	case PostToolUse:
		events = append(events, monitor.Event{
			Kind: monitor.KindToolEnd,
			ToolEnd: &monitor.ToolEndEvent{
				SessionID:  p.SessionID,
				Timestamp:  timestamp,
				ToolName:   p.ToolName,
				ToolCallID: p.ToolCallID,
				Output:     p.ToolResponse,
				DurationMs: p.DurationMs,
			},
		})
	case SessionStart:
		workingDirectory := p.Cwd
		if workingDirectory == "" {
			workingDirectory = "(unknown)"
		}
		events = append(events, monitor.Event{
			Kind: monitor.KindSessionStart,
			SessionStart: &monitor.SessionStartEvent{
				SessionID:        p.SessionID,
				Timestamp:        timestamp,
				WorkingDirectory: workingDirectory,
			},
		})
	case SubagentStart:
		events = append(events, monitor.Event{
			Kind: monitor.KindAgentStart,
			AgentStart: &monitor.AgentStartEvent{
				SessionID: p.SessionID,
				Timestamp: timestamp,
				AgentID:   p.EffectiveAgentID(),
				AgentName: p.AgentName,
			},
		})
	case SessionStop, SubagentStop:
		// No dedicated wire kind; the hook_execution record below
		// carries the transition.
	}

	if p.Decision != "" || Type(p.HookType) == SessionStop || Type(p.HookType) == SubagentStop {
		decision := p.Decision
		if decision == "" {
			decision = monitor.DecisionAllow
		}
		hookName := p.HookName
		if hookName == "" {
			hookName = p.HookType
		}
		events = append(events, monitor.Event{
			Kind: monitor.KindHookExecution,
			HookExecution: &monitor.HookExecutionEvent{
				SessionID:  p.SessionID,
				Timestamp:  timestamp,
				HookType:   p.HookType,
				Decision:   decision,
				HookName:   hookName,
				Output:     p.Output,
				ToolName:   p.ToolName,
				ToolCallID: p.ToolCallID,
				AgentID:    p.EffectiveAgentID(),
			},
		})
	}
	return events
}
