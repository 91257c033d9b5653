// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Parse decodes and validates one wire event. The returned Event has
// its Kind set and exactly one payload pointer populated. Errors name
// the first missing or malformed field; an unrecognized "type" value
// is an explicit "unknown event kind" error, never a silent drop.
func Parse(data []byte) (*Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("event envelope: %w", err)
	}
	if envelope.Type == "" {
		return nil, errors.New("event envelope: type is required")
	}

	event := &Event{Kind: Kind(envelope.Type)}
	switch event.Kind {
	case KindSessionStart:
		event.SessionStart = &SessionStartEvent{}
		return event, decode(data, event.SessionStart)
	case KindThinking:
		event.Thinking = &ThinkingEvent{}
		return event, decode(data, event.Thinking)
	case KindToolStart:
		event.ToolStart = &ToolStartEvent{}
		return event, decode(data, event.ToolStart)
	case KindToolEnd:
		event.ToolEnd = &ToolEndEvent{}
		return event, decode(data, event.ToolEnd)
	case KindHookExecution:
		event.HookExecution = &HookExecutionEvent{}
		return event, decode(data, event.HookExecution)
	case KindAgentStart:
		event.AgentStart = &AgentStartEvent{}
		return event, decode(data, event.AgentStart)
	case KindSubagentMapping:
		event.SubagentMapping = &SubagentMappingEvent{}
		return event, decode(data, event.SubagentMapping)
	case KindPlanUpdate:
		event.PlanUpdate = &PlanUpdateEvent{}
		return event, decode(data, event.PlanUpdate)
	case KindTeamUpdate:
		event.TeamUpdate = &TeamUpdateEvent{}
		return event, decode(data, event.TeamUpdate)
	case KindTaskUpdate:
		event.TaskUpdate = &TaskUpdateEvent{}
		return event, decode(data, event.TaskUpdate)
	case KindMessageSent:
		event.MessageSent = &MessageSentEvent{}
		return event, decode(data, event.MessageSent)
	case KindTaskCompleted:
		event.TaskCompleted = &TaskCompletedEvent{}
		return event, decode(data, event.TaskCompleted)
	default:
		return nil, fmt.Errorf("unknown event kind %q", envelope.Type)
	}
}

// validator is implemented by every event payload type.
type validator interface {
	Validate() error
}

// decode unmarshals the full payload into target and validates it.
func decode(data []byte, target validator) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("event payload: %w", err)
	}
	return target.Validate()
}

// Validate checks the required session_start fields.
func (e *SessionStartEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("session_start: sessionId is required")
	}
	if err := validTimestamp("session_start", "timestamp", e.Timestamp); err != nil {
		return err
	}
	if e.WorkingDirectory == "" {
		return errors.New("session_start: workingDirectory is required")
	}
	return nil
}

// Validate checks the required thinking fields.
func (e *ThinkingEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("thinking: sessionId is required")
	}
	if err := validTimestamp("thinking", "timestamp", e.Timestamp); err != nil {
		return err
	}
	if e.Content == "" {
		return errors.New("thinking: content is required")
	}
	return nil
}

// Validate checks the required tool_start fields. Input is opaque
// and may be any JSON value, including null.
func (e *ToolStartEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("tool_start: sessionId is required")
	}
	if err := validTimestamp("tool_start", "timestamp", e.Timestamp); err != nil {
		return err
	}
	if e.ToolName == "" {
		return errors.New("tool_start: toolName is required")
	}
	if e.ToolCallID == "" {
		return errors.New("tool_start: toolCallId is required")
	}
	return nil
}

// Validate checks the required tool_end fields. DurationMs and
// Output are optional so an end observed without measurements still
// lands and completes (or orphans) its call.
func (e *ToolEndEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("tool_end: sessionId is required")
	}
	if err := validTimestamp("tool_end", "timestamp", e.Timestamp); err != nil {
		return err
	}
	if e.ToolName == "" {
		return errors.New("tool_end: toolName is required")
	}
	if e.ToolCallID == "" {
		return errors.New("tool_end: toolCallId is required")
	}
	if e.DurationMs != nil && *e.DurationMs < 0 {
		return fmt.Errorf("tool_end: durationMs must be >= 0, got %d", *e.DurationMs)
	}
	return nil
}

// Validate checks the required hook_execution fields. The hook type
// is free-form at this boundary — the strict case-sensitive
// enumeration applies to the producer-facing raw payload shape, not
// to reshaped monitor events.
func (e *HookExecutionEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("hook_execution: sessionId is required")
	}
	if err := validTimestamp("hook_execution", "timestamp", e.Timestamp); err != nil {
		return err
	}
	if e.HookType == "" {
		return errors.New("hook_execution: hookType is required")
	}
	if e.Decision != DecisionAllow && e.Decision != DecisionDeny {
		return fmt.Errorf("hook_execution: decision must be %q or %q, got %q", DecisionAllow, DecisionDeny, e.Decision)
	}
	if e.HookName == "" {
		return errors.New("hook_execution: hookName is required")
	}
	return nil
}

// Validate checks the required agent_start fields. At least one of
// agentId and subagentId must be present.
func (e *AgentStartEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("agent_start: sessionId is required")
	}
	if err := validTimestamp("agent_start", "timestamp", e.Timestamp); err != nil {
		return err
	}
	if e.AgentID == "" && e.SubagentID == "" {
		return errors.New("agent_start: one of agentId or subagentId is required")
	}
	return nil
}

// Validate checks the required subagent_mapping fields. Each mapping
// entry must carry its own agent identifier; names may be empty (the
// resolution chain handles that downstream).
func (e *SubagentMappingEvent) Validate() error {
	if err := validTimestamp("subagent_mapping", "timestamp", e.Timestamp); err != nil {
		return err
	}
	for i, mapping := range e.Mappings {
		if mapping.AgentID == "" {
			return fmt.Errorf("subagent_mapping: mappings[%d].agentId is required", i)
		}
		if mapping.ParentSessionID == "" {
			return fmt.Errorf("subagent_mapping: mappings[%d].parentSessionId is required", i)
		}
	}
	return nil
}

// Validate checks the required plan_update fields. Content may be
// empty (an emptied plan file is a valid revision).
func (e *PlanUpdateEvent) Validate() error {
	if e.Path == "" {
		return errors.New("plan_update: path is required")
	}
	if e.Filename == "" {
		return errors.New("plan_update: filename is required")
	}
	if e.LastModified <= 0 {
		return fmt.Errorf("plan_update: lastModified must be a positive epoch-millisecond value, got %d", e.LastModified)
	}
	return nil
}

// Validate checks the required team_update fields.
func (e *TeamUpdateEvent) Validate() error {
	if e.TeamName == "" {
		return errors.New("team_update: teamName is required")
	}
	for i, member := range e.Members {
		if member.Name == "" {
			return fmt.Errorf("team_update: members[%d].name is required", i)
		}
	}
	return nil
}

// Validate checks the required task_update fields. Blocking edges
// are deliberately not cross-checked: the task graph is a reporting
// view, and a batch is never rejected for a dangling edge.
func (e *TaskUpdateEvent) Validate() error {
	if e.TeamID == "" {
		return errors.New("task_update: teamId is required")
	}
	for i, task := range e.Tasks {
		if task.ID == "" {
			return fmt.Errorf("task_update: tasks[%d].id is required", i)
		}
	}
	return nil
}

// Validate checks the required message_sent fields. Summary and
// content may be empty; a routing-only message is still worth
// recording.
func (e *MessageSentEvent) Validate() error {
	if e.Sender == "" {
		return errors.New("message_sent: sender is required")
	}
	if e.Recipient == "" {
		return errors.New("message_sent: recipient is required")
	}
	if e.MessageType == "" {
		return errors.New("message_sent: messageType is required")
	}
	return validTimestamp("message_sent", "timestamp", e.Timestamp)
}

// Validate checks the required task_completed fields.
func (e *TaskCompletedEvent) Validate() error {
	if e.TaskID == "" {
		return errors.New("task_completed: taskId is required")
	}
	if e.TeamID == "" {
		return errors.New("task_completed: teamId is required")
	}
	return validTimestamp("task_completed", "timestamp", e.Timestamp)
}
