// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"fmt"
	"time"
)

// Kind is the event discriminant carried in the wire envelope's
// "type" field. The set of kinds is closed: Parse rejects anything
// not listed here with an "unknown event kind" error.
type Kind string

const (
	KindSessionStart    Kind = "session_start"
	KindThinking        Kind = "thinking"
	KindToolStart       Kind = "tool_start"
	KindToolEnd         Kind = "tool_end"
	KindHookExecution   Kind = "hook_execution"
	KindAgentStart      Kind = "agent_start"
	KindSubagentMapping Kind = "subagent_mapping"
	KindPlanUpdate      Kind = "plan_update"
	KindTeamUpdate      Kind = "team_update"
	KindTaskUpdate      Kind = "task_update"
	KindMessageSent     Kind = "message_sent"
	KindTaskCompleted   Kind = "task_completed"
)

// Event is the closed tagged-variant representation of one validated
// wire event. Exactly one payload pointer is non-nil, matching Kind.
// Consumers dispatch on Kind with an exhaustive switch so that adding
// a kind is a compile-time-visible change.
type Event struct {
	Kind Kind

	SessionStart    *SessionStartEvent
	Thinking        *ThinkingEvent
	ToolStart       *ToolStartEvent
	ToolEnd         *ToolEndEvent
	HookExecution   *HookExecutionEvent
	AgentStart      *AgentStartEvent
	SubagentMapping *SubagentMappingEvent
	PlanUpdate      *PlanUpdateEvent
	TeamUpdate      *TeamUpdateEvent
	TaskUpdate      *TaskUpdateEvent
	MessageSent     *MessageSentEvent
	TaskCompleted   *TaskCompletedEvent
}

// SessionStartEvent announces a new top-level work session.
type SessionStartEvent struct {
	SessionID        string `json:"sessionId"`
	Timestamp        string `json:"timestamp"`
	WorkingDirectory string `json:"workingDirectory"`
}

// ThinkingEvent carries one free-text model thinking step.
type ThinkingEvent struct {
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

// ToolStartEvent opens a tool invocation. Input is opaque: any JSON
// value the producer chose to attach. Size bounds are applied by the
// store when the value is persisted, not here.
type ToolStartEvent struct {
	SessionID  string `json:"sessionId"`
	Timestamp  string `json:"timestamp"`
	ToolName   string `json:"toolName"`
	ToolCallID string `json:"toolCallId"`
	Input      any    `json:"input"`
}

// ToolEndEvent closes a tool invocation, matched to its start by
// ToolCallID. DurationMs is a pointer because zero is a legitimate
// measured duration; when absent, the tracker derives the duration
// from the recorded start timestamp.
type ToolEndEvent struct {
	SessionID  string `json:"sessionId"`
	Timestamp  string `json:"timestamp"`
	ToolName   string `json:"toolName"`
	ToolCallID string `json:"toolCallId"`
	Output     any    `json:"output"`
	DurationMs *int64 `json:"durationMs"`
}

// HookExecutionEvent records one policy hook verdict. ToolName,
// ToolCallID, and AgentID are optional: session- and subagent-scoped
// hooks carry no tool call, and only subagent hooks carry an agent.
type HookExecutionEvent struct {
	SessionID  string `json:"sessionId"`
	Timestamp  string `json:"timestamp"`
	HookType   string `json:"hookType"`
	Decision   string `json:"decision"`
	HookName   string `json:"hookName"`
	Output     any    `json:"output"`
	ToolName   string `json:"toolName,omitempty"`
	ToolCallID string `json:"toolCallId,omitempty"`
	AgentID    string `json:"agentId,omitempty"`
}

// Hook decision verdicts.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// AgentStartEvent announces a spawned subagent. Producers disagree on
// the identifier field name, so either agentId or subagentId is
// accepted; EffectiveAgentID returns whichever is present.
type AgentStartEvent struct {
	SessionID  string `json:"sessionId"`
	Timestamp  string `json:"timestamp"`
	AgentID    string `json:"agentId"`
	SubagentID string `json:"subagentId"`
	AgentName  string `json:"agentName"`
}

// EffectiveAgentID returns the agent identifier, preferring agentId
// over subagentId when both are present.
func (e *AgentStartEvent) EffectiveAgentID() string {
	if e.AgentID != "" {
		return e.AgentID
	}
	return e.SubagentID
}

// SubagentMappingEvent carries a batch of agent-identifier-to-name
// mappings published by the orchestrator.
type SubagentMappingEvent struct {
	Timestamp string         `json:"timestamp"`
	Mappings  []AgentMapping `json:"mappings"`
}

// AgentMapping is one entry of a subagent_mapping batch.
type AgentMapping struct {
	AgentID         string `json:"agentId"`
	ParentSessionID string `json:"parentSessionId"`
	AgentName       string `json:"agentName"`
	StartTime       string `json:"startTime"`
	Status          string `json:"status"`
}

// PlanUpdateEvent publishes a plan document revision. LastModified is
// epoch milliseconds, the one non-RFC-3339 timestamp on the wire.
type PlanUpdateEvent struct {
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	Content      string `json:"content"`
	LastModified int64  `json:"lastModified"`
}

// TeamUpdateEvent replaces a team's membership wholesale.
type TeamUpdateEvent struct {
	TeamName string       `json:"teamName"`
	Members  []TeamMember `json:"members"`
}

// TeamMember is one entry of a team_update membership snapshot.
type TeamMember struct {
	Name      string `json:"name"`
	AgentID   string `json:"agentId"`
	AgentType string `json:"agentType"`
	Status    string `json:"status"`
}

// TaskUpdateEvent replaces a team's task list wholesale. A task
// absent from the batch is gone; there is no partial merge.
type TaskUpdateEvent struct {
	TeamID string      `json:"teamId"`
	Tasks  []TaskEntry `json:"tasks"`
}

// TaskEntry is one task of a task_update batch. Blocks and BlockedBy
// are accepted as sent: dangling, one-sided, or cyclic edges are the
// producer's business, not a validation failure.
type TaskEntry struct {
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	Status     string   `json:"status"`
	Owner      string   `json:"owner"`
	ActiveForm string   `json:"activeForm"`
	Blocks     []string `json:"blocks"`
	BlockedBy  []string `json:"blockedBy"`
}

// MessageSentEvent records one inter-agent message.
type MessageSentEvent struct {
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	MessageType string `json:"messageType"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
}

// TaskCompletedEvent marks a single task done without resending the
// whole batch.
type TaskCompletedEvent struct {
	TaskID      string `json:"taskId"`
	TaskSubject string `json:"taskSubject"`
	TeamID      string `json:"teamId"`
	Timestamp   string `json:"timestamp"`
}

// TimeOf converts an already-validated RFC 3339 timestamp string to a
// time.Time. Returns the zero time for anything unparseable, which
// only happens for fields the validator treats as optional.
func TimeOf(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// validTimestamp reports an error naming the field when value is not
// an RFC 3339 timestamp.
func validTimestamp(context, field, value string) error {
	if value == "" {
		return fmt.Errorf("%s: %s is required", context, field)
	}
	if _, err := time.Parse(time.RFC3339Nano, value); err != nil {
		return fmt.Errorf("%s: %s is not a valid RFC 3339 timestamp: %q", context, field, value)
	}
	return nil
}
