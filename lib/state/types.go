// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import "time"

// SessionStatus is the lifecycle state of a tracked session.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// Session is one tracked unit of work, keyed by the producer-assigned
// session identifier. Sessions are closed, never deleted — history
// stays queryable for the lifetime of the process.
type Session struct {
	ID               string          `json:"id"`
	WorkingDirectory string          `json:"workingDirectory"`
	DisplayName      string          `json:"displayName"`
	StartedAt        time.Time       `json:"startedAt"`
	Status           SessionStatus   `json:"status"`
	Thinking         []ThinkingEntry `json:"thinking,omitempty"`
}

// ThinkingEntry is one model thinking step, immutable and append-only
// within its session.
type ThinkingEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// ThinkingRecord is a thinking entry paired with its session, used as
// the change payload so subscribers do not receive the whole session
// on every thought.
type ThinkingRecord struct {
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// ToolCallState is the pairing state of a tool invocation.
type ToolCallState string

const (
	// ToolCallPending means a start was seen and no end yet.
	ToolCallPending ToolCallState = "pending"
	// ToolCallCompleted means start and end were paired.
	ToolCallCompleted ToolCallState = "completed"
	// ToolCallOrphaned means an end arrived with no matching start,
	// or a pending call aged out without ever receiving its end.
	ToolCallOrphaned ToolCallState = "orphaned"
)

// ToolCall is one tool invocation, keyed by the producer-assigned
// call identifier. Input and Output are bounded text renderings of
// the opaque wire payloads.
type ToolCall struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"sessionId"`
	ToolName   string        `json:"toolName"`
	Input      string        `json:"input,omitempty"`
	Output     string        `json:"output,omitempty"`
	StartedAt  time.Time     `json:"startedAt,omitempty"`
	EndedAt    time.Time     `json:"endedAt,omitempty"`
	DurationMs int64         `json:"durationMs"`
	State      ToolCallState `json:"state"`
}

// HookDecision is one policy hook verdict, append-only.
type HookDecision struct {
	HookType   string    `json:"hookType"`
	ToolName   string    `json:"toolName,omitempty"`
	ToolCallID string    `json:"toolCallId,omitempty"`
	AgentID    string    `json:"agentId,omitempty"`
	Decision   string    `json:"decision"`
	HookName   string    `json:"hookName"`
	Output     string    `json:"output,omitempty"`
	SessionID  string    `json:"sessionId"`
	Timestamp  time.Time `json:"timestamp"`
}

// AgentStatus is the lifecycle state of a subagent.
type AgentStatus string

const (
	AgentRunning   AgentStatus = "running"
	AgentCompleted AgentStatus = "completed"
	AgentFailed    AgentStatus = "failed"
)

// Subagent is one spawned agent, keyed by agent identifier. The
// mapping table is the single authoritative source for resolving an
// identifier to a display name.
type Subagent struct {
	ID              string      `json:"id"`
	ParentSessionID string      `json:"parentSessionId"`
	Name            string      `json:"name,omitempty"`
	StartedAt       time.Time   `json:"startedAt"`
	Status          AgentStatus `json:"status"`
}

// TaskStatus is the reported state of a shared task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task is one entry of a team's shared task list. Blocks and
// BlockedBy are stored exactly as reported — dangling, one-sided,
// and cyclic edges are representable.
type Task struct {
	ID         string     `json:"id"`
	Subject    string     `json:"subject"`
	Status     TaskStatus `json:"status"`
	Owner      string     `json:"owner,omitempty"`
	ActiveForm string     `json:"activeForm,omitempty"`
	Blocks     []string   `json:"blocks,omitempty"`
	BlockedBy  []string   `json:"blockedBy,omitempty"`
}

// TeamTasks is one team's full task list, the unit of replacement for
// task_update batches and the change payload for task mutations.
type TeamTasks struct {
	TeamID string `json:"teamId"`
	Tasks  []Task `json:"tasks"`
}

// TeamRole distinguishes the coordinating member from workers.
type TeamRole string

const (
	RoleLeader TeamRole = "leader"
	RoleWorker TeamRole = "worker"
)

// TeamMember is one member of a team membership snapshot.
type TeamMember struct {
	Name    string   `json:"name"`
	AgentID string   `json:"agentId,omitempty"`
	Role    TeamRole `json:"role"`
	Status  string   `json:"status,omitempty"`
}

// Team is a named group of cooperating agents, replaced wholesale on
// each team_update.
type Team struct {
	Name    string       `json:"name"`
	Members []TeamMember `json:"members"`
}

// Message is one inter-agent message, append-only.
type Message struct {
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary,omitempty"`
	Body      string    `json:"body,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PlanDocument is the latest revision of a plan file, keyed by path.
type PlanDocument struct {
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"lastModified"`
}
