// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

// ChangeKind names the store a change came from.
type ChangeKind string

const (
	ChangeSession      ChangeKind = "session"
	ChangeThinking     ChangeKind = "thinking"
	ChangeToolCall     ChangeKind = "tool_call"
	ChangeHookDecision ChangeKind = "hook_decision"
	ChangeAgent        ChangeKind = "agent"
	ChangeTasks        ChangeKind = "tasks"
	ChangeTeam         ChangeKind = "team"
	ChangeMessage      ChangeKind = "message"
	ChangePlan         ChangeKind = "plan"
)

// Change is one accepted state mutation, published to subscribers in
// apply order. Seq is a gap-free monotonic counter: a subscriber that
// observes a discontinuity missed a change and should resubscribe for
// a fresh snapshot. Exactly one payload pointer is non-nil, matching
// Kind; payloads are copies, safe to hold after the engine moves on.
type Change struct {
	Seq  uint64     `json:"seq"`
	Kind ChangeKind `json:"kind"`

	Session      *Session        `json:"session,omitempty"`
	Thinking     *ThinkingRecord `json:"thinking,omitempty"`
	ToolCall     *ToolCall       `json:"toolCall,omitempty"`
	HookDecision *HookDecision   `json:"hookDecision,omitempty"`
	Agent        *Subagent       `json:"agent,omitempty"`
	Tasks        *TeamTasks      `json:"tasks,omitempty"`
	Team         *Team           `json:"team,omitempty"`
	Message      *Message        `json:"message,omitempty"`
	Plan         *PlanDocument   `json:"plan,omitempty"`
}

// Snapshot is a full read of every store, taken atomically with
// respect to the apply path. Seq is the sequence number of the last
// change folded into the snapshot; the next change a fresh subscriber
// receives carries Seq+1.
type Snapshot struct {
	Seq           uint64         `json:"seq"`
	Sessions      []Session      `json:"sessions"`
	ToolCalls     []ToolCall     `json:"toolCalls"`
	Agents        []Subagent     `json:"agents"`
	Tasks         []TeamTasks    `json:"tasks"`
	Teams         []Team         `json:"teams"`
	Messages      []Message      `json:"messages"`
	HookDecisions []HookDecision `json:"hookDecisions"`
	Plans         []PlanDocument `json:"plans"`
}
