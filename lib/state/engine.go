// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jwtor7/sessionwatch/lib/clock"
	"github.com/jwtor7/sessionwatch/lib/feed"
	"github.com/jwtor7/sessionwatch/lib/payload"
	"github.com/jwtor7/sessionwatch/lib/schema/hook"
	"github.com/jwtor7/sessionwatch/lib/schema/monitor"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// MaxPayloadLen bounds rendered opaque payloads (tool inputs and
	// outputs, hook output text). payload.DefaultMaxLen when <= 0.
	MaxPayloadLen int

	// FeedBufferSize is the per-subscriber change buffer.
	// feed.DefaultBufferSize when <= 0.
	FeedBufferSize int

	// Clock supplies time for the pending-call sweep. Required.
	Clock clock.Clock

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Engine owns the seven stores and is their only mutator. Every
// accepted event runs through Apply under one mutex, and the
// resulting changes reach the feed hub before the next event is
// applied, so subscribers observe mutations in exact apply order.
type Engine struct {
	clock         clock.Clock
	logger        *slog.Logger
	maxPayloadLen int

	mu       sync.Mutex
	seq      uint64
	sessions *SessionRegistry
	tools    *ToolCallTracker
	agents   *AgentTable
	tasks    *TaskGraph
	teams    *TeamLog
	hooks    *HookLog
	plans    *PlanStore
	hub      *feed.Hub[Change]
}

// NewEngine creates an engine with empty stores.
func NewEngine(config EngineConfig) *Engine {
	if config.Clock == nil {
		panic("state.NewEngine: Clock is required")
	}
	if config.Logger == nil {
		panic("state.NewEngine: Logger is required")
	}
	return &Engine{
		clock:         config.Clock,
		logger:        config.Logger,
		maxPayloadLen: config.MaxPayloadLen,
		sessions:      NewSessionRegistry(),
		tools:         NewToolCallTracker(config.MaxPayloadLen),
		agents:        NewAgentTable(),
		tasks:         NewTaskGraph(),
		teams:         NewTeamLog(),
		hooks:         NewHookLog(),
		plans:         NewPlanStore(),
		hub:           feed.NewHub[Change](config.FeedBufferSize, config.Logger),
	}
}

// Apply dispatches one validated event to its store and publishes the
// resulting changes. The only possible error is a malformed Event
// value (kind without payload), which indicates a caller bug, not bad
// wire input — wire-level problems were already rejected by Parse.
func (e *Engine) Apply(event *monitor.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch event.Kind {
	case monitor.KindSessionStart:
		if event.SessionStart == nil {
			return missingPayload(event.Kind)
		}
		e.applySessionStart(event.SessionStart)
	case monitor.KindThinking:
		if event.Thinking == nil {
			return missingPayload(event.Kind)
		}
		e.applyThinking(event.Thinking)
	case monitor.KindToolStart:
		if event.ToolStart == nil {
			return missingPayload(event.Kind)
		}
		e.applyToolStart(event.ToolStart)
	case monitor.KindToolEnd:
		if event.ToolEnd == nil {
			return missingPayload(event.Kind)
		}
		e.applyToolEnd(event.ToolEnd)
	case monitor.KindHookExecution:
		if event.HookExecution == nil {
			return missingPayload(event.Kind)
		}
		e.applyHookExecution(event.HookExecution)
	case monitor.KindAgentStart:
		if event.AgentStart == nil {
			return missingPayload(event.Kind)
		}
		e.applyAgentStart(event.AgentStart)
	case monitor.KindSubagentMapping:
		if event.SubagentMapping == nil {
			return missingPayload(event.Kind)
		}
		e.applySubagentMapping(event.SubagentMapping)
	case monitor.KindPlanUpdate:
		if event.PlanUpdate == nil {
			return missingPayload(event.Kind)
		}
		e.applyPlanUpdate(event.PlanUpdate)
	case monitor.KindTeamUpdate:
		if event.TeamUpdate == nil {
			return missingPayload(event.Kind)
		}
		e.applyTeamUpdate(event.TeamUpdate)
	case monitor.KindTaskUpdate:
		if event.TaskUpdate == nil {
			return missingPayload(event.Kind)
		}
		e.applyTaskUpdate(event.TaskUpdate)
	case monitor.KindMessageSent:
		if event.MessageSent == nil {
			return missingPayload(event.Kind)
		}
		e.applyMessageSent(event.MessageSent)
	case monitor.KindTaskCompleted:
		if event.TaskCompleted == nil {
			return missingPayload(event.Kind)
		}
		e.applyTaskCompleted(event.TaskCompleted)
	default:
		return fmt.Errorf("state: unhandled event kind %q", event.Kind)
	}
	return nil
}

func missingPayload(kind monitor.Kind) error {
	return fmt.Errorf("state: event kind %q without payload", kind)
}

// Subscribe returns a full snapshot and a registered subscriber,
// taken atomically with respect to the apply path: the first change
// the subscriber receives is exactly the one after Snapshot.Seq.
func (e *Engine) Subscribe() (Snapshot, *feed.Subscriber[Change]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), e.hub.Subscribe()
}

// Snapshot returns a full read of every store.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// ResolveAgentName resolves an agent identifier to a display name via
// the mapping table's fallback chain (stored name, then colon-prefix
// of output, then empty).
func (e *Engine) ResolveAgentName(agentID, output string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agents.ResolveName(agentID, output)
}

// SubscriberCount returns the number of live feed subscribers.
func (e *Engine) SubscriberCount() int {
	return e.hub.SubscriberCount()
}

// SweepPendingToolCalls transitions tool calls pending longer than
// maxAge to orphaned and publishes the transitions. Best-effort
// liveness aid; never fails.
func (e *Engine) SweepPendingToolCalls(maxAge time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.clock.Now().Add(-maxAge)
	for _, call := range e.tools.SweepPending(cutoff) {
		call := call
		e.logger.Debug("pending tool call aged out",
			"tool_call", call.ID,
			"tool", call.ToolName,
		)
		e.publishLocked(Change{Kind: ChangeToolCall, ToolCall: &call})
	}
}

// RunSweeper runs SweepPendingToolCalls every interval until done is
// closed. Call in a goroutine.
func (e *Engine) RunSweeper(done <-chan struct{}, interval, maxAge time.Duration) {
	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.SweepPendingToolCalls(maxAge)
		case <-done:
			return
		}
	}
}

// --- Per-kind apply steps (engine mutex held) ---

func (e *Engine) applySessionStart(event *monitor.SessionStartEvent) {
	session := e.sessions.Start(event.SessionID, event.WorkingDirectory, monitor.TimeOf(event.Timestamp))
	e.publishLocked(Change{Kind: ChangeSession, Session: &session})
}

func (e *Engine) applyThinking(event *monitor.ThinkingEvent) {
	record, created := e.sessions.AppendThinking(event.SessionID, monitor.TimeOf(event.Timestamp), event.Content)
	if created != nil {
		e.logger.Debug("thinking for unknown session, stub created", "session", event.SessionID)
		e.publishLocked(Change{Kind: ChangeSession, Session: created})
	}
	e.publishLocked(Change{Kind: ChangeThinking, Thinking: &record})
}

func (e *Engine) applyToolStart(event *monitor.ToolStartEvent) {
	call := e.tools.RecordStart(event.SessionID, event.ToolCallID, event.ToolName, event.Input, monitor.TimeOf(event.Timestamp))
	e.publishLocked(Change{Kind: ChangeToolCall, ToolCall: &call})
}

func (e *Engine) applyToolEnd(event *monitor.ToolEndEvent) {
	call := e.tools.RecordEnd(event.SessionID, event.ToolCallID, event.ToolName, event.Output, event.DurationMs, monitor.TimeOf(event.Timestamp))
	if call.State == ToolCallOrphaned {
		e.logger.Debug("tool end without matching start", "tool_call", event.ToolCallID)
	}
	e.publishLocked(Change{Kind: ChangeToolCall, ToolCall: &call})
}

func (e *Engine) applyHookExecution(event *monitor.HookExecutionEvent) {
	decision := e.hooks.Append(HookDecision{
		HookType:   event.HookType,
		ToolName:   event.ToolName,
		ToolCallID: event.ToolCallID,
		AgentID:    event.AgentID,
		Decision:   event.Decision,
		HookName:   event.HookName,
		Output:     payload.Render(event.Output, e.maxPayloadLen),
		SessionID:  event.SessionID,
		Timestamp:  monitor.TimeOf(event.Timestamp),
	})
	e.publishLocked(Change{Kind: ChangeHookDecision, HookDecision: &decision})

	// Lifecycle hooks double as close/complete transitions: the wire
	// format has no dedicated session_stop or subagent_stop kind.
	switch hook.Type(event.HookType) {
	case hook.SessionStop:
		session, known := e.sessions.Close(event.SessionID, decision.Timestamp)
		if !known {
			e.logger.Debug("stop for unknown session, stub created", "session", event.SessionID)
		}
		e.publishLocked(Change{Kind: ChangeSession, Session: &session})
	case hook.SubagentStop:
		if event.AgentID == "" {
			return
		}
		agent, known := e.agents.MarkStatus(event.AgentID, AgentCompleted)
		if !known {
			e.logger.Debug("stop for unknown agent, ignored", "agent", event.AgentID)
			return
		}
		e.publishLocked(Change{Kind: ChangeAgent, Agent: &agent})
	}
}

func (e *Engine) applyAgentStart(event *monitor.AgentStartEvent) {
	agent := e.agents.Upsert(event.EffectiveAgentID(), event.SessionID, event.AgentName, monitor.TimeOf(event.Timestamp), AgentRunning)
	e.publishLocked(Change{Kind: ChangeAgent, Agent: &agent})
}

func (e *Engine) applySubagentMapping(event *monitor.SubagentMappingEvent) {
	for _, mapping := range event.Mappings {
		agent := e.agents.Upsert(
			mapping.AgentID,
			mapping.ParentSessionID,
			mapping.AgentName,
			monitor.TimeOf(mapping.StartTime),
			AgentStatus(mapping.Status),
		)
		e.publishLocked(Change{Kind: ChangeAgent, Agent: &agent})
	}
}

func (e *Engine) applyPlanUpdate(event *monitor.PlanUpdateEvent) {
	document, applied := e.plans.Upsert(event.Path, event.Filename, event.Content, time.UnixMilli(event.LastModified).UTC())
	if !applied {
		e.logger.Debug("stale plan revision ignored", "path", event.Path)
		return
	}
	e.publishLocked(Change{Kind: ChangePlan, Plan: &document})
}

func (e *Engine) applyTeamUpdate(event *monitor.TeamUpdateEvent) {
	members := make([]TeamMember, len(event.Members))
	for i, member := range event.Members {
		members[i] = TeamMember{
			Name:    member.Name,
			AgentID: member.AgentID,
			Role:    roleFor(member.AgentType),
			Status:  member.Status,
		}
	}
	team := e.teams.ReplaceTeam(event.TeamName, members)
	e.publishLocked(Change{Kind: ChangeTeam, Team: &team})
}

func (e *Engine) applyTaskUpdate(event *monitor.TaskUpdateEvent) {
	tasks := make([]Task, len(event.Tasks))
	for i, entry := range event.Tasks {
		tasks[i] = Task{
			ID:         entry.ID,
			Subject:    entry.Subject,
			Status:     TaskStatus(entry.Status),
			Owner:      entry.Owner,
			ActiveForm: entry.ActiveForm,
			Blocks:     entry.Blocks,
			BlockedBy:  entry.BlockedBy,
		}
	}
	batch := e.tasks.Replace(event.TeamID, tasks)
	e.publishLocked(Change{Kind: ChangeTasks, Tasks: &batch})
}

func (e *Engine) applyMessageSent(event *monitor.MessageSentEvent) {
	message := e.teams.AppendMessage(Message{
		Sender:    event.Sender,
		Recipient: event.Recipient,
		Type:      event.MessageType,
		Summary:   event.Summary,
		Body:      payload.Truncate(event.Content, e.maxPayloadLen),
		Timestamp: monitor.TimeOf(event.Timestamp),
	})
	e.publishLocked(Change{Kind: ChangeMessage, Message: &message})
}

func (e *Engine) applyTaskCompleted(event *monitor.TaskCompletedEvent) {
	batch := e.tasks.Complete(event.TeamID, event.TaskID, event.TaskSubject)
	e.publishLocked(Change{Kind: ChangeTasks, Tasks: &batch})
}

// roleFor maps the wire agentType to a team role: the orchestrator
// reports the coordinating member as "leader" (some producers say
// "team-lead"); everything else is a worker.
func roleFor(agentType string) TeamRole {
	switch agentType {
	case "leader", "team-lead", "lead":
		return RoleLeader
	default:
		return RoleWorker
	}
}

// publishLocked assigns the next sequence number and hands the change
// to the hub. Must be called with e.mu held so changes reach the hub
// in apply order.
func (e *Engine) publishLocked(change Change) {
	e.seq++
	change.Seq = e.seq
	e.hub.Publish(change)
}

// snapshotLocked reads every store. Slices are sorted by stable keys
// so two snapshots of the same state are identical.
func (e *Engine) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Seq:           e.seq,
		Sessions:      e.sessions.All(),
		ToolCalls:     e.tools.All(),
		Agents:        e.agents.All(),
		Tasks:         e.tasks.All(),
		Teams:         e.teams.Teams(),
		Messages:      e.teams.Messages(),
		HookDecisions: e.hooks.All(),
		Plans:         e.plans.All(),
	}
	sort.Slice(snapshot.Sessions, func(i, j int) bool { return snapshot.Sessions[i].ID < snapshot.Sessions[j].ID })
	sort.Slice(snapshot.ToolCalls, func(i, j int) bool { return snapshot.ToolCalls[i].ID < snapshot.ToolCalls[j].ID })
	sort.Slice(snapshot.Agents, func(i, j int) bool { return snapshot.Agents[i].ID < snapshot.Agents[j].ID })
	sort.Slice(snapshot.Tasks, func(i, j int) bool { return snapshot.Tasks[i].TeamID < snapshot.Tasks[j].TeamID })
	sort.Slice(snapshot.Teams, func(i, j int) bool { return snapshot.Teams[i].Name < snapshot.Teams[j].Name })
	sort.Slice(snapshot.Plans, func(i, j int) bool { return snapshot.Plans[i].Path < snapshot.Plans[j].Path })
	return snapshot
}
