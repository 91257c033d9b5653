// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jwtor7/sessionwatch/lib/clock"
	"github.com/jwtor7/sessionwatch/lib/schema/monitor"
	"github.com/jwtor7/sessionwatch/lib/testutil"
)

var engineEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (*Engine, *clock.FakeClock) {
	t.Helper()
	fakeClock := clock.Fake(engineEpoch)
	engine := NewEngine(EngineConfig{
		Clock:  fakeClock,
		Logger: testLogger(),
	})
	return engine, fakeClock
}

func mustApply(t *testing.T, engine *Engine, raw string) {
	t.Helper()
	event, err := monitor.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := engine.Apply(event); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func TestToolStartThenEndScenario(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"tool_start","sessionId":"S1","toolCallId":"T1","toolName":"Read","timestamp":"2026-03-01T09:00:00Z","input":"{}"}`)
	mustApply(t, engine, `{"type":"tool_end","sessionId":"S1","toolCallId":"T1","toolName":"Read","timestamp":"2026-03-01T09:00:01Z","output":"ok","durationMs":45}`)

	snapshot := engine.Snapshot()
	if len(snapshot.ToolCalls) != 1 {
		t.Fatalf("snapshot holds %d tool calls, want 1", len(snapshot.ToolCalls))
	}
	call := snapshot.ToolCalls[0]
	if call.State != ToolCallCompleted || call.DurationMs != 45 {
		t.Fatalf("call = %+v, want completed with duration 45", call)
	}
}

func TestToolEndOnlyScenario(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"tool_end","sessionId":"S1","toolCallId":"T1","toolName":"Read","timestamp":"2026-03-01T09:00:01Z","output":"ok","durationMs":45}`)

	snapshot := engine.Snapshot()
	if len(snapshot.ToolCalls) != 1 || snapshot.ToolCalls[0].State != ToolCallOrphaned {
		t.Fatalf("snapshot = %+v, want one orphaned call", snapshot.ToolCalls)
	}
}

func TestTaskBatchReplacementScenario(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"task_update","teamId":"G","tasks":[{"id":"1","subject":"a","status":"pending","blockedBy":["2"]},{"id":"2","subject":"b","status":"pending"}]}`)
	mustApply(t, engine, `{"type":"task_update","teamId":"G","tasks":[{"id":"2","subject":"b","status":"completed"}]}`)

	snapshot := engine.Snapshot()
	if len(snapshot.Tasks) != 1 {
		t.Fatalf("snapshot holds %d task teams, want 1", len(snapshot.Tasks))
	}
	if tasks := snapshot.Tasks[0].Tasks; len(tasks) != 1 || tasks[0].ID != "2" {
		t.Fatalf("team G = %+v, want only task 2", tasks)
	}
}

func TestSubscribeSnapshotThenOrderedChanges(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"session_start","sessionId":"S1","timestamp":"2026-03-01T09:00:00Z","workingDirectory":"/w"}`)

	snapshot, subscriber := engine.Subscribe()
	defer subscriber.Close()

	if len(snapshot.Sessions) != 1 {
		t.Fatalf("snapshot sessions = %d, want 1", len(snapshot.Sessions))
	}

	mustApply(t, engine, `{"type":"tool_start","sessionId":"S1","toolCallId":"T1","toolName":"Read","timestamp":"2026-03-01T09:00:01Z","input":"{}"}`)
	mustApply(t, engine, `{"type":"tool_end","sessionId":"S1","toolCallId":"T1","toolName":"Read","timestamp":"2026-03-01T09:00:02Z","output":"ok","durationMs":7}`)

	first := testutil.RequireReceive(t, subscriber.Events(), 5*time.Second, "first change")
	second := testutil.RequireReceive(t, subscriber.Events(), 5*time.Second, "second change")

	if first.Seq != snapshot.Seq+1 {
		t.Fatalf("first change seq = %d, want snapshot seq %d + 1", first.Seq, snapshot.Seq)
	}
	if second.Seq != first.Seq+1 {
		t.Fatalf("changes not contiguous: %d then %d", first.Seq, second.Seq)
	}
	if first.Kind != ChangeToolCall || first.ToolCall.State != ToolCallPending {
		t.Fatalf("first change = %+v, want pending tool call", first)
	}
	if second.Kind != ChangeToolCall || second.ToolCall.State != ToolCallCompleted {
		t.Fatalf("second change = %+v, want completed tool call", second)
	}
}

func TestSessionStopHookClosesSession(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"session_start","sessionId":"S1","timestamp":"2026-03-01T09:00:00Z","workingDirectory":"/w"}`)
	mustApply(t, engine, `{"type":"hook_execution","sessionId":"S1","timestamp":"2026-03-01T10:00:00Z","hookType":"SessionStop","decision":"allow","hookName":"SessionStop","output":""}`)

	snapshot := engine.Snapshot()
	if snapshot.Sessions[0].Status != SessionClosed {
		t.Fatalf("session status = %q, want closed", snapshot.Sessions[0].Status)
	}
	if len(snapshot.HookDecisions) != 1 {
		t.Fatalf("hook decisions = %d, want the stop recorded", len(snapshot.HookDecisions))
	}
}

func TestSubagentStopHookCompletesAgent(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"agent_start","sessionId":"S1","timestamp":"2026-03-01T09:00:00Z","agentId":"agent-1","agentName":"scout"}`)
	mustApply(t, engine, `{"type":"hook_execution","sessionId":"S1","timestamp":"2026-03-01T09:30:00Z","hookType":"SubagentStop","decision":"allow","hookName":"SubagentStop","output":"","agentId":"agent-1"}`)

	snapshot := engine.Snapshot()
	if len(snapshot.Agents) != 1 || snapshot.Agents[0].Status != AgentCompleted {
		t.Fatalf("agents = %+v, want agent-1 completed", snapshot.Agents)
	}
}

func TestDuplicateAgentStartLeavesOneRecord(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"agent_start","sessionId":"S1","timestamp":"2026-03-01T09:00:00Z","agentId":"agent-1","agentName":"scout"}`)
	mustApply(t, engine, `{"type":"agent_start","sessionId":"S1","timestamp":"2026-03-01T09:00:05Z","agentId":"agent-1","agentName":"pathfinder"}`)

	snapshot := engine.Snapshot()
	if len(snapshot.Agents) != 1 {
		t.Fatalf("agents = %d, want exactly one record", len(snapshot.Agents))
	}
	if snapshot.Agents[0].Name != "pathfinder" {
		t.Fatalf("agent name = %q, want the second event's data", snapshot.Agents[0].Name)
	}
}

func TestSubagentMappingBatch(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"subagent_mapping","timestamp":"2026-03-01T09:00:00Z","mappings":[
		{"agentId":"agent-1","parentSessionId":"S1","agentName":"scout","startTime":"2026-03-01T09:00:00Z","status":"running"},
		{"agentId":"agent-2","parentSessionId":"S1","agentName":"","startTime":"2026-03-01T09:00:00Z","status":"completed"}
	]}`)

	snapshot := engine.Snapshot()
	if len(snapshot.Agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(snapshot.Agents))
	}
	if got := engine.ResolveAgentName("agent-1", ""); got != "scout" {
		t.Fatalf("ResolveAgentName = %q, want scout", got)
	}
	if got := engine.ResolveAgentName("agent-2", "helper: busy"); got != "helper" {
		t.Fatalf("ResolveAgentName fallback = %q, want helper", got)
	}
}

func TestPlanReplayDoesNotRegress(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"plan_update","path":"/w/plan.md","filename":"plan.md","content":"v2","lastModified":2000000}`)

	snapshot, subscriber := engine.Subscribe()
	defer subscriber.Close()
	if snapshot.Plans[0].Content != "v2" {
		t.Fatalf("plan content = %q", snapshot.Plans[0].Content)
	}

	// Older replay: no change published, content intact.
	mustApply(t, engine, `{"type":"plan_update","path":"/w/plan.md","filename":"plan.md","content":"v1","lastModified":1000000}`)
	testutil.RequireNoReceive(t, subscriber.Events(), 100*time.Millisecond, "stale plan revision published a change")

	if got := engine.Snapshot().Plans[0].Content; got != "v2" {
		t.Fatalf("plan content regressed to %q", got)
	}
}

func TestMessageAndTeamFlow(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"team_update","teamName":"builders","members":[{"name":"lead","agentId":"agent-1","agentType":"leader","status":"active"},{"name":"scout","agentId":"agent-2","agentType":"researcher","status":"active"}]}`)
	mustApply(t, engine, `{"type":"message_sent","sender":"lead","recipient":"scout","messageType":"instruction","summary":"go","content":"start with the parser","timestamp":"2026-03-01T09:05:00Z"}`)

	snapshot := engine.Snapshot()
	if len(snapshot.Teams) != 1 || len(snapshot.Teams[0].Members) != 2 {
		t.Fatalf("teams = %+v", snapshot.Teams)
	}
	if snapshot.Teams[0].Members[0].Role != RoleLeader {
		t.Fatalf("lead role = %q, want leader", snapshot.Teams[0].Members[0].Role)
	}
	if snapshot.Teams[0].Members[1].Role != RoleWorker {
		t.Fatalf("scout role = %q, want worker", snapshot.Teams[0].Members[1].Role)
	}
	if len(snapshot.Messages) != 1 || snapshot.Messages[0].Body != "start with the parser" {
		t.Fatalf("messages = %+v", snapshot.Messages)
	}
}

func TestTaskCompletedTransitionsStoredTask(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustApply(t, engine, `{"type":"task_update","teamId":"G","tasks":[{"id":"1","subject":"build","status":"in_progress"}]}`)
	mustApply(t, engine, `{"type":"task_completed","taskId":"1","taskSubject":"build","teamId":"G","timestamp":"2026-03-01T09:10:00Z"}`)

	snapshot := engine.Snapshot()
	if got := snapshot.Tasks[0].Tasks[0].Status; got != TaskCompleted {
		t.Fatalf("task status = %q, want completed", got)
	}
}

func TestSweeperOrphansLongPendingCalls(t *testing.T) {
	engine, fakeClock := newTestEngine(t)
	mustApply(t, engine, `{"type":"tool_start","sessionId":"S1","toolCallId":"T1","toolName":"Bash","timestamp":"2026-03-01T09:00:00Z","input":"{}"}`)

	_, subscriber := engine.Subscribe()
	defer subscriber.Close()

	done := make(chan struct{})
	defer close(done)
	go engine.RunSweeper(done, time.Minute, 30*time.Minute)

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Minute)

	// One minute in: still pending, the sweep found nothing.
	testutil.RequireNoReceive(t, subscriber.Events(), 100*time.Millisecond, "sweep fired early")

	fakeClock.Advance(31 * time.Minute)
	change := testutil.RequireReceive(t, subscriber.Events(), 5*time.Second, "sweep change")
	if change.Kind != ChangeToolCall || change.ToolCall.State != ToolCallOrphaned {
		t.Fatalf("change = %+v, want orphaned tool call", change)
	}
}

func TestApplyKindWithoutPayloadIsError(t *testing.T) {
	engine, _ := newTestEngine(t)
	if err := engine.Apply(&monitor.Event{Kind: monitor.KindToolStart}); err == nil {
		t.Fatal("Apply accepted an event with no payload")
	}
}
