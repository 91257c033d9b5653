// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"time"

	"github.com/jwtor7/sessionwatch/lib/payload"
)

// ToolCallTracker pairs tool_start and tool_end events by call
// identifier. No call is ever deleted; unmatched ends become orphaned
// records immediately, and unmatched starts stay pending until the
// optional sweep ages them out. Not safe for concurrent use; the
// engine serializes access.
type ToolCallTracker struct {
	calls map[string]*ToolCall

	// maxPayloadLen bounds the rendered Input and Output text.
	maxPayloadLen int
}

// NewToolCallTracker returns an empty tracker whose rendered payloads
// are bounded at maxPayloadLen characters (payload.DefaultMaxLen when
// <= 0).
func NewToolCallTracker(maxPayloadLen int) *ToolCallTracker {
	return &ToolCallTracker{
		calls:         make(map[string]*ToolCall),
		maxPayloadLen: maxPayloadLen,
	}
}

// RecordStart opens a pending call. A second start for the same call
// identifier overwrites the first — a producer retry is idempotent by
// identifier, so the last start wins.
func (t *ToolCallTracker) RecordStart(sessionID, callID, toolName string, input any, at time.Time) ToolCall {
	call := &ToolCall{
		ID:        callID,
		SessionID: sessionID,
		ToolName:  toolName,
		Input:     payload.Render(input, t.maxPayloadLen),
		StartedAt: at,
		State:     ToolCallPending,
	}
	t.calls[callID] = call
	return *call
}

// RecordEnd closes the call. A matching pending call transitions to
// completed, with the duration taken from durationMs when supplied
// and otherwise derived from the recorded start. An end with no
// matching start creates an orphaned record carrying only end-side
// data — no event is discarded for lack of a counterpart. A repeated
// end overwrites the end-side data of the existing record.
func (t *ToolCallTracker) RecordEnd(sessionID, callID, toolName string, output any, durationMs *int64, at time.Time) ToolCall {
	call := t.calls[callID]
	if call == nil {
		call = &ToolCall{
			ID:        callID,
			SessionID: sessionID,
			ToolName:  toolName,
			State:     ToolCallOrphaned,
		}
		t.calls[callID] = call
	} else if call.State == ToolCallPending {
		call.State = ToolCallCompleted
	}

	call.Output = payload.Render(output, t.maxPayloadLen)
	call.EndedAt = at
	switch {
	case durationMs != nil:
		call.DurationMs = *durationMs
	case !call.StartedAt.IsZero():
		call.DurationMs = at.Sub(call.StartedAt).Milliseconds()
	}
	return *call
}

// SweepPending transitions calls that have been pending since before
// cutoff to orphaned and returns copies of the changed records. A
// liveness aid for starts that never receive their end; correctness
// never depends on it running.
func (t *ToolCallTracker) SweepPending(cutoff time.Time) []ToolCall {
	var swept []ToolCall
	for _, call := range t.calls {
		if call.State == ToolCallPending && call.StartedAt.Before(cutoff) {
			call.State = ToolCallOrphaned
			swept = append(swept, *call)
		}
	}
	return swept
}

// Get returns a copy of the call, if known.
func (t *ToolCallTracker) Get(callID string) (ToolCall, bool) {
	call, ok := t.calls[callID]
	if !ok {
		return ToolCall{}, false
	}
	return *call, true
}

// All returns copies of every call. Ordering is up to the caller.
func (t *ToolCallTracker) All() []ToolCall {
	calls := make([]ToolCall, 0, len(t.calls))
	for _, call := range t.calls {
		calls = append(calls, *call)
	}
	return calls
}
