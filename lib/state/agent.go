// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"regexp"
	"strings"
	"time"
)

// identifierPattern matches strings that look like raw identifiers: a
// hexadecimal run of 7 or more characters. Such a string must never
// be surfaced as a display name — raw identifiers are visually
// indistinguishable from content and would leak into name fields.
var identifierPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,}$`)

// LooksLikeIdentifier reports whether s is an identifier-looking
// string that the name resolution chain must reject.
func LooksLikeIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// AgentTable is the subagent mapping table: the single authoritative
// place an agent identifier resolves to a human name. Not safe for
// concurrent use; the engine serializes access.
type AgentTable struct {
	agents map[string]*Subagent
}

// NewAgentTable returns an empty table.
func NewAgentTable() *AgentTable {
	return &AgentTable{agents: make(map[string]*Subagent)}
}

// Upsert creates or updates the agent record. Exactly one record
// exists per identifier; a repeated start reflects the latest event's
// data. Empty fields on an update do not erase previously known
// values — a mapping batch without a name must not wipe a name a
// start event already supplied.
func (t *AgentTable) Upsert(agentID, parentSessionID, name string, startedAt time.Time, status AgentStatus) Subagent {
	agent := t.agents[agentID]
	if agent == nil {
		agent = &Subagent{ID: agentID, Status: AgentRunning}
		t.agents[agentID] = agent
	}
	if parentSessionID != "" {
		agent.ParentSessionID = parentSessionID
	}
	if name != "" {
		agent.Name = name
	}
	if !startedAt.IsZero() {
		agent.StartedAt = startedAt
	}
	if status != "" {
		agent.Status = status
	}
	return *agent
}

// MarkStatus updates the lifecycle status in place. A status for an
// unknown agent is a referential gap: reported as not ok and
// otherwise ignored — the table only materializes records from start
// and mapping events.
func (t *AgentTable) MarkStatus(agentID string, status AgentStatus) (Subagent, bool) {
	agent := t.agents[agentID]
	if agent == nil {
		return Subagent{}, false
	}
	agent.Status = status
	return *agent, true
}

// ResolveName returns the display name for an agent identifier via
// the ordered fallback chain: the stored name when non-empty, then
// the substring before the first colon of the caller-supplied output
// text, then empty for "no displayable name". Every layer applies the
// identifier filter — a 7+ character hex string is never a name.
func (t *AgentTable) ResolveName(agentID, output string) string {
	if agent := t.agents[agentID]; agent != nil {
		if name := displayable(agent.Name); name != "" {
			return name
		}
	}
	prefix, _, _ := strings.Cut(output, ":")
	return displayable(strings.TrimSpace(prefix))
}

// displayable returns candidate unless it is empty or looks like a
// raw identifier.
func displayable(candidate string) string {
	if candidate == "" || LooksLikeIdentifier(candidate) {
		return ""
	}
	return candidate
}

// Get returns a copy of the agent record, if known.
func (t *AgentTable) Get(agentID string) (Subagent, bool) {
	agent, ok := t.agents[agentID]
	if !ok {
		return Subagent{}, false
	}
	return *agent, true
}

// All returns copies of every agent record. Ordering is up to the
// caller.
func (t *AgentTable) All() []Subagent {
	agents := make([]Subagent, 0, len(t.agents))
	for _, agent := range t.agents {
		agents = append(agents, *agent)
	}
	return agents
}
