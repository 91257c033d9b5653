// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

import "time"

// TeamLog holds current team membership (replaced wholesale per
// team_update) and the ordered, append-only inter-agent message log.
// Messages are unbounded within the process lifetime; capping display
// is the consumer's concern, not a storage concern. Not safe for
// concurrent use; the engine serializes access.
type TeamLog struct {
	teams    map[string]*Team
	messages []Message
}

// NewTeamLog returns an empty log.
func NewTeamLog() *TeamLog {
	return &TeamLog{teams: make(map[string]*Team)}
}

// ReplaceTeam swaps in a team's full membership snapshot.
func (l *TeamLog) ReplaceTeam(name string, members []TeamMember) Team {
	stored := make([]TeamMember, len(members))
	copy(stored, members)
	l.teams[name] = &Team{Name: name, Members: stored}
	return l.teamCopy(name)
}

// AppendMessage records one inter-agent message. Always succeeds
// given a validated record.
func (l *TeamLog) AppendMessage(message Message) Message {
	l.messages = append(l.messages, message)
	return message
}

// Teams returns copies of every team. Ordering is up to the caller.
func (l *TeamLog) Teams() []Team {
	teams := make([]Team, 0, len(l.teams))
	for name := range l.teams {
		teams = append(teams, l.teamCopy(name))
	}
	return teams
}

// Messages returns a copy of the message log in append order.
func (l *TeamLog) Messages() []Message {
	messages := make([]Message, len(l.messages))
	copy(messages, l.messages)
	return messages
}

func (l *TeamLog) teamCopy(name string) Team {
	team := l.teams[name]
	members := make([]TeamMember, len(team.Members))
	copy(members, team.Members)
	return Team{Name: team.Name, Members: members}
}

// HookLog is the append-only audit trail of policy hook decisions.
// Not safe for concurrent use; the engine serializes access.
type HookLog struct {
	decisions []HookDecision
}

// NewHookLog returns an empty log.
func NewHookLog() *HookLog {
	return &HookLog{}
}

// Append records one decision. Always succeeds given a validated
// record; decisions are never mutated afterward.
func (l *HookLog) Append(decision HookDecision) HookDecision {
	l.decisions = append(l.decisions, decision)
	return decision
}

// All returns a copy of the decision log in append order.
func (l *HookLog) All() []HookDecision {
	decisions := make([]HookDecision, len(l.decisions))
	copy(decisions, l.decisions)
	return decisions
}

// PlanStore is the latest-revision-wins store of plan documents,
// keyed by path. Not safe for concurrent use; the engine serializes
// access.
type PlanStore struct {
	plans map[string]*PlanDocument
}

// NewPlanStore returns an empty store.
func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[string]*PlanDocument)}
}

// Upsert stores the document unless a strictly newer revision is
// already present: an out-of-order replay of an older snapshot must
// not regress the stored content. Returns the stored document and
// whether this call changed it. An equal timestamp overwrites, which
// makes replays of the current revision idempotent.
func (s *PlanStore) Upsert(path, filename, content string, lastModified time.Time) (PlanDocument, bool) {
	existing := s.plans[path]
	if existing != nil && lastModified.Before(existing.LastModified) {
		return *existing, false
	}
	document := &PlanDocument{
		Path:         path,
		Filename:     filename,
		Content:      content,
		LastModified: lastModified,
	}
	s.plans[path] = document
	return *document, true
}

// Get returns a copy of the document at path, if present.
func (s *PlanStore) Get(path string) (PlanDocument, bool) {
	document, ok := s.plans[path]
	if !ok {
		return PlanDocument{}, false
	}
	return *document, true
}

// All returns copies of every document. Ordering is up to the caller.
func (s *PlanStore) All() []PlanDocument {
	plans := make([]PlanDocument, 0, len(s.plans))
	for _, document := range s.plans {
		plans = append(plans, *document)
	}
	return plans
}
