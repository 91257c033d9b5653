// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package state

// TaskGraph holds each team's shared task list with blocking edges.
// Batches replace a team's list wholesale — last write wins, no
// partial merge. Edges are stored exactly as reported: the graph is a
// reporting view, not a scheduler, so dangling, one-sided, and cyclic
// edges are representable and never rejected. Not safe for concurrent
// use; the engine serializes access.
type TaskGraph struct {
	byTeam map[string][]Task
}

// NewTaskGraph returns an empty graph.
func NewTaskGraph() *TaskGraph {
	return &TaskGraph{byTeam: make(map[string][]Task)}
}

// Replace swaps in a team's full task list. A task absent from the
// new batch is gone. Batch order is preserved for display.
func (g *TaskGraph) Replace(teamID string, tasks []Task) TeamTasks {
	stored := make([]Task, len(tasks))
	copy(stored, tasks)
	g.byTeam[teamID] = stored
	return g.teamCopy(teamID)
}

// Complete marks one task completed in place. An unknown task is a
// referential gap: a completed stub is materialized so the completion
// survives even when the batch that announced the task was never
// seen.
func (g *TaskGraph) Complete(teamID, taskID, subject string) TeamTasks {
	tasks := g.byTeam[teamID]
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].Status = TaskCompleted
			return g.teamCopy(teamID)
		}
	}
	g.byTeam[teamID] = append(tasks, Task{
		ID:      taskID,
		Subject: subject,
		Status:  TaskCompleted,
	})
	return g.teamCopy(teamID)
}

// Team returns a copy of one team's task list.
func (g *TaskGraph) Team(teamID string) TeamTasks {
	return g.teamCopy(teamID)
}

// All returns copies of every team's task list. Ordering across
// teams is up to the caller.
func (g *TaskGraph) All() []TeamTasks {
	all := make([]TeamTasks, 0, len(g.byTeam))
	for teamID := range g.byTeam {
		all = append(all, g.teamCopy(teamID))
	}
	return all
}

func (g *TaskGraph) teamCopy(teamID string) TeamTasks {
	tasks := g.byTeam[teamID]
	copied := make([]Task, len(tasks))
	copy(copied, tasks)
	return TeamTasks{TeamID: teamID, Tasks: copied}
}
