// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package state holds the in-memory stores that aggregate the event
// stream into a queryable view: the session registry, tool call
// tracker, subagent mapping table, task graph, team and message log,
// hook decision log, and plan document store.
//
// The [Engine] owns every store and is the only component that
// mutates them. Apply is a single serialized path: one mutex, one
// event at a time, with the resulting change handed to the feed hub
// before the next event is applied. That serialization is what makes
// tool start/end pairing and agent name resolution correct — no two
// events interleave mid-mutation. The individual store types carry no
// locking of their own and must only be touched through the engine.
//
// Every store is keyed by a producer-supplied identifier; nothing in
// this package generates event identifiers. Accepted records are
// immutable except for explicit state-machine transitions: a tool
// call moves pending→completed or pending→orphaned, a subagent
// running→completed/failed, a session open→closed. Referential gaps
// (an end without a start, a stop for an unknown agent) are policy,
// never errors.
package state
