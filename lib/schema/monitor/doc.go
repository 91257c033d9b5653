// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package monitor defines the wire event universe for the session
// monitoring server: one event kind per lifecycle occurrence in the
// orchestration tool (session start, tool invocation start/end, model
// thinking, hook decisions, subagent lifecycle, team and task
// updates, plan documents, inter-agent messages).
//
// [Parse] is the single entry point for inbound payloads. It decodes
// the JSON envelope, dispatches on the required "type" discriminant
// via an exhaustive switch, and validates the per-kind required
// fields, returning either a normalized [Event] or an error naming
// the first missing or malformed field. Parse is pure: it never
// touches any store and has no side effects, so the boundary between
// "malformed, reject with 400" and "accepted, apply" is exactly one
// function call.
//
// Timestamps on the wire are RFC 3339 strings, except plan_update's
// lastModified which is epoch milliseconds.
package monitor
