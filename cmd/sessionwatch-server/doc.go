// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Sessionwatch-server is the session monitoring server. It ingests
// lifecycle events from an agent-orchestration tool's hook scripts
// and harnesses, aggregates them into an in-memory view of all active
// and historical sessions, and streams incremental changes to any
// number of monitoring consumers.
//
// # HTTP API
//
//   - POST /events — one JSON wire event per request, discriminated
//     by the required "type" field. 204 on acceptance, 400 with a
//     human-readable reason on validation failure.
//   - POST /hook — the raw snake_case payload posted by hook scripts
//     themselves, validated against the strict hook-type enumeration
//     and reshaped into wire events before ingestion.
//   - GET /stream — WebSocket. The client first receives a full
//     snapshot frame, then every accepted mutation as a change frame
//     in exact apply order, with periodic heartbeats. A client that
//     falls behind receives a terminal "stale" frame and is expected
//     to reconnect for a fresh snapshot.
//   - GET /status — aggregate operational counters (events accepted
//     and rejected, subscriber count, uptime). No session content.
//   - GET /healthz — process liveness only.
//
// # Ingestion model
//
// Every accepted event is applied to its store atomically with
// respect to all other applies, and the resulting change reaches the
// fan-out hub before the next event is applied. Slow stream consumers
// never block ingestion: their buffered queues overflow, they are
// marked stale, and they resynchronize by reconnecting.
package main
