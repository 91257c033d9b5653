// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package payload renders opaque event payloads (tool inputs and
// outputs, hook output text) into bounded strings safe to hold in the
// in-memory stores. Rendering never fails: values that cannot be
// serialized collapse to a fixed sentinel, and oversized values are
// truncated with an explicit marker. A single hostile or broken
// payload must never abort ingestion of the events that follow it.
package payload

import "encoding/json"

// Sentinel replaces any value that cannot be serialized to text, such
// as a self-referential structure.
const Sentinel = "[unserializable]"

// TruncationMarker is appended to values cut at the size bound.
const TruncationMarker = "... [truncated]"

// DefaultMaxLen is the bound applied when a caller passes max <= 0.
const DefaultMaxLen = 10_000

// Render converts value to a bounded string. Strings pass through
// unencoded; everything else is JSON-marshaled. Marshal failures
// yield Sentinel. Output longer than max runes is cut to max with
// TruncationMarker appended, so the result is never longer than
// max + len(TruncationMarker).
func Render(value any, max int) string {
	if max <= 0 {
		max = DefaultMaxLen
	}

	var text string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		text = v
	case json.RawMessage:
		text = string(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return Sentinel
		}
		text = string(encoded)
	}

	return Truncate(text, max)
}

// Truncate cuts text to at most max runes, appending TruncationMarker
// when anything was removed. Text at or under the bound is returned
// unmodified.
func Truncate(text string, max int) string {
	if max <= 0 {
		max = DefaultMaxLen
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + TruncationMarker
}
