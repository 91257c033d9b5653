// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"strings"
	"testing"
)

func TestRenderStringPassesThrough(t *testing.T) {
	if got := Render("plain text", 100); got != "plain text" {
		t.Fatalf("Render = %q, want %q", got, "plain text")
	}
}

func TestRenderMarshalsNonStrings(t *testing.T) {
	got := Render(map[string]int{"count": 3}, 100)
	if got != `{"count":3}` {
		t.Fatalf("Render = %q", got)
	}
}

func TestRenderNilIsEmpty(t *testing.T) {
	if got := Render(nil, 100); got != "" {
		t.Fatalf("Render(nil) = %q, want empty", got)
	}
}

type selfRef struct {
	Name string   `json:"name"`
	Self *selfRef `json:"self"`
}

func TestRenderCyclicValueYieldsSentinel(t *testing.T) {
	value := &selfRef{Name: "loop"}
	value.Self = value
	if got := Render(value, 100); got != Sentinel {
		t.Fatalf("Render(cyclic) = %q, want %q", got, Sentinel)
	}
}

func TestRenderUnsupportedTypeYieldsSentinel(t *testing.T) {
	if got := Render(func() {}, 100); got != Sentinel {
		t.Fatalf("Render(func) = %q, want %q", got, Sentinel)
	}
}

func TestTruncateBounds(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := Truncate(long, 100)

	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("truncated output missing marker: %q", got)
	}
	if maxLen := 100 + len(TruncationMarker); len(got) > maxLen {
		t.Fatalf("truncated output %d chars, want <= %d", len(got), maxLen)
	}
	if !strings.HasPrefix(got, strings.Repeat("x", 100)) {
		t.Fatalf("truncated output lost prefix: %q", got[:20])
	}
}

func TestTruncateShortValueUnmodified(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Fatalf("Truncate = %q, want %q", got, "short")
	}
}

func TestTruncateExactBoundUnmodified(t *testing.T) {
	exact := strings.Repeat("y", 100)
	if got := Truncate(exact, 100); got != exact {
		t.Fatalf("Truncate at exact bound modified the value")
	}
}

func TestRenderDefaultBound(t *testing.T) {
	long := strings.Repeat("z", DefaultMaxLen+1)
	got := Render(long, 0)
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("Render with max=0 did not apply the default bound")
	}
}
