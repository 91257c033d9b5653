// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jwtor7/sessionwatch/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishDeliversInOrder(t *testing.T) {
	hub := NewHub[int](8, testLogger())
	subscriber := hub.Subscribe()
	defer subscriber.Close()

	for i := 1; i <= 5; i++ {
		hub.Publish(i)
	}
	for want := 1; want <= 5; want++ {
		got := testutil.RequireReceive(t, subscriber.Events(), 5*time.Second, "value %d", want)
		if got != want {
			t.Fatalf("received %d, want %d", got, want)
		}
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub[string](8, testLogger())
	first := hub.Subscribe()
	second := hub.Subscribe()
	defer first.Close()
	defer second.Close()

	hub.Publish("change")

	if got := testutil.RequireReceive(t, first.Events(), 5*time.Second, "first"); got != "change" {
		t.Fatalf("first received %q", got)
	}
	if got := testutil.RequireReceive(t, second.Events(), 5*time.Second, "second"); got != "change" {
		t.Fatalf("second received %q", got)
	}
}

func TestSlowSubscriberMarkedStaleNotBlocking(t *testing.T) {
	hub := NewHub[int](2, testLogger())
	slow := hub.Subscribe()
	fast := hub.Subscribe()
	defer slow.Close()
	defer fast.Close()

	// Publish more than the slow subscriber's buffer without draining
	// it. Publish must return promptly regardless.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(i)
		}
		close(done)
	}()
	testutil.RequireClosed(t, done, 5*time.Second, "publishing stalled on a slow subscriber")

	testutil.RequireClosed(t, slow.Stale(), 5*time.Second, "slow subscriber not marked stale")

	// The fast subscriber is unaffected: it sees a gap-free prefix.
	for want := 0; want < 10; want++ {
		got := testutil.RequireReceive(t, fast.Events(), 5*time.Second, "fast value %d", want)
		if got != want {
			t.Fatalf("fast received %d, want %d", got, want)
		}
	}
}

func TestStaleSubscriberRemoved(t *testing.T) {
	hub := NewHub[int](1, testLogger())
	subscriber := hub.Subscribe()

	hub.Publish(1)
	hub.Publish(2) // overflows, marks stale

	testutil.RequireClosed(t, subscriber.Stale(), 5*time.Second, "stale not signalled")
	if count := hub.SubscriberCount(); count != 0 {
		t.Fatalf("SubscriberCount = %d after staleness, want 0", count)
	}

	// Close after staleness is safe.
	subscriber.Close()
}

func TestCloseDeregisters(t *testing.T) {
	hub := NewHub[int](4, testLogger())
	subscriber := hub.Subscribe()
	if count := hub.SubscriberCount(); count != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", count)
	}
	subscriber.Close()
	subscriber.Close() // idempotent
	if count := hub.SubscriberCount(); count != 0 {
		t.Fatalf("SubscriberCount = %d after Close, want 0", count)
	}
}

func TestDefaultBufferSize(t *testing.T) {
	hub := NewHub[int](0, testLogger())
	if hub.bufferSize != DefaultBufferSize {
		t.Fatalf("bufferSize = %d, want %d", hub.bufferSize, DefaultBufferSize)
	}
}
