// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package feed fans accepted state changes out to subscribers.
// Delivery is decoupled from the publisher through bounded
// per-subscriber channels with non-blocking sends: a subscriber that
// cannot keep up is marked stale and dropped rather than ever
// blocking the ingestion path. A stale subscriber resynchronizes by
// resubscribing and receiving a fresh snapshot.
package feed

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize is the per-subscriber channel capacity when the
// hub is configured with zero. Sized for a rendering consumer that
// drains promptly; a consumer this far behind is better served by a
// fresh snapshot than by a longer queue.
const DefaultBufferSize = 256

// Hub fans values out to any number of subscribers. Safe for
// concurrent use.
type Hub[T any] struct {
	bufferSize int
	logger     *slog.Logger

	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscriber[T]
}

// NewHub creates a hub whose subscribers each buffer up to bufferSize
// undelivered values (DefaultBufferSize when <= 0).
func NewHub[T any](bufferSize int, logger *slog.Logger) *Hub[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		panic("feed.NewHub: logger is required")
	}
	return &Hub[T]{
		bufferSize:  bufferSize,
		logger:      logger,
		subscribers: make(map[uuid.UUID]*Subscriber[T]),
	}
}

// Subscriber is one registered consumer. Read values from Events and
// watch Stale: once Stale is closed the subscriber has missed at
// least one value and must resubscribe for a consistent view (Events
// stops receiving after the gap).
type Subscriber[T any] struct {
	id     uuid.UUID
	hub    *Hub[T]
	events chan T
	stale  chan struct{}

	closeOnce sync.Once
}

// Subscribe registers a new subscriber.
func (h *Hub[T]) Subscribe() *Subscriber[T] {
	subscriber := &Subscriber[T]{
		id:     uuid.New(),
		hub:    h,
		events: make(chan T, h.bufferSize),
		stale:  make(chan struct{}),
	}
	h.mu.Lock()
	h.subscribers[subscriber.id] = subscriber
	h.mu.Unlock()

	h.logger.Debug("subscriber registered", "subscriber", subscriber.id)
	return subscriber
}

// Publish delivers value to every subscriber without blocking. A
// subscriber whose buffer is full is marked stale and removed: once a
// value is dropped, everything after it would present a gapped view,
// so the subscriber is cut off at the gap instead.
func (h *Hub[T]) Publish(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, subscriber := range h.subscribers {
		select {
		case subscriber.events <- value:
		default:
			delete(h.subscribers, id)
			close(subscriber.stale)
			h.logger.Warn("subscriber fell behind, marked stale",
				"subscriber", id,
				"buffer_size", h.bufferSize,
			)
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub[T]) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ID returns the subscriber's identifier, for log correlation.
func (s *Subscriber[T]) ID() uuid.UUID { return s.id }

// Events returns the delivery channel. Values arrive in publish
// order with no gaps up to the point the subscriber goes stale.
func (s *Subscriber[T]) Events() <-chan T { return s.events }

// Stale returns a channel closed when the subscriber has missed a
// value and must resubscribe.
func (s *Subscriber[T]) Stale() <-chan struct{} { return s.stale }

// Close deregisters the subscriber. Idempotent; safe to call after
// the subscriber went stale.
func (s *Subscriber[T]) Close() {
	s.closeOnce.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subscribers, s.id)
		s.hub.mu.Unlock()
		s.hub.logger.Debug("subscriber closed", "subscriber", s.id)
	})
}
