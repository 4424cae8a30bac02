// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher is the solver-facing side of the event stream. The solver
// publishes through this interface so tests and embedders can swap in
// a mock or a no-op without touching solver code.
type Publisher interface {
	// Emit broadcasts an event with a typed payload.
	Emit(eventType Type, data any)

	// SetStep records the oracle query count stamped on later events.
	SetStep(step int)
}

// Handler processes one delivered event.
type Handler func(event *Event)

// subscription ties a handler to the event types it asked for. Empty
// types means everything.
type subscription struct {
	handler Handler
	types   []Type
}

func (s subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	for _, want := range s.types {
		if want == t {
			return true
		}
	}
	return false
}

// Emitter broadcasts solve-run events to subscribers and keeps a
// bounded replay ring of recent events, so a watcher that attaches
// mid-run can catch up before streaming live.
//
// Safe for concurrent use. Handlers run synchronously on the emitting
// goroutine; a panicking handler is logged and skipped, never fatal.
type Emitter struct {
	mu    sync.RWMutex
	subs  map[string]subscription
	ring  []Event
	head  int // next write slot
	count int // filled slots, <= len(ring)
	runID string
	step  int
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithBufferSize sets the replay ring capacity. Values below 1 keep
// the default of 1000 events.
func WithBufferSize(size int) EmitterOption {
	return func(e *Emitter) {
		if size > 0 {
			e.ring = make([]Event, size)
		}
	}
}

// NewEmitter creates an emitter with an empty replay ring.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		subs: make(map[string]subscription),
		ring: make([]Event, 1000),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers a handler for the given event types, or for all
// events when no types are named. The returned id feeds Unsubscribe.
func (e *Emitter) Subscribe(handler Handler, types ...Type) string {
	id := uuid.NewString()
	e.mu.Lock()
	e.subs[id] = subscription{handler: handler, types: types}
	e.mu.Unlock()
	return id
}

// Unsubscribe drops a subscription. Reports whether it existed.
func (e *Emitter) Unsubscribe(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.subs[id]
	delete(e.subs, id)
	return ok
}

// SubscriptionCount returns the number of live subscriptions.
func (e *Emitter) SubscriptionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// SetRunID changes the run id stamped on future events. The server
// calls this at the start of each remote solve.
func (e *Emitter) SetRunID(id string) {
	e.mu.Lock()
	e.runID = id
	e.mu.Unlock()
}

// SetStep updates the query count stamped on future events.
func (e *Emitter) SetStep(step int) {
	e.mu.Lock()
	e.step = step
	e.mu.Unlock()
}

// Emit stores the event in the replay ring and delivers it to every
// matching subscriber in turn.
func (e *Emitter) Emit(eventType Type, data any) {
	e.mu.Lock()
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     e.runID,
		Timestamp: time.Now(),
		Step:      e.step,
		Data:      data,
	}
	e.ring[e.head] = event
	e.head = (e.head + 1) % len(e.ring)
	if e.count < len(e.ring) {
		e.count++
	}
	handlers := make([]Handler, 0, len(e.subs))
	for _, sub := range e.subs {
		if sub.wants(eventType) {
			handlers = append(handlers, sub.handler)
		}
	}
	e.mu.Unlock()

	for _, h := range handlers {
		deliver(h, &event)
	}
}

// deliver runs one handler with panic recovery, so a broken subscriber
// cannot end the solve or starve the subscribers after it.
func deliver(h Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"event_type", event.Type,
				"event_id", event.ID,
				"panic", r,
			)
		}
	}()
	h(event)
}

// snapshot returns the ring contents oldest first. Callers hold at
// least a read lock.
func (e *Emitter) snapshot() []Event {
	out := make([]Event, 0, e.count)
	start := e.head - e.count
	if start < 0 {
		start += len(e.ring)
	}
	for i := 0; i < e.count; i++ {
		out = append(out, e.ring[(start+i)%len(e.ring)])
	}
	return out
}

// GetBuffer returns a copy of the replay ring, oldest event first.
func (e *Emitter) GetBuffer() []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot()
}

// GetBufferSince returns buffered events emitted after the given time.
func (e *Emitter) GetBufferSince(since time.Time) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Event
	for _, ev := range e.snapshot() {
		if ev.Timestamp.After(since) {
			out = append(out, ev)
		}
	}
	return out
}

// GetBufferByType returns buffered events of one type, oldest first.
func (e *Emitter) GetBufferByType(eventType Type) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Event
	for _, ev := range e.snapshot() {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// nopPublisher discards everything. Used when a run has no observers.
type nopPublisher struct{}

func (nopPublisher) Emit(Type, any) {}

func (nopPublisher) SetStep(int) {}

// Nop returns a Publisher that discards all events.
func Nop() Publisher {
	return nopPublisher{}
}

// MockEmitter records events for test assertions.
type MockEmitter struct {
	mu     sync.RWMutex
	step   int
	Events []Event
}

func NewMockEmitter() *MockEmitter {
	return &MockEmitter{}
}

// Emit records the event with the current step stamp.
func (m *MockEmitter) Emit(eventType Type, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Step:      m.step,
		Data:      data,
	})
}

// SetStep records the step stamped on later events.
func (m *MockEmitter) SetStep(step int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = step
}

// GetEvents returns a copy of everything recorded so far.
func (m *MockEmitter) GetEvents() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.Events))
	copy(out, m.Events)
	return out
}

// GetEventsByType returns recorded events of one type, in order.
func (m *MockEmitter) GetEventsByType(eventType Type) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for _, ev := range m.Events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// Interface checks.
var (
	_ Publisher = (*Emitter)(nil)
	_ Publisher = (*MockEmitter)(nil)
	_ Publisher = nopPublisher{}
)
