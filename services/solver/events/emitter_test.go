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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_SubscribeAndEmit(t *testing.T) {
	e := NewEmitter()
	e.SetRunID("run-1")

	var received []*Event
	e.Subscribe(func(event *Event) {
		received = append(received, event)
	})

	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 1, Guess: "B", Matches: -2, Phase: PhaseDetect})

	require.Len(t, received, 1)
	assert.Equal(t, TypeProbeIssued, received[0].Type)
	assert.Equal(t, "run-1", received[0].RunID)
	assert.NotEmpty(t, received[0].ID)

	data, ok := received[0].Data.(ProbeIssuedData)
	require.True(t, ok)
	assert.Equal(t, "B", data.Guess)
	assert.Equal(t, -2, data.Matches)
}

func TestEmitter_TypeFilter(t *testing.T) {
	e := NewEmitter()

	var probes int
	e.Subscribe(func(event *Event) {
		probes++
	}, TypeProbeIssued)

	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 1})
	e.Emit(TypeLengthDetected, LengthDetectedData{Length: 14})
	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 2})

	assert.Equal(t, 2, probes)
}

func TestEmitter_MultipleTypesOneSubscription(t *testing.T) {
	e := NewEmitter()

	var seen []Type
	e.Subscribe(func(event *Event) {
		seen = append(seen, event.Type)
	}, TypeSolveStarted, TypeSolveCompleted)

	e.Emit(TypeSolveStarted, SolveStartedData{Alphabet: "BACXIU"})
	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 1})
	e.Emit(TypeSolveCompleted, SolveCompletedData{Code: "BAC"})

	assert.Equal(t, []Type{TypeSolveStarted, TypeSolveCompleted}, seen)
}

func TestEmitter_Unsubscribe(t *testing.T) {
	e := NewEmitter()

	var count int
	id := e.Subscribe(func(event *Event) { count++ })
	require.Equal(t, 1, e.SubscriptionCount())

	e.Emit(TypeProbeIssued, nil)
	assert.True(t, e.Unsubscribe(id))
	assert.False(t, e.Unsubscribe(id), "second Unsubscribe should report missing")
	assert.Equal(t, 0, e.SubscriptionCount())

	e.Emit(TypeProbeIssued, nil)
	assert.Equal(t, 1, count, "handler must not fire after Unsubscribe")
}

func TestEmitter_RingEvictsOldest(t *testing.T) {
	e := NewEmitter(WithBufferSize(4))

	for i := 1; i <= 6; i++ {
		e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: i})
	}

	buf := e.GetBuffer()
	require.Len(t, buf, 4)
	for i, ev := range buf {
		data := ev.Data.(ProbeIssuedData)
		assert.Equal(t, i+3, data.Sequence, "buffer should hold 3..6 oldest first")
	}
}

func TestEmitter_GetBufferSince(t *testing.T) {
	e := NewEmitter()

	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 1})
	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 2})
	cut := time.Now()
	time.Sleep(5 * time.Millisecond)
	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 3})

	later := e.GetBufferSince(cut)
	require.Len(t, later, 1)
	assert.Equal(t, 3, later[0].Data.(ProbeIssuedData).Sequence)
}

func TestEmitter_GetBufferByType(t *testing.T) {
	e := NewEmitter()

	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 1})
	e.Emit(TypeLengthDetected, LengthDetectedData{Length: 9})
	e.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 2})

	assert.Len(t, e.GetBufferByType(TypeProbeIssued), 2)
	assert.Len(t, e.GetBufferByType(TypeLengthDetected), 1)
	assert.Empty(t, e.GetBufferByType(TypeSolveFailed))
}

func TestEmitter_StepStamping(t *testing.T) {
	e := NewEmitter()

	var steps []int
	e.Subscribe(func(event *Event) { steps = append(steps, event.Step) })

	e.Emit(TypeSolveStarted, nil)
	e.SetStep(7)
	e.Emit(TypeProbeIssued, nil)
	e.SetStep(8)
	e.Emit(TypeProbeIssued, nil)

	assert.Equal(t, []int{0, 7, 8}, steps)
}

func TestEmitter_PanicInHandlerDoesNotStopDelivery(t *testing.T) {
	e := NewEmitter()

	var survived int
	e.Subscribe(func(event *Event) { panic("subscriber bug") })
	e.Subscribe(func(event *Event) { survived++ })

	require.NotPanics(t, func() {
		e.Emit(TypeProbeIssued, nil)
		e.Emit(TypeProbeIssued, nil)
	})
	assert.Equal(t, 2, survived)
}

func TestEmitter_ConcurrentEmits(t *testing.T) {
	e := NewEmitter(WithBufferSize(64))

	var mu sync.Mutex
	delivered := 0
	e.Subscribe(func(event *Event) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				e.Emit(TypeProbeIssued, ProbeIssuedData{Guess: fmt.Sprintf("g%d-%d", g, i)})
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 200, delivered)
	assert.Len(t, e.GetBuffer(), 64, "ring must stay at capacity")
}

func TestNop_DiscardsEverything(t *testing.T) {
	p := Nop()
	require.NotPanics(t, func() {
		p.SetStep(3)
		p.Emit(TypeSolveFailed, SolveFailedData{Error: "x"})
	})
}

func TestMockEmitter_RecordsInOrder(t *testing.T) {
	m := NewMockEmitter()

	m.Emit(TypeSolveStarted, SolveStartedData{Alphabet: "AB"})
	m.SetStep(4)
	m.Emit(TypeProbeIssued, ProbeIssuedData{Sequence: 1})
	m.Emit(TypeSolveCompleted, SolveCompletedData{Code: "AB"})

	all := m.GetEvents()
	require.Len(t, all, 3)
	assert.Equal(t, TypeSolveStarted, all[0].Type)
	assert.Equal(t, 0, all[0].Step)
	assert.Equal(t, 4, all[1].Step)

	probes := m.GetEventsByType(TypeProbeIssued)
	require.Len(t, probes, 1)
	assert.Equal(t, 1, probes[0].Data.(ProbeIssuedData).Sequence)
}

func TestMockEmitter_GetEventsReturnsCopy(t *testing.T) {
	m := NewMockEmitter()
	m.Emit(TypeSolveStarted, nil)

	got := m.GetEvents()
	got[0].Type = TypeSolveFailed

	assert.Equal(t, TypeSolveStarted, m.GetEvents()[0].Type)
}
