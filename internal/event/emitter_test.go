package event

import (
	"sync"
	"sync/atomic"
	"testing"
)

type testEvent struct {
	Value int
}

func TestEmitter_Subscribe(t *testing.T) {
	var e Emitter[testEvent]

	var received []testEvent
	e.Subscribe(func(ev testEvent) {
		received = append(received, ev)
	})

	e.Emit(testEvent{Value: 42})

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Value != 42 {
		t.Errorf("expected value 42, got %d", received[0].Value)
	}
}

func TestEmitter_Order(t *testing.T) {
	var e Emitter[testEvent]

	var order []int
	e.Subscribe(func(testEvent) { order = append(order, 1) })
	e.Subscribe(func(testEvent) { order = append(order, 2) })
	e.Subscribe(func(testEvent) { order = append(order, 3) })

	e.Emit(testEvent{})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("observers called out of order: %v", order)
	}
}

func TestEmitter_EmitToNoObservers(t *testing.T) {
	var e Emitter[testEvent]

	// Should not panic when emitting with no observers
	e.Emit(testEvent{Value: 42})
}

func TestEmitter_Unsubscribe(t *testing.T) {
	var e Emitter[testEvent]

	var a, b int
	unsubA := e.Subscribe(func(testEvent) { a++ })
	e.Subscribe(func(testEvent) { b++ })

	e.Emit(testEvent{})
	unsubA()
	unsubA() // idempotent
	e.Emit(testEvent{})

	if a != 1 {
		t.Errorf("unsubscribed observer called %d times, want 1", a)
	}
	if b != 2 {
		t.Errorf("remaining observer called %d times, want 2", b)
	}
	if e.Len() != 1 {
		t.Errorf("Len() = %d, want 1", e.Len())
	}
}

func TestEmitter_SubscribeDuringEmit(t *testing.T) {
	var e Emitter[testEvent]

	var calls []int
	e.Subscribe(func(testEvent) {
		calls = append(calls, 1)
		e.Subscribe(func(testEvent) { calls = append(calls, 3) })
	})
	e.Subscribe(func(testEvent) { calls = append(calls, 2) })

	e.Emit(testEvent{Value: 1})

	// Only the snapshot taken before emission is called
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d: %v", len(calls), calls)
	}
}

func TestEmitter_Concurrent(t *testing.T) {
	var e Emitter[testEvent]

	var count atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := e.Subscribe(func(testEvent) { count.Add(1) })
			e.Emit(testEvent{})
			unsub()
		}()
	}
	wg.Wait()

	if e.Len() != 0 {
		t.Errorf("Len() = %d after all unsubscribed, want 0", e.Len())
	}
	if count.Load() < 10 {
		t.Errorf("expected at least 10 deliveries, got %d", count.Load())
	}
}
