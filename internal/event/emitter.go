// Package event provides a generic observer list for daemon events.
package event

import "sync"

// Emitter fans an event out to subscribed observers, in subscription order.
// The zero value is ready to use.
type Emitter[E any] struct {
	mu sync.RWMutex
	// +checklocks:mu
	next int
	// +checklocks:mu
	observers []observer[E]
}

type observer[E any] struct {
	id int
	fn func(E)
}

// Subscribe registers fn and returns a function that removes it.
// Observers run synchronously on the emitting goroutine.
func (e *Emitter[E]) Subscribe(fn func(E)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	id := e.next
	e.observers = append(e.observers, observer[E]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Emitter[E]) remove(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, o := range e.observers {
		if o.id == id {
			e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribed observers.
func (e *Emitter[E]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.observers)
}

// Emit sends an event to a snapshot of the current observers, so observers
// may subscribe or unsubscribe while being called. Must not be called with
// the lock held.
func (e *Emitter[E]) Emit(event E) {
	e.mu.RLock()
	observers := make([]observer[E], len(e.observers))
	copy(observers, e.observers)
	e.mu.RUnlock()

	for _, o := range observers {
		o.fn(event)
	}
}
