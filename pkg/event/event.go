// Package event provides a lightweight notification system.
//
// Design principles:
// - Events are notifications only, with small payloads at most
// - Each event type is a separate Go type for type safety
// - Subscribers pull actual state (e.g. an engine snapshot) after a notification
package event

import "sync"

// Event is the interface all event types must implement.
type Event interface {
	// EventName returns the unique name for this event type (e.g., "workspace.stateChanged")
	EventName() string
}

// Listener is a callback function for handling events.
type Listener func(Event)

// Emitter manages event subscriptions and dispatching.
type Emitter struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[string]map[int]Listener // eventName -> id -> listener
	any       map[int]Listener            // listeners for all events
}

// NewEmitter creates a new event emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: make(map[string]map[int]Listener),
		any:       make(map[int]Listener),
	}
}

// On subscribes to a specific event type.
// Returns an unsubscribe function.
func (e *Emitter) On(eventName string, fn Listener) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	if e.listeners[eventName] == nil {
		e.listeners[eventName] = make(map[int]Listener)
	}
	e.listeners[eventName][id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners[eventName], id)
		e.mu.Unlock()
	}
}

// OnAny subscribes to all events.
func (e *Emitter) OnAny(fn Listener) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.any[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.any, id)
		e.mu.Unlock()
	}
}

// Emit dispatches an event to all matching listeners. Listeners run on the
// caller's goroutine; they must not block.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	// Copy listeners to avoid holding the lock during callbacks.
	fns := make([]Listener, 0, len(e.listeners[ev.EventName()])+len(e.any))
	for _, fn := range e.listeners[ev.EventName()] {
		fns = append(fns, fn)
	}
	for _, fn := range e.any {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
