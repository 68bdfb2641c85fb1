package internal

import (
	"github.com/google/uuid"
	"strconv"
	"sync"
)

// EventKind identifies a host-delivered signal.
type EventKind int

const (
	EventToggle EventKind = iota
	EventSessionStart
	EventSessionEnd
	EventResize
)

func (k EventKind) String() string {
	switch k {
	case EventToggle:
		return "toggle"
	case EventSessionStart:
		return "sessionstart"
	case EventSessionEnd:
		return "sessionend"
	case EventResize:
		return "resize"
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// Event is one queued signal. Width and Height are only set for EventResize,
// Session only for session events.
type Event struct {
	Kind          EventKind
	Width, Height int
	Session       uuid.UUID
}

// EventQueue collects signals from any goroutine; the render goroutine drains it once per tick.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

// Push queues ev. It is a no-op after Close.
func (q *EventQueue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.events = append(q.events, ev)
}

// Drain removes and returns every queued event, in arrival order.
func (q *EventQueue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	evs := q.events
	q.events = nil
	return evs
}

// Close drops pending events and detaches every producer.
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.events = nil
	q.mu.Unlock()
}

// Toggle queues a user mode toggle.
func (q *EventQueue) Toggle() {
	q.Push(Event{Kind: EventToggle})
}

// SessionStart queues a VR session start and returns the new session id.
func (q *EventQueue) SessionStart() uuid.UUID {
	id := uuid.New()
	q.Push(Event{Kind: EventSessionStart, Session: id})
	return id
}

// SessionEnd queues the end of session id.
func (q *EventQueue) SessionEnd(id uuid.UUID) {
	q.Push(Event{Kind: EventSessionEnd, Session: id})
}

// Resize queues a new viewport size.
func (q *EventQueue) Resize(width, height int) {
	q.Push(Event{Kind: EventResize, Width: width, Height: height})
}
