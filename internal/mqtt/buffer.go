package mqtt

import (
	"log"
	"sync"
)

// pendingEvent is a serialized system event waiting for a connection.
type pendingEvent struct {
	event    string
	payload  []byte
	retained bool
}

// eventQueue holds lifecycle events published while disconnected, so a
// STARTUP during a broker outage still reaches the collector. Telemetry is
// never queued: a newer record supersedes an undelivered one.
type eventQueue struct {
	mu       sync.Mutex
	items    []pendingEvent
	capacity int
	dropped  int
}

func newEventQueue(capacity int) *eventQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &eventQueue{capacity: capacity}
}

// add appends an event, discarding the oldest when full.
func (q *eventQueue) add(e pendingEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == q.capacity {
		if q.dropped == 0 {
			log.Printf("mqtt: event queue full (%d events), dropping oldest", q.capacity)
		}
		q.dropped++
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, e)
}

// take removes and returns all queued events, oldest first, plus the
// number dropped since the last take.
func (q *eventQueue) take() ([]pendingEvent, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, dropped := q.items, q.dropped
	q.items = nil
	q.dropped = 0
	return items, dropped
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
