// Package ev batches work produced by a connection's reader goroutine
// so that it can be processed in order on the dispatching goroutine.
package ev

import (
	"deedles.dev/xsync"
)

// Queue is an unbounded FIFO of pending events. It must not be copied
// after first use.
type Queue struct {
	q xsync.Queue[func() error]
}

func NewQueue() *Queue {
	return new(Queue)
}

// Add returns a channel that enqueues the events sent to it. Sending
// after Stop panics.
func (q *Queue) Add() chan<- func() error {
	return q.q.Push()
}

// Get returns a channel that yields pending events one at a time. It
// is closed once the Queue is stopped.
func (q *Queue) Get() <-chan func() error {
	return q.q.Pop()
}

// Batch returns a batch starting with first followed by every event
// that is already waiting in the queue.
func (q *Queue) Batch(first func() error) *Events {
	events := []func() error{first}
	for {
		select {
		case ev, ok := <-q.q.Pop():
			if !ok {
				return &Events{events: events}
			}
			events = append(events, ev)
		default:
			return &Events{events: events}
		}
	}
}

func (q *Queue) Stop() {
	q.q.Stop()
}

// Events represents a batch of work from a Client's event queue.
type Events struct {
	events []func() error
}

// Len returns the number of events remaining in the batch.
func (q *Events) Len() int {
	return len(q.events)
}

// Next runs the next event in the batch. It returns false if the
// batch is empty.
func (q *Events) Next() (bool, error) {
	if len(q.events) == 0 {
		return false, nil
	}

	ev := q.events[0]
	q.events = q.events[1:]
	return true, ev()
}

// Flush runs events in order until one of them fails or the batch is
// exhausted. Events after a failure are left in the batch.
func (q *Events) Flush() error {
	for {
		ok, err := q.Next()
		if !ok || (err != nil) {
			return err
		}
	}
}
