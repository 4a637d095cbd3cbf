package engine

import (
	"context"
	"sync"
)

// op is one queued engine operation.
type op struct {
	// name labels the operation in logs (e.g. "create", "action:refund").
	name string
	// run executes the operation inside the Run loop and delivers its reply.
	run func(ctx context.Context)
	// fail delivers err as the reply without running the operation.
	fail func(err error)
}

// opQueue is a thread-safe FIFO queue of operations.
//
// The queue is unbounded so that callers never block on enqueue; back
// pressure comes from callers waiting on their replies.
//
// Thread-safety is provided for enqueuing from any goroutine (HTTP
// handlers) while the Engine's Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type opQueue struct {
	mu     sync.Mutex
	ops    []op
	closed bool
	signal chan struct{} // Signals op availability (buffered, size 1)
}

// newOpQueue creates an empty op queue.
func newOpQueue() *opQueue {
	return &opQueue{
		ops:    make([]op, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an op to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *opQueue) Enqueue(o op) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.ops = append(q.ops, o)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (op{}, false) if queue is empty.
func (q *opQueue) TryDequeue() (op, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return op{}, false
	}

	o := q.ops[0]

	// Clear the slot so the closures (and their reply channels) can be collected.
	q.ops[0] = op{}

	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}

	return o, true
}

// Wait returns a channel that signals when ops may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *opQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Close signals that no more ops will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *opQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Drain closes the queue and removes every remaining op.
func (q *opQueue) Drain() []op {
	q.Close()

	q.mu.Lock()
	defer q.mu.Unlock()

	rest := q.ops
	q.ops = nil
	return rest
}
