package control

import "sync/atomic"

// Queue is a bounded single-producer single-consumer ring buffer. TryPush may
// be called from one goroutine and TryPop from another without any other
// synchronization. Neither blocks nor allocates.
//
// When the queue is full, TryPush rejects the new value and counts a drop;
// values already in the queue are never overwritten.
type Queue[T any] struct {
	buf     []T
	mask    uint64
	head    atomic.Uint64 // next index to pop, written by the consumer
	tail    atomic.Uint64 // next index to push, written by the producer
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at least capacity values. The capacity is
// rounded up to a power of two.
func NewQueue[T any](capacity int) *Queue[T] {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &Queue[T]{buf: make([]T, n), mask: uint64(n - 1)}
}

// TryPush appends v to the queue. It returns false, and counts a drop, if the
// queue is full.
func (q *Queue[T]) TryPush(v T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.buf)) {
		q.dropped.Add(1)
		return false
	}
	q.buf[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return true
}

// TryPop removes the oldest value from the queue.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return v, false
	}
	v = q.buf[head&q.mask]
	q.head.Store(head + 1)
	return v, true
}

// Drain pops every value currently in the queue, calling f for each, and
// returns how many were popped.
func (q *Queue[T]) Drain(f func(T)) int {
	n := 0
	for {
		v, ok := q.TryPop()
		if !ok {
			return n
		}
		f(v)
		n++
	}
}

// Len returns the number of values in the queue. When called concurrently
// with the other side, the result is only a snapshot.
func (q *Queue[T]) Len() int { return int(q.tail.Load() - q.head.Load()) }

// Cap returns the capacity of the queue.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Dropped returns how many pushes have been rejected because the queue was
// full.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }
