// Package ring is a bounded single-producer/single-consumer FIFO.
//
// One goroutine (or interrupt handler) may call Push while another calls Pop,
// with no locks. Head and tail are free-running counters published with
// atomic stores, so the producer only ever writes tail and the consumer only
// ever writes head.
package ring

import "sync/atomic"

// Ring holds up to Cap() values of T.
type Ring[T any] struct {
	buf  []T
	mask uint32
	head atomic.Uint32 // next slot to read, owned by the consumer
	tail atomic.Uint32 // next slot to write, owned by the producer
}

// New returns a ring with room for capacity values. Capacity is rounded up to
// a power of two.
func New[T any](capacity int) *Ring[T] {
	n := uint32(1)
	for int(n) < capacity {
		n <<= 1
	}
	return &Ring[T]{buf: make([]T, n), mask: n - 1}
}

// Push appends v. It returns false, leaving the contents untouched, when the
// ring is full. Push never blocks and never allocates.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint32(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// Pop removes the oldest value. ok is false when the ring is empty.
func (r *Ring[T]) Pop() (v T, ok bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return v, false
	}
	v = r.buf[head&r.mask]
	r.head.Store(head + 1)
	return v, true
}

// Len is a snapshot of the number of queued values.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap is the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
