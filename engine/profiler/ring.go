package profiler

import "fmt"

// ring is a fixed-capacity circular buffer addressed by monotonic logical
// indices. Index head-1 is the newest entry and tail() the oldest retained.
type ring[T any] struct {
	items []T
	head  uint64
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{items: make([]T, capacity)}
}

// push overwrites the oldest entry once full and returns the zeroed slot.
func (r *ring[T]) push() *T {
	slot := &r.items[r.head%uint64(len(r.items))]
	var zero T
	*slot = zero
	r.head++
	return slot
}

func (r *ring[T]) tail() uint64 {
	if n := uint64(len(r.items)); r.head > n {
		return r.head - n
	}
	return 0
}

func (r *ring[T]) len() int { return int(r.head - r.tail()) }

// retained reports whether the logical index i still holds data.
func (r *ring[T]) retained(i uint64) bool { return i >= r.tail() && i < r.head }

func (r *ring[T]) at(i uint64) *T {
	if !r.retained(i) {
		panic(fmt.Sprintf("profiler: ring index %d outside [%d, %d)", i, r.tail(), r.head))
	}
	return &r.items[i%uint64(len(r.items))]
}

func (r *ring[T]) newest() *T { return r.at(r.head - 1) }
