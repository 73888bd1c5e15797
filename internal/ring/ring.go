// Package ring provides a bounded FIFO buffer that evicts its oldest entry when full.
package ring

// Ring is a fixed-capacity FIFO. Pushing onto a full ring drops the oldest item.
//
// Ring is not goroutine-safe; owners serialize access.
type Ring[T any] struct {
	items []T
	head  int // index of the oldest item
	size  int
}

// New creates a ring that holds at most capacity items. A capacity below 1 is treated as 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends item at the tail. It returns true when an old item was evicted.
func (r *Ring[T]) Push(item T) bool {
	capacity := len(r.items)
	if r.size < capacity {
		r.items[(r.head+r.size)%capacity] = item
		r.size++
		return false
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % capacity

	return true
}

// Last returns the most recently pushed item.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.items[(r.head+r.size-1)%len(r.items)], true
}

// Items returns a copy of the contents, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}

// Each calls fn for every item, oldest first.
func (r *Ring[T]) Each(fn func(T)) {
	for i := 0; i < r.size; i++ {
		fn(r.items[(r.head+i)%len(r.items)])
	}
}

// Len returns the number of stored items.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.items) }

// IsEmpty returns true if the ring holds no items.
func (r *Ring[T]) IsEmpty() bool { return r.size == 0 }

// Reset empties the ring, keeping its storage.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}
