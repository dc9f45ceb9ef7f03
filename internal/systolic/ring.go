package systolic

// ring is a fixed-capacity FIFO used for the nearest-neighbour channels.
// Depth is a correctness parameter: it must cover the pipeline's in-flight
// window, and since the lockstep driver schedules every push and pop
// statically, hitting an empty or full ring is a schedule bug rather than
// a runtime condition. The ring therefore panics instead of blocking.
type ring[T any] struct {
	slots []T
	head  int
	n     int
}

func newRing[T any](depth int) *ring[T] {
	if depth <= 0 {
		panic("systolic: ring depth must be positive")
	}
	return &ring[T]{slots: make([]T, depth)}
}

func (r *ring[T]) push(v T) {
	if r.n == len(r.slots) {
		panic("systolic: channel overflow")
	}
	r.slots[(r.head+r.n)%len(r.slots)] = v
	r.n++
}

func (r *ring[T]) pop() T {
	if r.n == 0 {
		panic("systolic: channel underflow")
	}
	v := r.slots[r.head]
	r.head = (r.head + 1) % len(r.slots)
	r.n--
	return v
}

func (r *ring[T]) len() int { return r.n }
