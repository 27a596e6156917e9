package lower

import "hashql/internal/hir"

// DefaultRecycleCapacity is the number of binding buffers kept between boundaries when the
// caller does not configure one.
const DefaultRecycleCapacity = 8

// RecyclerStats counts buffer reuse.
type RecyclerStats struct {
	Hits   int // Acquire served from the pool
	Misses int // Acquire had to allocate
	Pooled int // buffers currently held
}

// Recycler pools binding buffers across evaluation boundaries. It holds at most capacity
// buffers; a zero capacity disables pooling. It is not safe for concurrent use.
type Recycler struct {
	capacity int
	free     [][]hir.Binding
	stats    RecyclerStats
}

// NewRecycler creates a pool that keeps up to capacity buffers.
func NewRecycler(capacity int) *Recycler {
	if capacity < 0 {
		capacity = 0
	}
	return &Recycler{capacity: capacity, free: make([][]hir.Binding, 0, capacity)}
}

// Acquire returns an empty buffer, reusing a pooled one when available.
func (r *Recycler) Acquire(hint int) []hir.Binding {
	if n := len(r.free); n > 0 {
		buf := r.free[n-1]
		r.free = r.free[:n-1]
		r.stats.Hits++
		return buf
	}
	r.stats.Misses++
	return make([]hir.Binding, 0, hint)
}

// Release returns buf to the pool. The caller must not use buf afterwards.
func (r *Recycler) Release(buf []hir.Binding) {
	if len(r.free) >= r.capacity || cap(buf) == 0 {
		return
	}
	clear(buf)
	r.free = append(r.free, buf[:0])
}

// Stats returns the reuse counters.
func (r *Recycler) Stats() RecyclerStats {
	stats := r.stats
	stats.Pooled = len(r.free)
	return stats
}

// State is reusable scratch space for normalization runs. Reusing one State across programs
// lets binding buffers survive between runs; it never affects the output.
type State struct {
	recycler *Recycler
}

// NewState creates a state whose recycler keeps up to capacity buffers.
func NewState(capacity int) *State {
	return &State{recycler: NewRecycler(capacity)}
}

// Recycler returns the binding buffer pool.
func (s *State) Recycler() *Recycler {
	return s.recycler
}
