package lower

import (
	"testing"

	"hashql/internal/hir"
)

func TestRecyclerReuse(t *testing.T) {
	r := NewRecycler(1)

	first := r.Acquire(4)
	first = append(first, hir.Binding{})
	r.Release(first)

	second := r.Acquire(0)
	if len(second) != 0 || cap(second) < 4 {
		t.Fatalf("reused buffer len=%d cap=%d", len(second), cap(second))
	}
	r.Release(second)
	r.Release(make([]hir.Binding, 0, 2))

	stats := r.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Pooled != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRecyclerDisabled(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		r := NewRecycler(capacity)
		r.Release(make([]hir.Binding, 0, 8))
		r.Acquire(0)
		if stats := r.Stats(); stats.Hits != 0 || stats.Pooled != 0 {
			t.Fatalf("capacity %d: stats = %+v", capacity, stats)
		}
	}
}

func TestStateSharedAcrossRuns(t *testing.T) {
	state := NewState(DefaultRecycleCapacity)
	for range 2 {
		f := newFixture()
		b := f.b
		node := b.Call(f.fn("f"), b.Thunk(b.Call(f.fn("g"), b.Call(f.fn("h")))))
		NewNormalization(f.ctx, f.env, state).Run(node)
	}
	if state.Recycler().Stats().Hits == 0 {
		t.Fatal("second run should reuse buffers from the first")
	}
}
