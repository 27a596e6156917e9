package trace

import (
	"fmt"
	"io"
	"sync"
)

// RingTracer keeps the last events of a run in memory. The driver dumps it when a command
// fails, so the events leading up to the failure are visible without streaming a full trace.
type RingTracer struct {
	mu      sync.RWMutex
	events  []Event
	head    int  // next write position
	full    bool // has wrapped around
	emitted uint64
	level   Level
}

// NewRingTracer creates a RingTracer holding at most capacity events (4096 if capacity <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{
		events: make([]Event, capacity),
		level:  level,
	}
}

// Emit stores ev, overwriting the oldest event once the ring is full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := *ev
	stored.Seq = NextSeq()
	t.events[t.head] = stored
	t.head = (t.head + 1) % len(t.events)
	t.emitted++
	if t.head == 0 {
		t.full = true
	}
}

// Snapshot returns a copy of the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.full {
		result := make([]Event, t.head)
		copy(result, t.events[:t.head])
		return result
	}
	result := make([]Event, len(t.events))
	n := copy(result, t.events[t.head:])
	copy(result[n:], t.events[:t.head])
	return result
}

// Dropped reports how many events were overwritten since the tracer was created.
func (t *RingTracer) Dropped() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	capacity := uint64(len(t.events))
	if t.emitted <= capacity {
		return 0
	}
	return t.emitted - capacity
}

// DumpOptions selects what Dump writes.
type DumpOptions struct {
	Format   Format
	MaxScope Scope // events finer than this are skipped; 0 keeps all
	Last     int   // only the newest Last events after filtering; 0 keeps all
}

// Dump writes the stored events selected by opts. When older events were overwritten, or
// skipped by Last, a leading line says how many.
func (t *RingTracer) Dump(w io.Writer, opts DumpOptions) error {
	events := t.Snapshot()
	if opts.MaxScope != 0 {
		kept := events[:0]
		for _, ev := range events {
			if ev.Scope <= opts.MaxScope || ev.Kind == KindHeartbeat {
				kept = append(kept, ev)
			}
		}
		events = kept
	}
	skipped := t.Dropped()
	if opts.Last > 0 && len(events) > opts.Last {
		skipped += uint64(len(events) - opts.Last)
		events = events[len(events)-opts.Last:]
	}

	if skipped > 0 && opts.Format != FormatNDJSON {
		if _, err := fmt.Fprintf(w, "… %d earlier event(s) not shown\n", skipped); err != nil {
			return err
		}
	}
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], opts.Format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

func (t *RingTracer) Close() error { return nil }

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
