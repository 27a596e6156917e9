package trace

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// Heartbeat periodically emits driver-scope events while a command runs. A trace that has
// heartbeats but no span end for a long time points at a stuck file.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	status   func() string
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
}

// StartHeartbeat starts emitting a heartbeat every interval. status, when non-nil, is called
// on every beat and its result becomes the event detail (for example "3/10 files").
// It returns nil when tracing is off or interval is not positive; Stop accepts nil.
func StartHeartbeat(tracer Tracer, interval time.Duration, status func() string) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}

	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		status:   status,
		stopCh:   make(chan struct{}),
		started:  true,
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beat uint64
	for {
		select {
		case <-ticker.C:
			beat++
			h.tracer.Emit(h.event(beat))
		case <-h.stopCh:
			return
		}
	}
}

func (h *Heartbeat) event(beat uint64) *Event {
	detail := fmt.Sprintf("#%d", beat)
	if h.status != nil {
		if s := h.status(); s != "" {
			detail += " " + s
		}
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return &Event{
		Time:   time.Now(),
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		GID:    getGoroutineID(),
		Name:   "heartbeat",
		Detail: detail,
		Extra: map[string]string{
			"goroutines": strconv.Itoa(runtime.NumGoroutine()),
			"heap_kb":    strconv.FormatUint(mem.HeapAlloc/1024, 10),
		},
	}
}

// Stop ends the heartbeat goroutine and waits for it. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}

	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.started = false
	h.mu.Unlock()

	close(h.stopCh)
	h.wg.Wait()
}
