package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeBoundary, false},
		{LevelDetail, ScopeBoundary, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "DEBUG"} {
		level, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if level.String() != strings.ToLower(s) {
			t.Fatalf("ParseLevel(%q) = %s", s, level)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)

	span := Begin(tracer, ScopePass, "hir.normalize", 0)
	Point(tracer, ScopeBoundary, "boundary", span.ID(), "", map[string]string{"bindings": "2"})
	Point(tracer, ScopeNode, "dropped", span.ID(), "", nil)
	span.WithExtra("nodes", "5").End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d events, want 3:\n%s", len(lines), buf.String())
	}
	var point struct {
		Kind     string            `json:"kind"`
		Scope    string            `json:"scope"`
		ParentID uint64            `json:"parent_id"`
		Extra    map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &point); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if point.Kind != "point" || point.Scope != "boundary" || point.ParentID != span.ID() || point.Extra["bindings"] != "2" {
		t.Fatalf("unexpected point event: %+v", point)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeDriver, name, 0, "", nil)
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("Snapshot = %+v", events)
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, DumpOptions{Format: FormatText}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(buf.String(), "• c") {
		t.Fatalf("Dump missing event:\n%s", buf.String())
	}
	if ring.Dropped() != 1 || !strings.HasPrefix(buf.String(), "… 1 earlier event(s) not shown\n") {
		t.Fatalf("Dropped = %d, dump:\n%s", ring.Dropped(), buf.String())
	}
}

func TestRingDumpFiltersScopes(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	Point(ring, ScopePass, "hir.normalize", 0, "", nil)
	Point(ring, ScopeBoundary, "boundary", 0, "", nil)
	Point(ring, ScopeNode, "short-circuit", 0, "", nil)
	Point(ring, ScopeBoundary, "boundary-2", 0, "", nil)

	var buf bytes.Buffer
	if err := ring.Dump(&buf, DumpOptions{Format: FormatText, MaxScope: ScopeBoundary, Last: 2}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "short-circuit") || strings.Contains(out, "hir.normalize") {
		t.Fatalf("Dump kept filtered events:\n%s", out)
	}
	if !strings.Contains(out, "boundary") || !strings.Contains(out, "boundary-2") {
		t.Fatalf("Dump lost boundary events:\n%s", out)
	}
	if !strings.HasPrefix(out, "… 1 earlier event(s) not shown\n") {
		t.Fatalf("Dump header:\n%s", out)
	}

	buf.Reset()
	if err := ring.Dump(&buf, DumpOptions{Format: FormatNDJSON}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Fatalf("ndjson dump has %d lines, want 4", lines)
	}
}

func TestHeartbeatReportsStatus(t *testing.T) {
	ring := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(ring, time.Millisecond, func() string { return "2/5 files" })
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()

	events := ring.Snapshot()
	if len(events) == 0 {
		t.Fatal("no heartbeat recorded")
	}
	ev := events[0]
	if ev.Kind != KindHeartbeat || !strings.HasSuffix(ev.Detail, " 2/5 files") || ev.Extra["goroutines"] == "" {
		t.Fatalf("heartbeat = %+v", ev)
	}

	if StartHeartbeat(ring, 0, nil) != nil || StartHeartbeat(Nop, time.Millisecond, nil) != nil {
		t.Fatal("heartbeat must not start without an interval or with tracing off")
	}
}

func TestContextPropagation(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop {
		t.Fatal("empty context must yield Nop")
	}

	ring := NewRingTracer(8, LevelPhase)
	ctx = WithTracer(ctx, ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatal("tracer not propagated")
	}

	span := Begin(ring, ScopeDriver, "cmd", 0)
	ctx = ContextWithSpan(ctx, span)
	if CurrentSpan(ctx).SpanID != span.ID() {
		t.Fatal("span not propagated")
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	a := NewRingTracer(4, LevelPhase)
	b := NewRingTracer(4, LevelPhase)
	multi := NewMultiTracer(LevelPhase, a, b)
	Point(multi, ScopePass, "x", 0, "", nil)
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 1 {
		t.Fatal("event not delivered to every tracer")
	}
	if ring, ok := multi.Ring(); !ok || ring != a {
		t.Fatal("Ring must return the first ring tracer")
	}
	if err := multi.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tracer, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tracer.Enabled() {
		t.Fatal("LevelOff tracer must be disabled")
	}
}
