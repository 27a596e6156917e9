package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestProgressModelTracksFiles(t *testing.T) {
	m := NewProgressModel("normalize", []string{"a.json", "b.json", "c.json"}, nil).(*progressModel)

	m.Update(eventMsg{File: "a.json", Stage: StageNormalize, Status: StatusWorking})
	view := m.View()
	if !strings.Contains(view, "normalizing") || !strings.Contains(view, "queued") {
		t.Fatalf("view:\n%s", view)
	}

	m.Update(eventMsg{File: "a.json", Status: StatusDone})
	m.Update(eventMsg{File: "b.json", Status: StatusCached})
	m.Update(eventMsg{File: "c.json", Stage: StageDecode, Status: StatusError, Err: errors.New("bad")})
	m.Update(eventMsg{File: "unknown.json", Status: StatusDone})
	if got := m.completed(); got != 3 {
		t.Fatalf("completed = %d, want 3", got)
	}
	if m.failed != 1 {
		t.Fatalf("failed = %d, want 1", m.failed)
	}
	if got := m.fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil || !m.done {
		t.Fatal("doneMsg must quit the program")
	}
	if view := m.View(); !strings.Contains(view, "done: normalize 3/3, 1 failed") {
		t.Fatalf("final view:\n%s", view)
	}
}

func TestProgressFractionByStage(t *testing.T) {
	m := NewProgressModel("check", []string{"a.json", "b.json"}, nil).(*progressModel)
	m.Update(eventMsg{File: "a.json", Stage: StageCheck, Status: StatusWorking})
	if got, want := m.fraction(), 0.45; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("fraction = %v, want %v", got, want)
	}
}

func TestListenForEventClosesOnChannelEnd(t *testing.T) {
	events := make(chan Event, 1)
	m := NewProgressModel("normalize", []string{"a.json"}, events).(*progressModel)

	events <- Event{File: "a.json", Status: StatusDone}
	if msg, ok := m.listenForEvent()().(eventMsg); !ok || msg.File != "a.json" {
		t.Fatalf("msg = %#v", msg)
	}
	close(events)
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatal("closed channel must yield doneMsg")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short.json", 20); got != "short.json" {
		t.Fatalf("truncate kept = %q", got)
	}
	for _, value := range []string{"very/long/path/to/query.json", "データ/クエリ/ファイル.json"} {
		got := truncate(value, 12)
		if runewidth.StringWidth(got) > 12 || !strings.HasSuffix(got, "...") {
			t.Fatalf("truncate(%q) = %q", value, got)
		}
	}
}

func TestSinkFromContext(t *testing.T) {
	// no sink: events are dropped
	Working(context.Background(), "a.json", StageDecode)

	events := make(chan Event, 1)
	ctx := WithSink(context.Background(), ChannelSink{Ch: events})
	Working(ctx, "a.json", StageCache)
	if ev := <-events; ev.File != "a.json" || ev.Stage != StageCache || ev.Status != StatusWorking {
		t.Fatalf("event = %+v", ev)
	}
}
