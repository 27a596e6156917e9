// Package ui renders live progress for commands that process several snapshot files.
package ui

import (
	"context"
	"time"
)

// Stage is the step a file is in.
type Stage string

const (
	StageDecode    Stage = "decode"
	StageCache     Stage = "cache"
	StageNormalize Stage = "normalize"
	StageCheck     Stage = "check"
)

// Status of a file within its stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusCached  Status = "cached"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress of one file.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events. Implementations must be safe for concurrent use.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}

type sinkKey struct{}

// WithSink returns a context carrying sink.
func WithSink(ctx context.Context, sink Sink) context.Context {
	return context.WithValue(ctx, sinkKey{}, sink)
}

// SinkFrom returns the sink stored in ctx, or one that drops every event.
func SinkFrom(ctx context.Context) Sink {
	if sink, ok := ctx.Value(sinkKey{}).(Sink); ok && sink != nil {
		return sink
	}
	return nopSink{}
}

// Working marks file as having entered stage.
func Working(ctx context.Context, file string, stage Stage) {
	SinkFrom(ctx).OnEvent(Event{File: file, Stage: stage, Status: StatusWorking})
}
