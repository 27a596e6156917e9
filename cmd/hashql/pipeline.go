package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"hashql/internal/cache"
	"hashql/internal/hir"
	"hashql/internal/hir/lower"
	"hashql/internal/hir/snapshot"
	"hashql/internal/trace"
	"hashql/internal/types"
	"hashql/internal/ui"
	"hashql/internal/version"
)

// unit is one snapshot file with its own compilation context.
type unit struct {
	path   string
	hctx   *hir.Context
	env    *types.Interner
	input  hir.Node // zero when the result came from the cache
	output hir.Node
	stats  lower.Stats
	cached bool
	anf    error // result of the normal form check, for `check`
}

func newUnit(path string) *unit {
	return &unit{path: path, hctx: hir.NewContext(), env: types.NewInterner()}
}

type normalizeOptions struct {
	check   bool
	recycle int
	cache   *cache.Disk
}

// decode reads and decodes a snapshot file.
func (a *app) decode(ctx context.Context, path string) (*unit, []byte, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "decode", trace.CurrentSpan(ctx).SpanID).WithExtra("file", path)
	defer span.End("")

	idx := a.timer.Begin("decode " + path)
	defer a.timer.End(idx, "")
	ui.Working(ctx, path, ui.StageDecode)

	format, err := snapshot.FormatForPath(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	program, err := snapshot.Unmarshal(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	u := newUnit(path)
	u.input, err = snapshot.Decode(program, u.hctx, u.env)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, data, nil
}

func cacheKey(data []byte) cache.Digest {
	return cache.Key(data,
		"snapshot="+strconv.Itoa(int(snapshot.SchemaVersion)),
		"hashql="+version.Version,
	)
}

// normalize decodes path and lowers it into normal form, going through the cache when one
// is configured.
func (a *app) normalize(ctx context.Context, path string, opts normalizeOptions) (*unit, error) {
	u, data, err := a.decode(ctx, path)
	if err != nil {
		return nil, err
	}

	key := cacheKey(data)
	if opts.cache != nil {
		ui.Working(ctx, path, ui.StageCache)
		if a.fromCache(ctx, u, key, opts.cache) {
			return u, a.verify(ctx, u, opts)
		}
	}

	ui.Working(ctx, path, ui.StageNormalize)
	idx := a.timer.Begin("normalize " + path)
	u.output, u.stats = lower.Normalize(ctx, u.input, u.hctx, u.env, lower.NewState(opts.recycle))
	a.timer.End(idx, fmt.Sprintf("%d bindings", u.stats.Bindings))

	if err := a.verify(ctx, u, opts); err != nil {
		return nil, err
	}

	if opts.cache != nil {
		payload := &cache.Payload{
			Source:   path,
			Program:  snapshot.Encode(u.hctx, u.env, u.output),
			Bindings: u.stats.Bindings,
			Lets:     u.stats.Lets,
		}
		if err := opts.cache.Put(key, payload); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopePass, "cache.put", trace.CurrentSpan(ctx).SpanID, err.Error(), nil)
		}
	}
	return u, nil
}

func (a *app) fromCache(ctx context.Context, u *unit, key cache.Digest, disk *cache.Disk) bool {
	var payload cache.Payload
	hit, err := disk.Get(key, &payload)
	if err == nil && hit {
		// decode into a fresh context, the input tree is dropped
		cached := newUnit(u.path)
		if cached.output, err = snapshot.Decode(payload.Program, cached.hctx, cached.env); err == nil {
			*u = *cached
			u.stats = lower.Stats{Bindings: payload.Bindings, Lets: payload.Lets}
			u.cached = true
			return true
		}
	}
	if err != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopePass, "cache.miss", trace.CurrentSpan(ctx).SpanID,
			fmt.Sprintf("%s: %v", key, err), nil)
	}
	return false
}

func (a *app) verify(ctx context.Context, u *unit, opts normalizeOptions) error {
	if !opts.check {
		return nil
	}
	ui.Working(ctx, u.path, ui.StageCheck)
	if err := lower.CheckANF(u.hctx, u.output); err != nil {
		return fmt.Errorf("%s: output is not in normal form: %w", u.path, err)
	}
	return nil
}

// fileCounter tracks the files of the running fan-out for heartbeats.
type fileCounter struct {
	total atomic.Int64
	done  atomic.Int64
}

func (c *fileCounter) String() string {
	total := c.total.Load()
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d files", c.done.Load(), total)
}

// forEach runs fn over paths with at most jobs goroutines. Results keep the order of paths.
// With the progress view enabled it is rendered on stderr while the jobs run.
func (a *app) forEach(ctx context.Context, title string, paths []string, jobs int, fn func(ctx context.Context, path string) (*unit, error)) ([]*unit, error) {
	a.files.total.Add(int64(len(paths)))
	if !a.ui {
		return a.fanOut(ctx, paths, jobs, fn)
	}

	type outcome struct {
		units []*unit
		err   error
	}
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan outcome, 1)
	go func() {
		units, err := a.fanOut(ui.WithSink(ctx, ui.ChannelSink{Ch: events}), paths, jobs, fn)
		outcomeCh <- outcome{units: units, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, paths, events), tea.WithOutput(a.stderr), tea.WithInput(nil))
	_, uiErr := program.Run()
	// the view may quit early (interrupt); keep the workers from blocking on a full channel
	go func() {
		for range events {
		}
	}()
	res := <-outcomeCh
	if uiErr != nil && res.err == nil {
		return res.units, fmt.Errorf("progress view: %w", uiErr)
	}
	return res.units, res.err
}

func (a *app) fanOut(ctx context.Context, paths []string, jobs int, fn func(ctx context.Context, path string) (*unit, error)) ([]*unit, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*unit, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			u, err := fn(ctx, path)
			a.files.done.Add(1)
			ev := ui.Event{File: path, Status: ui.StatusDone, Err: err, Elapsed: time.Since(start)}
			switch {
			case err != nil:
				ev.Status = ui.StatusError
			case u.cached:
				ev.Status = ui.StatusCached
			}
			ui.SinkFrom(ctx).OnEvent(ev)
			if err != nil {
				return err
			}
			results[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *app) dump(w io.Writer, u *unit, node hir.Node, ids bool) error {
	return hir.Dump(w, u.hctx, node, hir.DumpOptions{
		Multiline: true,
		Color:     a.color,
		ShowIDs:   ids,
		Types:     u.env,
	})
}
