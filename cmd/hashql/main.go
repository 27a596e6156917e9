package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"hashql/internal/config"
	"hashql/internal/observ"
	"hashql/internal/prof"
	"hashql/internal/trace"
	"hashql/internal/version"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg     config.Config
	cfgPath string
	color   bool
	timer   *observ.Timer
	tracer  trace.Tracer
	span    *trace.Span
	cleanup func()
	profile *prof.Session
	stderr  io.Writer
	ui      bool
	files   fileCounter
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with args. Errors are printed by cobra.
func run(args []string, stdout, stderr io.Writer) error {
	a := &app{stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	a.finish(stderr, err)
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "hashql",
		Short:        "HashQL HIR tooling",
		Long:         `hashql decodes HIR snapshots, lowers them into administrative normal form and inspects the result`,
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	// Глобальные флаги
	flags := root.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("ui", "auto", "live progress view on stderr (auto|on|off)")
	flags.Bool("timings", false, "show timing information")
	flags.String("config", "", "path to hashql.toml (default: looked up from the working directory)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
	flags.String("cpu-profile", "", "write a CPU profile to file")
	flags.String("mem-profile", "", "write a heap profile to file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(
		newNormalizeCmd(a),
		newCheckCmd(a),
		newDumpCmd(a),
		newStatsCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup runs before every command: config, color, tracing, progress view, profiling and timings.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	colorValue, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	mode, err := readColorMode(colorValue)
	if err != nil {
		return err
	}
	a.color = useColor(mode, os.Stdout)
	applyColor(a.color)

	tracer, cleanup, err := setupTracing(cmd, a.cfg.Trace, a.files.String)
	if err != nil {
		return err
	}
	a.tracer, a.cleanup = tracer, cleanup

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiMode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	a.ui = shouldUseTUI(uiMode, a.stderr, tracer)

	profile, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	a.profile = profile
	a.span = trace.Begin(tracer, trace.ScopeDriver, "hashql "+cmd.Name(), 0)
	cmd.SetContext(trace.ContextWithSpan(trace.WithTracer(cmd.Context(), tracer), a.span))

	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}
	if timings {
		a.timer = observ.NewTimer()
	}
	return nil
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if path != "" {
		m, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg, a.cfgPath = m.Config, m.Path
		return nil
	}
	m, ok, err := config.Discover(".")
	if err != nil {
		return err
	}
	if ok {
		a.cfg, a.cfgPath = m.Config, m.Path
	}
	return nil
}

// finish ends the driver span, dumps the trace ring if the command failed and prints timings.
func (a *app) finish(stderr io.Writer, err error) {
	if a.span != nil {
		detail := "ok"
		if err != nil {
			detail = "error"
		}
		a.span.End(detail)
	}
	if err != nil && a.tracer != nil {
		if ring, ok := ringOf(a.tracer); ok {
			fmt.Fprintln(stderr, "trace: last events before failure:")
			opts := trace.DumpOptions{Format: trace.FormatText, MaxScope: trace.ScopeBoundary, Last: failureDumpEvents}
			if dumpErr := ring.Dump(stderr, opts); dumpErr != nil {
				fmt.Fprintf(stderr, "trace: dump error: %v\n", dumpErr)
			}
		}
	}
	if perr := a.profile.Stop(); perr != nil {
		fmt.Fprintf(stderr, "profile: %v\n", perr)
	}
	if a.cleanup != nil {
		a.cleanup()
	}
	if a.timer != nil {
		fmt.Fprint(stderr, a.timer.Summary())
	}
}

func ringOf(t trace.Tracer) (*trace.RingTracer, bool) {
	switch t := t.(type) {
	case *trace.RingTracer:
		return t, true
	case *trace.MultiTracer:
		return t.Ring()
	}
	return nil, false
}

// flagOrConfig returns the string flag when it was set explicitly, otherwise the config value
// if there is one, otherwise the flag default.
func flagOrConfig(cmd *cobra.Command, name, configured string) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if cmd.Flags().Changed(name) || configured == "" {
		return value, nil
	}
	return configured, nil
}

var errFailed = errors.New("failed")

// failureDumpEvents bounds the ring dump printed when a command fails.
const failureDumpEvents = 200
