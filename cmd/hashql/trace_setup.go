package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"hashql/internal/config"
	"hashql/internal/trace"
)

// setupTracing builds the tracer from flags, falling back to the [trace] section of the config.
// status is reported with every heartbeat. It returns a cleanup function that stops the
// heartbeat and closes the tracer.
func setupTracing(cmd *cobra.Command, cfg config.Trace, status func() string) (trace.Tracer, func(), error) {
	traceOutput, err := flagOrConfig(cmd, "trace", cfg.Output)
	if err != nil {
		return nil, nil, err
	}
	levelStr, err := flagOrConfig(cmd, "trace-level", cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	modeStr, err := flagOrConfig(cmd, "trace-mode", cfg.Mode)
	if err != nil {
		return nil, nil, err
	}
	formatStr, err := flagOrConfig(cmd, "trace-format", cfg.Format)
	if err != nil {
		return nil, nil, err
	}
	ringSize, err := cmd.Flags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := cmd.Flags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	if !cmd.Flags().Changed("trace-heartbeat") && cfg.Heartbeat != "" {
		heartbeatInterval, err = time.ParseDuration(cfg.Heartbeat)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid [trace].heartbeat: %w", err)
		}
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}

	// an output file alone turns tracing on at phase level
	if level == trace.LevelOff {
		if traceOutput == "" {
			return trace.Nop, func() {}, nil
		}
		level = trace.LevelPhase
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace format: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		Output:     outputWriter(cmd, traceOutput),
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	heartbeat := trace.StartHeartbeat(tracer, heartbeatInterval, status)

	cleanup := func() {
		heartbeat.Stop()
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// outputWriter routes "-" to the command's stderr so tests can capture it.
func outputWriter(cmd *cobra.Command, path string) io.Writer {
	if path == "" || path == "-" || path == "stderr" {
		return cmd.ErrOrStderr()
	}
	return nil
}
