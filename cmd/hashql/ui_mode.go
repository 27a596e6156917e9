package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"hashql/internal/trace"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides whether the progress view is drawn on out. In auto mode it needs a
// terminal and stays off while a tracer is active, since both would write to stderr.
func shouldUseTUI(mode uiMode, out io.Writer, tracer trace.Tracer) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	f, ok := out.(*os.File)
	if !ok || !isTerminal(f) {
		return false
	}
	return tracer == nil || !tracer.Enabled()
}
