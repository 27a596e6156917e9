package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hashql/internal/hir/snapshot"
	"hashql/internal/version"
)

const nestedCalls = `{
  "version": 1,
  "root": {
    "kind": "call",
    "fn": {"kind": "qualified", "path": ["foo"]},
    "items": [
      {"kind": "call", "fn": {"kind": "qualified", "path": ["bar"]}, "items": [{"kind": "primitive", "prim": "integer", "value": "1"}]},
      {"kind": "call", "fn": {"kind": "qualified", "path": ["baz"]}, "items": [{"kind": "primitive", "prim": "integer", "value": "2"}]}
    ]
  }
}`

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--color", "off"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// emptyConfig keeps tests independent of any hashql.toml above the working directory.
func emptyConfig(t *testing.T, dir string) string {
	return writeInput(t, dir, "hashql.toml", "")
}

func TestNormalizePrints(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "prog.json", nestedCalls)

	stdout, stderr, err := runCLI(t, "--config", emptyConfig(t, dir), "normalize", "--check", input)
	if err != nil {
		t.Fatalf("normalize: %v\n%s", err, stderr)
	}
	want := "let\n  %1 = ::bar(1),\n  %2 = ::baz(2)\nin\n::foo(%1, %2)\n"
	if stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
	if !strings.Contains(stderr, "normalized 1 file(s), 0 from cache") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestNormalizeWritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	cfg := emptyConfig(t, dir)
	first := writeInput(t, dir, "a.json", nestedCalls)
	second := writeInput(t, dir, "b.json", nestedCalls)
	out := filepath.Join(dir, "out")

	if _, stderr, err := runCLI(t, "--config", cfg, "normalize", "-j", "2", "--format", "hirpack", "--out", out, first, second); err != nil {
		t.Fatalf("normalize: %v\n%s", err, stderr)
	}
	for _, name := range []string{"a.anf.hirpack", "b.anf.hirpack"} {
		program, err := snapshot.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if program.Root.Kind != snapshot.KindLet || len(program.Root.Bindings) != 2 {
			t.Fatalf("%s: root = %s with %d bindings", name, program.Root.Kind, len(program.Root.Bindings))
		}
	}

	// normalized output passes the checker, the raw input does not
	stdout, _, err := runCLI(t, "--config", cfg, "check", filepath.Join(out, "a.anf.hirpack"))
	if err != nil || !strings.HasPrefix(stdout, "ok") {
		t.Fatalf("check normalized = %v\n%s", err, stdout)
	}
	stdout, _, err = runCLI(t, "--config", cfg, "check", first)
	if err == nil || !strings.Contains(stdout, "FAIL") || !strings.Contains(stdout, "operand is not atomic") {
		t.Fatalf("check raw = %v\n%s", err, stdout)
	}
}

func TestNormalizeUsesCache(t *testing.T) {
	dir := t.TempDir()
	cfg := writeInput(t, dir, "hashql.toml", "[cache]\nenabled = true\ndir = \"cache\"\n")
	input := writeInput(t, dir, "prog.json", nestedCalls)

	firstOut, stderr, err := runCLI(t, "--config", cfg, "normalize", input)
	if err != nil {
		t.Fatalf("first run: %v\n%s", err, stderr)
	}
	secondOut, stderr, err := runCLI(t, "--config", cfg, "normalize", "--check", input)
	if err != nil {
		t.Fatalf("second run: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "1 from cache") {
		t.Fatalf("second run did not hit the cache: %q", stderr)
	}
	if firstOut != secondOut {
		t.Fatalf("cached output differs:\n%s\nvs\n%s", firstOut, secondOut)
	}

	_, stderr, err = runCLI(t, "--config", cfg, "normalize", "--no-cache", input)
	if err != nil || !strings.Contains(stderr, "0 from cache") {
		t.Fatalf("--no-cache run = %v, %q", err, stderr)
	}

	_, stderr, err = runCLI(t, "--config", cfg, "normalize", "--clear-cache", input)
	if err != nil || !strings.Contains(stderr, "0 from cache") {
		t.Fatalf("--clear-cache run = %v, %q", err, stderr)
	}
}

func TestNormalizeReportsDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "bad.json", `{"version": 1, "root": {"kind": "loop"}}`)

	_, _, err := runCLI(t, "--config", emptyConfig(t, dir), "normalize", input)
	if err == nil || !strings.Contains(err.Error(), "bad.json: root: unknown expression kind") {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeRejectsDuplicateFields(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "dup.json", `{"version": 1, "root": {"kind": "struct", "fields": [
		{"name": "a", "value": {"kind": "primitive", "prim": "integer", "value": "1"}},
		{"name": "a", "value": {"kind": "primitive", "prim": "integer", "value": "2"}}]}}`)
	other := writeInput(t, dir, "prog.json", nestedCalls)

	_, _, err := runCLI(t, "--config", emptyConfig(t, dir), "normalize", "--jobs", "2", other, input)
	if err == nil || !strings.Contains(err.Error(), "dup.json: root.fields[1]: duplicate struct field") {
		t.Fatalf("err = %v", err)
	}
}

func TestDumpAndStats(t *testing.T) {
	dir := t.TempDir()
	cfg := emptyConfig(t, dir)
	input := writeInput(t, dir, "prog.json", nestedCalls)

	stdout, _, err := runCLI(t, "--config", cfg, "dump", input)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "::foo(::bar(1), ::baz(2))\n" {
		t.Fatalf("dump = %q", stdout)
	}

	stdout, _, err = runCLI(t, "--config", cfg, "stats", "--json", input)
	if err != nil {
		t.Fatal(err)
	}
	var report statsReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("stats output: %v\n%s", err, stdout)
	}
	if report.Before["Call"] != 3 || report.After["Let"] != 1 || report.After["LocalVariable"] != 2 {
		t.Fatalf("report = %+v", report)
	}
	if report.Pass.Bindings != 2 {
		t.Fatalf("bindings = %d, want 2", report.Pass.Bindings)
	}
}

func TestStatsTable(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "prog.json", nestedCalls)

	stdout, _, err := runCLI(t, "--config", emptyConfig(t, dir), "stats", input)
	if err != nil {
		t.Fatal(err)
	}
	rows := map[string][]string{}
	for _, line := range strings.Split(stdout, "\n") {
		var cells []string
		for _, cell := range strings.Split(line, "│") {
			if cell = strings.TrimSpace(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) == 3 {
			rows[cells[0]] = cells[1:]
		}
	}
	for kind, want := range map[string][]string{
		"kind":          {"before", "after"},
		"Call":          {"3", "3"},
		"Let":           {"0", "1"},
		"LocalVariable": {"0", "2"},
	} {
		if got := rows[kind]; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("row %s = %v, want %v\n%s", kind, got, want, stdout)
		}
	}
	if !strings.Contains(stdout, "bindings 2") {
		t.Fatalf("summary missing:\n%s", stdout)
	}
}

func TestProgressView(t *testing.T) {
	dir := t.TempDir()
	cfg := emptyConfig(t, dir)
	first := writeInput(t, dir, "a.json", nestedCalls)
	second := writeInput(t, dir, "b.json", nestedCalls)

	stdout, _, err := runCLI(t, "--config", cfg, "--ui", "on", "normalize", "--check", first, second)
	if err != nil {
		t.Fatalf("normalize --ui on: %v", err)
	}
	if !strings.Contains(stdout, "// "+first) || !strings.Contains(stdout, "// "+second) {
		t.Fatalf("stdout lost results:\n%s", stdout)
	}

	if _, _, err := runCLI(t, "--config", cfg, "--ui", "sometimes", "check", first); err == nil {
		t.Fatal("invalid --ui value must fail")
	}
}

func TestShouldUseTUI(t *testing.T) {
	var buf bytes.Buffer
	if shouldUseTUI(uiModeAuto, &buf, nil) {
		t.Fatal("auto mode must stay off when stderr is not a terminal")
	}
	if !shouldUseTUI(uiModeOn, &buf, nil) || shouldUseTUI(uiModeOff, os.Stderr, nil) {
		t.Fatal("explicit modes must win")
	}
}

func TestTraceAndTimings(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "prog.json", nestedCalls)

	_, stderr, err := runCLI(t, "--config", emptyConfig(t, dir), "--timings", "--trace", "-", "--trace-level", "detail", "normalize", input)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"hir.normalize", "boundary", "timings:", "normalize " + input} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("stderr misses %q:\n%s", want, stderr)
		}
	}
}

func TestProfilingFlags(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "prog.json", nestedCalls)
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")

	_, stderr, err := runCLI(t, "--config", emptyConfig(t, dir), "--cpu-profile", cpu, "--mem-profile", mem, "normalize", input)
	if err != nil {
		t.Fatalf("normalize: %v\n%s", err, stderr)
	}
	for _, path := range []string{cpu, mem} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("profile %s: %v", path, err)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := runCLI(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("version output: %v\n%s", err, stdout)
	}
	if info.Version != version.Version {
		t.Fatalf("version = %q", info.Version)
	}

	if _, _, err := runCLI(t, "version", "--format", "yaml"); err == nil {
		t.Fatal("unsupported format must fail")
	}
}

func TestReadColorMode(t *testing.T) {
	for in, want := range map[string]colorMode{"": colorAuto, "AUTO": colorAuto, "on": colorOn, "never": colorOff} {
		got, err := readColorMode(in)
		if err != nil || got != want {
			t.Errorf("readColorMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readColorMode("sometimes"); err == nil {
		t.Error("invalid mode must fail")
	}
}
