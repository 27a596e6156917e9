package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[normalize]
recycle = 4
check = true

[trace]
level = "detail"
output = "out/trace.ndjson"

[cache]
enabled = true
dir = ".cache"
`)
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Discover(sub)
	if err != nil || !ok {
		t.Fatalf("Discover() = %v, %v", ok, err)
	}
	cfg := m.Config
	if cfg.Normalize.Recycle == nil || *cfg.Normalize.Recycle != 4 || !cfg.Normalize.Check {
		t.Fatalf("normalize = %+v", cfg.Normalize)
	}
	if cfg.Trace.Level != "detail" {
		t.Fatalf("trace level = %q", cfg.Trace.Level)
	}
	if want := filepath.Join(root, ".cache"); cfg.Cache.Dir != want {
		t.Fatalf("cache dir = %q, want %q", cfg.Cache.Dir, want)
	}
	if want := filepath.Join(root, "out", "trace.ndjson"); cfg.Trace.Output != want {
		t.Fatalf("trace output = %q, want %q", cfg.Trace.Output, want)
	}
}

func TestDiscoverMissing(t *testing.T) {
	_, ok, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if ok {
		t.Skip("a hashql.toml exists above the temp directory")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[normalize\n", "failed to parse TOML"},
		{"unknown key", "[normalize]\nrecycel = 3\n", "unknown keys: normalize.recycel"},
		{"negative recycle", "[normalize]\nrecycle = -1\n", "recycle must not be negative"},
		{"negative jobs", "[normalize]\njobs = -2\n", "jobs must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tc.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestRecycleZeroIsExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, "[normalize]\nrecycle = 0\n")
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Config.Normalize.Recycle == nil || *m.Config.Normalize.Recycle != 0 {
		t.Fatal("recycle = 0 must be distinguishable from unset")
	}
}
