// Package config loads hashql.toml, the per-project settings of the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name looked up from the working directory upwards.
const FileName = "hashql.toml"

// Config is the decoded hashql.toml. Zero values mean "use the default".
type Config struct {
	Normalize Normalize `toml:"normalize"`
	Trace     Trace     `toml:"trace"`
	Cache     Cache     `toml:"cache"`
}

type Normalize struct {
	// Recycle is the number of binding buffers kept between evaluation boundaries.
	Recycle *int `toml:"recycle"`
	// Check validates the output of every normalization.
	Check bool `toml:"check"`
	// Jobs bounds the number of files processed at once. 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

type Trace struct {
	Level     string `toml:"level"`
	Mode      string `toml:"mode"`
	Output    string `toml:"output"`
	Format    string `toml:"format"`
	Heartbeat string `toml:"heartbeat"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Manifest is a loaded config file.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Find looks for hashql.toml in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest hashql.toml. ok is false when there is none.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Load decodes the config at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	root := filepath.Dir(path)
	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(root, filepath.FromSlash(cfg.Cache.Dir))
	}
	if cfg.Trace.Output != "" && !isStdStream(cfg.Trace.Output) && !filepath.IsAbs(cfg.Trace.Output) {
		cfg.Trace.Output = filepath.Join(root, filepath.FromSlash(cfg.Trace.Output))
	}
	return &Manifest{Path: path, Root: root, Config: cfg}, nil
}

// Validate checks value ranges. Names of trace levels and modes are checked by the trace
// package when the tracer is built.
func (c *Config) Validate() error {
	if c.Normalize.Recycle != nil && *c.Normalize.Recycle < 0 {
		return fmt.Errorf("[normalize].recycle must not be negative, got %d", *c.Normalize.Recycle)
	}
	if c.Normalize.Jobs < 0 {
		return fmt.Errorf("[normalize].jobs must not be negative, got %d", c.Normalize.Jobs)
	}
	return nil
}

func isStdStream(s string) bool {
	return s == "-" || s == "stdout" || s == "stderr"
}
