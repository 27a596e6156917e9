// Package cache keeps normalized snapshots on disk, keyed by a digest of the input program
// and the settings that influence the output.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"hashql/internal/hir/snapshot"
)

// bump when Payload changes shape
const schemaVersion uint16 = 1

var (
	// ErrSchemaMismatch reports an entry written by an incompatible version.
	ErrSchemaMismatch = errors.New("cache entry schema mismatch")
	// ErrNotCache is returned by DropAll for a directory hashql did not create as a cache.
	ErrNotCache = errors.New("not a hashql cache directory")
)

const (
	entriesDir = "hir"
	tagName    = "CACHEDIR.TAG"
	tagBody    = "Signature: 8a477f597d28d172789f06886806bc55\n# hashql normalization cache\n"
)

// Digest is a SHA-256 content key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Key hashes input together with params, e.g. the snapshot schema and normalization flags.
func Key(input []byte, params ...string) Digest {
	h := sha256.New()
	_, _ = h.Write(input)
	for _, p := range params {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p))
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Payload is one cached normalization result.
type Payload struct {
	Schema   uint16
	Source   string
	Program  *snapshot.Program
	Bindings int
	Lets     int
	Created  time.Time
}

// Disk stores payloads as msgpack files. Safe for concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir is $XDG_CACHE_HOME/app, falling back to ~/.cache/app.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open creates the cache directory if needed.
func Open(dir string) (*Disk, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir("hashql"); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := claim(dir); err != nil {
		return nil, err
	}
	return &Disk{dir: dir}, nil
}

// claim tags dir as a cache when it is empty. A directory that already has other content
// stays usable for entries but is never tagged, so DropAll refuses it.
func claim(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.WriteFile(filepath.Join(dir, tagName), []byte(tagBody), 0o644)
}

func (c *Disk) tagged() bool {
	data, err := os.ReadFile(filepath.Join(c.dir, tagName))
	return err == nil && strings.HasPrefix(string(data), tagBody)
}

// Dir returns the cache root.
func (c *Disk) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Disk) pathFor(key Digest) string {
	hexKey := key.String()
	// два уровня, чтобы не держать тысячи файлов в одном каталоге
	return filepath.Join(c.dir, entriesDir, hexKey[:2], hexKey+".mp")
}

// Put writes payload under key, replacing the file atomically.
func (c *Disk) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	stored := *payload
	stored.Schema = schemaVersion
	if stored.Created.IsZero() {
		stored.Created = time.Now().UTC()
	}

	if err := msgpack.NewEncoder(f).Encode(&stored); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Get reads the payload under key. A missing entry is not an error.
func (c *Disk) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	if payload.Schema != schemaVersion {
		return false, fmt.Errorf("%w: entry %s has schema %d, expected %d", ErrSchemaMismatch, key, payload.Schema, schemaVersion)
	}
	*out = payload
	return true, nil
}

// DropAll removes every entry. It only touches directories tagged by Open, and only the
// entries below them.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tagged() {
		return fmt.Errorf("%s: %w (missing %s)", c.dir, ErrNotCache, tagName)
	}
	entries := filepath.Join(c.dir, entriesDir)
	old := entries + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(entries, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
