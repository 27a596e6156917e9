package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"

	"hashql/internal/hir/snapshot"
)

func sampleProgram() *snapshot.Program {
	return &snapshot.Program{
		Version: snapshot.SchemaVersion,
		Types:   []snapshot.Type{{Kind: "integer"}},
		Root: &snapshot.Expr{
			Kind:  snapshot.KindCall,
			Fn:    &snapshot.Expr{Kind: snapshot.KindQualified, Path: []string{"f"}},
			Items: []*snapshot.Expr{{Kind: snapshot.KindPrimitive, Prim: "integer", Value: "1", Type: 1}},
		},
	}
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("program"), "recycle=8")

	var out Payload
	if hit, err := c.Get(key, &out); hit || err != nil {
		t.Fatalf("Get on empty cache = %v, %v", hit, err)
	}

	in := &Payload{Source: "prog.json", Program: sampleProgram(), Bindings: 2, Lets: 1}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	hit, err := c.Get(key, &out)
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v", hit, err)
	}
	if out.Schema != schemaVersion || out.Created.IsZero() {
		t.Fatalf("stored metadata = %d, %v", out.Schema, out.Created)
	}
	if diff := cmp.Diff(in.Program, out.Program); diff != "" {
		t.Fatalf("program differs (-want +got):\n%s", diff)
	}
}

func TestKeyDependsOnParams(t *testing.T) {
	a := Key([]byte("p"), "recycle=8")
	b := Key([]byte("p"), "recycle=0")
	c := Key([]byte("p"), "recycle=", "8")
	if a == b || a == c {
		t.Fatal("keys must differ when params differ")
	}
	if a != Key([]byte("p"), "recycle=8") {
		t.Fatal("key must be deterministic")
	}
}

func TestSchemaMismatch(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("old"))
	data, err := msgpack.Marshal(&Payload{Schema: schemaVersion + 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(c.dir+"/hir/"+key.String()[:2], 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.pathFor(key), data, 0o600); err != nil {
		t.Fatal(err)
	}

	var out Payload
	if _, err := c.Get(key, &out); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Get = %v, want ErrSchemaMismatch", err)
	}
}

func TestDropAll(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("x"))
	if err := c.Put(key, &Payload{Program: sampleProgram()}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	var out Payload
	if hit, err := c.Get(key, &out); hit || err != nil {
		t.Fatalf("Get after DropAll = %v, %v", hit, err)
	}
}

func TestDropAllRefusesForeignDirectory(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "hashql.toml")
	if err := os.WriteFile(project, []byte("[cache]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("x"))
	if err := c.Put(key, &Payload{Program: sampleProgram()}); err != nil {
		t.Fatal(err)
	}

	if err := c.DropAll(); !errors.Is(err, ErrNotCache) {
		t.Fatalf("DropAll = %v, want ErrNotCache", err)
	}
	if _, err := os.Stat(project); err != nil {
		t.Fatalf("project file touched: %v", err)
	}
	var out Payload
	if hit, err := c.Get(key, &out); !hit || err != nil {
		t.Fatalf("entry lost after refused DropAll: %v, %v", hit, err)
	}
}

func TestDropAllKeepsTag(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll on empty cache: %v", err)
	}
	if err := c.Put(Key([]byte("x")), &Payload{Program: sampleProgram()}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != tagName {
		t.Fatalf("cache dir after DropAll = %v", entries)
	}
	// a reopened cache is still droppable
	if c, err = Open(dir); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll after reopen: %v", err)
	}
}

func TestNilDisk(t *testing.T) {
	var c *Disk
	if err := c.Put(Key(nil), &Payload{}); err != nil {
		t.Fatal(err)
	}
	var out Payload
	if hit, err := c.Get(Key(nil), &out); hit || err != nil {
		t.Fatalf("nil Get = %v, %v", hit, err)
	}
}
