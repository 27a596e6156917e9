package source

import "testing"

func TestInternerBasic(t *testing.T) {
	interner := NewInterner()

	if s, ok := interner.Lookup(NoStringID); !ok || s != "" {
		t.Errorf("NoStringID must map to the empty string, got %q ok=%v", s, ok)
	}

	id1 := interner.Intern("field")
	if id1 == NoStringID {
		t.Fatal("Intern must not return NoStringID for a non-empty string")
	}
	if id2 := interner.Intern("field"); id1 != id2 {
		t.Errorf("same string must intern to the same ID: %d != %d", id1, id2)
	}
	if s, ok := interner.Lookup(id1); !ok || s != "field" {
		t.Errorf("Lookup returned %q ok=%v", s, ok)
	}
	if id3 := interner.Intern("other"); id3 == id1 {
		t.Error("different strings must get different IDs")
	}
	if interner.Len() != 3 { // "", "field", "other"
		t.Errorf("expected Len 3, got %d", interner.Len())
	}
}

func TestInternerEmptyStringIsNoStringID(t *testing.T) {
	interner := NewInterner()
	if id := interner.Intern(""); id != NoStringID {
		t.Fatalf("empty string must intern to NoStringID, got %d", id)
	}
}

func TestInternerMustLookupPanics(t *testing.T) {
	interner := NewInterner()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup must panic on an unknown ID")
		}
	}()
	interner.MustLookup(StringID(9999))
}

func TestInternerSnapshotIsCopy(t *testing.T) {
	interner := NewInterner()
	interner.Intern("a")
	interner.Intern("b")

	snapshot := interner.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snapshot))
	}
	snapshot[1] = "modified"
	if s := interner.MustLookup(1); s != "a" {
		t.Errorf("modifying the snapshot leaked into the interner: %q", s)
	}
}
