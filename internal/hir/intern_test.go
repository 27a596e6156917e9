package hir

import (
	"testing"

	"hashql/internal/source"
	"hashql/internal/types"
)

func TestInternSetDeduplicates(t *testing.T) {
	set := NewInternSet(appendTypeIDKey)

	a := set.Intern(nil)
	if !a.IsEmpty() || a.Len() != 0 {
		t.Fatalf("empty input must produce the empty sequence, got len %d", a.Len())
	}

	buf := []types.TypeID{1, 2, 3}
	first := set.Intern(buf)
	buf[0] = 9 // the set must own its copy
	second := set.Intern([]types.TypeID{1, 2, 3})
	if first != second {
		t.Fatal("equal sequences must intern to the same handle")
	}
	if got := first.At(0); got != 1 {
		t.Fatalf("interned storage was aliased: At(0) = %d", got)
	}
	third := set.Intern([]types.TypeID{1, 2})
	if third == first {
		t.Fatal("different sequences must not share a handle")
	}
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
}

func TestInternNodeStructuralEquality(t *testing.T) {
	ctx := NewContext()
	kind := Data{Kind: Primitive{Kind: PrimitiveInteger, Value: ctx.Symbol("1")}}
	span := source.Span{File: 1, Start: 0, End: 1}

	a := ctx.Interner.InternNode(NodeData{ID: 1, Span: span, Kind: kind})
	b := ctx.Interner.InternNode(NodeData{ID: 1, Span: span, Kind: kind})
	if a != b {
		t.Fatal("identical node data must intern to the same handle")
	}
	c := ctx.Interner.InternNode(NodeData{ID: 2, Span: span, Kind: kind})
	if a == c {
		t.Fatal("nodes with different ids must differ")
	}
	if ctx.Interner.NodeCount() != 2 {
		t.Fatalf("NodeCount = %d, want 2", ctx.Interner.NodeCount())
	}

	data := a.Data()
	if data.ID != 1 || data.Span != span || data.Kind != kind {
		t.Fatalf("Data() lost information: %+v", data)
	}
	if again := ctx.Interner.InternNode(data); again != a {
		t.Fatal("re-interning Data() must return the original handle")
	}
}

func TestInternNodeRejectsInvalidData(t *testing.T) {
	ctx := NewContext()
	cases := []struct {
		name string
		data NodeData
	}{
		{"no id", NodeData{Kind: Thunk{}}},
		{"no kind", NodeData{ID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			ctx.Interner.InternNode(tc.data)
		})
	}
}

func TestZeroNode(t *testing.T) {
	var n Node
	if n.IsValid() {
		t.Fatal("zero node must be invalid")
	}
	if n.ID() != NoHirID || n.Kind() != nil || n.Span() != source.NoSpan {
		t.Fatal("zero node accessors must return zero values")
	}
	if KindName(n.Kind()) != "Invalid" {
		t.Fatalf("KindName = %q", KindName(n.Kind()))
	}
}

func TestTypeMapCopy(t *testing.T) {
	m := NewTypeMap()
	m.Insert(1, TypeInfo{Type: 7})
	m.Copy(1, 2)
	if got := m.Type(2); got != 7 {
		t.Fatalf("Type(2) = %d, want 7", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("copying a missing entry must panic")
		}
	}()
	m.Copy(3, 4)
}
