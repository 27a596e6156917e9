package fold

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hashql/internal/hir"
	"hashql/internal/types"
)

// literalFolder rewrites primitive literals by text and records the order it sees them in.
type literalFolder struct {
	Base
	ctx     *hir.Context
	filter  NestedFilter
	rewrite map[string]string
	failOn  string
	visited []string
}

func newLiteralFolder(ctx *hir.Context, filter NestedFilter) *literalFolder {
	f := &literalFolder{ctx: ctx, filter: filter, rewrite: map[string]string{}}
	f.Init(f)
	return f
}

func (f *literalFolder) Interner() *hir.Interner    { return f.ctx.Interner }
func (f *literalFolder) NestedFilter() NestedFilter { return f.filter }

func (f *literalFolder) FoldPrimitive(primitive hir.Primitive) (hir.Primitive, error) {
	text := f.ctx.SymbolName(primitive.Value)
	f.visited = append(f.visited, text)
	if text == f.failOn {
		return primitive, errStop
	}
	if to, ok := f.rewrite[text]; ok {
		primitive.Value = f.ctx.Symbol(to)
	}
	return primitive, nil
}

func buildSample(t *testing.T) (*hir.Builder, hir.Node) {
	t.Helper()
	env := types.NewInterner()
	b := hir.NewBuilder(hir.NewContext(), env)
	f := b.Qualified("::f", env.Builtins().Unknown)
	x := b.Binder("x")
	node := b.Let(
		b.If(
			b.Binary(hir.BinOpEq, b.Local(x), b.Integer("2")),
			b.Call(f, b.Integer("3"), b.Tuple(b.Integer("4"), b.Integer("5"))),
			b.List(b.Integer("6")),
		),
		b.Bind(x, b.Integer("1")),
	)
	return b, node
}

func TestFoldIdentityKeepsHandles(t *testing.T) {
	b, node := buildSample(t)
	before := b.Context().Interner.NodeCount()

	f := newLiteralFolder(b.Context(), Deep)
	got, err := f.FoldNode(node)
	if err != nil {
		t.Fatalf("FoldNode: %v", err)
	}
	if got != node {
		t.Fatal("identity fold must return the original handle")
	}
	if after := b.Context().Interner.NodeCount(); after != before {
		t.Fatalf("identity fold interned %d new nodes", after-before)
	}
	if diff := cmp.Diff([]string{"1", "2", "3", "4", "5", "6"}, f.visited); diff != "" {
		t.Fatalf("evaluation order mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldRewritePreservesIDs(t *testing.T) {
	b, node := buildSample(t)
	f := newLiteralFolder(b.Context(), Deep)
	f.rewrite["4"] = "40"

	got, err := f.FoldNode(node)
	if err != nil {
		t.Fatalf("FoldNode: %v", err)
	}
	if got == node {
		t.Fatal("rewrite must produce a new handle")
	}
	if got.ID() != node.ID() {
		t.Fatalf("root id changed: %d -> %d", node.ID(), got.ID())
	}

	want := "let x = 1 in if (x == 2) then ::f(3, (40, 5)) else [6]"
	if text := hir.Sprint(b.Context(), got); text != want {
		t.Fatalf("Sprint = %q, want %q", text, want)
	}

	// the untouched else arm is shared with the input
	oldIf := node.Kind().(hir.Let).Body.Kind().(hir.Branch).Kind.(hir.If)
	newIf := got.Kind().(hir.Let).Body.Kind().(hir.Branch).Kind.(hir.If)
	if oldIf.Else != newIf.Else || oldIf.Test != newIf.Test {
		t.Fatal("unchanged children must keep their handles")
	}
	if oldIf.Then == newIf.Then {
		t.Fatal("changed child must be re-interned")
	}
}

func TestFoldErrorStopsTraversal(t *testing.T) {
	b, node := buildSample(t)
	f := newLiteralFolder(b.Context(), Deep)
	f.failOn = "3"

	_, err := f.FoldNode(node)
	if !errors.Is(err, errStop) {
		t.Fatalf("err = %v, want errStop", err)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, f.visited); diff != "" {
		t.Fatalf("siblings after the failure were folded (-want +got):\n%s", diff)
	}
}

func TestFoldShallowSkipsNestedChildren(t *testing.T) {
	b, node := buildSample(t)
	f := newLiteralFolder(b.Context(), Shallow)
	f.rewrite["1"] = "10"

	got, err := f.FoldNode(node)
	if err != nil {
		t.Fatalf("FoldNode: %v", err)
	}
	if got != node {
		t.Fatal("shallow fold of a let must not touch its bindings")
	}
	if len(f.visited) != 0 {
		t.Fatalf("shallow fold visited %v", f.visited)
	}
}

func TestWalkStructRejectsDuplicateFields(t *testing.T) {
	env := types.NewInterner()
	b := hir.NewBuilder(hir.NewContext(), env)
	ctx := b.Context()
	field := b.Field("a", b.Integer("1"))
	st := hir.Struct{Fields: ctx.Interner.StructFields.Intern([]hir.StructField{field, field})}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate field names")
		}
	}()
	f := newLiteralFolder(ctx, Deep)
	_, _ = WalkStruct(f, st)
}
