package lower

import (
	"errors"
	"testing"

	"hashql/internal/hir"
)

func TestCheckANFReportsViolations(t *testing.T) {
	cases := []struct {
		name  string
		build func(f *fixture) hir.Node
		want  error
	}{
		{
			name: "nested call argument",
			build: func(f *fixture) hir.Node {
				return f.b.Call(f.fn("foo"), f.b.Call(f.fn("bar"), f.b.Integer("1")))
			},
			want: ErrNotAtomic,
		},
		{
			name: "let in operand position",
			build: func(f *fixture) hir.Node {
				b := f.b
				x := b.Binder("x")
				return b.Call(f.fn("f"), b.Let(b.Local(x), b.Bind(x, b.Integer("1"))))
			},
			want: ErrNestedLet,
		},
		{
			name: "type assertion",
			build: func(f *fixture) hir.Node {
				return f.b.Assert(f.b.Integer("1"), f.env.Builtins().Integer, false)
			},
			want: ErrAssertion,
		},
		{
			name: "field of a call",
			build: func(f *fixture) hir.Node {
				return f.b.FieldAccess(f.b.Call(f.fn("f")), "a")
			},
			want: ErrNotProjection,
		},
		{
			name: "literal index",
			build: func(f *fixture) hir.Node {
				return f.b.IndexAccess(f.fn("xs"), f.b.Integer("0"))
			},
			want: ErrIndexNotLocal,
		},
		{
			name: "untyped node",
			build: func(f *fixture) hir.Node {
				return f.ctx.Interner.InternNode(hir.NodeData{
					ID:   f.ctx.NextHirID(),
					Kind: hir.Data{Kind: hir.Primitive{Kind: hir.PrimitiveNull, Value: f.ctx.Symbol("null")}},
				})
			},
			want: ErrMissingType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			err := CheckANF(f.ctx, tc.build(f))
			if !errors.Is(err, tc.want) {
				t.Fatalf("CheckANF() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCheckANFAcceptsBoundaries(t *testing.T) {
	f := newFixture()
	b := f.b
	x, y := b.Binder("x"), b.Binder("y")
	then := b.Let(b.Local(y), b.Bind(y, b.Call(f.fn("g"))))
	node := b.Let(b.If(b.Local(x), then, b.Integer("0")), b.Bind(x, b.Bool(true)))

	if err := CheckANF(f.ctx, node); err != nil {
		t.Fatalf("CheckANF() = %v", err)
	}
}

func TestCheckANFIgnoresGraphPipeline(t *testing.T) {
	f := newFixture()
	b := f.b
	e := b.Param("e", f.env.Builtins().Unknown)
	filter := b.Closure([]hir.Binder{e}, b.Call(f.fn("p"), b.Call(f.fn("q"), b.Local(e))))
	node := b.GraphRead(f.fn("axis"), filter)

	if err := CheckANF(f.ctx, node); err != nil {
		t.Fatalf("CheckANF() = %v", err)
	}
}

func TestCheckANFJoinsErrors(t *testing.T) {
	f := newFixture()
	b := f.b
	node := b.Call(f.fn("f"), b.Call(f.fn("g")), b.Assert(b.Integer("1"), f.env.Builtins().Integer, true))

	err := CheckANF(f.ctx, node)
	if !errors.Is(err, ErrNotAtomic) || !errors.Is(err, ErrAssertion) {
		t.Fatalf("CheckANF() = %v, want both violations", err)
	}
}
