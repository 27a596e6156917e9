package hir

import (
	"fmt"
	"strings"
	"testing"
)

func TestDumpSingleLine(t *testing.T) {
	b, env := newTestBuilder()
	unknown := env.Builtins().Unknown

	x := b.Binder("x")
	anon := b.Binder("")
	bar := b.Qualified("::bar", unknown)
	foo := b.Qualified("::foo", unknown)
	let := b.Let(
		b.Call(foo, b.Local(x), b.Local(anon)),
		b.Bind(x, b.Integer("1")),
		b.Bind(anon, b.Call(bar, b.Integer("1"))),
	)

	e := b.Param("e", unknown)
	cases := []struct {
		name string
		node Node
		want string
	}{
		{"let", let, "let x = 1, %2 = ::bar(1) in ::foo(x, %2)"},
		{"if", b.If(b.Bool(true), b.String("a"), b.Null()), `if true then "a" else null`},
		{"and", b.Binary(BinOpAnd, b.Bool(true), b.Bool(false)), "(true && false)"},
		{"not", b.Unary(UnOpNot, b.Bool(true)), "!true"},
		{"tuple", b.Tuple(b.Integer("1")), "(1,)"},
		{"struct", b.Struct(b.Field("a", b.Integer("1")), b.Field("b", b.Integer("2"))), "(a: 1, b: 2)"},
		{"empty struct", b.Struct(), "(:)"},
		{"list", b.List(b.Integer("1"), b.Integer("2")), "[1, 2]"},
		{"dict", b.Dict(b.Entry(b.String("k"), b.Integer("1"))), `{"k": 1}`},
		{"access", b.IndexAccess(b.FieldAccess(foo, "a"), b.Integer("0")), "::foo.a[0]"},
		{"assert", b.Assert(b.Integer("1"), env.Builtins().Integer, false), "#as(1, Integer)"},
		{"cast", b.Assert(b.Integer("1"), env.Builtins().Number, true), "#as!(1, Number)"},
		{"input", b.Input("limit", env.Builtins().Integer, b.Integer("10")), "#input(limit: Integer, default: 10)"},
		{"thunk", b.Thunk(b.Integer("1")), "#thunk(1)"},
		{"closure", b.Closure([]Binder{e}, b.Local(e)), "fn(e) -> e"},
		{
			"graph",
			b.GraphRead(foo, b.Closure([]Binder{e}, b.Bool(true))),
			"#graph.read.entities(::foo) |> filter(fn(e) -> true) |> collect",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sb strings.Builder
			if err := Dump(&sb, b.Context(), tc.node, DumpOptions{Types: env}); err != nil {
				t.Fatalf("Dump: %v", err)
			}
			if got := sb.String(); got != tc.want {
				t.Fatalf("Dump =\n%s\nwant\n%s", got, tc.want)
			}
		})
	}
}

func TestDumpMultiline(t *testing.T) {
	b, env := newTestBuilder()
	x := b.Binder("x")
	// ids in source order: literal, local, let
	bind := b.Bind(x, b.Integer("1"))
	let := b.Let(b.Local(x), bind)

	var sb strings.Builder
	if err := Dump(&sb, b.Context(), let, DumpOptions{Multiline: true, Types: env, ShowIDs: true}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "let\n  x = 1@1\nin\nx@2@3\n"
	if sb.String() != want {
		t.Fatalf("Dump =\n%q\nwant\n%q", sb.String(), want)
	}
}

func TestSprintWithoutTypes(t *testing.T) {
	b, env := newTestBuilder()
	node := b.Assert(b.Integer("1"), env.Builtins().Integer, false)
	want := fmt.Sprintf("#as(1, T#%d)", env.Builtins().Integer)
	if got := Sprint(b.Context(), node); got != want {
		t.Fatalf("Sprint = %q, want %q", got, want)
	}
}
