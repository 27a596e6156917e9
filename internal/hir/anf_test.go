package hir

import (
	"testing"

	"hashql/internal/types"
)

func newTestBuilder() (*Builder, *types.Interner) {
	env := types.NewInterner()
	return NewBuilder(NewContext(), env), env
}

func TestANFClassification(t *testing.T) {
	b, env := newTestBuilder()
	x := b.Binder("x")
	local := b.Local(x)
	qualified := b.Qualified("::core::math::add", env.Builtins().Unknown)
	call := b.Call(qualified, b.Integer("1"))

	cases := []struct {
		name       string
		node       Node
		atom       bool
		projection bool
		local      bool
	}{
		{"integer", b.Integer("1"), true, false, false},
		{"string", b.String("a"), true, false, false},
		{"tuple", b.Tuple(b.Integer("1")), false, false, false},
		{"local", local, true, true, true},
		{"qualified", qualified, true, true, false},
		{"field of local", b.FieldAccess(local, "a"), true, true, false},
		{"nested field", b.FieldAccess(b.FieldAccess(local, "a"), "b"), true, true, false},
		{"index of local", b.IndexAccess(local, b.Integer("0")), true, true, false},
		{"field of call", b.FieldAccess(call, "a"), true, false, false},
		{"call", call, false, false, false},
		{"binary", b.Binary(BinOpAdd, local, local), false, false, false},
		{"closure", b.Closure(nil, local), false, false, false},
		{"zero", Node{}, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAtom(tc.node); got != tc.atom {
				t.Errorf("IsAtom = %v, want %v", got, tc.atom)
			}
			if got := IsProjection(tc.node); got != tc.projection {
				t.Errorf("IsProjection = %v, want %v", got, tc.projection)
			}
			if got := IsLocalVariable(tc.node); got != tc.local {
				t.Errorf("IsLocalVariable = %v, want %v", got, tc.local)
			}
		})
	}
}
