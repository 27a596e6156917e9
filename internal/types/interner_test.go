package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Boolean == NoTypeID || b.Integer == NoTypeID || b.Null == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if in.Boolean() != b.Boolean {
		t.Fatalf("Boolean() must return the builtin boolean")
	}
	tt, _ := in.Lookup(b.Boolean)
	if tt.Kind != KindBoolean {
		t.Fatalf("expected Boolean kind, got %v", tt.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().String
	l1 := in.Intern(MakeList(elem))
	l2 := in.Intern(MakeList(elem))
	if l1 != l2 {
		t.Fatalf("list types should be deduplicated")
	}
	if d := in.Intern(MakeDict(elem, elem)); d == l1 {
		t.Fatalf("dict and list must differ")
	}
}

func TestRegisterStructIgnoresFieldOrder(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	s1 := in.RegisterStruct([]StructField{{Name: "a", Type: b.Integer}, {Name: "b", Type: b.String}})
	s2 := in.RegisterStruct([]StructField{{Name: "b", Type: b.String}, {Name: "a", Type: b.Integer}})
	if s1 != s2 {
		t.Fatalf("struct types with the same fields must be equal")
	}
	if got := in.Format(s1); got != "(a: Integer, b: String)" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestRegisterTupleAndClosure(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tup := in.RegisterTuple([]TypeID{b.Integer, b.Boolean})
	if tup != in.RegisterTuple([]TypeID{b.Integer, b.Boolean}) {
		t.Fatalf("tuple types should be deduplicated")
	}
	fn := in.RegisterClosure([]TypeID{tup}, b.Boolean)
	if got := in.Format(fn); got != "fn((Integer, Boolean)) -> Boolean" {
		t.Fatalf("unexpected format %q", got)
	}
	op := in.RegisterOpaque("::graph::TimeAxis", b.Unknown)
	if op != in.RegisterOpaque("::graph::TimeAxis", b.Unknown) {
		t.Fatalf("opaque types should be deduplicated")
	}
	if got := in.Format(op); got != "::graph::TimeAxis" {
		t.Fatalf("unexpected format %q", got)
	}
}
