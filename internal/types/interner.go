package types

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Never   TypeID
	Unknown TypeID
	Null    TypeID
	Boolean TypeID
	Integer TypeID
	Number  TypeID
	String  TypeID
}

// StructField is one named field of a struct type.
type StructField struct {
	Name string
	Type TypeID
}

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// StructInfo stores the fields of a struct type, sorted by name.
type StructInfo struct {
	Fields []StructField
}

// ClosureInfo stores parameter and return types of a closure type.
type ClosureInfo struct {
	Params []TypeID
	Result TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	tuples   []TupleInfo
	structs  []StructInfo
	closures []ClosureInfo
	opaques  []string
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	// reserve slot 0 of every side table as invalid sentinel
	in.tuples = append(in.tuples, TupleInfo{})
	in.structs = append(in.structs, StructInfo{})
	in.closures = append(in.closures, ClosureInfo{})
	in.opaques = append(in.opaques, "")

	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	in.builtins.Unknown = in.Intern(Type{Kind: KindUnknown})
	in.builtins.Null = in.Intern(Type{Kind: KindNull})
	in.builtins.Boolean = in.Intern(Type{Kind: KindBoolean})
	in.builtins.Integer = in.Intern(Type{Kind: KindInteger})
	in.builtins.Number = in.Intern(Type{Kind: KindNumber})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Boolean returns the boolean primitive type.
func (in *Interner) Boolean() TypeID {
	return in.builtins.Boolean
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len returns the number of interned descriptors, including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

// RegisterTuple creates or finds a tuple type with the given elements.
func (in *Interner) RegisterTuple(elems []TypeID) TypeID {
	for slot := 1; slot < len(in.tuples); slot++ {
		if slices.Equal(in.tuples[slot].Elems, elems) {
			return in.Intern(Type{Kind: KindTuple, Payload: mustSlot(slot)})
		}
	}
	in.tuples = append(in.tuples, TupleInfo{Elems: slices.Clone(elems)})
	return in.Intern(Type{Kind: KindTuple, Payload: mustSlot(len(in.tuples) - 1)})
}

// RegisterStruct creates or finds a struct type. Field order does not matter.
func (in *Interner) RegisterStruct(fields []StructField) TypeID {
	sorted := slices.Clone(fields)
	slices.SortFunc(sorted, func(a, b StructField) int { return strings.Compare(a.Name, b.Name) })
	for slot := 1; slot < len(in.structs); slot++ {
		if slices.Equal(in.structs[slot].Fields, sorted) {
			return in.Intern(Type{Kind: KindStruct, Payload: mustSlot(slot)})
		}
	}
	in.structs = append(in.structs, StructInfo{Fields: sorted})
	return in.Intern(Type{Kind: KindStruct, Payload: mustSlot(len(in.structs) - 1)})
}

// RegisterClosure creates or finds a closure type.
func (in *Interner) RegisterClosure(params []TypeID, result TypeID) TypeID {
	for slot := 1; slot < len(in.closures); slot++ {
		info := in.closures[slot]
		if info.Result == result && slices.Equal(info.Params, params) {
			return in.Intern(Type{Kind: KindClosure, Payload: mustSlot(slot)})
		}
	}
	in.closures = append(in.closures, ClosureInfo{Params: slices.Clone(params), Result: result})
	return in.Intern(Type{Kind: KindClosure, Payload: mustSlot(len(in.closures) - 1)})
}

// RegisterOpaque creates or finds a named opaque type wrapping repr.
func (in *Interner) RegisterOpaque(name string, repr TypeID) TypeID {
	slot := slices.Index(in.opaques, name)
	if slot <= 0 {
		in.opaques = append(in.opaques, name)
		slot = len(in.opaques) - 1
	}
	return in.Intern(Type{Kind: KindOpaque, Elem: repr, Payload: mustSlot(slot)})
}

// TupleInfo returns the element types for a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (*TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple || int(tt.Payload) >= len(in.tuples) {
		return nil, false
	}
	return &in.tuples[tt.Payload], true
}

// StructInfo returns the fields of a struct TypeID.
func (in *Interner) StructInfo(id TypeID) (*StructInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct || int(tt.Payload) >= len(in.structs) {
		return nil, false
	}
	return &in.structs[tt.Payload], true
}

// ClosureInfo returns the signature of a closure TypeID.
func (in *Interner) ClosureInfo(id TypeID) (*ClosureInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClosure || int(tt.Payload) >= len(in.closures) {
		return nil, false
	}
	return &in.closures[tt.Payload], true
}

// OpaqueName returns the name of an opaque TypeID.
func (in *Interner) OpaqueName(id TypeID) (string, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindOpaque || int(tt.Payload) >= len(in.opaques) {
		return "", false
	}
	return in.opaques[tt.Payload], true
}

// Format renders a type for dumps and diagnostics.
func (in *Interner) Format(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindList:
		return "List<" + in.Format(tt.Elem) + ">"
	case KindDict:
		return "Dict<" + in.Format(tt.Key) + ", " + in.Format(tt.Elem) + ">"
	case KindTuple:
		info, _ := in.TupleInfo(id)
		parts := make([]string, 0, len(info.Elems))
		for _, elem := range info.Elems {
			parts = append(parts, in.Format(elem))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindStruct:
		info, _ := in.StructInfo(id)
		parts := make([]string, 0, len(info.Fields))
		for _, field := range info.Fields {
			parts = append(parts, field.Name+": "+in.Format(field.Type))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindClosure:
		info, _ := in.ClosureInfo(id)
		parts := make([]string, 0, len(info.Params))
		for _, param := range info.Params {
			parts = append(parts, in.Format(param))
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + in.Format(info.Result)
	case KindOpaque:
		return in.opaques[tt.Payload]
	default:
		return tt.Kind.String()
	}
}

func mustSlot(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type side table overflow: %w", err))
	}
	return slot
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Key     TypeID
	Payload uint32
}
