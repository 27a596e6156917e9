// Package types is the type environment consulted by the HIR passes.
//
// Types are interned: structurally identical descriptors map to the same TypeID, so
// TypeID equality is type equality.
package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNever
	KindUnknown
	KindNull
	KindBoolean
	KindInteger
	KindNumber
	KindString
	KindList
	KindDict
	KindTuple
	KindStruct
	KindClosure
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNever:
		return "!"
	case KindUnknown:
		return "?"
	case KindNull:
		return "Null"
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindDict:
		return "Dict"
	case KindTuple:
		return "Tuple"
	case KindStruct:
		return "Struct"
	case KindClosure:
		return "Closure"
	case KindOpaque:
		return "Opaque"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // list element, dict value, opaque representation
	Key     TypeID // dict key
	Payload uint32 // slot in the tuple/struct/closure side tables, or the opaque name slot
}

// Primitive reports whether the kind carries no element types.
func (k Kind) Primitive() bool {
	switch k {
	case KindNull, KindBoolean, KindInteger, KindNumber, KindString:
		return true
	default:
		return false
	}
}

// MakeList describes List<elem>.
func MakeList(elem TypeID) Type {
	return Type{Kind: KindList, Elem: elem}
}

// MakeDict describes Dict<key, value>.
func MakeDict(key, value TypeID) Type {
	return Type{Kind: KindDict, Key: key, Elem: value}
}
