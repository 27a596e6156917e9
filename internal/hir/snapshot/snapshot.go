// Package snapshot is the on-disk form of an HIR program.
//
// A Program is a plain tree: expressions own their children, binders are numbered per
// program and types live in a side table. Decode rebuilds interned nodes in a fresh
// hir.Context, Encode goes the other way. The same structs are written as JSON for humans
// and as msgpack for tooling.
package snapshot

import "errors"

// SchemaVersion is bumped whenever the shape of Program changes.
const SchemaVersion uint16 = 1

var (
	ErrVersion          = errors.New("unsupported snapshot version")
	ErrUnknownKind      = errors.New("unknown expression kind")
	ErrMissingChild     = errors.New("missing child expression")
	ErrUnknownPrimitive = errors.New("unknown primitive kind")
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrUnboundVariable  = errors.New("variable is not bound")
	ErrBadTypeRef       = errors.New("type reference out of range")
	ErrUnknownFormat    = errors.New("unknown snapshot format")
	ErrDuplicateField   = errors.New("duplicate struct field")
)

// Program is a serialized HIR tree together with the types it references.
type Program struct {
	Version uint16 `json:"version" msgpack:"version"`
	Types   []Type `json:"types,omitempty" msgpack:"types,omitempty"`
	Root    *Expr  `json:"root" msgpack:"root"`
}

// Type is one entry of the type table. Type references anywhere in a Program are 1-based
// indices into Program.Types; 0 stands for the unknown type. An entry may only refer to
// entries before it.
type Type struct {
	Kind   string      `json:"kind" msgpack:"kind"`
	Name   string      `json:"name,omitempty" msgpack:"name,omitempty"`     // opaque
	Elems  []int       `json:"elems,omitempty" msgpack:"elems,omitempty"`   // list, dict key+value, tuple, closure params, opaque repr
	Fields []TypeField `json:"fields,omitempty" msgpack:"fields,omitempty"` // struct
	Result int         `json:"result,omitempty" msgpack:"result,omitempty"` // closure
}

// TypeField is a named member of a struct type.
type TypeField struct {
	Name string `json:"name" msgpack:"name"`
	Type int    `json:"type" msgpack:"type"`
}

// Expression kinds.
const (
	KindPrimitive = "primitive"
	KindTuple     = "tuple"
	KindStruct    = "struct"
	KindList      = "list"
	KindDict      = "dict"
	KindLocal     = "local"
	KindQualified = "qualified"
	KindLet       = "let"
	KindAssert    = "assert"
	KindCtor      = "ctor"
	KindBinary    = "binary"
	KindUnary     = "unary"
	KindInput     = "input"
	KindField     = "field"
	KindIndex     = "index"
	KindCall      = "call"
	KindIf        = "if"
	KindClosure   = "closure"
	KindThunk     = "thunk"
	KindGraphRead = "graph.read"
)

// Expr is one serialized node. Which fields are meaningful depends on Kind.
type Expr struct {
	Kind string `json:"kind" msgpack:"kind"`
	Type int    `json:"type,omitempty" msgpack:"type,omitempty"`

	Prim  string   `json:"prim,omitempty" msgpack:"prim,omitempty"`
	Value string   `json:"value,omitempty" msgpack:"value,omitempty"`
	Name  string   `json:"name,omitempty" msgpack:"name,omitempty"`
	Op    string   `json:"op,omitempty" msgpack:"op,omitempty"`
	Path  []string `json:"path,omitempty" msgpack:"path,omitempty"`
	Var   uint32   `json:"var,omitempty" msgpack:"var,omitempty"`
	TArgs []int    `json:"targs,omitempty" msgpack:"targs,omitempty"`
	As    int      `json:"as,omitempty" msgpack:"as,omitempty"`
	Force bool     `json:"force,omitempty" msgpack:"force,omitempty"`

	Expr    *Expr `json:"expr,omitempty" msgpack:"expr,omitempty"` // assertion value, unary operand, access base
	Left    *Expr `json:"left,omitempty" msgpack:"left,omitempty"`
	Right   *Expr `json:"right,omitempty" msgpack:"right,omitempty"`
	Index   *Expr `json:"index,omitempty" msgpack:"index,omitempty"`
	Default *Expr `json:"default,omitempty" msgpack:"default,omitempty"`
	Fn      *Expr `json:"fn,omitempty" msgpack:"fn,omitempty"`
	Test    *Expr `json:"test,omitempty" msgpack:"test,omitempty"`
	Then    *Expr `json:"then,omitempty" msgpack:"then,omitempty"`
	Else    *Expr `json:"else,omitempty" msgpack:"else,omitempty"`
	Body    *Expr `json:"body,omitempty" msgpack:"body,omitempty"`
	Axis    *Expr `json:"axis,omitempty" msgpack:"axis,omitempty"`

	Items    []*Expr   `json:"items,omitempty" msgpack:"items,omitempty"` // tuple, list, call arguments, graph filters
	Fields   []Field   `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Entries  []Entry   `json:"entries,omitempty" msgpack:"entries,omitempty"`
	Bindings []Binding `json:"bindings,omitempty" msgpack:"bindings,omitempty"`
	Params   []Param   `json:"params,omitempty" msgpack:"params,omitempty"`
}

type Field struct {
	Name  string `json:"name" msgpack:"name"`
	Value *Expr  `json:"value" msgpack:"value"`
}

type Entry struct {
	Key   *Expr `json:"key" msgpack:"key"`
	Value *Expr `json:"value" msgpack:"value"`
}

// Binding binds Var to Value. An empty Name marks a synthesized binder.
type Binding struct {
	Var   uint32 `json:"var" msgpack:"var"`
	Name  string `json:"name,omitempty" msgpack:"name,omitempty"`
	Value *Expr  `json:"value" msgpack:"value"`
}

// Param is a closure parameter.
type Param struct {
	Var  uint32 `json:"var" msgpack:"var"`
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
	Type int    `json:"type,omitempty" msgpack:"type,omitempty"`
}
