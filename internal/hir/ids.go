// Package hir provides the High-level Intermediate Representation for HashQL.
//
// HIR sits between the AST and MIR layers. Every node is interned: a Node is a
// cheap, comparable handle to immutable NodeData, and structurally identical
// nodes share one handle. Passes never mutate nodes; a rewrite builds new
// NodeData and interns it.
//
// Type information lives next to the tree in Context.Map, keyed by HirID.
// Any pass that manufactures a node must also give its id a type entry.
package hir

// HirID identifies a node inside one compilation.
type HirID uint32

// VarID identifies a binder (let-bound variable or closure parameter).
type VarID uint32

// Invalid ID constants (zero is sentinel).
const (
	NoHirID HirID = 0
	NoVarID VarID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id HirID) IsValid() bool { return id != NoHirID }
func (id VarID) IsValid() bool { return id != NoVarID }
