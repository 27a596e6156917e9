package hir

import (
	"hashql/internal/source"
)

// NodeData is the immutable payload behind a Node.
type NodeData struct {
	ID   HirID
	Span source.Span
	Kind NodeKind

	seq uint32 // arena position, assigned by the interner
}

// Node is a handle to interned NodeData. Two nodes are structurally equal iff
// their handles are equal. The zero Node is invalid and stands for "absent".
type Node struct {
	data *NodeData
}

// IsValid reports whether n refers to interned data.
func (n Node) IsValid() bool { return n.data != nil }

// ID returns the node's HirID, or NoHirID for the zero Node.
func (n Node) ID() HirID {
	if n.data == nil {
		return NoHirID
	}
	return n.data.ID
}

// Span returns the node's source span.
func (n Node) Span() source.Span {
	if n.data == nil {
		return source.NoSpan
	}
	return n.data.Span
}

// Kind returns the node's payload, nil for the zero Node.
func (n Node) Kind() NodeKind {
	if n.data == nil {
		return nil
	}
	return n.data.Kind
}

// Data returns a copy of the node's payload suitable for building a new node.
func (n Node) Data() NodeData {
	if n.data == nil {
		return NodeData{}
	}
	return NodeData{ID: n.data.ID, Span: n.data.Span, Kind: n.data.Kind}
}

// NodeKind is the closed set of node shapes.
type NodeKind interface {
	nodeKind()
}

// KindName returns a short name of the node's top-level shape.
func KindName(kind NodeKind) string {
	switch k := kind.(type) {
	case Data:
		switch k.Kind.(type) {
		case Primitive:
			return "Primitive"
		case Tuple:
			return "Tuple"
		case Struct:
			return "Struct"
		case List:
			return "List"
		case Dict:
			return "Dict"
		}
		return "Data"
	case Variable:
		if _, ok := k.Kind.(QualifiedVariable); ok {
			return "QualifiedVariable"
		}
		return "LocalVariable"
	case Let:
		return "Let"
	case Operation:
		switch op := k.Kind.(type) {
		case TypeOperation:
			if _, ok := op.Kind.(TypeAssertion); ok {
				return "TypeAssertion"
			}
			return "TypeConstructor"
		case BinaryOperation:
			return "BinaryOperation"
		case UnaryOperation:
			return "UnaryOperation"
		case Input:
			return "Input"
		}
		return "Operation"
	case Access:
		if _, ok := k.Kind.(IndexAccess); ok {
			return "IndexAccess"
		}
		return "FieldAccess"
	case Call:
		return "Call"
	case Branch:
		return "If"
	case Closure:
		return "Closure"
	case Thunk:
		return "Thunk"
	case Graph:
		return "GraphRead"
	case nil:
		return "Invalid"
	default:
		return "Unknown"
	}
}
