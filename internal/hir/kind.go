package hir

import (
	"hashql/internal/source"
	"hashql/internal/types"
)

// Ident is a user-facing name with its location.
type Ident struct {
	Value source.StringID
	Span  source.Span
}

// Data -----------------------------------------------------------------------

// Data holds literal values.
type Data struct {
	Kind DataKind
}

func (Data) nodeKind() {}

// DataKind is implemented by Primitive, Tuple, Struct, List and Dict.
type DataKind interface {
	dataKind()
}

// PrimitiveKind enumerates primitive literal kinds.
type PrimitiveKind uint8

const (
	PrimitiveNull PrimitiveKind = iota
	PrimitiveBoolean
	PrimitiveInteger
	PrimitiveNumber
	PrimitiveString
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveNull:
		return "null"
	case PrimitiveBoolean:
		return "boolean"
	case PrimitiveInteger:
		return "integer"
	case PrimitiveNumber:
		return "number"
	case PrimitiveString:
		return "string"
	default:
		return "unknown"
	}
}

// Primitive is a scalar literal. Value is the literal text ("1", "true", the string contents).
type Primitive struct {
	Kind  PrimitiveKind
	Value source.StringID
}

func (Primitive) dataKind() {}

// Tuple is a positional literal.
type Tuple struct {
	Fields Interned[Node]
}

func (Tuple) dataKind() {}

// Struct is a literal with named fields. Field names are unique.
type Struct struct {
	Fields Interned[StructField]
}

func (Struct) dataKind() {}

// StructField is one field initializer of a Struct literal.
type StructField struct {
	Name  Ident
	Value Node
}

// List is a homogeneous sequence literal.
type List struct {
	Elements Interned[Node]
}

func (List) dataKind() {}

// Dict is a key/value literal.
type Dict struct {
	Fields Interned[DictField]
}

func (Dict) dataKind() {}

// DictField is one entry of a Dict literal.
type DictField struct {
	Key   Node
	Value Node
}

// Variable -------------------------------------------------------------------

// Variable references a binder or a module item.
type Variable struct {
	Kind VariableKind
}

func (Variable) nodeKind() {}

// VariableKind is implemented by LocalVariable and QualifiedVariable.
type VariableKind interface {
	variableKind()
}

// LocalVariable references a binder introduced by a let or a closure signature.
type LocalVariable struct {
	ID        VarID
	Span      source.Span
	Arguments Interned[types.TypeID] // instantiated type arguments
}

func (LocalVariable) variableKind() {}

// QualifiedVariable references a module item by path, e.g. ::core::math::add.
type QualifiedVariable struct {
	Path      Interned[Ident]
	Arguments Interned[types.TypeID]
}

func (QualifiedVariable) variableKind() {}

// Let ------------------------------------------------------------------------

// Let evaluates its bindings left to right, then the body. Bindings is never empty.
type Let struct {
	Bindings Interned[Binding]
	Body     Node
}

func (Let) nodeKind() {}

// Binder introduces a variable. Name is NoStringID for synthesized binders.
type Binder struct {
	ID   VarID
	Span source.Span
	Name source.StringID
}

// Binding associates a binder with its value.
type Binding struct {
	Span   source.Span
	Binder Binder
	Value  Node
}

// Operation ------------------------------------------------------------------

// Operation wraps type operations, binary/unary operators and inputs.
type Operation struct {
	Kind OperationKind
}

func (Operation) nodeKind() {}

// OperationKind is implemented by TypeOperation, BinaryOperation, UnaryOperation and Input.
type OperationKind interface {
	operationKind()
}

// TypeOperation wraps TypeAssertion and TypeConstructor.
type TypeOperation struct {
	Kind TypeOperationKind
}

func (TypeOperation) operationKind() {}

// TypeOperationKind is implemented by TypeAssertion and TypeConstructor.
type TypeOperationKind interface {
	typeOperationKind()
}

// TypeAssertion asserts (or, with Force, casts) Value to Type. It has no runtime effect
// once type checking is done.
type TypeAssertion struct {
	Value Node
	Type  types.TypeID
	Force bool
}

func (TypeAssertion) typeOperationKind() {}

// TypeConstructor is the constructor function of a nominal type.
type TypeConstructor struct {
	Name    source.StringID
	Closure types.TypeID
}

func (TypeConstructor) typeOperationKind() {}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	BinOpAdd BinOp = iota
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpBitAnd
	BinOpBitOr
	BinOpEq
	BinOpNe
	BinOpLt
	BinOpLte
	BinOpGt
	BinOpGte
	BinOpAnd
	BinOpOr
)

func (op BinOp) String() string {
	switch op {
	case BinOpAdd:
		return "+"
	case BinOpSub:
		return "-"
	case BinOpMul:
		return "*"
	case BinOpDiv:
		return "/"
	case BinOpBitAnd:
		return "&"
	case BinOpBitOr:
		return "|"
	case BinOpEq:
		return "=="
	case BinOpNe:
		return "!="
	case BinOpLt:
		return "<"
	case BinOpLte:
		return "<="
	case BinOpGt:
		return ">"
	case BinOpGte:
		return ">="
	case BinOpAnd:
		return "&&"
	case BinOpOr:
		return "||"
	default:
		return "?"
	}
}

// ParseBinOp is the inverse of BinOp.String.
func ParseBinOp(s string) (BinOp, bool) {
	for op := BinOpAdd; op <= BinOpOr; op++ {
		if op.String() == s {
			return op, true
		}
	}
	return 0, false
}

// ShortCircuit reports whether the right operand is evaluated conditionally.
func (op BinOp) ShortCircuit() bool {
	return op == BinOpAnd || op == BinOpOr
}

// Comparison reports whether the operator yields a boolean.
func (op BinOp) Comparison() bool {
	return op >= BinOpEq
}

// BinaryOperation applies Op to Left and Right.
type BinaryOperation struct {
	Op     BinOp
	OpSpan source.Span
	Left   Node
	Right  Node
}

func (BinaryOperation) operationKind() {}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	UnOpNot UnOp = iota
	UnOpNeg
	UnOpBitNot
)

func (op UnOp) String() string {
	switch op {
	case UnOpNot:
		return "!"
	case UnOpNeg:
		return "-"
	case UnOpBitNot:
		return "~"
	default:
		return "?"
	}
}

// ParseUnOp is the inverse of UnOp.String.
func ParseUnOp(s string) (UnOp, bool) {
	for op := UnOpNot; op <= UnOpBitNot; op++ {
		if op.String() == s {
			return op, true
		}
	}
	return 0, false
}

// UnaryOperation applies Op to Expr.
type UnaryOperation struct {
	Op     UnOp
	OpSpan source.Span
	Expr   Node
}

func (UnaryOperation) operationKind() {}

// Input reads a named program input. Default is the zero Node when absent.
type Input struct {
	Name    Ident
	Type    types.TypeID
	Default Node
}

func (Input) operationKind() {}

// Access ---------------------------------------------------------------------

// Access wraps FieldAccess and IndexAccess.
type Access struct {
	Kind AccessKind
}

func (Access) nodeKind() {}

// AccessKind is implemented by FieldAccess and IndexAccess.
type AccessKind interface {
	accessKind()
}

// FieldAccess is expr.field.
type FieldAccess struct {
	Expr  Node
	Field Ident
}

func (FieldAccess) accessKind() {}

// IndexAccess is expr[index].
type IndexAccess struct {
	Expr  Node
	Index Node
}

func (IndexAccess) accessKind() {}

// Call -----------------------------------------------------------------------

// Call applies Function to Arguments.
type Call struct {
	Function  Node
	Arguments Interned[CallArgument]
}

func (Call) nodeKind() {}

// CallArgument is one positional argument.
type CallArgument struct {
	Span  source.Span
	Value Node
}

// Branch ---------------------------------------------------------------------

// Branch wraps control flow.
type Branch struct {
	Kind BranchKind
}

func (Branch) nodeKind() {}

// BranchKind is implemented by If.
type BranchKind interface {
	branchKind()
}

// If always has both arms.
type If struct {
	Test Node
	Then Node
	Else Node
}

func (If) branchKind() {}

// Closure --------------------------------------------------------------------

// Closure is a function literal.
type Closure struct {
	Signature ClosureSignature
	Body      Node
}

func (Closure) nodeKind() {}

// ClosureSignature lists the parameters in order. Type is the closure type.
type ClosureSignature struct {
	Span   source.Span
	Type   types.TypeID
	Params Interned[ClosureParam]
}

// ClosureParam is one parameter binder.
type ClosureParam struct {
	Span   source.Span
	Binder Binder
}

// Thunk ----------------------------------------------------------------------

// Thunk is a deferred module-level computation.
type Thunk struct {
	Body Node
}

func (Thunk) nodeKind() {}

// Graph ----------------------------------------------------------------------

// Graph wraps graph operations.
type Graph struct {
	Kind GraphKind
}

func (Graph) nodeKind() {}

// GraphKind is implemented by GraphRead.
type GraphKind interface {
	graphKind()
}

// GraphRead is a read pipeline: head, zero or more body steps, tail.
type GraphRead struct {
	Head GraphReadHead
	Body Interned[GraphReadBody]
	Tail GraphReadTail
}

func (GraphRead) graphKind() {}

// GraphReadHeadKind enumerates pipeline sources.
type GraphReadHeadKind uint8

const (
	GraphReadHeadEntity GraphReadHeadKind = iota
)

// GraphReadHead starts a pipeline over Axis (the temporal axes to read at).
type GraphReadHead struct {
	Kind GraphReadHeadKind
	Axis Node
}

// GraphReadBodyKind enumerates pipeline steps.
type GraphReadBodyKind uint8

const (
	GraphReadBodyFilter GraphReadBodyKind = iota
)

// GraphReadBody is one pipeline step. Filter is a closure node.
type GraphReadBody struct {
	Kind   GraphReadBodyKind
	Filter Node
}

// GraphReadTail enumerates pipeline sinks.
type GraphReadTail uint8

const (
	GraphReadTailCollect GraphReadTail = iota
)
