package hir

import (
	"strings"

	"hashql/internal/source"
	"hashql/internal/types"
)

// Builder constructs interned nodes. Every node it creates gets a fresh HirID and a type
// entry in the context map, so its output satisfies the contract passes rely on.
type Builder struct {
	ctx     *Context
	env     *types.Interner
	span    source.Span
	binders map[VarID]types.TypeID
}

// NewBuilder creates a builder over ctx, using env to compute node types.
func NewBuilder(ctx *Context, env *types.Interner) *Builder {
	return &Builder{
		ctx:     ctx,
		env:     env,
		binders: make(map[VarID]types.TypeID),
	}
}

// At returns a builder that stamps span on everything it creates.
// Binder types are shared with the receiver.
func (b *Builder) At(span source.Span) *Builder {
	cpy := *b
	cpy.span = span
	return &cpy
}

// Context returns the underlying compilation context.
func (b *Builder) Context() *Context { return b.ctx }

// Node interns kind under a fresh id with type ty.
func (b *Builder) Node(kind NodeKind, ty types.TypeID) Node {
	id := b.ctx.NextHirID()
	b.ctx.Map.Insert(id, TypeInfo{Type: ty})
	return b.ctx.Interner.InternNode(NodeData{ID: id, Span: b.span, Kind: kind})
}

// TypeOf returns the recorded type of n.
func (b *Builder) TypeOf(n Node) types.TypeID {
	return b.ctx.Map.Type(n.ID())
}

func (b *Builder) ident(name string) Ident {
	return Ident{Value: b.ctx.Symbol(name), Span: b.span}
}

func (b *Builder) nodes(nodes []Node) Interned[Node] {
	return b.ctx.Interner.Nodes.Intern(nodes)
}

// Primitive creates a literal of the given kind from its text.
func (b *Builder) Primitive(kind PrimitiveKind, text string) Node {
	builtins := b.env.Builtins()
	var ty types.TypeID
	switch kind {
	case PrimitiveNull:
		ty = builtins.Null
	case PrimitiveBoolean:
		ty = builtins.Boolean
	case PrimitiveInteger:
		ty = builtins.Integer
	case PrimitiveNumber:
		ty = builtins.Number
	case PrimitiveString:
		ty = builtins.String
	}
	return b.Node(Data{Kind: Primitive{Kind: kind, Value: b.ctx.Symbol(text)}}, ty)
}

func (b *Builder) Null() Node { return b.Primitive(PrimitiveNull, "null") }

func (b *Builder) Bool(value bool) Node {
	if value {
		return b.Primitive(PrimitiveBoolean, "true")
	}
	return b.Primitive(PrimitiveBoolean, "false")
}

func (b *Builder) Integer(text string) Node { return b.Primitive(PrimitiveInteger, text) }
func (b *Builder) Number(text string) Node  { return b.Primitive(PrimitiveNumber, text) }
func (b *Builder) String(text string) Node  { return b.Primitive(PrimitiveString, text) }

// Tuple creates a tuple literal.
func (b *Builder) Tuple(fields ...Node) Node {
	elems := make([]types.TypeID, len(fields))
	for i, field := range fields {
		elems[i] = b.TypeOf(field)
	}
	return b.Node(Data{Kind: Tuple{Fields: b.nodes(fields)}}, b.env.RegisterTuple(elems))
}

// Field creates a struct field initializer.
func (b *Builder) Field(name string, value Node) StructField {
	return StructField{Name: b.ident(name), Value: value}
}

// Struct creates a struct literal.
func (b *Builder) Struct(fields ...StructField) Node {
	descr := make([]types.StructField, len(fields))
	for i, field := range fields {
		descr[i] = types.StructField{Name: b.ctx.SymbolName(field.Name.Value), Type: b.TypeOf(field.Value)}
	}
	return b.Node(
		Data{Kind: Struct{Fields: b.ctx.Interner.StructFields.Intern(fields)}},
		b.env.RegisterStruct(descr),
	)
}

// List creates a list literal. The element type is taken from the first element.
func (b *Builder) List(elements ...Node) Node {
	elem := b.env.Builtins().Unknown
	if len(elements) > 0 {
		elem = b.TypeOf(elements[0])
	}
	return b.Node(Data{Kind: List{Elements: b.nodes(elements)}}, b.env.Intern(types.MakeList(elem)))
}

// Entry creates a dict entry.
func (b *Builder) Entry(key, value Node) DictField {
	return DictField{Key: key, Value: value}
}

// Dict creates a dict literal. Key and value types are taken from the first entry.
func (b *Builder) Dict(fields ...DictField) Node {
	key, value := b.env.Builtins().Unknown, b.env.Builtins().Unknown
	if len(fields) > 0 {
		key, value = b.TypeOf(fields[0].Key), b.TypeOf(fields[0].Value)
	}
	return b.Node(
		Data{Kind: Dict{Fields: b.ctx.Interner.DictFields.Intern(fields)}},
		b.env.Intern(types.MakeDict(key, value)),
	)
}

// Binder introduces a fresh binder. An empty name creates an anonymous binder.
func (b *Builder) Binder(name string) Binder {
	return Binder{ID: b.ctx.NextVarID(), Span: b.span, Name: b.ctx.Symbol(name)}
}

// Param introduces a fresh binder of a known type, for closure signatures.
func (b *Builder) Param(name string, ty types.TypeID) Binder {
	binder := b.Binder(name)
	b.binders[binder.ID] = ty
	return binder
}

// Bind associates binder with value; the binder takes the value's type.
func (b *Builder) Bind(binder Binder, value Node) Binding {
	b.binders[binder.ID] = b.TypeOf(value)
	return Binding{Span: b.span, Binder: binder, Value: value}
}

// Local references binder.
func (b *Builder) Local(binder Binder) Node {
	ty, ok := b.binders[binder.ID]
	if !ok {
		ty = b.env.Builtins().Unknown
	}
	return b.Node(Variable{Kind: LocalVariable{ID: binder.ID, Span: b.span}}, ty)
}

// Qualified references a module item, e.g. "::core::math::add".
func (b *Builder) Qualified(path string, ty types.TypeID) Node {
	var idents []Ident
	for _, segment := range strings.Split(path, "::") {
		if segment == "" {
			continue
		}
		idents = append(idents, b.ident(segment))
	}
	return b.Node(Variable{Kind: QualifiedVariable{Path: b.ctx.Interner.Idents.Intern(idents)}}, ty)
}

// Let creates a let expression. At least one binding is required.
func (b *Builder) Let(body Node, bindings ...Binding) Node {
	if len(bindings) == 0 {
		panic("hir: let without bindings")
	}
	return b.Node(Let{Bindings: b.ctx.Interner.Bindings.Intern(bindings), Body: body}, b.TypeOf(body))
}

// Binary applies a binary operator.
func (b *Builder) Binary(op BinOp, left, right Node) Node {
	ty := b.TypeOf(left)
	if op.Comparison() {
		ty = b.env.Boolean()
	}
	return b.Node(Operation{Kind: BinaryOperation{Op: op, OpSpan: b.span, Left: left, Right: right}}, ty)
}

// Unary applies a unary operator.
func (b *Builder) Unary(op UnOp, expr Node) Node {
	ty := b.TypeOf(expr)
	if op == UnOpNot {
		ty = b.env.Boolean()
	}
	return b.Node(Operation{Kind: UnaryOperation{Op: op, OpSpan: b.span, Expr: expr}}, ty)
}

// Input reads a program input. def may be the zero Node.
func (b *Builder) Input(name string, ty types.TypeID, def Node) Node {
	return b.Node(Operation{Kind: Input{Name: b.ident(name), Type: ty, Default: def}}, ty)
}

// Assert wraps value in a type assertion.
func (b *Builder) Assert(value Node, ty types.TypeID, force bool) Node {
	return b.Node(Operation{Kind: TypeOperation{Kind: TypeAssertion{Value: value, Type: ty, Force: force}}}, ty)
}

// Constructor references the constructor of a nominal type.
func (b *Builder) Constructor(name string, closure types.TypeID) Node {
	return b.Node(
		Operation{Kind: TypeOperation{Kind: TypeConstructor{Name: b.ctx.Symbol(name), Closure: closure}}},
		closure,
	)
}

// FieldAccess creates expr.name.
func (b *Builder) FieldAccess(expr Node, name string) Node {
	ty := b.env.Builtins().Unknown
	if info, ok := b.env.StructInfo(b.TypeOf(expr)); ok {
		for _, field := range info.Fields {
			if field.Name == name {
				ty = field.Type
			}
		}
	}
	return b.Node(Access{Kind: FieldAccess{Expr: expr, Field: b.ident(name)}}, ty)
}

// IndexAccess creates expr[index].
func (b *Builder) IndexAccess(expr, index Node) Node {
	ty := b.env.Builtins().Unknown
	if tt, ok := b.env.Lookup(b.TypeOf(expr)); ok && (tt.Kind == types.KindList || tt.Kind == types.KindDict) {
		ty = tt.Elem
	}
	return b.Node(Access{Kind: IndexAccess{Expr: expr, Index: index}}, ty)
}

// Call applies function to arguments.
func (b *Builder) Call(function Node, arguments ...Node) Node {
	args := make([]CallArgument, len(arguments))
	for i, argument := range arguments {
		args[i] = CallArgument{Span: argument.Span(), Value: argument}
	}
	ty := b.env.Builtins().Unknown
	if info, ok := b.env.ClosureInfo(b.TypeOf(function)); ok {
		ty = info.Result
	}
	return b.Node(Call{Function: function, Arguments: b.ctx.Interner.CallArguments.Intern(args)}, ty)
}

// If creates a conditional. Both arms are required.
func (b *Builder) If(test, then, els Node) Node {
	return b.Node(Branch{Kind: If{Test: test, Then: then, Else: els}}, b.TypeOf(then))
}

// Closure creates a function literal over params.
func (b *Builder) Closure(params []Binder, body Node) Node {
	closureParams := make([]ClosureParam, len(params))
	paramTypes := make([]types.TypeID, len(params))
	for i, param := range params {
		closureParams[i] = ClosureParam{Span: param.Span, Binder: param}
		ty, ok := b.binders[param.ID]
		if !ok {
			ty = b.env.Builtins().Unknown
		}
		paramTypes[i] = ty
	}
	ty := b.env.RegisterClosure(paramTypes, b.TypeOf(body))
	return b.Node(Closure{
		Signature: ClosureSignature{
			Span:   b.span,
			Type:   ty,
			Params: b.ctx.Interner.ClosureParams.Intern(closureParams),
		},
		Body: body,
	}, ty)
}

// Thunk defers body.
func (b *Builder) Thunk(body Node) Node {
	return b.Node(Thunk{Body: body}, b.TypeOf(body))
}

// GraphRead reads entities at axis, filtered by the given closures, collecting the result.
func (b *Builder) GraphRead(axis Node, filters ...Node) Node {
	steps := make([]GraphReadBody, len(filters))
	for i, filter := range filters {
		steps[i] = GraphReadBody{Kind: GraphReadBodyFilter, Filter: filter}
	}
	entity := b.env.RegisterOpaque("::graph::Entity", b.env.Builtins().Unknown)
	return b.Node(Graph{Kind: GraphRead{
		Head: GraphReadHead{Kind: GraphReadHeadEntity, Axis: axis},
		Body: b.ctx.Interner.GraphReadBody.Intern(steps),
		Tail: GraphReadTailCollect,
	}}, b.env.Intern(types.MakeList(entity)))
}
