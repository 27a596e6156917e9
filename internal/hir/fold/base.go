package fold

import (
	"hashql/internal/hir"
	"hashql/internal/source"
	"hashql/internal/types"
)

// Base provides the default behavior of every Folder method. Embed it, call Init with the
// outer folder and override the shapes of interest; the defaults dispatch back through the
// outer folder so overrides apply at every depth.
//
// Base does not implement Interner, the embedding type supplies it. The default nested filter
// is Shallow.
type Base struct {
	self Folder
}

// Init sets the folder the defaults dispatch to.
func (b *Base) Init(self Folder) { b.self = self }

// NestedFilter returns Shallow.
func (b *Base) NestedFilter() NestedFilter { return Shallow }

func (b *Base) FoldNode(node hir.Node) (hir.Node, error) {
	return WalkNode(b.self, node)
}

func (b *Base) FoldNestedNode(node hir.Node) (hir.Node, error) {
	return WalkNestedNode(b.self, node)
}

func (b *Base) FoldNodes(nodes hir.Interned[hir.Node]) (hir.Interned[hir.Node], error) {
	return WalkNodes(b.self, nodes)
}

func (b *Base) FoldSpan(span source.Span) (source.Span, error) {
	return span, nil
}

func (b *Base) FoldTypeID(id types.TypeID) (types.TypeID, error) {
	return id, nil
}

func (b *Base) FoldTypeIDs(ids hir.Interned[types.TypeID]) (hir.Interned[types.TypeID], error) {
	return WalkTypeIDs(b.self, ids)
}

func (b *Base) FoldSymbol(symbol source.StringID) (source.StringID, error) {
	return symbol, nil
}

func (b *Base) FoldIdent(ident hir.Ident) (hir.Ident, error) {
	return WalkIdent(b.self, ident)
}

func (b *Base) FoldIdents(idents hir.Interned[hir.Ident]) (hir.Interned[hir.Ident], error) {
	return WalkIdents(b.self, idents)
}

func (b *Base) FoldData(data hir.Data) (hir.Data, error) {
	return WalkData(b.self, data)
}

func (b *Base) FoldPrimitive(primitive hir.Primitive) (hir.Primitive, error) {
	return WalkPrimitive(b.self, primitive)
}

func (b *Base) FoldTuple(tuple hir.Tuple) (hir.Tuple, error) {
	return WalkTuple(b.self, tuple)
}

func (b *Base) FoldStruct(st hir.Struct) (hir.Struct, error) {
	return WalkStruct(b.self, st)
}

func (b *Base) FoldStructField(field hir.StructField) (hir.StructField, error) {
	return WalkStructField(b.self, field)
}

func (b *Base) FoldStructFields(fields hir.Interned[hir.StructField]) (hir.Interned[hir.StructField], error) {
	return WalkStructFields(b.self, fields)
}

func (b *Base) FoldList(list hir.List) (hir.List, error) {
	return WalkList(b.self, list)
}

func (b *Base) FoldDict(dict hir.Dict) (hir.Dict, error) {
	return WalkDict(b.self, dict)
}

func (b *Base) FoldDictField(field hir.DictField) (hir.DictField, error) {
	return WalkDictField(b.self, field)
}

func (b *Base) FoldDictFields(fields hir.Interned[hir.DictField]) (hir.Interned[hir.DictField], error) {
	return WalkDictFields(b.self, fields)
}

func (b *Base) FoldVariable(variable hir.Variable) (hir.Variable, error) {
	return WalkVariable(b.self, variable)
}

func (b *Base) FoldLocalVariable(variable hir.LocalVariable) (hir.LocalVariable, error) {
	return WalkLocalVariable(b.self, variable)
}

func (b *Base) FoldQualifiedVariable(variable hir.QualifiedVariable) (hir.QualifiedVariable, error) {
	return WalkQualifiedVariable(b.self, variable)
}

func (b *Base) FoldLet(let hir.Let) (hir.Let, error) {
	return WalkLet(b.self, let)
}

func (b *Base) FoldBinding(binding hir.Binding) (hir.Binding, error) {
	return WalkBinding(b.self, binding)
}

func (b *Base) FoldBindings(bindings hir.Interned[hir.Binding]) (hir.Interned[hir.Binding], error) {
	return WalkBindings(b.self, bindings)
}

func (b *Base) FoldBinder(binder hir.Binder) (hir.Binder, error) {
	return WalkBinder(b.self, binder)
}

func (b *Base) FoldOperation(operation hir.Operation) (hir.Operation, error) {
	return WalkOperation(b.self, operation)
}

func (b *Base) FoldTypeOperation(operation hir.TypeOperation) (hir.TypeOperation, error) {
	return WalkTypeOperation(b.self, operation)
}

func (b *Base) FoldTypeAssertion(assertion hir.TypeAssertion) (hir.TypeAssertion, error) {
	return WalkTypeAssertion(b.self, assertion)
}

func (b *Base) FoldTypeConstructor(constructor hir.TypeConstructor) (hir.TypeConstructor, error) {
	return WalkTypeConstructor(b.self, constructor)
}

func (b *Base) FoldBinaryOperation(operation hir.BinaryOperation) (hir.BinaryOperation, error) {
	return WalkBinaryOperation(b.self, operation)
}

func (b *Base) FoldUnaryOperation(operation hir.UnaryOperation) (hir.UnaryOperation, error) {
	return WalkUnaryOperation(b.self, operation)
}

func (b *Base) FoldInput(input hir.Input) (hir.Input, error) {
	return WalkInput(b.self, input)
}

func (b *Base) FoldAccess(access hir.Access) (hir.Access, error) {
	return WalkAccess(b.self, access)
}

func (b *Base) FoldFieldAccess(access hir.FieldAccess) (hir.FieldAccess, error) {
	return WalkFieldAccess(b.self, access)
}

func (b *Base) FoldIndexAccess(access hir.IndexAccess) (hir.IndexAccess, error) {
	return WalkIndexAccess(b.self, access)
}

func (b *Base) FoldCall(call hir.Call) (hir.Call, error) {
	return WalkCall(b.self, call)
}

func (b *Base) FoldCallArgument(argument hir.CallArgument) (hir.CallArgument, error) {
	return WalkCallArgument(b.self, argument)
}

func (b *Base) FoldCallArguments(arguments hir.Interned[hir.CallArgument]) (hir.Interned[hir.CallArgument], error) {
	return WalkCallArguments(b.self, arguments)
}

func (b *Base) FoldBranch(branch hir.Branch) (hir.Branch, error) {
	return WalkBranch(b.self, branch)
}

func (b *Base) FoldIf(ifExpr hir.If) (hir.If, error) {
	return WalkIf(b.self, ifExpr)
}

func (b *Base) FoldClosure(closure hir.Closure) (hir.Closure, error) {
	return WalkClosure(b.self, closure)
}

func (b *Base) FoldClosureSignature(signature hir.ClosureSignature) (hir.ClosureSignature, error) {
	return WalkClosureSignature(b.self, signature)
}

func (b *Base) FoldClosureParam(param hir.ClosureParam) (hir.ClosureParam, error) {
	return WalkClosureParam(b.self, param)
}

func (b *Base) FoldClosureParams(params hir.Interned[hir.ClosureParam]) (hir.Interned[hir.ClosureParam], error) {
	return WalkClosureParams(b.self, params)
}

func (b *Base) FoldThunk(thunk hir.Thunk) (hir.Thunk, error) {
	return WalkThunk(b.self, thunk)
}

func (b *Base) FoldGraph(graph hir.Graph) (hir.Graph, error) {
	return WalkGraph(b.self, graph)
}

func (b *Base) FoldGraphRead(read hir.GraphRead) (hir.GraphRead, error) {
	return WalkGraphRead(b.self, read)
}

func (b *Base) FoldGraphReadHead(head hir.GraphReadHead) (hir.GraphReadHead, error) {
	return WalkGraphReadHead(b.self, head)
}

func (b *Base) FoldGraphReadBody(body hir.Interned[hir.GraphReadBody]) (hir.Interned[hir.GraphReadBody], error) {
	return WalkGraphReadBody(b.self, body)
}

func (b *Base) FoldGraphReadBodyStep(step hir.GraphReadBody) (hir.GraphReadBody, error) {
	return WalkGraphReadBodyStep(b.self, step)
}

func (b *Base) FoldGraphReadTail(tail hir.GraphReadTail) (hir.GraphReadTail, error) {
	return tail, nil
}
