// Package fold implements fallible, copy-on-write rewriting of HIR trees.
//
// A Folder has one method per node shape. Every method has a default in Base that calls the
// paired Walk function, which folds the children in evaluation order and re-interns the result
// only when a child actually changed. A non-nil error returned by any method stops the rewrite
// and is propagated unchanged to the caller.
package fold

import (
	"fmt"

	"hashql/internal/hir"
	"hashql/internal/source"
	"hashql/internal/types"
)

// NestedFilter controls whether nested children are folded.
type NestedFilter uint8

const (
	// Shallow returns nested children unchanged.
	Shallow NestedFilter = iota
	// Deep folds nested children recursively.
	Deep
)

func (f NestedFilter) String() string {
	if f == Deep {
		return "deep"
	}
	return "shallow"
}

// Folder rewrites an HIR tree.
type Folder interface {
	Interner() *hir.Interner
	NestedFilter() NestedFilter

	FoldNode(node hir.Node) (hir.Node, error)
	FoldNestedNode(node hir.Node) (hir.Node, error)
	FoldNodes(nodes hir.Interned[hir.Node]) (hir.Interned[hir.Node], error)

	FoldSpan(span source.Span) (source.Span, error)
	FoldTypeID(id types.TypeID) (types.TypeID, error)
	FoldTypeIDs(ids hir.Interned[types.TypeID]) (hir.Interned[types.TypeID], error)
	FoldSymbol(symbol source.StringID) (source.StringID, error)
	FoldIdent(ident hir.Ident) (hir.Ident, error)
	FoldIdents(idents hir.Interned[hir.Ident]) (hir.Interned[hir.Ident], error)

	FoldData(data hir.Data) (hir.Data, error)
	FoldPrimitive(primitive hir.Primitive) (hir.Primitive, error)
	FoldTuple(tuple hir.Tuple) (hir.Tuple, error)
	FoldStruct(st hir.Struct) (hir.Struct, error)
	FoldStructField(field hir.StructField) (hir.StructField, error)
	FoldStructFields(fields hir.Interned[hir.StructField]) (hir.Interned[hir.StructField], error)
	FoldList(list hir.List) (hir.List, error)
	FoldDict(dict hir.Dict) (hir.Dict, error)
	FoldDictField(field hir.DictField) (hir.DictField, error)
	FoldDictFields(fields hir.Interned[hir.DictField]) (hir.Interned[hir.DictField], error)

	FoldVariable(variable hir.Variable) (hir.Variable, error)
	FoldLocalVariable(variable hir.LocalVariable) (hir.LocalVariable, error)
	FoldQualifiedVariable(variable hir.QualifiedVariable) (hir.QualifiedVariable, error)

	FoldLet(let hir.Let) (hir.Let, error)
	FoldBinding(binding hir.Binding) (hir.Binding, error)
	FoldBindings(bindings hir.Interned[hir.Binding]) (hir.Interned[hir.Binding], error)
	FoldBinder(binder hir.Binder) (hir.Binder, error)

	FoldOperation(operation hir.Operation) (hir.Operation, error)
	FoldTypeOperation(operation hir.TypeOperation) (hir.TypeOperation, error)
	FoldTypeAssertion(assertion hir.TypeAssertion) (hir.TypeAssertion, error)
	FoldTypeConstructor(constructor hir.TypeConstructor) (hir.TypeConstructor, error)
	FoldBinaryOperation(operation hir.BinaryOperation) (hir.BinaryOperation, error)
	FoldUnaryOperation(operation hir.UnaryOperation) (hir.UnaryOperation, error)
	FoldInput(input hir.Input) (hir.Input, error)

	FoldAccess(access hir.Access) (hir.Access, error)
	FoldFieldAccess(access hir.FieldAccess) (hir.FieldAccess, error)
	FoldIndexAccess(access hir.IndexAccess) (hir.IndexAccess, error)

	FoldCall(call hir.Call) (hir.Call, error)
	FoldCallArgument(argument hir.CallArgument) (hir.CallArgument, error)
	FoldCallArguments(arguments hir.Interned[hir.CallArgument]) (hir.Interned[hir.CallArgument], error)

	FoldBranch(branch hir.Branch) (hir.Branch, error)
	FoldIf(ifExpr hir.If) (hir.If, error)

	FoldClosure(closure hir.Closure) (hir.Closure, error)
	FoldClosureSignature(signature hir.ClosureSignature) (hir.ClosureSignature, error)
	FoldClosureParam(param hir.ClosureParam) (hir.ClosureParam, error)
	FoldClosureParams(params hir.Interned[hir.ClosureParam]) (hir.Interned[hir.ClosureParam], error)

	FoldThunk(thunk hir.Thunk) (hir.Thunk, error)

	FoldGraph(graph hir.Graph) (hir.Graph, error)
	FoldGraphRead(read hir.GraphRead) (hir.GraphRead, error)
	FoldGraphReadHead(head hir.GraphReadHead) (hir.GraphReadHead, error)
	FoldGraphReadBody(body hir.Interned[hir.GraphReadBody]) (hir.Interned[hir.GraphReadBody], error)
	FoldGraphReadBodyStep(step hir.GraphReadBody) (hir.GraphReadBody, error)
	FoldGraphReadTail(tail hir.GraphReadTail) (hir.GraphReadTail, error)
}

// foldSequence rewrites a sequence through a Beef buffer.
func foldSequence[T comparable](
	items hir.Interned[T],
	set *hir.InternSet[T],
	fn func(T) (T, error),
) (hir.Interned[T], error) {
	if items.IsEmpty() {
		return items, nil
	}
	beef := NewBeef(items)
	if err := beef.TryMap(fn); err != nil {
		return items, err
	}
	return beef.Finish(set), nil
}

// Nodes ----------------------------------------------------------------------

// WalkNode folds the node's span and kind. The original handle is returned when neither
// changed; otherwise the node is re-interned under the same HirID, so metadata keyed by the
// id stays valid.
func WalkNode(f Folder, node hir.Node) (hir.Node, error) {
	span, err := f.FoldSpan(node.Span())
	if err != nil {
		return node, err
	}

	var kind hir.NodeKind
	switch k := node.Kind().(type) {
	case hir.Data:
		kind, err = f.FoldData(k)
	case hir.Variable:
		kind, err = f.FoldVariable(k)
	case hir.Let:
		kind, err = f.FoldLet(k)
	case hir.Operation:
		kind, err = f.FoldOperation(k)
	case hir.Access:
		kind, err = f.FoldAccess(k)
	case hir.Call:
		kind, err = f.FoldCall(k)
	case hir.Branch:
		kind, err = f.FoldBranch(k)
	case hir.Closure:
		kind, err = f.FoldClosure(k)
	case hir.Thunk:
		kind, err = f.FoldThunk(k)
	case hir.Graph:
		kind, err = f.FoldGraph(k)
	default:
		panic(fmt.Sprintf("fold: unexpected node kind %T", k))
	}
	if err != nil {
		return node, err
	}

	if span == node.Span() && kind == node.Kind() {
		return node, nil
	}
	return f.Interner().InternNode(hir.NodeData{ID: node.ID(), Span: span, Kind: kind}), nil
}

// WalkNestedNode folds node only under the Deep filter.
func WalkNestedNode(f Folder, node hir.Node) (hir.Node, error) {
	if f.NestedFilter() != Deep {
		return node, nil
	}
	return f.FoldNode(node)
}

func WalkNodes(f Folder, nodes hir.Interned[hir.Node]) (hir.Interned[hir.Node], error) {
	return foldSequence(nodes, f.Interner().Nodes, f.FoldNestedNode)
}

func WalkIdent(f Folder, ident hir.Ident) (hir.Ident, error) {
	span, err := f.FoldSpan(ident.Span)
	if err != nil {
		return ident, err
	}
	value, err := f.FoldSymbol(ident.Value)
	if err != nil {
		return ident, err
	}
	return hir.Ident{Value: value, Span: span}, nil
}

func WalkIdents(f Folder, idents hir.Interned[hir.Ident]) (hir.Interned[hir.Ident], error) {
	return foldSequence(idents, f.Interner().Idents, f.FoldIdent)
}

func WalkTypeIDs(f Folder, ids hir.Interned[types.TypeID]) (hir.Interned[types.TypeID], error) {
	return foldSequence(ids, f.Interner().TypeIDs, f.FoldTypeID)
}

// Data -----------------------------------------------------------------------

func WalkData(f Folder, data hir.Data) (hir.Data, error) {
	var (
		kind hir.DataKind
		err  error
	)
	switch k := data.Kind.(type) {
	case hir.Primitive:
		kind, err = f.FoldPrimitive(k)
	case hir.Tuple:
		kind, err = f.FoldTuple(k)
	case hir.Struct:
		kind, err = f.FoldStruct(k)
	case hir.List:
		kind, err = f.FoldList(k)
	case hir.Dict:
		kind, err = f.FoldDict(k)
	default:
		panic(fmt.Sprintf("fold: unexpected data kind %T", k))
	}
	if err != nil {
		return data, err
	}
	return hir.Data{Kind: kind}, nil
}

func WalkPrimitive(f Folder, primitive hir.Primitive) (hir.Primitive, error) {
	value, err := f.FoldSymbol(primitive.Value)
	if err != nil {
		return primitive, err
	}
	return hir.Primitive{Kind: primitive.Kind, Value: value}, nil
}

func WalkTuple(f Folder, tuple hir.Tuple) (hir.Tuple, error) {
	fields, err := f.FoldNodes(tuple.Fields)
	if err != nil {
		return tuple, err
	}
	return hir.Tuple{Fields: fields}, nil
}

// WalkStruct folds the fields of a struct literal. Duplicate field names are a bug in whoever
// built the tree and cause a panic.
func WalkStruct(f Folder, st hir.Struct) (hir.Struct, error) {
	seen := make(map[source.StringID]struct{}, st.Fields.Len())
	for _, field := range st.Fields.All() {
		if _, dup := seen[field.Name.Value]; dup {
			panic(fmt.Sprintf("fold: duplicate struct field (symbol %d)", field.Name.Value))
		}
		seen[field.Name.Value] = struct{}{}
	}

	fields, err := f.FoldStructFields(st.Fields)
	if err != nil {
		return st, err
	}
	return hir.Struct{Fields: fields}, nil
}

func WalkStructFields(f Folder, fields hir.Interned[hir.StructField]) (hir.Interned[hir.StructField], error) {
	return foldSequence(fields, f.Interner().StructFields, f.FoldStructField)
}

func WalkStructField(f Folder, field hir.StructField) (hir.StructField, error) {
	name, err := f.FoldIdent(field.Name)
	if err != nil {
		return field, err
	}
	value, err := f.FoldNestedNode(field.Value)
	if err != nil {
		return field, err
	}
	return hir.StructField{Name: name, Value: value}, nil
}

func WalkList(f Folder, list hir.List) (hir.List, error) {
	elements, err := f.FoldNodes(list.Elements)
	if err != nil {
		return list, err
	}
	return hir.List{Elements: elements}, nil
}

func WalkDict(f Folder, dict hir.Dict) (hir.Dict, error) {
	fields, err := f.FoldDictFields(dict.Fields)
	if err != nil {
		return dict, err
	}
	return hir.Dict{Fields: fields}, nil
}

func WalkDictFields(f Folder, fields hir.Interned[hir.DictField]) (hir.Interned[hir.DictField], error) {
	return foldSequence(fields, f.Interner().DictFields, f.FoldDictField)
}

func WalkDictField(f Folder, field hir.DictField) (hir.DictField, error) {
	key, err := f.FoldNestedNode(field.Key)
	if err != nil {
		return field, err
	}
	value, err := f.FoldNestedNode(field.Value)
	if err != nil {
		return field, err
	}
	return hir.DictField{Key: key, Value: value}, nil
}

// Variables ------------------------------------------------------------------

func WalkVariable(f Folder, variable hir.Variable) (hir.Variable, error) {
	var (
		kind hir.VariableKind
		err  error
	)
	switch k := variable.Kind.(type) {
	case hir.LocalVariable:
		kind, err = f.FoldLocalVariable(k)
	case hir.QualifiedVariable:
		kind, err = f.FoldQualifiedVariable(k)
	default:
		panic(fmt.Sprintf("fold: unexpected variable kind %T", k))
	}
	if err != nil {
		return variable, err
	}
	return hir.Variable{Kind: kind}, nil
}

func WalkLocalVariable(f Folder, variable hir.LocalVariable) (hir.LocalVariable, error) {
	span, err := f.FoldSpan(variable.Span)
	if err != nil {
		return variable, err
	}
	arguments, err := f.FoldTypeIDs(variable.Arguments)
	if err != nil {
		return variable, err
	}
	return hir.LocalVariable{ID: variable.ID, Span: span, Arguments: arguments}, nil
}

func WalkQualifiedVariable(f Folder, variable hir.QualifiedVariable) (hir.QualifiedVariable, error) {
	path, err := f.FoldIdents(variable.Path)
	if err != nil {
		return variable, err
	}
	arguments, err := f.FoldTypeIDs(variable.Arguments)
	if err != nil {
		return variable, err
	}
	return hir.QualifiedVariable{Path: path, Arguments: arguments}, nil
}

// Let ------------------------------------------------------------------------

func WalkLet(f Folder, let hir.Let) (hir.Let, error) {
	bindings, err := f.FoldBindings(let.Bindings)
	if err != nil {
		return let, err
	}
	body, err := f.FoldNestedNode(let.Body)
	if err != nil {
		return let, err
	}
	return hir.Let{Bindings: bindings, Body: body}, nil
}

func WalkBindings(f Folder, bindings hir.Interned[hir.Binding]) (hir.Interned[hir.Binding], error) {
	return foldSequence(bindings, f.Interner().Bindings, f.FoldBinding)
}

func WalkBinding(f Folder, binding hir.Binding) (hir.Binding, error) {
	span, err := f.FoldSpan(binding.Span)
	if err != nil {
		return binding, err
	}
	binder, err := f.FoldBinder(binding.Binder)
	if err != nil {
		return binding, err
	}
	value, err := f.FoldNestedNode(binding.Value)
	if err != nil {
		return binding, err
	}
	return hir.Binding{Span: span, Binder: binder, Value: value}, nil
}

func WalkBinder(f Folder, binder hir.Binder) (hir.Binder, error) {
	span, err := f.FoldSpan(binder.Span)
	if err != nil {
		return binder, err
	}
	name, err := f.FoldSymbol(binder.Name)
	if err != nil {
		return binder, err
	}
	return hir.Binder{ID: binder.ID, Span: span, Name: name}, nil
}

// Operations -----------------------------------------------------------------

func WalkOperation(f Folder, operation hir.Operation) (hir.Operation, error) {
	var (
		kind hir.OperationKind
		err  error
	)
	switch k := operation.Kind.(type) {
	case hir.TypeOperation:
		kind, err = f.FoldTypeOperation(k)
	case hir.BinaryOperation:
		kind, err = f.FoldBinaryOperation(k)
	case hir.UnaryOperation:
		kind, err = f.FoldUnaryOperation(k)
	case hir.Input:
		kind, err = f.FoldInput(k)
	default:
		panic(fmt.Sprintf("fold: unexpected operation kind %T", k))
	}
	if err != nil {
		return operation, err
	}
	return hir.Operation{Kind: kind}, nil
}

func WalkTypeOperation(f Folder, operation hir.TypeOperation) (hir.TypeOperation, error) {
	var (
		kind hir.TypeOperationKind
		err  error
	)
	switch k := operation.Kind.(type) {
	case hir.TypeAssertion:
		kind, err = f.FoldTypeAssertion(k)
	case hir.TypeConstructor:
		kind, err = f.FoldTypeConstructor(k)
	default:
		panic(fmt.Sprintf("fold: unexpected type operation kind %T", k))
	}
	if err != nil {
		return operation, err
	}
	return hir.TypeOperation{Kind: kind}, nil
}

func WalkTypeAssertion(f Folder, assertion hir.TypeAssertion) (hir.TypeAssertion, error) {
	value, err := f.FoldNestedNode(assertion.Value)
	if err != nil {
		return assertion, err
	}
	ty, err := f.FoldTypeID(assertion.Type)
	if err != nil {
		return assertion, err
	}
	return hir.TypeAssertion{Value: value, Type: ty, Force: assertion.Force}, nil
}

func WalkTypeConstructor(f Folder, constructor hir.TypeConstructor) (hir.TypeConstructor, error) {
	name, err := f.FoldSymbol(constructor.Name)
	if err != nil {
		return constructor, err
	}
	closure, err := f.FoldTypeID(constructor.Closure)
	if err != nil {
		return constructor, err
	}
	return hir.TypeConstructor{Name: name, Closure: closure}, nil
}

func WalkBinaryOperation(f Folder, operation hir.BinaryOperation) (hir.BinaryOperation, error) {
	opSpan, err := f.FoldSpan(operation.OpSpan)
	if err != nil {
		return operation, err
	}
	left, err := f.FoldNestedNode(operation.Left)
	if err != nil {
		return operation, err
	}
	right, err := f.FoldNestedNode(operation.Right)
	if err != nil {
		return operation, err
	}
	return hir.BinaryOperation{Op: operation.Op, OpSpan: opSpan, Left: left, Right: right}, nil
}

func WalkUnaryOperation(f Folder, operation hir.UnaryOperation) (hir.UnaryOperation, error) {
	opSpan, err := f.FoldSpan(operation.OpSpan)
	if err != nil {
		return operation, err
	}
	expr, err := f.FoldNestedNode(operation.Expr)
	if err != nil {
		return operation, err
	}
	return hir.UnaryOperation{Op: operation.Op, OpSpan: opSpan, Expr: expr}, nil
}

func WalkInput(f Folder, input hir.Input) (hir.Input, error) {
	name, err := f.FoldIdent(input.Name)
	if err != nil {
		return input, err
	}
	ty, err := f.FoldTypeID(input.Type)
	if err != nil {
		return input, err
	}
	def := input.Default
	if def.IsValid() {
		if def, err = f.FoldNestedNode(def); err != nil {
			return input, err
		}
	}
	return hir.Input{Name: name, Type: ty, Default: def}, nil
}

// Access ---------------------------------------------------------------------

func WalkAccess(f Folder, access hir.Access) (hir.Access, error) {
	var (
		kind hir.AccessKind
		err  error
	)
	switch k := access.Kind.(type) {
	case hir.FieldAccess:
		kind, err = f.FoldFieldAccess(k)
	case hir.IndexAccess:
		kind, err = f.FoldIndexAccess(k)
	default:
		panic(fmt.Sprintf("fold: unexpected access kind %T", k))
	}
	if err != nil {
		return access, err
	}
	return hir.Access{Kind: kind}, nil
}

func WalkFieldAccess(f Folder, access hir.FieldAccess) (hir.FieldAccess, error) {
	expr, err := f.FoldNestedNode(access.Expr)
	if err != nil {
		return access, err
	}
	field, err := f.FoldIdent(access.Field)
	if err != nil {
		return access, err
	}
	return hir.FieldAccess{Expr: expr, Field: field}, nil
}

func WalkIndexAccess(f Folder, access hir.IndexAccess) (hir.IndexAccess, error) {
	expr, err := f.FoldNestedNode(access.Expr)
	if err != nil {
		return access, err
	}
	index, err := f.FoldNestedNode(access.Index)
	if err != nil {
		return access, err
	}
	return hir.IndexAccess{Expr: expr, Index: index}, nil
}

// Call -----------------------------------------------------------------------

func WalkCall(f Folder, call hir.Call) (hir.Call, error) {
	function, err := f.FoldNestedNode(call.Function)
	if err != nil {
		return call, err
	}
	arguments, err := f.FoldCallArguments(call.Arguments)
	if err != nil {
		return call, err
	}
	return hir.Call{Function: function, Arguments: arguments}, nil
}

func WalkCallArguments(f Folder, arguments hir.Interned[hir.CallArgument]) (hir.Interned[hir.CallArgument], error) {
	return foldSequence(arguments, f.Interner().CallArguments, f.FoldCallArgument)
}

func WalkCallArgument(f Folder, argument hir.CallArgument) (hir.CallArgument, error) {
	span, err := f.FoldSpan(argument.Span)
	if err != nil {
		return argument, err
	}
	value, err := f.FoldNestedNode(argument.Value)
	if err != nil {
		return argument, err
	}
	return hir.CallArgument{Span: span, Value: value}, nil
}

// Branch ---------------------------------------------------------------------

func WalkBranch(f Folder, branch hir.Branch) (hir.Branch, error) {
	switch k := branch.Kind.(type) {
	case hir.If:
		folded, err := f.FoldIf(k)
		if err != nil {
			return branch, err
		}
		return hir.Branch{Kind: folded}, nil
	default:
		panic(fmt.Sprintf("fold: unexpected branch kind %T", k))
	}
}

// WalkIf folds all three parts regardless of the nested filter.
func WalkIf(f Folder, ifExpr hir.If) (hir.If, error) {
	test, err := f.FoldNode(ifExpr.Test)
	if err != nil {
		return ifExpr, err
	}
	then, err := f.FoldNode(ifExpr.Then)
	if err != nil {
		return ifExpr, err
	}
	els, err := f.FoldNode(ifExpr.Else)
	if err != nil {
		return ifExpr, err
	}
	return hir.If{Test: test, Then: then, Else: els}, nil
}

// Closure and thunk ----------------------------------------------------------

func WalkClosure(f Folder, closure hir.Closure) (hir.Closure, error) {
	signature, err := f.FoldClosureSignature(closure.Signature)
	if err != nil {
		return closure, err
	}
	body, err := f.FoldNode(closure.Body)
	if err != nil {
		return closure, err
	}
	return hir.Closure{Signature: signature, Body: body}, nil
}

func WalkClosureSignature(f Folder, signature hir.ClosureSignature) (hir.ClosureSignature, error) {
	span, err := f.FoldSpan(signature.Span)
	if err != nil {
		return signature, err
	}
	ty, err := f.FoldTypeID(signature.Type)
	if err != nil {
		return signature, err
	}
	params, err := f.FoldClosureParams(signature.Params)
	if err != nil {
		return signature, err
	}
	return hir.ClosureSignature{Span: span, Type: ty, Params: params}, nil
}

func WalkClosureParams(f Folder, params hir.Interned[hir.ClosureParam]) (hir.Interned[hir.ClosureParam], error) {
	return foldSequence(params, f.Interner().ClosureParams, f.FoldClosureParam)
}

func WalkClosureParam(f Folder, param hir.ClosureParam) (hir.ClosureParam, error) {
	span, err := f.FoldSpan(param.Span)
	if err != nil {
		return param, err
	}
	binder, err := f.FoldBinder(param.Binder)
	if err != nil {
		return param, err
	}
	return hir.ClosureParam{Span: span, Binder: binder}, nil
}

func WalkThunk(f Folder, thunk hir.Thunk) (hir.Thunk, error) {
	body, err := f.FoldNode(thunk.Body)
	if err != nil {
		return thunk, err
	}
	return hir.Thunk{Body: body}, nil
}

// Graph ----------------------------------------------------------------------

func WalkGraph(f Folder, graph hir.Graph) (hir.Graph, error) {
	switch k := graph.Kind.(type) {
	case hir.GraphRead:
		read, err := f.FoldGraphRead(k)
		if err != nil {
			return graph, err
		}
		return hir.Graph{Kind: read}, nil
	default:
		panic(fmt.Sprintf("fold: unexpected graph kind %T", k))
	}
}

func WalkGraphRead(f Folder, read hir.GraphRead) (hir.GraphRead, error) {
	head, err := f.FoldGraphReadHead(read.Head)
	if err != nil {
		return read, err
	}
	body, err := f.FoldGraphReadBody(read.Body)
	if err != nil {
		return read, err
	}
	tail, err := f.FoldGraphReadTail(read.Tail)
	if err != nil {
		return read, err
	}
	return hir.GraphRead{Head: head, Body: body, Tail: tail}, nil
}

func WalkGraphReadHead(f Folder, head hir.GraphReadHead) (hir.GraphReadHead, error) {
	axis, err := f.FoldNestedNode(head.Axis)
	if err != nil {
		return head, err
	}
	return hir.GraphReadHead{Kind: head.Kind, Axis: axis}, nil
}

func WalkGraphReadBody(f Folder, body hir.Interned[hir.GraphReadBody]) (hir.Interned[hir.GraphReadBody], error) {
	return foldSequence(body, f.Interner().GraphReadBody, f.FoldGraphReadBodyStep)
}

func WalkGraphReadBodyStep(f Folder, step hir.GraphReadBody) (hir.GraphReadBody, error) {
	filter, err := f.FoldNestedNode(step.Filter)
	if err != nil {
		return step, err
	}
	return hir.GraphReadBody{Kind: step.Kind, Filter: filter}, nil
}
