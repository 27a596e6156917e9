package snapshot

import (
	"fmt"

	"hashql/internal/hir"
	"hashql/internal/types"
)

// Encode serializes node. Types are read from hctx.Map and described with env.
func Encode(hctx *hir.Context, env *types.Interner, node hir.Node) *Program {
	e := &encoder{ctx: hctx, env: env, refs: make(map[types.TypeID]int)}
	root := e.expr(node)
	return &Program{Version: SchemaVersion, Types: e.table, Root: root}
}

type encoder struct {
	ctx   *hir.Context
	env   *types.Interner
	table []Type
	refs  map[types.TypeID]int
}

func (e *encoder) name(ident hir.Ident) string {
	return e.ctx.SymbolName(ident.Value)
}

// typeRef appends id (and everything it refers to) to the table.
func (e *encoder) typeRef(id types.TypeID) int {
	if id == types.NoTypeID || id == e.env.Builtins().Unknown {
		return 0
	}
	if ref, ok := e.refs[id]; ok {
		return ref
	}
	tt, ok := e.env.Lookup(id)
	if !ok {
		return 0
	}

	var out Type
	switch tt.Kind {
	case types.KindNever:
		out.Kind = "never"
	case types.KindNull:
		out.Kind = "null"
	case types.KindBoolean:
		out.Kind = "boolean"
	case types.KindInteger:
		out.Kind = "integer"
	case types.KindNumber:
		out.Kind = "number"
	case types.KindString:
		out.Kind = "string"
	case types.KindList:
		out = Type{Kind: "list", Elems: []int{e.typeRef(tt.Elem)}}
	case types.KindDict:
		out = Type{Kind: "dict", Elems: []int{e.typeRef(tt.Key), e.typeRef(tt.Elem)}}
	case types.KindTuple:
		info, _ := e.env.TupleInfo(id)
		out = Type{Kind: "tuple", Elems: e.typeRefs(info.Elems)}
	case types.KindStruct:
		info, _ := e.env.StructInfo(id)
		out.Kind = "struct"
		for _, field := range info.Fields {
			out.Fields = append(out.Fields, TypeField{Name: field.Name, Type: e.typeRef(field.Type)})
		}
	case types.KindClosure:
		info, _ := e.env.ClosureInfo(id)
		out = Type{Kind: "closure", Elems: e.typeRefs(info.Params), Result: e.typeRef(info.Result)}
	case types.KindOpaque:
		name, _ := e.env.OpaqueName(id)
		out = Type{Kind: "opaque", Name: name, Elems: []int{e.typeRef(tt.Elem)}}
	default:
		return 0
	}

	e.table = append(e.table, out)
	ref := len(e.table)
	e.refs[id] = ref
	return ref
}

func (e *encoder) typeRefs(ids []types.TypeID) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = e.typeRef(id)
	}
	return out
}

func (e *encoder) exprs(nodes hir.Interned[hir.Node]) []*Expr {
	if nodes.IsEmpty() {
		return nil
	}
	out := make([]*Expr, 0, nodes.Len())
	for _, node := range nodes.All() {
		out = append(out, e.expr(node))
	}
	return out
}

func (e *encoder) expr(node hir.Node) *Expr {
	out := e.build(node)
	out.Type = e.typeRef(e.ctx.Map.Type(node.ID()))
	return out
}

func (e *encoder) build(node hir.Node) *Expr {
	switch kind := node.Kind().(type) {
	case hir.Data:
		return e.data(kind)

	case hir.Variable:
		switch v := kind.Kind.(type) {
		case hir.LocalVariable:
			return &Expr{Kind: KindLocal, Var: uint32(v.ID), TArgs: e.typeRefs(v.Arguments.Slice())}
		case hir.QualifiedVariable:
			path := make([]string, 0, v.Path.Len())
			for _, ident := range v.Path.All() {
				path = append(path, e.name(ident))
			}
			return &Expr{Kind: KindQualified, Path: path, TArgs: e.typeRefs(v.Arguments.Slice())}
		}

	case hir.Let:
		out := &Expr{Kind: KindLet, Body: e.expr(kind.Body)}
		for _, binding := range kind.Bindings.All() {
			out.Bindings = append(out.Bindings, Binding{
				Var:   uint32(binding.Binder.ID),
				Name:  e.ctx.SymbolName(binding.Binder.Name),
				Value: e.expr(binding.Value),
			})
		}
		return out

	case hir.Operation:
		return e.operation(kind)

	case hir.Access:
		switch access := kind.Kind.(type) {
		case hir.FieldAccess:
			return &Expr{Kind: KindField, Expr: e.expr(access.Expr), Name: e.name(access.Field)}
		case hir.IndexAccess:
			return &Expr{Kind: KindIndex, Expr: e.expr(access.Expr), Index: e.expr(access.Index)}
		}

	case hir.Call:
		out := &Expr{Kind: KindCall, Fn: e.expr(kind.Function)}
		for _, argument := range kind.Arguments.All() {
			out.Items = append(out.Items, e.expr(argument.Value))
		}
		return out

	case hir.Branch:
		if ifExpr, ok := kind.Kind.(hir.If); ok {
			return &Expr{Kind: KindIf, Test: e.expr(ifExpr.Test), Then: e.expr(ifExpr.Then), Else: e.expr(ifExpr.Else)}
		}

	case hir.Closure:
		out := &Expr{Kind: KindClosure}
		info, _ := e.env.ClosureInfo(kind.Signature.Type)
		for i, param := range kind.Signature.Params.All() {
			p := Param{Var: uint32(param.Binder.ID), Name: e.ctx.SymbolName(param.Binder.Name)}
			if info != nil && i < len(info.Params) {
				p.Type = e.typeRef(info.Params[i])
			}
			out.Params = append(out.Params, p)
		}
		out.Body = e.expr(kind.Body)
		return out

	case hir.Thunk:
		return &Expr{Kind: KindThunk, Body: e.expr(kind.Body)}

	case hir.Graph:
		if read, ok := kind.Kind.(hir.GraphRead); ok {
			out := &Expr{Kind: KindGraphRead, Axis: e.expr(read.Head.Axis)}
			for _, step := range read.Body.All() {
				out.Items = append(out.Items, e.expr(step.Filter))
			}
			return out
		}
	}
	panic(fmt.Sprintf("snapshot: cannot encode %s", hir.KindName(node.Kind())))
}

func (e *encoder) data(data hir.Data) *Expr {
	switch kind := data.Kind.(type) {
	case hir.Primitive:
		return &Expr{Kind: KindPrimitive, Prim: kind.Kind.String(), Value: e.ctx.SymbolName(kind.Value)}
	case hir.Tuple:
		return &Expr{Kind: KindTuple, Items: e.exprs(kind.Fields)}
	case hir.Struct:
		out := &Expr{Kind: KindStruct}
		for _, field := range kind.Fields.All() {
			out.Fields = append(out.Fields, Field{Name: e.name(field.Name), Value: e.expr(field.Value)})
		}
		return out
	case hir.List:
		return &Expr{Kind: KindList, Items: e.exprs(kind.Elements)}
	case hir.Dict:
		out := &Expr{Kind: KindDict}
		for _, field := range kind.Fields.All() {
			out.Entries = append(out.Entries, Entry{Key: e.expr(field.Key), Value: e.expr(field.Value)})
		}
		return out
	}
	panic("snapshot: unexpected data kind")
}

func (e *encoder) operation(operation hir.Operation) *Expr {
	switch kind := operation.Kind.(type) {
	case hir.TypeOperation:
		switch op := kind.Kind.(type) {
		case hir.TypeAssertion:
			return &Expr{Kind: KindAssert, Expr: e.expr(op.Value), As: e.typeRef(op.Type), Force: op.Force}
		case hir.TypeConstructor:
			return &Expr{Kind: KindCtor, Name: e.ctx.SymbolName(op.Name), As: e.typeRef(op.Closure)}
		}
	case hir.BinaryOperation:
		return &Expr{Kind: KindBinary, Op: kind.Op.String(), Left: e.expr(kind.Left), Right: e.expr(kind.Right)}
	case hir.UnaryOperation:
		return &Expr{Kind: KindUnary, Op: kind.Op.String(), Expr: e.expr(kind.Expr)}
	case hir.Input:
		out := &Expr{Kind: KindInput, Name: e.name(kind.Name), As: e.typeRef(kind.Type)}
		if kind.Default.IsValid() {
			out.Default = e.expr(kind.Default)
		}
		return out
	}
	panic("snapshot: unexpected operation kind")
}
