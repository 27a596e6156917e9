package snapshot

import (
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"hashql/internal/hir"
	"hashql/internal/types"
)

var primitiveKinds = map[string]hir.PrimitiveKind{
	"null":    hir.PrimitiveNull,
	"boolean": hir.PrimitiveBoolean,
	"integer": hir.PrimitiveInteger,
	"number":  hir.PrimitiveNumber,
	"string":  hir.PrimitiveString,
}

// Decode interns p into hctx, registering its types in env. Binder numbers are remapped to
// fresh ids of hctx and are visible only inside the let or closure that introduces them.
// Names are interned in NFC. Errors carry the path of the offending expression.
func Decode(p *Program, hctx *hir.Context, env *types.Interner) (hir.Node, error) {
	d := &decoder{
		b:       hir.NewBuilder(hctx, env),
		ctx:     hctx,
		env:     env,
		binders: make(map[uint32]hir.Binder),
	}
	if err := d.types(p.Types); err != nil {
		return hir.Node{}, err
	}
	return d.expr("root", p.Root)
}

type decoder struct {
	b       *hir.Builder
	ctx     *hir.Context
	env     *types.Interner
	table   []types.TypeID
	binders map[uint32]hir.Binder
	shadow  []shadowed // undo log for binders, see mark/release
}

type shadowed struct {
	v    uint32
	prev hir.Binder
	had  bool
}

// name canonicalizes an identifier so that composed and decomposed spellings intern to the
// same symbol.
func name(s string) string {
	return norm.NFC.String(s)
}

func (d *decoder) typeRef(ref int) (types.TypeID, error) {
	if ref == 0 {
		return d.env.Builtins().Unknown, nil
	}
	if ref < 0 || ref > len(d.table) {
		return types.NoTypeID, fmt.Errorf("%w: %d", ErrBadTypeRef, ref)
	}
	return d.table[ref-1], nil
}

func (d *decoder) typeRefs(refs []int) ([]types.TypeID, error) {
	out := make([]types.TypeID, len(refs))
	for i, ref := range refs {
		id, err := d.typeRef(ref)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (d *decoder) types(table []Type) error {
	builtins := d.env.Builtins()
	d.table = make([]types.TypeID, 0, len(table))
	for i, t := range table {
		// only earlier entries are visible
		elems, err := d.typeRefs(t.Elems)
		if err != nil {
			return fmt.Errorf("types[%d]: %w", i, err)
		}
		var id types.TypeID
		switch t.Kind {
		case "never":
			id = builtins.Never
		case "unknown":
			id = builtins.Unknown
		case "null":
			id = builtins.Null
		case "boolean":
			id = builtins.Boolean
		case "integer":
			id = builtins.Integer
		case "number":
			id = builtins.Number
		case "string":
			id = builtins.String
		case "list":
			if len(elems) != 1 {
				return fmt.Errorf("types[%d]: list takes 1 element type, got %d", i, len(elems))
			}
			id = d.env.Intern(types.MakeList(elems[0]))
		case "dict":
			if len(elems) != 2 {
				return fmt.Errorf("types[%d]: dict takes 2 element types, got %d", i, len(elems))
			}
			id = d.env.Intern(types.MakeDict(elems[0], elems[1]))
		case "tuple":
			id = d.env.RegisterTuple(elems)
		case "struct":
			fields := make([]types.StructField, len(t.Fields))
			for j, field := range t.Fields {
				ty, err := d.typeRef(field.Type)
				if err != nil {
					return fmt.Errorf("types[%d].fields[%d]: %w", i, j, err)
				}
				fields[j] = types.StructField{Name: name(field.Name), Type: ty}
			}
			id = d.env.RegisterStruct(fields)
		case "closure":
			result, err := d.typeRef(t.Result)
			if err != nil {
				return fmt.Errorf("types[%d].result: %w", i, err)
			}
			id = d.env.RegisterClosure(elems, result)
		case "opaque":
			repr := builtins.Unknown
			if len(elems) > 0 {
				repr = elems[0]
			}
			id = d.env.RegisterOpaque(name(t.Name), repr)
		default:
			return fmt.Errorf("types[%d]: %w: %q", i, ErrUnknownKind, t.Kind)
		}
		d.table = append(d.table, id)
	}
	return nil
}

// typed overrides the inferred type of node when the snapshot carries one.
func (d *decoder) typed(node hir.Node, ref int) (hir.Node, error) {
	if ref == 0 {
		return node, nil
	}
	ty, err := d.typeRef(ref)
	if err != nil {
		return hir.Node{}, err
	}
	d.ctx.Map.Insert(node.ID(), hir.TypeInfo{Type: ty})
	return node, nil
}

func (d *decoder) child(path, name string, e *Expr) (hir.Node, error) {
	if e == nil {
		return hir.Node{}, fmt.Errorf("%s: %w: %s", path, ErrMissingChild, name)
	}
	return d.expr(path+"."+name, e)
}

func (d *decoder) children(path, name string, exprs []*Expr) ([]hir.Node, error) {
	out := make([]hir.Node, len(exprs))
	for i, e := range exprs {
		node, err := d.child(path, name+"["+strconv.Itoa(i)+"]", e)
		if err != nil {
			return nil, err
		}
		out[i] = node
	}
	return out, nil
}

func (d *decoder) bind(v uint32, binder hir.Binder) hir.Binder {
	prev, had := d.binders[v]
	d.shadow = append(d.shadow, shadowed{v: v, prev: prev, had: had})
	d.binders[v] = binder
	return binder
}

func (d *decoder) mark() int { return len(d.shadow) }

// release drops the binders introduced since mark and restores the ones they shadowed.
func (d *decoder) release(mark int) {
	for len(d.shadow) > mark {
		last := d.shadow[len(d.shadow)-1]
		d.shadow = d.shadow[:len(d.shadow)-1]
		if last.had {
			d.binders[last.v] = last.prev
		} else {
			delete(d.binders, last.v)
		}
	}
}

func (d *decoder) expr(path string, e *Expr) (hir.Node, error) {
	if e == nil {
		return hir.Node{}, fmt.Errorf("%s: %w", path, ErrMissingChild)
	}
	node, err := d.build(path, e)
	if err != nil {
		return hir.Node{}, err
	}
	node, err = d.typed(node, e.Type)
	if err != nil {
		return hir.Node{}, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}

func (d *decoder) build(path string, e *Expr) (hir.Node, error) {
	b := d.b
	switch e.Kind {
	case KindPrimitive:
		kind, ok := primitiveKinds[e.Prim]
		if !ok {
			return hir.Node{}, fmt.Errorf("%s: %w: %q", path, ErrUnknownPrimitive, e.Prim)
		}
		return b.Primitive(kind, e.Value), nil

	case KindTuple:
		items, err := d.children(path, "items", e.Items)
		if err != nil {
			return hir.Node{}, err
		}
		return b.Tuple(items...), nil

	case KindStruct:
		fields := make([]hir.StructField, len(e.Fields))
		seen := make(map[string]int, len(e.Fields))
		for i, field := range e.Fields {
			at := "fields[" + strconv.Itoa(i) + "]"
			label := name(field.Name)
			if first, ok := seen[label]; ok {
				return hir.Node{}, fmt.Errorf("%s.%s: %w: %q (first at fields[%d])", path, at, ErrDuplicateField, label, first)
			}
			seen[label] = i
			value, err := d.child(path, at, field.Value)
			if err != nil {
				return hir.Node{}, err
			}
			fields[i] = b.Field(label, value)
		}
		return b.Struct(fields...), nil

	case KindList:
		items, err := d.children(path, "items", e.Items)
		if err != nil {
			return hir.Node{}, err
		}
		return b.List(items...), nil

	case KindDict:
		entries := make([]hir.DictField, len(e.Entries))
		for i, entry := range e.Entries {
			at := "entries[" + strconv.Itoa(i) + "]"
			key, err := d.child(path, at+".key", entry.Key)
			if err != nil {
				return hir.Node{}, err
			}
			value, err := d.child(path, at+".value", entry.Value)
			if err != nil {
				return hir.Node{}, err
			}
			entries[i] = b.Entry(key, value)
		}
		return b.Dict(entries...), nil

	case KindLocal:
		binder, ok := d.binders[e.Var]
		if !ok {
			return hir.Node{}, fmt.Errorf("%s: %w: %d", path, ErrUnboundVariable, e.Var)
		}
		node := b.Local(binder)
		if len(e.TArgs) == 0 {
			return node, nil
		}
		targs, err := d.typeRefs(e.TArgs)
		if err != nil {
			return hir.Node{}, fmt.Errorf("%s: %w", path, err)
		}
		return b.Node(hir.Variable{Kind: hir.LocalVariable{
			ID:        binder.ID,
			Arguments: d.ctx.Interner.TypeIDs.Intern(targs),
		}}, b.TypeOf(node)), nil

	case KindQualified:
		idents := make([]hir.Ident, len(e.Path))
		for i, segment := range e.Path {
			idents[i] = hir.Ident{Value: d.ctx.Symbol(name(segment))}
		}
		targs, err := d.typeRefs(e.TArgs)
		if err != nil {
			return hir.Node{}, fmt.Errorf("%s: %w", path, err)
		}
		return b.Node(hir.Variable{Kind: hir.QualifiedVariable{
			Path:      d.ctx.Interner.Idents.Intern(idents),
			Arguments: d.ctx.Interner.TypeIDs.Intern(targs),
		}}, d.env.Builtins().Unknown), nil

	case KindLet:
		if len(e.Bindings) == 0 {
			return hir.Node{}, fmt.Errorf("%s: %w: bindings", path, ErrMissingChild)
		}
		mark := d.mark()
		defer d.release(mark)
		bindings := make([]hir.Binding, len(e.Bindings))
		for i, binding := range e.Bindings {
			value, err := d.child(path, "bindings["+strconv.Itoa(i)+"].value", binding.Value)
			if err != nil {
				return hir.Node{}, err
			}
			// the binder is visible from the next binding on
			bindings[i] = b.Bind(d.bind(binding.Var, b.Binder(name(binding.Name))), value)
		}
		body, err := d.child(path, "body", e.Body)
		if err != nil {
			return hir.Node{}, err
		}
		return b.Let(body, bindings...), nil

	case KindAssert:
		value, err := d.child(path, "expr", e.Expr)
		if err != nil {
			return hir.Node{}, err
		}
		ty, err := d.typeRef(e.As)
		if err != nil {
			return hir.Node{}, fmt.Errorf("%s: %w", path, err)
		}
		return b.Assert(value, ty, e.Force), nil

	case KindCtor:
		ty, err := d.typeRef(e.As)
		if err != nil {
			return hir.Node{}, fmt.Errorf("%s: %w", path, err)
		}
		return b.Constructor(name(e.Name), ty), nil

	case KindBinary:
		op, ok := hir.ParseBinOp(e.Op)
		if !ok {
			return hir.Node{}, fmt.Errorf("%s: %w: %q", path, ErrUnknownOperator, e.Op)
		}
		left, err := d.child(path, "left", e.Left)
		if err != nil {
			return hir.Node{}, err
		}
		right, err := d.child(path, "right", e.Right)
		if err != nil {
			return hir.Node{}, err
		}
		return b.Binary(op, left, right), nil

	case KindUnary:
		op, ok := hir.ParseUnOp(e.Op)
		if !ok {
			return hir.Node{}, fmt.Errorf("%s: %w: %q", path, ErrUnknownOperator, e.Op)
		}
		expr, err := d.child(path, "expr", e.Expr)
		if err != nil {
			return hir.Node{}, err
		}
		return b.Unary(op, expr), nil

	case KindInput:
		ty, err := d.typeRef(e.As)
		if err != nil {
			return hir.Node{}, fmt.Errorf("%s: %w", path, err)
		}
		var def hir.Node
		if e.Default != nil {
			def, err = d.expr(path+".default", e.Default)
			if err != nil {
				return hir.Node{}, err
			}
		}
		return b.Input(name(e.Name), ty, def), nil

	case KindField:
		expr, err := d.child(path, "expr", e.Expr)
		if err != nil {
			return hir.Node{}, err
		}
		return b.FieldAccess(expr, name(e.Name)), nil

	case KindIndex:
		expr, err := d.child(path, "expr", e.Expr)
		if err != nil {
			return hir.Node{}, err
		}
		index, err := d.child(path, "index", e.Index)
		if err != nil {
			return hir.Node{}, err
		}
		return b.IndexAccess(expr, index), nil

	case KindCall:
		fn, err := d.child(path, "fn", e.Fn)
		if err != nil {
			return hir.Node{}, err
		}
		args, err := d.children(path, "items", e.Items)
		if err != nil {
			return hir.Node{}, err
		}
		return b.Call(fn, args...), nil

	case KindIf:
		test, err := d.child(path, "test", e.Test)
		if err != nil {
			return hir.Node{}, err
		}
		then, err := d.child(path, "then", e.Then)
		if err != nil {
			return hir.Node{}, err
		}
		els, err := d.child(path, "else", e.Else)
		if err != nil {
			return hir.Node{}, err
		}
		return b.If(test, then, els), nil

	case KindClosure:
		mark := d.mark()
		defer d.release(mark)
		params := make([]hir.Binder, len(e.Params))
		for i, param := range e.Params {
			ty, err := d.typeRef(param.Type)
			if err != nil {
				return hir.Node{}, fmt.Errorf("%s.params[%d]: %w", path, i, err)
			}
			params[i] = d.bind(param.Var, b.Param(name(param.Name), ty))
		}
		body, err := d.child(path, "body", e.Body)
		if err != nil {
			return hir.Node{}, err
		}
		return b.Closure(params, body), nil

	case KindThunk:
		body, err := d.child(path, "body", e.Body)
		if err != nil {
			return hir.Node{}, err
		}
		return b.Thunk(body), nil

	case KindGraphRead:
		axis, err := d.child(path, "axis", e.Axis)
		if err != nil {
			return hir.Node{}, err
		}
		filters, err := d.children(path, "items", e.Items)
		if err != nil {
			return hir.Node{}, err
		}
		return b.GraphRead(axis, filters...), nil

	default:
		return hir.Node{}, fmt.Errorf("%s: %w: %q", path, ErrUnknownKind, e.Kind)
	}
}
