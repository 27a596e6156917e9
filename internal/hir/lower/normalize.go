// Package lower holds passes that reshape HIR before it is handed to later stages.
//
// Normalization rewrites a type-checked tree into administrative normal form: every operand
// is an atom, lets are flattened to one per evaluation boundary, type assertions disappear
// and short-circuit operators with a non-trivial right operand become explicit branches.
package lower

import (
	"context"
	"fmt"
	"strconv"

	"hashql/internal/hir"
	"hashql/internal/hir/fold"
	"hashql/internal/source"
	"hashql/internal/trace"
	"hashql/internal/types"
)

// TypeEnvironment supplies the types normalization has to manufacture.
type TypeEnvironment interface {
	Boolean() types.TypeID
}

// Stats describes what a normalization run did.
type Stats struct {
	Boundaries    int // evaluation boundaries entered
	Lets          int // lets materialized at boundaries
	Bindings      int // bindings synthesized to atomize operands
	Flattened     int // bindings moved out of source lets
	Erased        int // type assertions removed
	ShortCircuits int // && / || rewritten into branches
}

// Normalization lowers HIR into administrative normal form. It is single use: create one per
// tree with NewNormalization and call Run.
type Normalization struct {
	fold.Base

	ctx   *hir.Context
	env   TypeEnvironment
	state *State

	bindings []hir.Binding // accumulator of the innermost boundary
	pending  hir.Node      // trampoline: replacement for the node being folded
	current  hir.Node      // node being folded

	tracer trace.Tracer
	parent uint64
	stats  Stats
}

// NewNormalization prepares a run over ctx. A nil state gets a private one.
func NewNormalization(ctx *hir.Context, env TypeEnvironment, state *State) *Normalization {
	if state == nil {
		state = NewState(DefaultRecycleCapacity)
	}
	n := &Normalization{
		ctx:    ctx,
		env:    env,
		state:  state,
		tracer: trace.Nop,
	}
	n.Init(n)
	return n
}

// SetTracer makes boundary and node events go to t under parent span.
func (n *Normalization) SetTracer(t trace.Tracer, parent uint64) {
	if t == nil {
		t = trace.Nop
	}
	n.tracer = t
	n.parent = parent
}

// Stats returns the counters of the run so far.
func (n *Normalization) Stats() Stats {
	return n.stats
}

// Run normalizes node. The whole program is one evaluation boundary.
func (n *Normalization) Run(node hir.Node) hir.Node {
	out := n.boundary(node)
	if n.pending.IsValid() {
		panic("lower: trampoline still pending after normalization")
	}
	return out
}

// Normalize runs a normalization pass over node inside a "hir.normalize" trace span.
func Normalize(ctx context.Context, node hir.Node, hctx *hir.Context, env TypeEnvironment, state *State) (hir.Node, Stats) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "hir.normalize", trace.CurrentSpan(ctx).SpanID)

	n := NewNormalization(hctx, env, state)
	n.SetTracer(tracer, span.ID())
	out := n.Run(node)

	stats := n.Stats()
	span.WithExtra("bindings", strconv.Itoa(stats.Bindings+stats.Flattened)).
		WithExtra("lets", strconv.Itoa(stats.Lets)).
		WithExtra("recycled", strconv.Itoa(n.state.Recycler().Stats().Hits)).
		End("")
	return out, stats
}

func (n *Normalization) Interner() *hir.Interner { return n.ctx.Interner }

func (n *Normalization) NestedFilter() fold.NestedFilter { return fold.Deep }

// must unwraps results of the fold machinery. Normalization never produces an error itself.
func must[T any](value T, err error) T {
	if err != nil {
		panic(fmt.Errorf("lower: normalization failed: %w", err))
	}
	return value
}

// boundary folds node with a fresh accumulator and wraps the result in a let holding
// whatever bindings were produced.
func (n *Normalization) boundary(node hir.Node) hir.Node {
	n.stats.Boundaries++

	outer := n.bindings
	n.bindings = n.state.recycler.Acquire(len(outer))

	folded := must(fold.WalkNestedNode(n, node))

	inner := n.bindings
	n.bindings = outer

	if len(inner) > 0 {
		folded = n.wrapLet(folded, inner)
		trace.Point(n.tracer, trace.ScopeBoundary, "boundary", n.parent, "",
			map[string]string{"bindings": strconv.Itoa(len(inner)), "node": strconv.Itoa(int(folded.ID()))})
	}
	n.state.recycler.Release(inner)

	return folded
}

func (n *Normalization) wrapLet(body hir.Node, bindings []hir.Binding) hir.Node {
	n.stats.Lets++
	id := n.ctx.NextHirID()
	n.ctx.Map.Copy(body.ID(), id)
	return n.ctx.Interner.InternNode(hir.NodeData{
		ID:   id,
		Span: body.Span(),
		Kind: hir.Let{Bindings: n.ctx.Interner.Bindings.Intern(bindings), Body: body},
	})
}

// trampoline replaces the node currently being folded with node.
func (n *Normalization) trampoline(node hir.Node) {
	if n.pending.IsValid() {
		panic("trampoline has been inserted to multiple times")
	}
	n.pending = node
}

// ensureLocalVariable binds node to a fresh anonymous binder in the current accumulator and
// returns a reference to it, unless node already is a local variable.
func (n *Normalization) ensureLocalVariable(node hir.Node) hir.Node {
	if hir.IsLocalVariable(node) {
		return node
	}

	span := node.Span()
	binder := hir.Binder{ID: n.ctx.NextVarID(), Span: span, Name: source.NoStringID}
	n.bindings = append(n.bindings, hir.Binding{Span: span, Binder: binder, Value: node})
	n.stats.Bindings++

	// the type belongs to the value, the variable inherits it
	id := n.ctx.NextHirID()
	n.ctx.Map.Copy(node.ID(), id)
	return n.ctx.Interner.InternNode(hir.NodeData{
		ID:   id,
		Span: span,
		Kind: hir.Variable{Kind: hir.LocalVariable{ID: binder.ID, Span: span}},
	})
}

func (n *Normalization) ensureAtom(node hir.Node) hir.Node {
	if hir.IsAtom(node) {
		return node
	}
	return n.ensureLocalVariable(node)
}

func (n *Normalization) ensureProjection(node hir.Node) hir.Node {
	if hir.IsProjection(node) {
		return node
	}
	return n.ensureLocalVariable(node)
}

// atom folds node in the current boundary and atomizes the result.
func (n *Normalization) atom(node hir.Node) hir.Node {
	return n.ensureAtom(must(n.FoldNestedNode(node)))
}

func (n *Normalization) atoms(nodes hir.Interned[hir.Node]) hir.Interned[hir.Node] {
	if nodes.IsEmpty() {
		return nodes
	}
	beef := fold.NewBeef(nodes)
	beef.Map(n.atom)
	return beef.Finish(n.ctx.Interner.Nodes)
}

func (n *Normalization) boolean(value bool, span source.Span) hir.Node {
	id := n.ctx.NextHirID()
	n.ctx.Map.Insert(id, hir.TypeInfo{Type: n.env.Boolean()})
	return n.ctx.Interner.InternNode(hir.NodeData{
		ID:   id,
		Span: span,
		Kind: hir.Data{Kind: hir.Primitive{
			Kind:  hir.PrimitiveBoolean,
			Value: n.ctx.Symbol(strconv.FormatBool(value)),
		}},
	})
}

// FoldNode applies a pending trampoline after the node is folded. The slot is saved and
// restored so replacements requested by children never leak to their parent.
func (n *Normalization) FoldNode(node hir.Node) (hir.Node, error) {
	savedPending, savedCurrent := n.pending, n.current
	n.pending, n.current = hir.Node{}, node

	folded := must(fold.WalkNode(n, node))
	if n.pending.IsValid() {
		folded = n.pending
	}

	n.pending, n.current = savedPending, savedCurrent
	return folded, nil
}

// Data

func (n *Normalization) FoldTuple(tuple hir.Tuple) (hir.Tuple, error) {
	return hir.Tuple{Fields: n.atoms(tuple.Fields)}, nil
}

func (n *Normalization) FoldList(list hir.List) (hir.List, error) {
	return hir.List{Elements: n.atoms(list.Elements)}, nil
}

func (n *Normalization) FoldStructField(field hir.StructField) (hir.StructField, error) {
	return hir.StructField{Name: field.Name, Value: n.atom(field.Value)}, nil
}

func (n *Normalization) FoldDictField(field hir.DictField) (hir.DictField, error) {
	key := n.atom(field.Key)
	value := n.atom(field.Value)
	return hir.DictField{Key: key, Value: value}, nil
}

// Let

// FoldBinding moves the folded binding into the current accumulator.
func (n *Normalization) FoldBinding(binding hir.Binding) (hir.Binding, error) {
	folded := must(fold.WalkBinding(n, binding))
	n.bindings = append(n.bindings, folded)
	n.stats.Flattened++
	return binding, nil
}

// FoldLet replaces the let with its body; the bindings already went to the accumulator.
func (n *Normalization) FoldLet(let hir.Let) (hir.Let, error) {
	folded := must(fold.WalkLet(n, let))
	n.trampoline(folded.Body)
	return let, nil
}

// Operations

func (n *Normalization) FoldTypeAssertion(assertion hir.TypeAssertion) (hir.TypeAssertion, error) {
	folded := must(fold.WalkTypeAssertion(n, assertion))
	n.trampoline(folded.Value)
	n.stats.Erased++
	return assertion, nil
}

func (n *Normalization) FoldBinaryOperation(operation hir.BinaryOperation) (hir.BinaryOperation, error) {
	if operation.Op.ShortCircuit() {
		return n.foldShortCircuit(operation), nil
	}
	left := n.atom(operation.Left)
	right := n.atom(operation.Right)
	return hir.BinaryOperation{Op: operation.Op, OpSpan: operation.OpSpan, Left: left, Right: right}, nil
}

// foldShortCircuit evaluates the left operand unconditionally and the right one in its own
// boundary. A right operand that needed bindings turns the operation into a branch:
//
//	a && b  =>  if a then b else false
//	a || b  =>  if a then true else b
func (n *Normalization) foldShortCircuit(operation hir.BinaryOperation) hir.BinaryOperation {
	left := n.atom(operation.Left)
	right := n.boundary(operation.Right)
	if hir.IsAtom(right) {
		return hir.BinaryOperation{Op: operation.Op, OpSpan: operation.OpSpan, Left: left, Right: right}
	}

	node := n.current
	var then, els hir.Node
	if operation.Op == hir.BinOpAnd {
		then, els = right, n.boolean(false, node.Span())
	} else {
		then, els = n.boolean(true, node.Span()), right
	}

	// same id as the operation, so its type entry stays valid
	branch := n.ctx.Interner.InternNode(hir.NodeData{
		ID:   node.ID(),
		Span: node.Span(),
		Kind: hir.Branch{Kind: hir.If{Test: left, Then: then, Else: els}},
	})
	n.trampoline(branch)
	n.stats.ShortCircuits++
	trace.Point(n.tracer, trace.ScopeNode, "short-circuit", n.parent, operation.Op.String(),
		map[string]string{"node": strconv.Itoa(int(node.ID()))})

	return operation
}

func (n *Normalization) FoldUnaryOperation(operation hir.UnaryOperation) (hir.UnaryOperation, error) {
	return hir.UnaryOperation{Op: operation.Op, OpSpan: operation.OpSpan, Expr: n.atom(operation.Expr)}, nil
}

func (n *Normalization) FoldInput(input hir.Input) (hir.Input, error) {
	if !input.Default.IsValid() {
		return input, nil
	}
	return hir.Input{Name: input.Name, Type: input.Type, Default: n.atom(input.Default)}, nil
}

// Access

func (n *Normalization) FoldFieldAccess(access hir.FieldAccess) (hir.FieldAccess, error) {
	expr := n.ensureProjection(must(n.FoldNestedNode(access.Expr)))
	return hir.FieldAccess{Expr: expr, Field: access.Field}, nil
}

func (n *Normalization) FoldIndexAccess(access hir.IndexAccess) (hir.IndexAccess, error) {
	expr := n.ensureProjection(must(n.FoldNestedNode(access.Expr)))
	index := n.ensureLocalVariable(must(n.FoldNestedNode(access.Index)))
	return hir.IndexAccess{Expr: expr, Index: index}, nil
}

// Call

func (n *Normalization) FoldCall(call hir.Call) (hir.Call, error) {
	function := n.atom(call.Function)
	arguments := must(n.FoldCallArguments(call.Arguments))
	return hir.Call{Function: function, Arguments: arguments}, nil
}

func (n *Normalization) FoldCallArgument(argument hir.CallArgument) (hir.CallArgument, error) {
	return hir.CallArgument{Span: argument.Span, Value: n.atom(argument.Value)}, nil
}

// Control flow

func (n *Normalization) FoldIf(ifExpr hir.If) (hir.If, error) {
	test := n.atom(ifExpr.Test)
	then := n.boundary(ifExpr.Then)
	els := n.boundary(ifExpr.Else)
	return hir.If{Test: test, Then: then, Else: els}, nil
}

func (n *Normalization) FoldClosure(closure hir.Closure) (hir.Closure, error) {
	signature := must(n.FoldClosureSignature(closure.Signature))
	return hir.Closure{Signature: signature, Body: n.boundary(closure.Body)}, nil
}

func (n *Normalization) FoldThunk(thunk hir.Thunk) (hir.Thunk, error) {
	return hir.Thunk{Body: n.boundary(thunk.Body)}, nil
}

// Graph

func (n *Normalization) FoldGraphReadHead(head hir.GraphReadHead) (hir.GraphReadHead, error) {
	return hir.GraphReadHead{Kind: head.Kind, Axis: n.atom(head.Axis)}, nil
}

// FoldGraphReadBody leaves pipeline steps alone; they are lowered together with the pipeline.
func (n *Normalization) FoldGraphReadBody(body hir.Interned[hir.GraphReadBody]) (hir.Interned[hir.GraphReadBody], error) {
	return body, nil
}
