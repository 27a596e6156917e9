package lower

import (
	"errors"
	"fmt"

	"hashql/internal/hir"
)

var (
	ErrNotAtomic     = errors.New("operand is not atomic")
	ErrNotProjection = errors.New("access base is not a projection")
	ErrIndexNotLocal = errors.New("index is not a local variable")
	ErrNestedLet     = errors.New("let outside of an evaluation boundary")
	ErrAssertion     = errors.New("type assertion survived normalization")
	ErrMissingType   = errors.New("node has no type information")
)

// CheckANF verifies that node is in administrative normal form and that every reachable node
// has a type entry in ctx. All violations are reported, joined into one error.
func CheckANF(ctx *hir.Context, node hir.Node) error {
	c := &anfChecker{ctx: ctx, boundary: true}
	c.Init(c)
	c.VisitNode(node)
	return errors.Join(c.errs...)
}

type anfChecker struct {
	hir.VisitorBase

	ctx      *hir.Context
	boundary bool // the next visited node sits at an evaluation boundary
	errs     []error
}

func (c *anfChecker) fail(node hir.Node, err error) {
	c.errs = append(c.errs, fmt.Errorf("node %d (%s): %w", node.ID(), hir.KindName(node.Kind()), err))
}

func (c *anfChecker) atom(node hir.Node) {
	if !hir.IsAtom(node) {
		c.fail(node, ErrNotAtomic)
	}
}

// visitBoundary visits node as the body of an evaluation boundary.
func (c *anfChecker) visitBoundary(node hir.Node) {
	c.boundary = true
	c.VisitNode(node)
}

func (c *anfChecker) VisitNode(node hir.Node) {
	atBoundary := c.boundary
	c.boundary = false

	if _, ok := c.ctx.Map.Get(node.ID()); !ok {
		c.fail(node, ErrMissingType)
	}

	switch kind := node.Kind().(type) {
	case hir.Let:
		if !atBoundary {
			c.fail(node, ErrNestedLet)
		}
	case hir.Operation:
		if op, ok := kind.Kind.(hir.TypeOperation); ok {
			if _, ok := op.Kind.(hir.TypeAssertion); ok {
				c.fail(node, ErrAssertion)
			}
		}
	}

	hir.WalkNode(c, node)
}

func (c *anfChecker) VisitData(data hir.Data) {
	switch kind := data.Kind.(type) {
	case hir.Tuple:
		for _, field := range kind.Fields.All() {
			c.atom(field)
		}
	case hir.Struct:
		for _, field := range kind.Fields.All() {
			c.atom(field.Value)
		}
	case hir.List:
		for _, element := range kind.Elements.All() {
			c.atom(element)
		}
	case hir.Dict:
		for _, field := range kind.Fields.All() {
			c.atom(field.Key)
			c.atom(field.Value)
		}
	}
	hir.WalkData(c, data)
}

func (c *anfChecker) VisitBinaryOperation(operation hir.BinaryOperation) {
	c.atom(operation.Left)
	c.atom(operation.Right)
	hir.WalkBinaryOperation(c, operation)
}

func (c *anfChecker) VisitUnaryOperation(operation hir.UnaryOperation) {
	c.atom(operation.Expr)
	c.VisitNode(operation.Expr)
}

func (c *anfChecker) VisitInput(input hir.Input) {
	if input.Default.IsValid() {
		c.atom(input.Default)
	}
	hir.WalkInput(c, input)
}

func (c *anfChecker) VisitAccess(access hir.Access) {
	switch kind := access.Kind.(type) {
	case hir.FieldAccess:
		if !hir.IsProjection(kind.Expr) {
			c.fail(kind.Expr, ErrNotProjection)
		}
	case hir.IndexAccess:
		if !hir.IsProjection(kind.Expr) {
			c.fail(kind.Expr, ErrNotProjection)
		}
		if !hir.IsLocalVariable(kind.Index) {
			c.fail(kind.Index, ErrIndexNotLocal)
		}
	}
	hir.WalkAccess(c, access)
}

func (c *anfChecker) VisitCall(call hir.Call) {
	c.atom(call.Function)
	for _, argument := range call.Arguments.All() {
		c.atom(argument.Value)
	}
	hir.WalkCall(c, call)
}

func (c *anfChecker) VisitIf(ifExpr hir.If) {
	c.atom(ifExpr.Test)
	c.VisitNode(ifExpr.Test)
	c.visitBoundary(ifExpr.Then)
	c.visitBoundary(ifExpr.Else)
}

func (c *anfChecker) VisitClosure(closure hir.Closure) {
	for _, param := range closure.Signature.Params.All() {
		c.VisitBinder(param.Binder)
	}
	c.visitBoundary(closure.Body)
}

func (c *anfChecker) VisitThunk(thunk hir.Thunk) {
	c.visitBoundary(thunk.Body)
}

// VisitGraph checks the head only; pipeline steps are not normalized.
func (c *anfChecker) VisitGraph(graph hir.Graph) {
	read, ok := graph.Kind.(hir.GraphRead)
	if !ok {
		return
	}
	c.atom(read.Head.Axis)
	c.VisitNode(read.Head.Axis)
}
