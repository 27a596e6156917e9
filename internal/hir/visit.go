package hir

// Visitor walks an HIR tree without modifying it. Traversal is depth-first in evaluation
// order. An overriding method decides whether to descend by calling the matching Walk
// function.
//
// Implementations usually embed VisitorBase and call Init with themselves so the defaults
// dispatch back into the overriding methods.
type Visitor interface {
	VisitNode(node Node)
	VisitData(data Data)
	VisitVariable(variable Variable)
	VisitLet(let Let)
	VisitBinding(binding Binding)
	VisitBinder(binder Binder)
	VisitOperation(operation Operation)
	VisitTypeAssertion(assertion TypeAssertion)
	VisitBinaryOperation(operation BinaryOperation)
	VisitUnaryOperation(operation UnaryOperation)
	VisitInput(input Input)
	VisitAccess(access Access)
	VisitCall(call Call)
	VisitBranch(branch Branch)
	VisitIf(ifExpr If)
	VisitClosure(closure Closure)
	VisitThunk(thunk Thunk)
	VisitGraph(graph Graph)
}

// VisitorBase provides the default traversal for every Visitor method.
type VisitorBase struct {
	self Visitor
}

// Init sets the visitor the defaults dispatch to.
func (v *VisitorBase) Init(self Visitor) { v.self = self }

func (v *VisitorBase) VisitNode(node Node) {
	WalkNode(v.self, node)
}

func (v *VisitorBase) VisitData(data Data) {
	WalkData(v.self, data)
}

func (v *VisitorBase) VisitVariable(Variable) {}

func (v *VisitorBase) VisitLet(let Let) {
	WalkLet(v.self, let)
}

func (v *VisitorBase) VisitBinding(binding Binding) {
	WalkBinding(v.self, binding)
}

func (v *VisitorBase) VisitBinder(Binder) {}

func (v *VisitorBase) VisitOperation(operation Operation) {
	WalkOperation(v.self, operation)
}

func (v *VisitorBase) VisitTypeAssertion(assertion TypeAssertion) {
	v.self.VisitNode(assertion.Value)
}

func (v *VisitorBase) VisitBinaryOperation(operation BinaryOperation) {
	WalkBinaryOperation(v.self, operation)
}

func (v *VisitorBase) VisitUnaryOperation(operation UnaryOperation) {
	v.self.VisitNode(operation.Expr)
}

func (v *VisitorBase) VisitInput(input Input) {
	WalkInput(v.self, input)
}

func (v *VisitorBase) VisitAccess(access Access) {
	WalkAccess(v.self, access)
}

func (v *VisitorBase) VisitCall(call Call) {
	WalkCall(v.self, call)
}

func (v *VisitorBase) VisitBranch(branch Branch) {
	WalkBranch(v.self, branch)
}

func (v *VisitorBase) VisitIf(ifExpr If) {
	WalkIf(v.self, ifExpr)
}

func (v *VisitorBase) VisitClosure(closure Closure) {
	WalkClosure(v.self, closure)
}

func (v *VisitorBase) VisitThunk(thunk Thunk) {
	v.self.VisitNode(thunk.Body)
}

func (v *VisitorBase) VisitGraph(graph Graph) {
	WalkGraph(v.self, graph)
}

// WalkNode dispatches on the node's kind.
func WalkNode(v Visitor, node Node) {
	switch kind := node.Kind().(type) {
	case Data:
		v.VisitData(kind)
	case Variable:
		v.VisitVariable(kind)
	case Let:
		v.VisitLet(kind)
	case Operation:
		v.VisitOperation(kind)
	case Access:
		v.VisitAccess(kind)
	case Call:
		v.VisitCall(kind)
	case Branch:
		v.VisitBranch(kind)
	case Closure:
		v.VisitClosure(kind)
	case Thunk:
		v.VisitThunk(kind)
	case Graph:
		v.VisitGraph(kind)
	}
}

func WalkData(v Visitor, data Data) {
	switch kind := data.Kind.(type) {
	case Tuple:
		for _, field := range kind.Fields.All() {
			v.VisitNode(field)
		}
	case Struct:
		for _, field := range kind.Fields.All() {
			v.VisitNode(field.Value)
		}
	case List:
		for _, element := range kind.Elements.All() {
			v.VisitNode(element)
		}
	case Dict:
		for _, field := range kind.Fields.All() {
			v.VisitNode(field.Key)
			v.VisitNode(field.Value)
		}
	}
}

func WalkLet(v Visitor, let Let) {
	for _, binding := range let.Bindings.All() {
		v.VisitBinding(binding)
	}
	v.VisitNode(let.Body)
}

// WalkBinding visits the value before the binder: the binder is not in scope in its own value.
func WalkBinding(v Visitor, binding Binding) {
	v.VisitNode(binding.Value)
	v.VisitBinder(binding.Binder)
}

func WalkOperation(v Visitor, operation Operation) {
	switch kind := operation.Kind.(type) {
	case TypeOperation:
		if assertion, ok := kind.Kind.(TypeAssertion); ok {
			v.VisitTypeAssertion(assertion)
		}
	case BinaryOperation:
		v.VisitBinaryOperation(kind)
	case UnaryOperation:
		v.VisitUnaryOperation(kind)
	case Input:
		v.VisitInput(kind)
	}
}

func WalkBinaryOperation(v Visitor, operation BinaryOperation) {
	v.VisitNode(operation.Left)
	v.VisitNode(operation.Right)
}

func WalkInput(v Visitor, input Input) {
	if input.Default.IsValid() {
		v.VisitNode(input.Default)
	}
}

func WalkAccess(v Visitor, access Access) {
	switch kind := access.Kind.(type) {
	case FieldAccess:
		v.VisitNode(kind.Expr)
	case IndexAccess:
		v.VisitNode(kind.Expr)
		v.VisitNode(kind.Index)
	}
}

func WalkCall(v Visitor, call Call) {
	v.VisitNode(call.Function)
	for _, argument := range call.Arguments.All() {
		v.VisitNode(argument.Value)
	}
}

func WalkBranch(v Visitor, branch Branch) {
	if ifExpr, ok := branch.Kind.(If); ok {
		v.VisitIf(ifExpr)
	}
}

func WalkIf(v Visitor, ifExpr If) {
	v.VisitNode(ifExpr.Test)
	v.VisitNode(ifExpr.Then)
	v.VisitNode(ifExpr.Else)
}

func WalkClosure(v Visitor, closure Closure) {
	for _, param := range closure.Signature.Params.All() {
		v.VisitBinder(param.Binder)
	}
	v.VisitNode(closure.Body)
}

func WalkGraph(v Visitor, graph Graph) {
	read, ok := graph.Kind.(GraphRead)
	if !ok {
		return
	}
	v.VisitNode(read.Head.Axis)
	for _, step := range read.Body.All() {
		v.VisitNode(step.Filter)
	}
}
