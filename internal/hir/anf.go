package hir

// ANF classification. These are derived properties of a node's shape, nothing is stored.

// IsAtom reports whether n can be used without prior evaluation: a primitive literal,
// any variable, or any access.
func IsAtom(n Node) bool {
	switch kind := n.Kind().(type) {
	case Data:
		_, ok := kind.Kind.(Primitive)
		return ok
	case Variable, Access:
		return true
	default:
		return false
	}
}

// IsProjection reports whether n denotes a place: a variable, or an access whose base is
// itself a place.
func IsProjection(n Node) bool {
	switch kind := n.Kind().(type) {
	case Variable:
		return true
	case Access:
		switch access := kind.Kind.(type) {
		case FieldAccess:
			return IsProjection(access.Expr)
		case IndexAccess:
			return IsProjection(access.Expr)
		}
	}
	return false
}

// IsLocalVariable reports whether n references a binder.
func IsLocalVariable(n Node) bool {
	variable, ok := n.Kind().(Variable)
	if !ok {
		return false
	}
	_, ok = variable.Kind.(LocalVariable)
	return ok
}
