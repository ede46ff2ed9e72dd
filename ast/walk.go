package ast

// Visitor receives each node during a walk. Returning false skips the node's
// children.
type Visitor func(node interface{}) bool

// Inspect walks the clause tree in depth-first order, calling v for every
// non-nil node.
func Inspect(e *Expression, v Visitor) {
	if e == nil || !v(e) {
		return
	}
	inspectOr(e.Or, v)
}

func inspectOr(o *OrExpression, v Visitor) {
	if o == nil || !v(o) {
		return
	}
	inspectAnd(o.Left, v)
	for _, right := range o.Right {
		inspectAnd(right, v)
	}
}

func inspectAnd(a *AndExpression, v Visitor) {
	if a == nil || !v(a) {
		return
	}
	inspectNot(a.Left, v)
	for _, right := range a.Right {
		inspectNot(right, v)
	}
}

func inspectNot(n *NotExpression, v Visitor) {
	if n == nil || !v(n) {
		return
	}
	inspectNot(n.Negated, v)
	inspectTerm(n.Term, v)
}

func inspectTerm(t *Term, v Visitor) {
	if t == nil || !v(t) {
		return
	}
	if t.Call != nil {
		if v(t.Call) {
			Inspect(t.Call.Arg, v)
		}
	}
	if t.Comparison != nil && v(t.Comparison) {
		inspectOperand(t.Comparison.Left, v)
		inspectOperand(t.Comparison.Right, v)
	}
	Inspect(t.Sub, v)
}

func inspectOperand(o *Operand, v Visitor) {
	if o == nil || !v(o) {
		return
	}
	if o.Literal != nil {
		v(o.Literal)
	}
}
