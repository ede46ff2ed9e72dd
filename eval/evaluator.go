// Package eval walks where-clause trees against a dataset. The semantics
// center on absence: a bare attribute reads as present-and-truthy, not
// negates over absence, and a comparison with an absent operand is false
// rather than an error — a missing constraint is a constraint not violated.
package eval

import (
	"fmt"
	"strings"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/ast"
)

// Bindings records the attribute values that resolved present while a
// clause evaluated, keyed by reference text, for message interpolation.
type Bindings map[string]validus.Value

// Evaluator resolves clause references against a dataset. The dataset is
// read-only during evaluation, so one evaluator may serve concurrent calls.
type Evaluator struct {
	ds validus.Dataset
}

// New creates an evaluator bound to a dataset.
func New(ds validus.Dataset) *Evaluator {
	return &Evaluator{ds: ds}
}

// Evaluate walks the clause for one entity.
func (ev *Evaluator) Evaluate(expr *ast.Expression, e validus.Entity) (bool, Bindings, error) {
	b := make(Bindings)
	result, err := ev.evalExpression(expr, e, b)
	if err != nil {
		return false, nil, err
	}
	return result, b, nil
}

func (ev *Evaluator) evalExpression(expr *ast.Expression, e validus.Entity, b Bindings) (bool, error) {
	if expr == nil || expr.Or == nil {
		return false, evalErr(e, fmt.Errorf("empty expression"))
	}
	return ev.evalOr(expr.Or, e, b)
}

func (ev *Evaluator) evalOr(o *ast.OrExpression, e validus.Entity, b Bindings) (bool, error) {
	result, err := ev.evalAnd(o.Left, e, b)
	if err != nil {
		return false, err
	}
	if result {
		return true, nil
	}
	for _, right := range o.Right {
		result, err = ev.evalAnd(right, e, b)
		if err != nil {
			return false, err
		}
		if result {
			return true, nil
		}
	}
	return false, nil
}

func (ev *Evaluator) evalAnd(a *ast.AndExpression, e validus.Entity, b Bindings) (bool, error) {
	result, err := ev.evalNot(a.Left, e, b)
	if err != nil {
		return false, err
	}
	if !result {
		return false, nil
	}
	for _, right := range a.Right {
		result, err = ev.evalNot(right, e, b)
		if err != nil {
			return false, err
		}
		if !result {
			return false, nil
		}
	}
	return true, nil
}

func (ev *Evaluator) evalNot(n *ast.NotExpression, e validus.Entity, b Bindings) (bool, error) {
	if n.Negated != nil {
		result, err := ev.evalNot(n.Negated, e, b)
		if err != nil {
			return false, err
		}
		return !result, nil
	}
	return ev.evalTerm(n.Term, e, b)
}

func (ev *Evaluator) evalTerm(t *ast.Term, e validus.Entity, b Bindings) (bool, error) {
	switch {
	case t == nil:
		return false, evalErr(e, fmt.Errorf("malformed term"))
	case t.Call != nil:
		return ev.evalCall(t.Call, e, b)
	case t.Comparison != nil:
		return ev.evalComparison(t.Comparison, e, b)
	case t.Sub != nil:
		return ev.evalExpression(t.Sub, e, b)
	}
	return false, evalErr(e, fmt.Errorf("malformed term"))
}

func (ev *Evaluator) evalCall(call *ast.Call, e validus.Entity, b Bindings) (bool, error) {
	switch strings.ToLower(call.Func) {
	case "any":
		return ev.evalAny(call, e, b)
	}
	return false, evalErr(e, fmt.Errorf("unknown function %q", call.Func))
}

// evalAny existentially quantifies the argument along one dimension,
// holding the entity's other coordinates fixed: true iff at least one value
// makes the argument true, false on an empty dimension.
func (ev *Evaluator) evalAny(call *ast.Call, e validus.Entity, b Bindings) (bool, error) {
	values, err := ev.ds.DimensionValues(e, call.Over)
	if err != nil {
		return false, evalErr(e, err)
	}
	for _, value := range values {
		bound, err := e.With(call.Over, value)
		if err != nil {
			return false, evalErr(e, err)
		}
		result, err := ev.evalExpression(call.Arg, bound, b)
		if err != nil {
			return false, err
		}
		if result {
			return true, nil
		}
	}
	return false, nil
}

func (ev *Evaluator) evalComparison(cmp *ast.Comparison, e validus.Entity, b Bindings) (bool, error) {
	if cmp.Op == "" {
		v, present, err := ev.resolve(cmp.Left, e, b)
		if err != nil {
			return false, err
		}
		return present && v.Truthy(), nil
	}

	left, leftPresent, err := ev.resolve(cmp.Left, e, b)
	if err != nil {
		return false, err
	}
	right, rightPresent, err := ev.resolve(cmp.Right, e, b)
	if err != nil {
		return false, err
	}
	if !leftPresent || !rightPresent {
		return false, nil
	}
	return compare(cmp.Op, left, right), nil
}

// resolve produces the operand's value and whether it is present. Literals
// are always present; an undeclared dataset parameter is an error while a
// missing config key is merely absent, since the config namespace is owned
// by the model producer.
func (ev *Evaluator) resolve(o *ast.Operand, e validus.Entity, b Bindings) (validus.Value, bool, error) {
	if o == nil {
		return validus.Value{}, false, evalErr(e, fmt.Errorf("missing operand"))
	}
	if o.Literal != nil {
		return o.Literal.Value(), true, nil
	}
	if o.IsConfig() {
		v, ok := ev.ds.Config(o.ConfigKey())
		if ok {
			b[o.Attr] = v
		}
		return v, ok, nil
	}
	if !ev.ds.HasParameter(o.Attr) {
		return validus.Value{}, false, evalErr(e, fmt.Errorf("unknown attribute %q", o.Attr))
	}
	v, ok := ev.ds.Get(e, o.Attr)
	if ok {
		b[o.Attr] = v
	}
	return v, ok, nil
}

// compare applies a comparison operator. Equality follows Value.Equal, so
// inf equals only inf; ordering is defined for finite number pairs and
// string pairs, and every ordering comparison involving inf or mixed kinds
// is false.
func compare(op string, a, b validus.Value) bool {
	switch op {
	case "=":
		return a.Equal(b)
	case "!=":
		return !a.Equal(b)
	case "<":
		less, ok := a.Less(b)
		return ok && less
	case "<=":
		less, ok := a.Less(b)
		return ok && (less || a.Equal(b))
	case ">":
		less, ok := b.Less(a)
		return ok && less
	case ">=":
		less, ok := b.Less(a)
		return ok && (less || a.Equal(b))
	}
	return false
}

func evalErr(e validus.Entity, err error) error {
	return &validus.EvaluationError{Entity: e, Err: err}
}
