package ast

import (
	"strconv"
	"strings"

	validus "github.com/validus/validus-go"
)

func unquoteString(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		inner := value[1 : len(value)-1]
		return strings.ReplaceAll(inner, `\'`, `'`)
	}
	unquoted, err := strconv.Unquote(value)
	if err != nil {
		return value
	}
	return unquoted
}

// PostProcess normalizes the whole clause in place: string literals are
// unquoted and the == operator spelling folds onto =.
func (e *Expression) PostProcess() {
	if e == nil {
		return
	}
	e.Or.PostProcess()
}

// PostProcess normalizes the disjunction's branches.
func (o *OrExpression) PostProcess() {
	if o == nil {
		return
	}
	o.Left.PostProcess()
	for _, right := range o.Right {
		right.PostProcess()
	}
}

// PostProcess normalizes the conjunction's branches.
func (a *AndExpression) PostProcess() {
	if a == nil {
		return
	}
	a.Left.PostProcess()
	for _, right := range a.Right {
		right.PostProcess()
	}
}

// PostProcess normalizes the negated chain.
func (n *NotExpression) PostProcess() {
	if n == nil {
		return
	}
	n.Negated.PostProcess()
	n.Term.PostProcess()
}

// PostProcess normalizes the term's variants.
func (t *Term) PostProcess() {
	if t == nil {
		return
	}
	if t.Call != nil {
		t.Call.Arg.PostProcess()
	}
	t.Comparison.PostProcess()
	t.Sub.PostProcess()
}

// PostProcess folds the == spelling onto = and normalizes operands.
func (c *Comparison) PostProcess() {
	if c == nil {
		return
	}
	if c.Op == "==" {
		c.Op = "="
	}
	c.Left.PostProcess()
	c.Right.PostProcess()
}

// PostProcess normalizes literal operands.
func (o *Operand) PostProcess() {
	if o == nil {
		return
	}
	o.Literal.PostProcess()
}

// PostProcess normalizes parsed string literals.
func (l *Literal) PostProcess() {
	if l == nil || l.Str == nil {
		return
	}
	value := unquoteString(*l.Str)
	l.Str = &value
}

// Value converts the literal to its runtime value.
func (l *Literal) Value() validus.Value {
	switch {
	case l.Float != nil:
		return validus.Number(*l.Float)
	case l.Int != nil:
		return validus.Number(float64(*l.Int))
	case l.Str != nil:
		return validus.Str(*l.Str)
	case l.True != nil:
		return validus.Bool(true)
	case l.False != nil:
		return validus.Bool(false)
	case l.Inf != nil:
		if strings.HasPrefix(*l.Inf, "-") {
			return validus.NegInf()
		}
		return validus.Inf()
	}
	return validus.Value{}
}
