package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Expression is the root of a parsed where clause. Precedence is encoded in
// the grammar: not binds tightest, then and, then or.
type Expression struct {
	Pos lexer.Position
	Or  *OrExpression `parser:"@@"`
}

// OrExpression is a disjunction of conjunctions.
type OrExpression struct {
	Pos   lexer.Position
	Left  *AndExpression   `parser:"@@"`
	Right []*AndExpression `parser:"(Or @@)*"`
}

// AndExpression is a conjunction of negation terms.
type AndExpression struct {
	Pos   lexer.Position
	Left  *NotExpression   `parser:"@@"`
	Right []*NotExpression `parser:"(And @@)*"`
}

// NotExpression is an optionally negated term; negation nests, so
// "not not x" parses.
type NotExpression struct {
	Pos     lexer.Position
	Negated *NotExpression `parser:"Not @@"`
	Term    *Term          `parser:"| @@"`
}

// Term is a function call, a comparison or bare attribute test, or a
// parenthesized subexpression.
type Term struct {
	Pos        lexer.Position
	Call       *Call       `parser:"@@"`
	Comparison *Comparison `parser:"| @@"`
	Sub        *Expression `parser:"| '(' @@ ')'"`
}

// Call is an aggregation over one dimension, e.g.
// any(flow_cap_max, over=nodes).
type Call struct {
	Pos  lexer.Position
	Func string      `parser:"@Ident '('"`
	Arg  *Expression `parser:"@@ ','"`
	Over string      `parser:"Over '=' @Ident ')'"`
}

// Comparison is a single operand (a present-and-truthy test when it is an
// attribute reference) or an operand-operator-operand comparison.
type Comparison struct {
	Pos   lexer.Position
	Left  *Operand `parser:"@@"`
	Op    string   `parser:"(@Operator"`
	Right *Operand `parser:"@@)?"`
}

// Operand is a literal or an attribute reference. Dotted references such as
// config.mode address the global configuration namespace.
type Operand struct {
	Pos     lexer.Position
	Literal *Literal `parser:"@@"`
	Attr    string   `parser:"| @(AttrPath | Ident)"`
}

// IsConfig reports whether the operand references the configuration
// namespace rather than a dataset parameter.
func (o *Operand) IsConfig() bool {
	return len(o.Attr) > len(configPrefix) && o.Attr[:len(configPrefix)] == configPrefix
}

// ConfigKey returns the configuration key of a config reference
// ("config.mode" -> "mode").
func (o *Operand) ConfigKey() string {
	return o.Attr[len(configPrefix):]
}

const configPrefix = "config."

// Literal is a scalar constant in a clause. Exactly one field is set after
// parsing.
type Literal struct {
	Pos   lexer.Position
	Float *float64 `parser:"@Float"`
	Int   *int64   `parser:"| @Int"`
	Str   *string  `parser:"| @String"`
	True  *string  `parser:"| @True"`
	False *string  `parser:"| @False"`
	Inf   *string  `parser:"| @Inf"`
}
