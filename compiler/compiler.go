// Package compiler turns where-clause text into checked, cached syntax
// trees. Parsing is pure: the same text always produces a structurally
// identical tree, which makes text-keyed caching safe.
package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/ast"
)

// Functions is the closed set of aggregations a clause may call. An unknown
// function name is a syntax error, not an extension point.
var Functions = map[string]struct{}{
	"any": {},
}

// AttrUse records one attribute reference inside a clause, together with the
// dimensions collapsed around it by enclosing any(..., over=dim) calls.
type AttrUse struct {
	Name      string
	Config    bool
	Collapsed []string
}

// Compiled pairs a parsed clause with its reference summary. It is immutable
// after Compile returns; callers must not modify the tree.
type Compiled struct {
	Source string
	Expr   *ast.Expression
	Attrs  []AttrUse
	Dims   []string
}

// Attributes returns the distinct dataset parameter names the clause
// references (config keys excluded), sorted.
func (c *Compiled) Attributes() []string {
	seen := make(map[string]struct{})
	for _, use := range c.Attrs {
		if use.Config {
			continue
		}
		seen[use.Name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compiler parses and caches where clauses. Safe for concurrent use.
type Compiler struct {
	parser *participle.Parser[ast.Expression]
	mu     sync.RWMutex
	cache  map[string]*Compiled
}

// NewCompiler creates a new clause compiler.
func NewCompiler() *Compiler {
	parser, err := participle.Build[ast.Expression](
		participle.Lexer(ast.Lexer),
		participle.UseLookahead(2),
		participle.Elide("Whitespace", "Comment"),
	)
	if err != nil {
		// If we can't create the parser, panic since this is a fundamental error
		panic(fmt.Errorf("failed to create parser: %w", err))
	}

	return &Compiler{
		parser: parser,
		cache:  make(map[string]*Compiled),
	}
}

// Parse parses a single clause into a normalized tree. It bypasses the cache
// and performs no semantic checks; most callers want Compile.
func (c *Compiler) Parse(text string) (*ast.Expression, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &validus.SyntaxError{Clause: text, Err: errors.New("empty clause")}
	}
	expr, err := c.parser.ParseString("", text)
	if err != nil {
		return nil, syntaxError(text, err)
	}
	expr.PostProcess()
	return expr, nil
}

// Compile parses a clause, validates its function calls and collects its
// attribute and dimension references. Results are cached by exact source
// text; a cache hit returns the same immutable Compiled.
func (c *Compiler) Compile(text string) (*Compiled, error) {
	c.mu.RLock()
	cached, ok := c.cache[text]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	expr, err := c.Parse(text)
	if err != nil {
		return nil, err
	}

	compiled := &Compiled{Source: text, Expr: expr}
	if err := collectExpression(expr, nil, compiled); err != nil {
		return nil, err
	}
	sort.Strings(compiled.Dims)

	c.mu.Lock()
	c.cache[text] = compiled
	c.mu.Unlock()
	return compiled, nil
}

func syntaxError(clause string, err error) error {
	serr := &validus.SyntaxError{Clause: clause, Err: err}
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		serr.Line = pos.Line
		serr.Column = pos.Column
	}
	return serr
}

func collectExpression(e *ast.Expression, collapsed []string, out *Compiled) error {
	if e == nil {
		return nil
	}
	return collectOr(e.Or, collapsed, out)
}

func collectOr(o *ast.OrExpression, collapsed []string, out *Compiled) error {
	if o == nil {
		return nil
	}
	if err := collectAnd(o.Left, collapsed, out); err != nil {
		return err
	}
	for _, right := range o.Right {
		if err := collectAnd(right, collapsed, out); err != nil {
			return err
		}
	}
	return nil
}

func collectAnd(a *ast.AndExpression, collapsed []string, out *Compiled) error {
	if a == nil {
		return nil
	}
	if err := collectNot(a.Left, collapsed, out); err != nil {
		return err
	}
	for _, right := range a.Right {
		if err := collectNot(right, collapsed, out); err != nil {
			return err
		}
	}
	return nil
}

func collectNot(n *ast.NotExpression, collapsed []string, out *Compiled) error {
	if n == nil {
		return nil
	}
	if n.Negated != nil {
		return collectNot(n.Negated, collapsed, out)
	}
	return collectTerm(n.Term, collapsed, out)
}

func collectTerm(t *ast.Term, collapsed []string, out *Compiled) error {
	if t == nil {
		return nil
	}
	switch {
	case t.Call != nil:
		if _, ok := Functions[strings.ToLower(t.Call.Func)]; !ok {
			return &validus.SyntaxError{
				Clause: out.Source,
				Line:   t.Call.Pos.Line,
				Column: t.Call.Pos.Column,
				Err:    fmt.Errorf("unknown function %q", t.Call.Func),
			}
		}
		out.addDim(t.Call.Over)
		inner := append(append([]string(nil), collapsed...), t.Call.Over)
		return collectExpression(t.Call.Arg, inner, out)
	case t.Comparison != nil:
		out.addOperand(t.Comparison.Left, collapsed)
		out.addOperand(t.Comparison.Right, collapsed)
		return nil
	case t.Sub != nil:
		return collectExpression(t.Sub, collapsed, out)
	}
	return nil
}

func (c *Compiled) addDim(dim string) {
	for _, d := range c.Dims {
		if d == dim {
			return
		}
	}
	c.Dims = append(c.Dims, dim)
}

func (c *Compiled) addOperand(o *ast.Operand, collapsed []string) {
	if o == nil || o.Attr == "" {
		return
	}
	use := AttrUse{
		Name:      o.Attr,
		Config:    o.IsConfig(),
		Collapsed: append([]string(nil), collapsed...),
	}
	for _, existing := range c.Attrs {
		if existing.Name == use.Name && existing.Config == use.Config &&
			strings.Join(existing.Collapsed, ",") == strings.Join(use.Collapsed, ",") {
			return
		}
	}
	c.Attrs = append(c.Attrs, use)
}
