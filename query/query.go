// Package query evaluates ad-hoc expressions against a dataset, outside the
// rule DSL. Queries use the expr language with undefined-variable tolerance:
// absent attributes read as nil, so "flow_cap_max > 100" simply fails to
// match entities that lack the parameter.
package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/parser"
	exprvm "github.com/expr-lang/expr/vm"

	validus "github.com/validus/validus-go"
)

// Dataset is the query view of a dataset: the validator's accessor plus
// parameter enumeration for environment construction.
type Dataset interface {
	validus.Dataset
	Parameters() []string
}

// Query is a compiled expression, reusable across entities and datasets.
type Query struct {
	source  string
	program *exprvm.Program
	vars    []string
}

// Compile parses and compiles an expression. Variable names are extracted up
// front so each entity's environment only resolves what the expression uses.
func Compile(expression string) (*Query, error) {
	parsed, err := parser.ParseWithConfig(expression, &conf.Config{Strict: false})
	if err != nil {
		return nil, fmt.Errorf("parsing query: %w", err)
	}
	vars := extractVars(parsed.Node)

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}

	return &Query{source: expression, program: program, vars: vars}, nil
}

// Source returns the original expression text.
func (q *Query) Source() string { return q.source }

// Match evaluates the query for one entity. The result must be boolean.
func (q *Query) Match(ds Dataset, e validus.Entity) (bool, error) {
	result, err := expr.Run(q.program, q.env(ds, e))
	if err != nil {
		return false, fmt.Errorf("running query: %w", err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("query did not evaluate to a boolean: %v", result)
	}
	return b, nil
}

// Run evaluates the query across the dataset and returns the matching
// entities in enumeration order. The entity scope is (tech, node), widened
// by the carrier axis when the expression touches a carrier-dimensioned
// parameter.
func (q *Query) Run(ds Dataset) ([]validus.Entity, error) {
	dims := []string{validus.DimTechs, validus.DimNodes}
	for _, v := range q.vars {
		if containsDim(ds.ParameterDims(v), validus.DimCarriers) {
			dims = append(dims, validus.DimCarriers)
			break
		}
	}

	var matches []validus.Entity
	for _, e := range ds.Entities(dims) {
		ok, err := q.Match(ds, e)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e, err)
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// env builds the expression environment for one entity: referenced
// attributes that resolve present, the entity coordinates, and a config
// namespace map.
func (q *Query) env(ds Dataset, e validus.Entity) map[string]interface{} {
	env := map[string]interface{}{
		"tech":    e.Tech,
		"node":    e.Node,
		"carrier": e.Carrier,
	}
	config := make(map[string]interface{})
	env["config"] = config

	for _, name := range q.vars {
		if key, ok := configKey(name); ok {
			if v, present := ds.Config(key); present {
				config[key] = v.Interface()
			}
			continue
		}
		if !ds.HasParameter(name) {
			continue
		}
		if v, present := ds.Get(e, name); present {
			env[name] = v.Interface()
		}
	}
	return env
}

func configKey(name string) (string, bool) {
	const prefix = "config."
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):], true
	}
	return "", false
}

// extractVars collects identifier and member references from the parsed
// expression tree.
func extractVars(node exprast.Node) []string {
	if node == nil {
		return nil
	}

	var vars []string
	switch n := node.(type) {
	case *exprast.IdentifierNode:
		vars = append(vars, n.Value)
	case *exprast.MemberNode:
		if id, ok := n.Node.(*exprast.IdentifierNode); ok {
			if prop, ok := n.Property.(*exprast.StringNode); ok {
				vars = append(vars, id.Value+"."+prop.Value)
			}
		}
		vars = append(vars, extractVars(n.Node)...)
	case *exprast.BinaryNode:
		vars = append(vars, extractVars(n.Left)...)
		vars = append(vars, extractVars(n.Right)...)
	case *exprast.UnaryNode:
		vars = append(vars, extractVars(n.Node)...)
	case *exprast.CallNode:
		vars = append(vars, extractVars(n.Callee)...)
		for _, arg := range n.Arguments {
			vars = append(vars, extractVars(arg)...)
		}
	case *exprast.BuiltinNode:
		for _, arg := range n.Arguments {
			vars = append(vars, extractVars(arg)...)
		}
	case *exprast.ConditionalNode:
		vars = append(vars, extractVars(n.Cond)...)
		vars = append(vars, extractVars(n.Exp1)...)
		vars = append(vars, extractVars(n.Exp2)...)
	case *exprast.ArrayNode:
		for _, item := range n.Nodes {
			vars = append(vars, extractVars(item)...)
		}
	}
	return vars
}

func containsDim(dims []string, dim string) bool {
	for _, d := range dims {
		if d == dim {
			return true
		}
	}
	return false
}
