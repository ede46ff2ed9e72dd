// Package lint runs offline hygiene checks over a rule set: no dataset is
// needed, only the clause grammar and (optionally) a parameter vocabulary.
package lint

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/ast"
	"github.com/validus/validus-go/compiler"
	"github.com/validus/validus-go/ruleset"
	"github.com/validus/validus-go/schema"
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"

	CodeSyntaxError        = "syntax-error"
	CodeUnknownFunction    = "unknown-function"
	CodeUnknownAttribute   = "unknown-attribute"
	CodeUnknownDimension   = "unknown-dimension"
	CodeDuplicateWhere     = "duplicate-where"
	CodeConstantExpression = "constant-expression"
	CodeEmptyMessage       = "empty-message"
	CodeInfOrdering        = "inf-ordering"
)

// Options configures lint behavior.
type Options struct {
	// CheckVocabulary enables unknown-attribute checks against the schema
	// vocabulary. Off, attribute names are taken on faith.
	CheckVocabulary bool
}

// DefaultOptions returns the default lint options.
func DefaultOptions() Options {
	return Options{CheckVocabulary: true}
}

// Issue is one linter finding, addressed by the rule's global index.
type Issue struct {
	Rule     int
	Severity string
	Code     string
	Pos      lexer.Position
	Message  string
}

// Lint checks every rule in the set with default options.
func Lint(rs *ruleset.Ruleset, vocab *schema.Vocabulary) []Issue {
	return LintWithOptions(rs, vocab, DefaultOptions())
}

// LintWithOptions checks every rule in the set. Issues come back in rule
// declaration order.
func LintWithOptions(rs *ruleset.Ruleset, vocab *schema.Vocabulary, options Options) []Issue {
	if rs == nil {
		return nil
	}

	comp := compiler.NewCompiler()
	issues := make([]Issue, 0)
	seenClauses := make(map[string]int)

	for _, rule := range rs.Rules() {
		if strings.TrimSpace(rule.Message) == "" {
			issues = append(issues, Issue{
				Rule:     rule.Index,
				Severity: SeverityError,
				Code:     CodeEmptyMessage,
				Message:  "rule has no message",
			})
		}

		expr, err := comp.Parse(rule.Where)
		if err != nil {
			issues = append(issues, syntaxIssue(rule, err))
			continue
		}

		normalized := normalizeClause(rule.Where)
		if first, ok := seenClauses[normalized]; ok {
			issues = append(issues, Issue{
				Rule:     rule.Index,
				Severity: SeverityWarning,
				Code:     CodeDuplicateWhere,
				Message:  fmt.Sprintf("where clause duplicates rule %d", first),
			})
		} else {
			seenClauses[normalized] = rule.Index
		}

		issues = append(issues, lintClause(rule, expr, vocab, options)...)
	}

	return issues
}

func syntaxIssue(rule ruleset.Rule, err error) Issue {
	issue := Issue{
		Rule:     rule.Index,
		Severity: SeverityError,
		Code:     CodeSyntaxError,
		Message:  err.Error(),
	}
	if serr, ok := err.(*validus.SyntaxError); ok {
		issue.Pos = lexer.Position{Line: serr.Line, Column: serr.Column}
	}
	return issue
}

// lintClause walks one parsed clause for reference and constant findings.
func lintClause(rule ruleset.Rule, expr *ast.Expression, vocab *schema.Vocabulary, options Options) []Issue {
	var issues []Issue
	refsAnything := false

	ast.Inspect(expr, func(node interface{}) bool {
		switch n := node.(type) {
		case *ast.Call:
			if _, ok := compiler.Functions[strings.ToLower(n.Func)]; !ok {
				issues = append(issues, Issue{
					Rule:     rule.Index,
					Severity: SeverityError,
					Code:     CodeUnknownFunction,
					Pos:      n.Pos,
					Message:  fmt.Sprintf("unknown function %q", n.Func),
				})
			}
			if !knownDimension(n.Over) {
				issues = append(issues, Issue{
					Rule:     rule.Index,
					Severity: SeverityError,
					Code:     CodeUnknownDimension,
					Pos:      n.Pos,
					Message:  fmt.Sprintf("unknown dimension %q", n.Over),
				})
			}
		case *ast.Comparison:
			issues = append(issues, lintComparison(rule, n)...)
		case *ast.Operand:
			if n.Attr != "" {
				refsAnything = true
				if options.CheckVocabulary && vocab != nil && !n.IsConfig() && !vocab.Has(n.Attr) {
					issues = append(issues, Issue{
						Rule:     rule.Index,
						Severity: SeverityWarning,
						Code:     CodeUnknownAttribute,
						Pos:      n.Pos,
						Message:  fmt.Sprintf("attribute %q is not in the schema vocabulary", n.Attr),
					})
				}
			}
		}
		return true
	})

	if !refsAnything {
		issues = append(issues, Issue{
			Rule:     rule.Index,
			Severity: SeverityWarning,
			Code:     CodeConstantExpression,
			Message:  "clause references no attribute or config key, so it always or never fires",
		})
	}
	return issues
}

// lintComparison flags ordering comparisons against inf, which are always
// false under the distinguished-value semantics.
func lintComparison(rule ruleset.Rule, cmp *ast.Comparison) []Issue {
	if cmp.Op == "" || cmp.Op == "=" || cmp.Op == "!=" {
		return nil
	}
	for _, operand := range []*ast.Operand{cmp.Left, cmp.Right} {
		if operand != nil && operand.Literal != nil && operand.Literal.Inf != nil {
			return []Issue{{
				Rule:     rule.Index,
				Severity: SeverityWarning,
				Code:     CodeInfOrdering,
				Pos:      cmp.Pos,
				Message:  fmt.Sprintf("ordering comparison %q against inf is always false; only =inf and !=inf are defined", cmp.Op),
			}}
		}
	}
	return nil
}

func knownDimension(dim string) bool {
	switch dim {
	case validus.DimTechs, validus.DimNodes, validus.DimCarriers:
		return true
	}
	return false
}

// normalizeClause collapses whitespace and case so cosmetic differences do
// not hide duplicate rules.
func normalizeClause(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// HasErrors reports whether any issue carries error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
