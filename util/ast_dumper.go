// Package util holds development helpers shared by the CLI tools.
package util

import (
	"fmt"
	"io"
	"os"

	"github.com/validus/validus-go/ast"
)

// ASTDumper writes an indented, human-readable rendering of a parsed where
// clause.
type ASTDumper struct {
	writer io.Writer
}

// NewASTDumper creates a dumper writing to the given writer.
func NewASTDumper(writer io.Writer) *ASTDumper {
	return &ASTDumper{writer: writer}
}

// NewStdoutASTDumper creates a dumper writing to stdout.
func NewStdoutASTDumper() *ASTDumper {
	return NewASTDumper(os.Stdout)
}

// Dump writes the expression tree.
func (d *ASTDumper) Dump(expr *ast.Expression) {
	d.dumpExpression(expr, "")
}

func (d *ASTDumper) dumpExpression(expr *ast.Expression, indent string) {
	if expr == nil {
		return
	}
	d.dumpOr(expr.Or, indent)
}

func (d *ASTDumper) dumpOr(or *ast.OrExpression, indent string) {
	if or == nil {
		return
	}
	if len(or.Right) == 0 {
		d.dumpAnd(or.Left, indent)
		return
	}
	fmt.Fprintf(d.writer, "%sOr:\n", indent)
	d.dumpAnd(or.Left, indent+"  ")
	for _, right := range or.Right {
		d.dumpAnd(right, indent+"  ")
	}
}

func (d *ASTDumper) dumpAnd(and *ast.AndExpression, indent string) {
	if and == nil {
		return
	}
	if len(and.Right) == 0 {
		d.dumpNot(and.Left, indent)
		return
	}
	fmt.Fprintf(d.writer, "%sAnd:\n", indent)
	d.dumpNot(and.Left, indent+"  ")
	for _, right := range and.Right {
		d.dumpNot(right, indent+"  ")
	}
}

func (d *ASTDumper) dumpNot(not *ast.NotExpression, indent string) {
	if not == nil {
		return
	}
	if not.Negated != nil {
		fmt.Fprintf(d.writer, "%sNot:\n", indent)
		d.dumpNot(not.Negated, indent+"  ")
		return
	}
	d.dumpTerm(not.Term, indent)
}

func (d *ASTDumper) dumpTerm(term *ast.Term, indent string) {
	if term == nil {
		return
	}
	switch {
	case term.Call != nil:
		fmt.Fprintf(d.writer, "%sCall: %s (over=%s)\n", indent, term.Call.Func, term.Call.Over)
		d.dumpExpression(term.Call.Arg, indent+"  ")
	case term.Comparison != nil:
		d.dumpComparison(term.Comparison, indent)
	case term.Sub != nil:
		fmt.Fprintf(d.writer, "%sGroup:\n", indent)
		d.dumpExpression(term.Sub, indent+"  ")
	}
}

func (d *ASTDumper) dumpComparison(cmp *ast.Comparison, indent string) {
	if cmp.Op == "" {
		fmt.Fprintf(d.writer, "%s%s\n", indent, describeOperand(cmp.Left))
		return
	}
	fmt.Fprintf(d.writer, "%sCompare %s:\n", indent, cmp.Op)
	fmt.Fprintf(d.writer, "%s  %s\n", indent, describeOperand(cmp.Left))
	fmt.Fprintf(d.writer, "%s  %s\n", indent, describeOperand(cmp.Right))
}

func describeOperand(op *ast.Operand) string {
	if op == nil {
		return "nil"
	}
	if op.Literal != nil {
		return describeLiteral(op.Literal)
	}
	if op.IsConfig() {
		return fmt.Sprintf("Config: %s", op.ConfigKey())
	}
	return fmt.Sprintf("Attr: %s", op.Attr)
}

func describeLiteral(lit *ast.Literal) string {
	switch {
	case lit.Float != nil:
		return fmt.Sprintf("Number: %g", *lit.Float)
	case lit.Int != nil:
		return fmt.Sprintf("Number: %d", *lit.Int)
	case lit.Str != nil:
		return fmt.Sprintf("String: %q", *lit.Str)
	case lit.True != nil:
		return "Bool: true"
	case lit.False != nil:
		return "Bool: false"
	case lit.Inf != nil:
		return fmt.Sprintf("Inf: %s", *lit.Inf)
	}
	return "unknown"
}
