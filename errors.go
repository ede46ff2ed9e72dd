package validus

import "fmt"

// SyntaxError reports a malformed where clause. It is fatal to a validation
// run: a broken rule means a broken rule set, not a broken dataset.
type SyntaxError struct {
	Clause string
	Line   int
	Column int
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at %d:%d in %q: %v", e.Line, e.Column, e.Clause, e.Err)
	}
	return fmt.Sprintf("syntax error in %q: %v", e.Clause, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// EvaluationError reports a reference to an unknown attribute, dimension or
// function while evaluating a clause. Like SyntaxError it aborts the run.
type EvaluationError struct {
	Clause string
	Entity Entity
	Err    error
}

func (e *EvaluationError) Error() string {
	if e.Entity != (Entity{}) {
		return fmt.Sprintf("evaluation error in %q (%s): %v", e.Clause, e.Entity, e.Err)
	}
	return fmt.Sprintf("evaluation error in %q: %v", e.Clause, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
