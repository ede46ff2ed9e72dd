// Package validus is a constraint evaluation engine for sparse
// multi-dimensional datasets. A rule set is an ordered list of fail and warn
// rules, each pairing a boolean where clause with a message template; the
// engine resolves clause references against a dataset of
// (technology, node, carrier) entities and reports every triggered rule.
package validus

// Severity classifies a rule's consequence when it triggers.
type Severity string

const (
	// SeverityFail marks the validated dataset invalid.
	SeverityFail Severity = "fail"
	// SeverityWarn is advisory and never blocks validation.
	SeverityWarn Severity = "warn"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s == SeverityFail || s == SeverityWarn
}

// Dataset is the accessor the evaluator resolves references against. It is
// fully materialized before evaluation begins and read-only afterwards, so
// implementations need no internal locking for concurrent evaluation.
type Dataset interface {
	// Get returns the value of attr for the given entity. The boolean is
	// false when the attribute is absent for that entity; absence is distinct
	// from zero or false.
	Get(e Entity, attr string) (Value, bool)

	// HasParameter reports whether attr is part of the dataset's parameter
	// vocabulary. A reference to an undeclared parameter is an evaluation
	// error, a declared-but-absent one is not.
	HasParameter(attr string) bool

	// ParameterDims returns the declared dimensions of attr, nil when attr
	// is not declared.
	ParameterDims(attr string) []string

	// DimensionValues returns the values along dim applicable to e, holding
	// e's other coordinates fixed. Unknown dimensions are an error.
	DimensionValues(e Entity, dim string) ([]string, error)

	// Config returns the global configuration value for a dotted key such as
	// "mode" or "solver.name".
	Config(key string) (Value, bool)

	// Entities enumerates the addressable instances over the given
	// dimensions in deterministic order.
	Entities(dims []string) []Entity
}
