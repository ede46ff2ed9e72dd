// Package analysis builds dependency and coverage views of a rule set:
// which rules reference which parameters and dimensions, and how much of the
// declared vocabulary the rules exercise.
package analysis

import (
	"fmt"
	"sort"

	"github.com/validus/validus-go/compiler"
	"github.com/validus/validus-go/ruleset"
	"github.com/validus/validus-go/schema"
)

// Edge represents a dependency edge in the graph.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// CoverageReport summarizes parameter usage coverage against the vocabulary.
type CoverageReport struct {
	UsedAttributes    []string `json:"used_attributes"`
	UnknownAttributes []string `json:"unknown_attributes"`
	UnusedParameters  []string `json:"unused_parameters"`
}

// DependencyGraph captures the rules' usage of attributes, config keys and
// dimensions.
type DependencyGraph struct {
	Rules      []string       `json:"rules"`
	Attributes []string       `json:"attributes"`
	ConfigKeys []string       `json:"config_keys"`
	Dimensions []string       `json:"dimensions"`
	Edges      []Edge         `json:"edges"`
	Coverage   CoverageReport `json:"coverage"`
}

// BuildDependencyGraph compiles every rule and assembles the graph. A rule
// that fails to compile aborts the build: analysis shares the engine's view
// that a malformed rule set is fatal.
func BuildDependencyGraph(rs *ruleset.Ruleset, comp *compiler.Compiler, vocab *schema.Vocabulary) (DependencyGraph, error) {
	graph := DependencyGraph{}
	if rs == nil {
		return graph, nil
	}
	if comp == nil {
		comp = compiler.NewCompiler()
	}

	usedAttrs := make(map[string]struct{})
	usedConfig := make(map[string]struct{})
	usedDims := make(map[string]struct{})

	for _, rule := range rs.Rules() {
		name := fmt.Sprintf("%s[%d]", rule.Severity, rule.Index)
		graph.Rules = append(graph.Rules, name)

		compiled, err := comp.Compile(rule.Where)
		if err != nil {
			return DependencyGraph{}, fmt.Errorf("rule %d: %w", rule.Index, err)
		}

		for _, use := range compiled.Attrs {
			if use.Config {
				usedConfig[use.Name] = struct{}{}
				graph.Edges = append(graph.Edges, Edge{
					From: "rule:" + name,
					To:   "config:" + use.Name,
					Kind: "config",
				})
				continue
			}
			usedAttrs[use.Name] = struct{}{}
			graph.Edges = append(graph.Edges, Edge{
				From: "rule:" + name,
				To:   "attr:" + use.Name,
				Kind: "attr",
			})
		}
		for _, dim := range compiled.Dims {
			usedDims[dim] = struct{}{}
			graph.Edges = append(graph.Edges, Edge{
				From: "rule:" + name,
				To:   "dim:" + dim,
				Kind: "dim",
			})
		}
	}

	graph.Attributes = sortedKeys(usedAttrs)
	graph.ConfigKeys = sortedKeys(usedConfig)
	graph.Dimensions = sortedKeys(usedDims)
	graph.Coverage = buildCoverageReport(usedAttrs, vocab)
	return graph, nil
}

func buildCoverageReport(usedAttrs map[string]struct{}, vocab *schema.Vocabulary) CoverageReport {
	report := CoverageReport{}

	for attr := range usedAttrs {
		report.UsedAttributes = append(report.UsedAttributes, attr)
		if vocab != nil && !vocab.Has(attr) {
			report.UnknownAttributes = append(report.UnknownAttributes, attr)
		}
	}
	if vocab != nil {
		for _, p := range vocab.Parameters() {
			if _, ok := usedAttrs[p.Name]; !ok {
				report.UnusedParameters = append(report.UnusedParameters, p.Name)
			}
		}
	}

	sort.Strings(report.UsedAttributes)
	sort.Strings(report.UnknownAttributes)
	sort.Strings(report.UnusedParameters)
	return report
}

func sortedKeys(values map[string]struct{}) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
