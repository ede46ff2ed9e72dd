// Package report collects and renders triggered rules. The report is the
// single channel for domain-level outcomes: fail triggers mark the dataset
// invalid, warn triggers are advisory, and neither is ever an error value.
package report

import (
	"strings"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/eval"
)

// Entry is one triggered (rule, entity) pair.
type Entry struct {
	Severity  validus.Severity  `json:"severity"`
	RuleIndex int               `json:"rule_index"`
	Where     string            `json:"where"`
	Message   string            `json:"message"`
	Entity    validus.Entity    `json:"entity"`
	Values    map[string]string `json:"values,omitempty"`
}

// Report is the ordered outcome of one validation run, partitioned by
// severity. Entries preserve rule declaration order and, within a rule, the
// dataset's entity enumeration order, so an unchanged input reproduces a
// byte-identical report.
type Report struct {
	Fail []Entry `json:"fail"`
	Warn []Entry `json:"warn"`
}

// Add appends an entry to its severity partition.
func (r *Report) Add(e Entry) {
	if e.Severity == validus.SeverityFail {
		r.Fail = append(r.Fail, e)
		return
	}
	r.Warn = append(r.Warn, e)
}

// Failed reports whether any fail-severity rule triggered. This is the
// validity verdict: warn entries never affect it.
func (r *Report) Failed() bool { return len(r.Fail) > 0 }

// Len returns the total number of triggered entries.
func (r *Report) Len() int { return len(r.Fail) + len(r.Warn) }

// Entries returns the fail partition followed by the warn partition.
func (r *Report) Entries() []Entry {
	out := make([]Entry, 0, r.Len())
	out = append(out, r.Fail...)
	out = append(out, r.Warn...)
	return out
}

// Render interpolates a message template for the entity that triggered it.
// {tech}, {node} and {carrier} expand to the entity's coordinates and any
// {attr} placeholder expands to the bound value of that attribute. When the
// template names no entity placeholder the entity identity is appended, so
// every rendered line stays attributable to its instance.
func Render(template string, e validus.Entity, b eval.Bindings) string {
	msg := template
	named := false
	for placeholder, coord := range map[string]string{
		"{tech}":    e.Tech,
		"{node}":    e.Node,
		"{carrier}": e.Carrier,
	} {
		if strings.Contains(msg, placeholder) {
			msg = strings.ReplaceAll(msg, placeholder, coord)
			named = true
		}
	}
	for attr, v := range b {
		msg = strings.ReplaceAll(msg, "{"+attr+"}", v.String())
	}
	if !named && e != validus.Global {
		msg += " (" + e.String() + ")"
	}
	return msg
}

// BindingValues renders bindings into a plain string map for the entry's
// JSON shape, sorted-key iteration left to the consumer.
func BindingValues(b eval.Bindings) map[string]string {
	if len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(b))
	for attr, v := range b {
		out[attr] = v.String()
	}
	return out
}
