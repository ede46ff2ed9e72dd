// Package engine runs a rule set against a dataset in a single bounded pass.
// Every where clause compiles before any evaluation starts, so a malformed
// rule aborts the run instead of being silently skipped: rules are
// configuration, and a broken rule means a broken rule set.
package engine

import (
	"context"
	"fmt"
	"sync"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/compiler"
	"github.com/validus/validus-go/eval"
	"github.com/validus/validus-go/report"
	"github.com/validus/validus-go/ruleset"
)

// State tracks the engine's position in its single-pass lifecycle.
type State string

const (
	StateLoaded     State = "loaded"
	StateEvaluating State = "evaluating"
	StateReported   State = "reported"
	StateFailed     State = "failed"
)

// Engine evaluates rule sets. A single engine is reusable across runs and
// shares its clause cache between them; it is safe for concurrent use.
type Engine struct {
	compiler *compiler.Compiler
	workers  int

	mu    sync.RWMutex
	state State
}

// Option configures an engine.
type Option func(*Engine)

// WithWorkers sets the evaluation worker count. Values below two select the
// serial path; the parallel path produces byte-identical reports.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithCompiler shares a clause compiler (and its cache) with other engine or
// lint instances.
func WithCompiler(c *compiler.Compiler) Option {
	return func(e *Engine) { e.compiler = c }
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{workers: 1, state: StateLoaded}
	for _, opt := range opts {
		opt(e)
	}
	if e.compiler == nil {
		e.compiler = compiler.NewCompiler()
	}
	return e
}

// State returns the lifecycle state of the most recent run.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// compiledRule pairs a rule with its compiled clause and inferred scope.
type compiledRule struct {
	rule     ruleset.Rule
	compiled *compiler.Compiled
	scope    []string
}

// task is one (rule, entity) evaluation with its preallocated result slot.
type task struct {
	rule   int
	entity int
}

// slot is the outcome of one task, written exactly once by its worker.
type slot struct {
	triggered bool
	bindings  eval.Bindings
	err       error
}

// Run evaluates every rule against every entity instance in the rule's
// inferred scope and returns the triggered entries as a report. Rule order
// and the dataset's entity enumeration order fix the report order, serial
// and parallel alike. Syntax and evaluation errors abort the run; triggered
// fail rules do not — they are the report's content, not an error.
func (e *Engine) Run(ctx context.Context, rs *ruleset.Ruleset, ds validus.Dataset) (*report.Report, error) {
	e.setState(StateEvaluating)

	rules := rs.Rules()
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		c, err := e.compiler.Compile(r.Where)
		if err != nil {
			e.setState(StateFailed)
			return nil, fmt.Errorf("rule %d (%s): %w", r.Index, r.Severity, err)
		}
		compiled[i] = compiledRule{rule: r, compiled: c, scope: inferScope(c, ds)}
	}

	entities := make([][]validus.Entity, len(compiled))
	results := make([][]slot, len(compiled))
	var tasks []task
	for i, cr := range compiled {
		entities[i] = ds.Entities(cr.scope)
		results[i] = make([]slot, len(entities[i]))
		for j := range entities[i] {
			tasks = append(tasks, task{rule: i, entity: j})
		}
	}

	ev := eval.New(ds)
	var err error
	if e.workers > 1 {
		err = e.runParallel(ctx, ev, compiled, entities, results, tasks)
	} else {
		err = e.runSerial(ctx, ev, compiled, entities, results, tasks)
	}
	if err != nil {
		e.setState(StateFailed)
		return nil, err
	}

	// Assembly in (rule index, entity order) makes the report independent of
	// evaluation interleaving.
	rep := &report.Report{}
	for i, cr := range compiled {
		for j, s := range results[i] {
			if !s.triggered {
				continue
			}
			ent := entities[i][j]
			rep.Add(report.Entry{
				Severity:  cr.rule.Severity,
				RuleIndex: cr.rule.Index,
				Where:     cr.rule.Where,
				Message:   report.Render(cr.rule.Message, ent, s.bindings),
				Entity:    ent,
				Values:    report.BindingValues(s.bindings),
			})
		}
	}
	e.setState(StateReported)
	return rep, nil
}

func (e *Engine) runSerial(ctx context.Context, ev *eval.Evaluator, compiled []compiledRule, entities [][]validus.Entity, results [][]slot, tasks []task) error {
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.evalTask(ev, compiled, entities, results, t); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runParallel(ctx context.Context, ev *eval.Evaluator, compiled []compiledRule, entities [][]validus.Entity, results [][]slot, tasks []task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := make(chan task)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range feed {
				if ctx.Err() != nil {
					return
				}
				if err := e.evalTask(ev, compiled, entities, results, t); err != nil {
					cancel()
					return
				}
			}
		}()
	}

	for _, t := range tasks {
		select {
		case feed <- t:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(feed)
	wg.Wait()

	for i := range results {
		for j := range results[i] {
			if err := results[i][j].err; err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

// evalTask evaluates one (rule, entity) pair into its slot. Errors land in
// the slot as well as the return, so the parallel path can surface the
// first error in deterministic task order after all workers stop.
func (e *Engine) evalTask(ev *eval.Evaluator, compiled []compiledRule, entities [][]validus.Entity, results [][]slot, t task) error {
	cr := compiled[t.rule]
	ent := entities[t.rule][t.entity]
	triggered, bindings, err := ev.Evaluate(cr.compiled.Expr, ent)
	if err != nil {
		err = fmt.Errorf("rule %d (%s): %w", cr.rule.Index, cr.rule.Severity, err)
		results[t.rule][t.entity] = slot{err: err}
		return err
	}
	results[t.rule][t.entity] = slot{triggered: triggered, bindings: bindings}
	return nil
}

// inferScope derives the entity dimensions a rule evaluates over. Rules that
// reference at least one dataset parameter evaluate per (tech, node) pair;
// the carrier axis joins only when a carrier-dimensioned parameter is
// referenced outside an any(..., over=carriers). A base dimension drops out
// when the clause quantifies over it and no reference leaves it uncollapsed.
// Rules touching only config keys evaluate once against the global entity.
func inferScope(c *compiler.Compiled, ds validus.Dataset) []string {
	open := make(map[string]bool)
	refsParam := false
	for _, use := range c.Attrs {
		if use.Config {
			continue
		}
		refsParam = true
		dims := ds.ParameterDims(use.Name)
		if dims == nil {
			// Unknown attribute: keep the base scope so evaluation runs and
			// reports it as an EvaluationError.
			dims = []string{validus.DimTechs, validus.DimNodes}
		}
		for _, d := range dims {
			if !containsDim(use.Collapsed, d) {
				open[d] = true
			}
		}
	}
	if !refsParam {
		return nil
	}

	var scope []string
	for _, d := range []string{validus.DimTechs, validus.DimNodes} {
		if open[d] || !containsDim(c.Dims, d) {
			scope = append(scope, d)
		}
	}
	if open[validus.DimCarriers] {
		scope = append(scope, validus.DimCarriers)
	}
	return scope
}

func containsDim(dims []string, dim string) bool {
	for _, d := range dims {
		if d == dim {
			return true
		}
	}
	return false
}
